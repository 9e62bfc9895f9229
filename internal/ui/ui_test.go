package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebsocketURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"http://localhost:3000":    "ws://localhost:3000/ws",
		"https://bee.example.com/": "wss://bee.example.com/ws",
		"localhost:3000":           "ws://localhost:3000/ws",
		"ws://localhost:3000/ws":   "ws://localhost:3000/ws",
		"wss://bee.example.com":    "wss://bee.example.com/ws",
	}
	for in, want := range tests {
		assert.Equal(t, want, WebsocketURL(in), in)
	}
}

func TestHTTPURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"ws://localhost:3000/ws":   "http://localhost:3000",
		"wss://bee.example.com/ws": "https://bee.example.com",
		"https://bee.example.com/": "https://bee.example.com",
		"localhost:3000":           "http://localhost:3000",
	}
	for in, want := range tests {
		assert.Equal(t, want, HTTPURL(in), in)
	}
}
