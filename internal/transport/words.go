package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/palemoky/spelling-bee/internal/words"
)

// WordAPI reads the word bank over the server's HTTP API. It satisfies
// session.WordSource for judges that have no local word file.
type WordAPI struct {
	base string
	http *http.Client
}

// NewWordAPI takes the server's base URL, e.g. http://localhost:3000.
func NewWordAPI(baseURL string, client *http.Client) *WordAPI {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WordAPI{base: strings.TrimRight(baseURL, "/"), http: client}
}

// FetchWords returns the whole catalog.
func (a *WordAPI) FetchWords(ctx context.Context) (words.Catalog, error) {
	var catalog words.Catalog
	status, err := a.get(ctx, "/api/words", &catalog)
	if err != nil {
		return words.Catalog{}, err
	}
	if status != http.StatusOK {
		return words.Catalog{}, fmt.Errorf("fetch words: unexpected status %d", status)
	}
	return catalog, nil
}

// Random asks the server for a word at level. A 204 means the level is
// empty and is reported as ok=false.
func (a *WordAPI) Random(ctx context.Context, level words.Difficulty) (words.Word, bool, error) {
	var sel words.Selection
	status, err := a.get(ctx, "/api/words/random?difficulty="+url.QueryEscape(strconv.Itoa(int(level))), &sel)
	if err != nil {
		return words.Word{}, false, err
	}
	switch status {
	case http.StatusOK:
		return sel.Word, true, nil
	case http.StatusNoContent:
		return words.Word{}, false, nil
	default:
		return words.Word{}, false, fmt.Errorf("random word: unexpected status %d", status)
	}
}

func (a *WordAPI) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.StatusCode, nil
}
