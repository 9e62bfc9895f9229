// Package httpapi serves the HTTP surface next to the websocket relay:
// event triggers, room codes and the word bank.
package httpapi

import (
	"context"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/relay"
	"github.com/palemoky/spelling-bee/internal/room"
	"github.com/palemoky/spelling-bee/internal/server/storage"
	"github.com/palemoky/spelling-bee/internal/words"
)

// RoomLister lists mirrored rooms, e.g. storage.RedisStore.
type RoomLister interface {
	ListRooms(ctx context.Context) ([]*storage.RoomData, error)
}

// Deps are the services behind the API. Mirror may be nil.
type Deps struct {
	Relay     relay.Publisher
	Registry  *room.Registry
	Bank      *words.Bank
	Mirror    RoomLister
	PublicURL string
	Logger    *zap.Logger
	Rand      *rand.Rand
}

// API holds the handlers.
type API struct {
	relay     relay.Publisher
	registry  *room.Registry
	bank      *words.Bank
	mirror    RoomLister
	publicURL string
	log       *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds the API.
func New(deps Deps) *API {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := deps.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &API{
		relay:     deps.Relay,
		registry:  deps.Registry,
		bank:      deps.Bank,
		mirror:    deps.Mirror,
		publicURL: deps.PublicURL,
		log:       log,
		rng:       rng,
	}
}

// Routes mounts under /api.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/pusher/{event}", a.TriggerEvent)

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", a.CreateRoom)
		r.Get("/", a.ListRooms)
		r.Get("/{code}", a.GetRoom)
		r.Get("/{code}/qr.png", a.RoomQRCode)
	})

	r.Route("/words", func(r chi.Router) {
		r.Get("/", a.ListWords)
		r.Post("/", a.CreateWord)
		r.Get("/random", a.RandomWord)
		r.Get("/{id}", a.GetWord)
		r.Put("/{id}", a.UpdateWord)
		r.Delete("/{id}", a.DeleteWord)
	})
	return r
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
