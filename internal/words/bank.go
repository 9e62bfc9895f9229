package words

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Catalog is the word list together with its category labels.
type Catalog struct {
	Categories []string `json:"categories"`
	Words      []Word   `json:"words"`
}

// Bank serves reads from a snapshot of the store. The snapshot is loaded on
// first use and dropped on every mutation made through the bank.
type Bank struct {
	store Store
	log   *zap.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	snapshot []Word
	loaded   bool
}

// NewBank wraps store. A nil rng is seeded from the clock.
func NewBank(store Store, log *zap.Logger, rng *rand.Rand) *Bank {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Bank{store: store, log: log, rng: rng}
}

// Words returns the cached word list, loading it if needed.
func (b *Bank) Words(ctx context.Context) ([]Word, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wordsLocked(ctx)
}

func (b *Bank) wordsLocked(ctx context.Context) ([]Word, error) {
	if b.loaded {
		return slices.Clone(b.snapshot), nil
	}
	words, err := b.store.List(ctx)
	if err != nil {
		b.log.Error("failed to load words", zap.Error(err))
		return nil, err
	}
	b.snapshot = words
	b.loaded = true
	b.log.Debug("word snapshot loaded", zap.Int("count", len(words)))
	return slices.Clone(words), nil
}

// Invalidate drops the snapshot.
func (b *Bank) Invalidate() {
	b.mu.Lock()
	b.snapshot = nil
	b.loaded = false
	b.mu.Unlock()
}

// Random picks a word at level. ok is false when the level has no words.
func (b *Bank) Random(ctx context.Context, level Difficulty) (w Word, ok bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	words, err := b.wordsLocked(ctx)
	if err != nil {
		return Word{}, false, err
	}
	w, ok = PickRandom(b.rng, words, level)
	return w, ok, nil
}

// Catalog returns the categories and the word list.
func (b *Bank) Catalog(ctx context.Context) (Catalog, error) {
	words, err := b.Words(ctx)
	if err != nil {
		return Catalog{}, err
	}
	categories, err := b.store.Categories(ctx)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Categories: categories, Words: words}, nil
}

func (b *Bank) Get(ctx context.Context, id int) (Word, error) {
	return b.store.Get(ctx, id)
}

func (b *Bank) Create(ctx context.Context, w Word) (Word, error) {
	created, err := b.store.Create(ctx, w)
	if err != nil {
		return Word{}, err
	}
	b.Invalidate()
	b.log.Info("word created", zap.Int("id", created.ID), zap.String("word", created.Word))
	return created, nil
}

func (b *Bank) Update(ctx context.Context, id int, w Word) (Word, error) {
	updated, err := b.store.Update(ctx, id, w)
	if err != nil {
		return Word{}, err
	}
	b.Invalidate()
	b.log.Info("word updated", zap.Int("id", id))
	return updated, nil
}

func (b *Bank) Delete(ctx context.Context, id int) (Word, error) {
	deleted, err := b.store.Delete(ctx, id)
	if err != nil {
		return Word{}, err
	}
	b.Invalidate()
	b.log.Info("word deleted", zap.Int("id", id), zap.String("word", deleted.Word))
	return deleted, nil
}

// Close closes the underlying store.
func (b *Bank) Close() error {
	return b.store.Close()
}
