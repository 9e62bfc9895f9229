package words

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/palemoky/spelling-bee/internal/config"
)

// Store is the word bank persistence contract.
type Store interface {
	// List returns all words ordered by word text.
	List(ctx context.Context) ([]Word, error)
	Get(ctx context.Context, id int) (Word, error)
	Create(ctx context.Context, w Word) (Word, error)
	Update(ctx context.Context, id int, w Word) (Word, error)
	Delete(ctx context.Context, id int) (Word, error)
	// Categories returns the category labels kept alongside the words.
	Categories(ctx context.Context) ([]string, error)
	Close() error
}

// OpenStore opens the backend selected by cfg.
func OpenStore(cfg config.WordsConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.File)
	case config.BackendPostgres, config.BackendSQLite:
		db, err := OpenDB(cfg.Backend, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db)
	default:
		return nil, fmt.Errorf("unknown words backend %q", cfg.Backend)
	}
}
