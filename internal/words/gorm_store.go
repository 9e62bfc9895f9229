package words

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/palemoky/spelling-bee/internal/apperrors"
	"github.com/palemoky/spelling-bee/internal/config"
)

// wordRecord is the relational row. WordKey carries the case-folded word
// so the unique index is portable across postgres and sqlite.
type wordRecord struct {
	ID         int    `gorm:"primaryKey"`
	Word       string `gorm:"size:128;not null"`
	WordKey    string `gorm:"size:128;not null;uniqueIndex"`
	Sentence   string `gorm:"type:text"`
	Definition string `gorm:"type:text"`
	Difficulty int    `gorm:"not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (wordRecord) TableName() string { return "words" }

func toRecord(w Word) wordRecord {
	return wordRecord{
		ID:         w.ID,
		Word:       w.Word,
		WordKey:    w.Key(),
		Sentence:   w.Sentence,
		Definition: w.Definition,
		Difficulty: int(w.Difficulty),
	}
}

func (r wordRecord) toWord() Word {
	return Word{
		ID:         r.ID,
		Word:       r.Word,
		Sentence:   r.Sentence,
		Definition: r.Definition,
		Difficulty: Difficulty(r.Difficulty),
	}
}

// OpenDB connects to postgres or sqlite through gorm.
func OpenDB(backend, dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch backend {
	case config.BackendPostgres:
		dialector = postgres.Open(dsn)
	case config.BackendSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	log.Info("word database opened", zap.String("backend", backend))
	return db, nil
}

// GormStore keeps the word bank in a relational table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the words table and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&wordRecord{}); err != nil {
		return nil, fmt.Errorf("migrate words: %w", err)
	}
	return &GormStore{db: db}, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrWordNotFound
	}
	return err
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrDuplicateWord
	}
	return err
}

func (s *GormStore) List(ctx context.Context) ([]Word, error) {
	var recs []wordRecord
	if err := s.db.WithContext(ctx).Order("word_key asc, id asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]Word, len(recs))
	for i, r := range recs {
		out[i] = r.toWord()
	}
	return out, nil
}

func (s *GormStore) Get(ctx context.Context, id int) (Word, error) {
	var rec wordRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return Word{}, notFound(err)
	}
	return rec.toWord(), nil
}

func (s *GormStore) Create(ctx context.Context, w Word) (Word, error) {
	if err := w.Validate(); err != nil {
		return Word{}, err
	}
	rec := toRecord(w)
	rec.ID = 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&wordRecord{}).Where("word_key = ?", rec.WordKey).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrDuplicateWord
		}
		return duplicate(tx.Create(&rec).Error)
	})
	if err != nil {
		return Word{}, err
	}
	return rec.toWord(), nil
}

func (s *GormStore) Update(ctx context.Context, id int, w Word) (Word, error) {
	if err := w.Validate(); err != nil {
		return Word{}, err
	}

	var rec wordRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err)
		}
		var count int64
		if err := tx.Model(&wordRecord{}).
			Where("word_key = ? AND id <> ?", w.Key(), id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrDuplicateWord
		}
		updated := toRecord(w)
		updated.ID = id
		updated.CreatedAt = rec.CreatedAt
		rec = updated
		return duplicate(tx.Save(&rec).Error)
	})
	if err != nil {
		return Word{}, err
	}
	return rec.toWord(), nil
}

func (s *GormStore) Delete(ctx context.Context, id int) (Word, error) {
	var rec wordRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, id).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&wordRecord{}, id).Error
	})
	if err != nil {
		return Word{}, err
	}
	return rec.toWord(), nil
}

// Categories is always empty for the relational store.
func (s *GormStore) Categories(context.Context) ([]string, error) {
	return []string{}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
