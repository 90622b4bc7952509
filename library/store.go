// Package library persists audio metadata in a SQLite database and keeps
// it in step with the files on disk.
package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/simonhull/audiolib"
	"github.com/simonhull/audiolib/internal/logger"
)

// ErrNotFound is returned by Tx.Find for an unknown URI.
var ErrNotFound = errors.New("library entry not found")

// Entry is one persisted library item, keyed by URI.
type Entry struct {
	Location     string `gorm:"column:uri;primaryKey"`
	Path         string `gorm:"index"`
	Format       string
	Title        string
	Album        string `gorm:"index"`
	Artist       string `gorm:"index"`
	AlbumArtist  string
	Genre        string
	Track        int
	Disc         int
	Year         int
	LengthMillis float64
	Size         int64
	Rating       int
	RatingMax    int
	Playcount    int
	Color        string
	LibraryAdded time.Time
	UpdatedAt    time.Time
}

func (Entry) TableName() string { return "library_entries" }

// NewEntry captures the persisted columns of m. added is used when the
// file carries no library-added time of its own.
func NewEntry(m *audiolib.Metadata, added time.Time) *Entry {
	e := &Entry{
		Location:     m.URI(),
		Path:         m.File(),
		Format:       m.Format().String(),
		Title:        m.Title(),
		Album:        m.Album(),
		Artist:       m.Artist(),
		AlbumArtist:  m.AlbumArtist(),
		Genre:        m.Genre(),
		Track:        m.Track(),
		Disc:         m.Disc(),
		Year:         m.Year(),
		LengthMillis: m.LengthMillis(),
		Size:         m.Size(),
		Rating:       m.Rating(),
		RatingMax:    m.RatingMax(),
		Playcount:    m.Playcount(),
		Color:        m.Color(),
		LibraryAdded: m.LibraryAdded(),
	}
	if e.LibraryAdded.IsZero() {
		e.LibraryAdded = added
	}
	return e
}

// Entries are items, so a stored entry can be read or written again.
func (e *Entry) URI() string       { return e.Location }
func (e *Entry) IsFileBased() bool { return e.Path != "" }
func (e *Entry) File() string      { return e.Path }
func (e *Entry) IsCorrupt() bool   { return false }

// Tx is the view of the store inside a transaction.
type Tx interface {
	Find(uri string) (*Entry, error)
	Persist(e *Entry) error
	Remove(uri string) error
}

// Store is a SQLite-backed library. It is safe for concurrent use.
type Store struct {
	db *gorm.DB

	mu        sync.Mutex
	listeners []func()
}

// StoreOption configures Open.
type StoreOption func(*gorm.Config)

// WithSQLLog logs every statement through gorm's default logger.
func WithSQLLog() StoreOption {
	return func(c *gorm.Config) {
		c.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}
}

// Open opens or creates the database at path and migrates the schema.
// ":memory:" opens a private in-memory database.
func Open(path string, opts ...StoreOption) (*Store, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(cfg)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open library database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive for the life of the store.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate library schema: %w", err)
	}
	logger.Debug("library opened", zap.String("path", path))
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OnRefresh registers fn to run after every transaction that changed the
// library, once per transaction.
func (s *Store) OnRefresh(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) refresh() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Transaction runs fn in one database transaction. An error from fn rolls
// back every change it made.
func (s *Store) Transaction(ctx context.Context, fn func(Tx) error) error {
	var changed int
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := &gormTx{db: db}
		if err := fn(tx); err != nil {
			return err
		}
		changed = tx.changed
		return nil
	})
	if err != nil {
		return err
	}
	if changed > 0 {
		s.refresh()
	}
	return nil
}

// All returns every entry ordered by artist, album, disc, track and
// title.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Order("artist, album, disc, track, title").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return entries, nil
}

// URIs returns the set of stored URIs.
func (s *Store) URIs(ctx context.Context) (map[string]struct{}, error) {
	var uris []string
	if err := s.db.WithContext(ctx).Model(&Entry{}).Pluck("uri", &uris).Error; err != nil {
		return nil, fmt.Errorf("list library uris: %w", err)
	}
	set := make(map[string]struct{}, len(uris))
	for _, u := range uris {
		set[u] = struct{}{}
	}
	return set, nil
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Entry{}).Count(&n).Error
	return n, err
}

type gormTx struct {
	db      *gorm.DB
	changed int
}

func (t *gormTx) Find(uri string) (*Entry, error) {
	var e Entry
	err := t.db.Where("uri = ?", uri).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *gormTx) Persist(e *Entry) error {
	if e.Location == "" {
		return errors.New("persist entry: empty URI")
	}
	if err := t.db.Save(e).Error; err != nil {
		return fmt.Errorf("persist %s: %w", e.Location, err)
	}
	t.changed++
	return nil
}

func (t *gormTx) Remove(uri string) error {
	res := t.db.Where("uri = ?", uri).Delete(&Entry{})
	if res.Error != nil {
		return fmt.Errorf("remove %s: %w", uri, res.Error)
	}
	t.changed += int(res.RowsAffected)
	return nil
}
