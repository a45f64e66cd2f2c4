package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/partyroom-backend/internal/config"
)

// Store is an opaque key/value blob store keyed by room code.
type Store interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, code string, e Entry) error
	Close() error
}

// Open builds the backend selected in cfg.
func Open(cfg config.Stats) (Store, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.File), nil
	case "postgres":
		return OpenPostgres(cfg.PostgresDSN)
	case "redis":
		return NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
		}), cfg.RedisKey), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown stats backend %q", cfg.Backend)
	}
}

// FileStore keeps every room's entry in one JSON object on disk.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.read(); err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(s.entries))
	for code, e := range s.entries {
		e.Players = e.Players.Clone()
		out[code] = e
	}
	return out, nil
}

func (s *FileStore) read() error {
	s.entries = make(map[string]Entry)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}
	return nil
}

// Save rewrites the whole file through a temp file + rename so a crash mid-write
// leaves the previous version intact.
func (s *FileStore) Save(ctx context.Context, code string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		if err := s.read(); err != nil {
			return err
		}
	}
	s.entries[code] = e

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

type ledgerRow struct {
	Code      string `gorm:"primaryKey;size:8"`
	Payload   string `gorm:"type:text;not null"`
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`
}

func (ledgerRow) TableName() string { return "room_ledgers" }

// PostgresStore stores each entry as a JSON text column in room_ledgers.
type PostgresStore struct {
	db *gorm.DB
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db)
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&ledgerRow{}); err != nil {
		return nil, fmt.Errorf("migrate room_ledgers: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]Entry, error) {
	var rows []ledgerRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load room_ledgers: %w", err)
	}
	out := make(map[string]Entry, len(rows))
	for _, row := range rows {
		var e Entry
		if err := json.Unmarshal([]byte(row.Payload), &e); err != nil {
			return nil, fmt.Errorf("decode ledger %s: %w", row.Code, err)
		}
		out[row.Code] = e
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, code string, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", code, err)
	}
	row := ledgerRow{Code: code, Payload: string(payload)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save ledger %s: %w", code, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RedisStore keeps entries as fields of a single hash.
type RedisStore struct {
	cli *redis.Client
	key string
}

func NewRedisStore(cli *redis.Client, key string) *RedisStore {
	return &RedisStore{cli: cli, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]Entry, error) {
	fields, err := s.cli.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}
	out := make(map[string]Entry, len(fields))
	for code, payload := range fields {
		var e Entry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode ledger %s: %w", code, err)
		}
		out[code] = e
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, code string, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode ledger %s: %w", code, err)
	}
	if err := s.cli.HSet(ctx, s.key, code, payload).Err(); err != nil {
		return fmt.Errorf("save ledger %s: %w", code, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.cli.Close() }

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Load(ctx context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.entries))
	for code, e := range s.entries {
		e.Players = e.Players.Clone()
		out[code] = e
	}
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, code string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Players = e.Players.Clone()
	s.entries[code] = e
	return nil
}

func (s *MemoryStore) Close() error { return nil }
