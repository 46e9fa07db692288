package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sleighlabs/nicelist/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunjson"
	"go.uber.org/zap"
)

// sonicProvider is a JSON provider that uses Sonic for encoding and decoding.
type sonicProvider struct{}

func (sonicProvider) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (sonicProvider) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func (sonicProvider) NewEncoder(w io.Writer) bunjson.Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

func (sonicProvider) NewDecoder(r io.Reader) bunjson.Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

// statusRow is the table model for durable status records.
type statusRow struct {
	bun.BaseModel `bun:"table:status_records,alias:sr"`

	ID     string  `bun:"id,pk"`
	Handle string  `bun:"handle,notnull,unique"`
	Status string  `bun:"status,notnull"`
	Score  float64 `bun:"score,notnull,default:0"`
}

// Postgres is a StatusStore backed by Postgres through bun. Record ids are
// uuids generated on create so the contract matches the document store.
type Postgres struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPostgres establishes the database connection and ensures the status
// table exists.
func NewPostgres(ctx context.Context, cfg *config.PostgreSQL, logger *zap.Logger) (*Postgres, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		pgdriver.WithUser(cfg.User),
		pgdriver.WithPassword(cfg.Password),
		pgdriver.WithDatabase(cfg.DBName),
		pgdriver.WithInsecure(true),
		pgdriver.WithApplicationName("nicelist"),
	))

	// Set connection pool settings
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)
	sqldb.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Minute)

	// Set Sonic as the JSON provider
	bunjson.SetProvider(sonicProvider{})

	db := bun.NewDB(sqldb, pgdialect.New())

	if _, err := db.NewCreateTable().
		Model((*statusRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create status table: %w", err)
	}

	logger.Named("postgres").Info("Connected to status database",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName))

	return &Postgres{
		db:     db,
		logger: logger.Named("postgres"),
	}, nil
}

// Find implements StatusStore.
func (p *Postgres) Find(ctx context.Context, handle string) (*Record, error) {
	row := new(statusRow)

	err := p.db.NewSelect().
		Model(row).
		Where("handle = ?", handle).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to query status record: %w", err)
	}

	return &Record{
		ID:     row.ID,
		Handle: row.Handle,
		Status: row.Status,
		Score:  row.Score,
	}, nil
}

// Create implements StatusStore, generating the opaque record id.
func (p *Postgres) Create(ctx context.Context, record *Record) (string, error) {
	row := &statusRow{
		ID:     uuid.New().String(),
		Handle: record.Handle,
		Status: record.Status,
		Score:  record.Score,
	}

	if _, err := p.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to insert status record: %w", err)
	}

	return row.ID, nil
}

// Patch implements StatusStore, updating only the mutable fields.
func (p *Postgres) Patch(ctx context.Context, id, status string, score float64) error {
	result, err := p.db.NewUpdate().
		Model((*statusRow)(nil)).
		Set("status = ?", status).
		Set("score = ?", score).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update status record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("no status record with id %s", id)
	}

	return nil
}

// Close gracefully shuts down the database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}
