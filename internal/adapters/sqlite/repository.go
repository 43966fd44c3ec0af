package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"investSandbox/internal/domain"
	"investSandbox/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.CandleRepository using SQLite. The snapshot
// database is written once by the fetch tool and only read at server start.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (and if needed creates) the candle snapshot database.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository: %w", ports.ErrConfigurationError)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/candles.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "candle snapshot database ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS candles (
		figi TEXT NOT NULL,
		interval TEXT NOT NULL,
		time TIMESTAMP NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (figi, interval, time)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_interval ON candles (interval);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "closing candle snapshot database")
		return r.db.Close()
	}
	return nil
}

// SaveSeries upserts a candle series. Keyed by (figi, interval, time), so
// re-fetching an overlapping range is idempotent.
func (r *Repository) SaveSeries(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
	INSERT OR REPLACE INTO candles (figi, interval, time, open, high, low, close, volume)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, c.FIGI, string(c.Interval), c.Time.UTC(),
			c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("failed to insert candle %s@%s: %w", c.FIGI, c.Time, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}
	r.logger.Debug(ctx, "candle series saved", map[string]interface{}{"count": len(candles)})
	return nil
}

// Series returns the candles for one instrument and interval, ordered by
// time ascending.
func (r *Repository) Series(ctx context.Context, figi string, interval domain.CandleInterval) ([]domain.Candle, error) {
	const query = `
	SELECT figi, interval, time, open, high, low, close, volume
	FROM candles
	WHERE figi = ? AND interval = ?
	ORDER BY time ASC`

	rows, err := r.db.QueryContext(ctx, query, figi, string(interval))
	if err != nil {
		return nil, fmt.Errorf("failed to query series for figi %s: %w", figi, ports.ErrQueryFailed)
	}
	defer rows.Close()
	return scanCandles(rows)
}

// LoadAll returns every stored series for the given interval, keyed by figi.
func (r *Repository) LoadAll(ctx context.Context, interval domain.CandleInterval) (map[string][]domain.Candle, error) {
	const query = `
	SELECT figi, interval, time, open, high, low, close, volume
	FROM candles
	WHERE interval = ?
	ORDER BY figi ASC, time ASC`

	rows, err := r.db.QueryContext(ctx, query, string(interval))
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot for interval %s: %w", interval, ports.ErrQueryFailed)
	}
	defer rows.Close()

	candles, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}
	series := make(map[string][]domain.Candle)
	for _, c := range candles {
		series[c.FIGI] = append(series[c.FIGI], c)
	}
	r.logger.Info(ctx, "candle snapshot loaded", map[string]interface{}{
		"interval": string(interval), "instruments": len(series), "candles": len(candles),
	})
	return series, nil
}

func scanCandles(rows *sql.Rows) ([]domain.Candle, error) {
	var out []domain.Candle
	for rows.Next() {
		var c domain.Candle
		var interval string
		if err := rows.Scan(&c.FIGI, &interval, &c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle row: %w", err)
		}
		c.Interval = domain.CandleInterval(interval)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candle row iteration failed: %w", err)
	}
	return out, nil
}
