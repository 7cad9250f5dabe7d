package opqueue

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/google/uuid"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresConfig configures the connection pool PostgresStore opens.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// PostgresStore is the system-of-record Store implementation, following the
// connection-pool-tuning and embedded-migration conventions used
// throughout the rest of this tree's persistence layer.
type PostgresStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewPostgresStore opens a pool against cfg.DSN, runs embedded migrations,
// and verifies the connection.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("opqueue: postgres DSN must not be empty")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opqueue: open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opqueue: ping postgres: %w", err)
	}

	store := &PostgresStore{db: db, logger: log.New(log.Writer(), "[OpQueue] ", log.LstdFlags)}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opqueue: read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("opqueue: read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("opqueue: apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Enqueue(ctx context.Context, item Item) error {
	payload, err := json.Marshal(item.Op)
	if err != nil {
		return fmt.Errorf("opqueue: marshal op %s: %w", item.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO opqueue_items (id, bucket, status, attempts, op, ready_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			bucket = EXCLUDED.bucket, status = EXCLUDED.status, attempts = EXCLUDED.attempts,
			op = EXCLUDED.op, ready_at = EXCLUDED.ready_at, updated_at = EXCLUDED.updated_at
	`, item.ID, item.Bucket, item.Status, item.Attempts, payload, item.ReadyAt, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("opqueue: enqueue %s: %w", item.ID, err)
	}
	return nil
}

// ClaimNext picks the bucket among buckets whose opqueue_bucket_cursor was
// least recently advanced (round-robin fairness), takes its oldest ready
// item (FIFO within bucket), and marks it running in one transaction.
func (s *PostgresStore) ClaimNext(ctx context.Context, buckets []string) (*Item, error) {
	if len(buckets) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	placeholders := make([]string, len(buckets))
	args := make([]any, len(buckets)+1)
	args[0] = time.Now()
	for i, b := range buckets {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args[i+1] = b
	}

	row := tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT i.id, i.bucket, i.status, i.attempts, i.op, i.ready_at, i.created_at, i.updated_at
		FROM opqueue_items i
		LEFT JOIN opqueue_bucket_cursor c ON c.bucket = i.bucket
		WHERE i.status IN ('pending', 'deferred') AND i.ready_at <= $1 AND i.bucket IN (%s)
		ORDER BY COALESCE(c.last_claimed, to_timestamp(0)) ASC, i.ready_at ASC
		FOR UPDATE OF i SKIP LOCKED
		LIMIT 1
	`, strings.Join(placeholders, ",")), args...)

	var item Item
	var payload []byte
	if err := row.Scan(&item.ID, &item.Bucket, &item.Status, &item.Attempts, &payload,
		&item.ReadyAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("opqueue: claim next: %w", err)
	}
	if err := json.Unmarshal(payload, &item.Op); err != nil {
		return nil, fmt.Errorf("opqueue: unmarshal op %s: %w", item.ID, err)
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `UPDATE opqueue_items SET status='running', attempts=attempts+1, updated_at=$2 WHERE id=$1`,
		item.ID, now); err != nil {
		return nil, fmt.Errorf("opqueue: mark running %s: %w", item.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO opqueue_bucket_cursor (bucket, last_claimed) VALUES ($1, $2)
		ON CONFLICT (bucket) DO UPDATE SET last_claimed = EXCLUDED.last_claimed
	`, item.Bucket, now); err != nil {
		return nil, fmt.Errorf("opqueue: advance cursor %s: %w", item.Bucket, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	item.Status = StatusRunning
	item.Attempts++
	return &item, nil
}

func (s *PostgresStore) MarkDone(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE opqueue_items SET status='done', updated_at=$2 WHERE id=$1`, id, time.Now())
	return err
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id uuid.UUID, requeue bool, readyAt time.Time) error {
	status := "failed"
	if requeue {
		status = "pending"
	}
	_, err := s.db.ExecContext(ctx, `UPDATE opqueue_items SET status=$2, ready_at=$3, updated_at=$4 WHERE id=$1`,
		id, status, readyAt, time.Now())
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, bucket, status, attempts, op, ready_at, created_at, updated_at
		FROM opqueue_items WHERE id=$1
	`, id)
	var item Item
	var payload []byte
	if err := row.Scan(&item.ID, &item.Bucket, &item.Status, &item.Attempts, &payload,
		&item.ReadyAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &item.Op); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *PostgresStore) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM opqueue_items WHERE status IN ('pending','deferred','running')`).Scan(&n)
	return n, err
}
