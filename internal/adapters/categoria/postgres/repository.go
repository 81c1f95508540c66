package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"3tcapital/ms_comprobantes_sri/internal/core/categoria"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the categoria.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL category repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) categoria.Repository {
	return &Repository{pool: pool, log: log}
}

// Load returns every learned emitter.
func (r *Repository) Load(ctx context.Context) (map[string]categoria.Category, error) {
	query := `
		SELECT nombre, detalle, memo
		FROM categoria_empresa
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categoria_empresa: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]categoria.Category)
	for rows.Next() {
		var nombre string
		var c categoria.Category
		if err := rows.Scan(&nombre, &c.Detalle, &c.Memo); err != nil {
			return nil, fmt.Errorf("scan categoria_empresa: %w", err)
		}
		entries[nombre] = c
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}

// Save upserts entries in a single transaction.
func (r *Repository) Save(ctx context.Context, entries map[string]categoria.Category) error {
	query := `
		INSERT INTO categoria_empresa (nombre, detalle, memo, fecha_modificacion)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (nombre) DO UPDATE SET
			detalle = EXCLUDED.detalle,
			memo = EXCLUDED.memo,
			fecha_modificacion = NOW()
	`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for nombre, c := range entries {
		batch.Queue(query, nombre, c.Detalle, c.Memo)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert categoria_empresa: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if r.log != nil {
		r.log.Debug("Category memory saved to database", "entries", len(entries))
	}
	return nil
}
