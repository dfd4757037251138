package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	"github.com/Elish-Ab/qualify-law/internal/query"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the record-store contract on Postgres. Each
// collection is a table holding a JSONB field bag, so the schema matches
// whatever the hosted base defines without migrations per field.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// collectionTables whitelists the collections this store serves. Table
// names never come from request input.
var collectionTables = map[string]string{
	interfaces.CollectionUsers:   "store_users",
	interfaces.CollectionClients: "store_clients",
	interfaces.CollectionLeads:   "store_leads",
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, table := range collectionTables {
		_, err := s.pool.Exec(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				fields JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`, table))
		if err != nil {
			return fmt.Errorf("create %s table: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) table(collection string) (string, error) {
	t, ok := collectionTables[collection]
	if !ok {
		return "", fmt.Errorf("store: unknown collection %q", collection)
	}
	return t, nil
}

func (s *PostgresStore) Select(ctx context.Context, collection string, filter *query.Predicate, opts interfaces.SelectOptions) ([]interfaces.Record, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	builder := sq.Select("id", "fields", "created_at").From(table).PlaceholderFormat(sq.Dollar)
	if filter != nil {
		cond, err := sqlCondition(filter)
		if err != nil {
			return nil, err
		}
		builder = builder.Where(cond)
	}
	if opts.SortField != "" {
		if opts.SortField == query.FieldCreatedTime {
			builder = builder.OrderBy("created_at " + sortDirection(opts.SortDesc))
		} else {
			builder = builder.OrderByClause("fields->>? "+sortDirection(opts.SortDesc), opts.SortField)
		}
	}
	if opts.PageSize > 0 {
		builder = builder.Limit(uint64(opts.PageSize))
	}

	sqlText, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []interfaces.Record
	for rows.Next() {
		var rec interfaces.Record
		if err := rows.Scan(&rec.ID, &rec.Fields, &rec.CreatedTime); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Find(ctx context.Context, collection, id string) (*interfaces.Record, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	var rec interfaces.Record
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT id, fields, created_at FROM %s WHERE id = $1", table),
		id).Scan(&rec.ID, &rec.Fields, &rec.CreatedTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, fields map[string]any) (*interfaces.Record, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	id := "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	var rec interfaces.Record
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf("INSERT INTO %s (id, fields) VALUES ($1, $2) RETURNING id, fields, created_at", table),
		id, fields).Scan(&rec.ID, &rec.Fields, &rec.CreatedTime)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) (*interfaces.Record, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	var rec interfaces.Record
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf("UPDATE %s SET fields = fields || $2 WHERE id = $1 RETURNING id, fields, created_at", table),
		id, fields).Scan(&rec.ID, &rec.Fields, &rec.CreatedTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("store: record %s not found in %s", id, collection)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func sortDirection(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

// sqlCondition translates a predicate tree into a squirrel expression over
// the JSONB field bag. Values travel as bind parameters, never as SQL text.
func sqlCondition(p *query.Predicate) (sq.Sqlizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return sqlNode(p)
}

func sqlNode(p *query.Predicate) (sq.Sqlizer, error) {
	switch p.Op {
	case query.OpAnd, query.OpOr:
		parts := make([]sq.Sqlizer, len(p.Children))
		for i, c := range p.Children {
			node, err := sqlNode(c)
			if err != nil {
				return nil, err
			}
			parts[i] = node
		}
		if p.Op == query.OpAnd {
			conj := make(sq.And, len(parts))
			copy(conj, parts)
			return conj, nil
		}
		disj := make(sq.Or, len(parts))
		copy(disj, parts)
		return disj, nil
	case query.OpEq:
		return sq.Expr("fields->>? = ?", p.Field, p.Value), nil
	case query.OpEqFold:
		return sq.Expr("LOWER(fields->>?) = LOWER(?)", p.Field, p.Value), nil
	case query.OpContains:
		return sq.Expr("strpos(COALESCE(fields->>?, ''), ?) > 0", p.Field, p.Value), nil
	case query.OpLinksTo:
		// Linked-record fields are stored as JSONB string arrays.
		return sq.Expr("jsonb_exists(COALESCE(fields->?, '[]'::jsonb), ?)", p.Field, p.Value), nil
	}
	return nil, fmt.Errorf("store: unsupported predicate op %d", p.Op)
}
