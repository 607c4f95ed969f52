package cloudserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mmcdole/foodpin/internal/adapter/cloud"
	"github.com/mmcdole/foodpin/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	seq         BIGSERIAL PRIMARY KEY,
	record_name TEXT NOT NULL UNIQUE,
	record_type TEXT NOT NULL,
	fields      JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	modified_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS records_type_seq ON records (record_type, seq);
`

const recordColumns = `seq, record_name, record_type, fields, created_at, modified_at`

// PostgresRepository implements Repository on Postgres
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenPostgres connects to dsn and creates the schema
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("connected to database")
	return &PostgresRepository{db: db, logger: logger}, nil
}

func (p *PostgresRepository) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresRepository) Close() error {
	return p.db.Close()
}

// buildQuery renders q as SQL with positional arguments
func buildQuery(q domain.Query, after int64, limit int) (string, []any, error) {
	var sb strings.Builder
	args := []any{q.RecordType, after}
	sb.WriteString(`SELECT ` + recordColumns + ` FROM records WHERE record_type = $1 AND seq > $2`)

	for _, f := range q.Filters {
		args = append(args, f.FieldName, f.Value)
		field, value := len(args)-1, len(args)
		switch f.Comparator {
		case domain.ComparatorEquals:
			fmt.Fprintf(&sb, ` AND fields->($%d::text)->>'value' = $%d::text`, field, value)
		case domain.ComparatorBeginsWith:
			fmt.Fprintf(&sb, ` AND starts_with(fields->($%d::text)->>'value', $%d::text)`, field, value)
		default:
			return "", nil, fmt.Errorf("unsupported comparator %q", f.Comparator)
		}
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, ` ORDER BY seq LIMIT $%d`, len(args))
	return sb.String(), args, nil
}

func (p *PostgresRepository) Query(ctx context.Context, q domain.Query, after int64, limit int) ([]StoredRecord, error) {
	query, args, err := buildQuery(q, after, limit)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *PostgresRepository) Lookup(ctx context.Context, names []string) (map[string]StoredRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE record_name = ANY($1)`,
		pq.Array(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]StoredRecord, len(names))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out[rec.Name] = rec
	}
	return out, rows.Err()
}

func (p *PostgresRepository) Save(ctx context.Context, rec StoredRecord) (StoredRecord, error) {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return StoredRecord{}, err
	}

	err = p.db.QueryRowContext(ctx, `
		INSERT INTO records (record_name, record_type, fields)
		VALUES ($1, $2, $3)
		ON CONFLICT (record_name) DO UPDATE
		SET record_type = EXCLUDED.record_type, fields = EXCLUDED.fields, modified_at = now()
		RETURNING seq, created_at, modified_at`,
		rec.Name, rec.Type, string(fields),
	).Scan(&rec.Seq, &rec.Created, &rec.Modified)
	if err != nil {
		return StoredRecord{}, err
	}
	return rec, nil
}

func (p *PostgresRepository) Delete(ctx context.Context, name string) (StoredRecord, error) {
	row := p.db.QueryRowContext(ctx,
		`DELETE FROM records WHERE record_name = $1 RETURNING `+recordColumns, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRecord{}, domain.ErrRecordNotFound
	}
	return rec, err
}

func (p *PostgresRepository) AssetInUse(ctx context.Context, objectKey string) (bool, error) {
	var inUse bool
	err := p.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM records, jsonb_each(fields) AS f
			WHERE f.value->>'type' = $1 AND f.value->'value'->>'objectKey' = $2
		)`,
		cloud.TypeAssetID, objectKey,
	).Scan(&inUse)
	return inUse, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (StoredRecord, error) {
	var rec StoredRecord
	var fields []byte
	if err := s.Scan(&rec.Seq, &rec.Name, &rec.Type, &fields, &rec.Created, &rec.Modified); err != nil {
		return StoredRecord{}, err
	}
	rec.Fields = make(map[string]cloud.FieldDTO)
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return StoredRecord{}, fmt.Errorf("record %s: bad fields: %w", rec.Name, err)
	}
	return rec, nil
}
