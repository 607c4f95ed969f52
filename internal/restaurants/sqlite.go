package restaurants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mmcdole/foodpin/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS restaurants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		image BLOB,
		is_visited INTEGER NOT NULL DEFAULT 0,
		rating TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_restaurants_name ON restaurants(name COLLATE NOCASE);
	PRAGMA journal_mode=WAL;
	PRAGMA synchronous=NORMAL;
	PRAGMA temp_store=MEMORY;
`

const selectColumns = `id, name, type, location, phone, image, is_visited, rating, created_at, updated_at`

// Store implements domain.RestaurantStore on SQLite
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the restaurant database at path
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("restaurant database opened", "path", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a restaurant and sets its ID and timestamps
func (s *Store) Create(ctx context.Context, r *domain.Restaurant) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("restaurant name is required")
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO restaurants (name, type, location, phone, image, is_visited, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.Name,
		r.Type,
		r.Location,
		r.Phone,
		r.Image,
		r.IsVisited,
		r.Rating,
		now.UnixMilli(),
		now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert restaurant: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read restaurant id: %w", err)
	}
	r.ID = id
	r.CreatedAt = time.UnixMilli(now.UnixMilli())
	r.UpdatedAt = r.CreatedAt
	return nil
}

// Get returns one restaurant
func (s *Store) Get(ctx context.Context, id int64) (*domain.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM restaurants WHERE id = ?`, id)
	r, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant %d: %w", id, err)
	}
	return r, nil
}

// List returns every restaurant ordered by name
func (s *Store) List(ctx context.Context) ([]*domain.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM restaurants
		ORDER BY name COLLATE NOCASE, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	defer rows.Close()

	var list []*domain.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// Update replaces every field of an existing restaurant
func (s *Store) Update(ctx context.Context, r *domain.Restaurant) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE restaurants
		SET name = ?, type = ?, location = ?, phone = ?, image = ?, is_visited = ?, rating = ?, updated_at = ?
		WHERE id = ?
	`,
		r.Name,
		r.Type,
		r.Location,
		r.Phone,
		r.Image,
		r.IsVisited,
		r.Rating,
		now.UnixMilli(),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update restaurant %d: %w", r.ID, err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	r.UpdatedAt = time.UnixMilli(now.UnixMilli())
	return nil
}

// SetVisit updates only the visited flag and rating text
func (s *Store) SetVisit(ctx context.Context, id int64, visited bool, rating string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE restaurants SET is_visited = ?, rating = ?, updated_at = ? WHERE id = ?
	`, visited, rating, s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to save visit for restaurant %d: %w", id, err)
	}
	return expectOneRow(res)
}

// Delete removes a restaurant
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete restaurant %d: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(row scanner) (*domain.Restaurant, error) {
	var (
		r                    domain.Restaurant
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Type,
		&r.Location,
		&r.Phone,
		&r.Image,
		&r.IsVisited,
		&r.Rating,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(createdAt)
	r.UpdatedAt = time.UnixMilli(updatedAt)
	return &r, nil
}
