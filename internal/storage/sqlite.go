// Package storage persists room records. Live session state never touches
// the database; only the CRUD surface does.
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"strings"

	"planpoker/internal/domain"
)

//go:embed schema.sql
var embeddedSchema embed.FS

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InitSchema() error {
	b, err := embeddedSchema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	schema := strings.TrimSpace(string(b))
	_, err = s.db.Exec(schema)
	return err
}

// CreateRoom stores a room under its slugified name. Creating a room whose
// slug already exists returns the existing record, so the create form is
// idempotent per name.
func (s *Store) CreateRoom(name string) (*domain.Room, error) {
	slug := domain.Slugify(name)
	existing, err := s.GetRoomBySlug(slug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	res, err := s.db.Exec(`INSERT INTO rooms(name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.getRoom(`SELECT id, name, slug, created_at FROM rooms WHERE id = ?`, id)
}

func (s *Store) GetRoomBySlug(slug string) (*domain.Room, error) {
	return s.getRoom(`SELECT id, name, slug, created_at FROM rooms WHERE slug = ?`, slug)
}

func (s *Store) getRoom(query string, arg any) (*domain.Room, error) {
	row := s.db.QueryRow(query, arg)
	var r domain.Room
	if err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListRooms() ([]domain.Room, error) {
	rows, err := s.db.Query(`SELECT id, name, slug, created_at FROM rooms ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var r domain.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Slug, &r.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}
