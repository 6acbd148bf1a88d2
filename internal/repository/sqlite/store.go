package sqlite

import (
	"database/sql"

	"github.com/tmorder/tmorder/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db       *sql.DB
	orders   repository.OrderRepository
	settings repository.SettingRepository
}

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		orders:   &orderRepo{db: db},
		settings: &settingRepo{db: db},
	}
}

func (s *Store) Orders() repository.OrderRepository {
	return s.orders
}

func (s *Store) Settings() repository.SettingRepository {
	return s.settings
}
