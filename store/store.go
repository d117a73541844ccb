// Package store persists users and senders in a single JSON file, the way
// the service has always shipped: no external database, one data file next
// to the binary. Every operation is a read-modify-write of the whole file
// under an exclusive lock, with the write going through a temp file and an
// atomic rename so a crash can never leave a half-written datastore.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// User is one account record. PasswordHash holds a bcrypt hash, never the
// plain credential.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Sender is one stored SMTP mailbox configuration.
type Sender struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type data struct {
	Users   []User   `json:"users"`
	Senders []Sender `json:"senders"`
}

// Store is the flat-file datastore. It is safe for concurrent use within
// one process; the data file must not be shared between processes.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open prepares the datastore at path, creating an empty data file (and
// any missing parent directories) on first run.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty data file path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data directory: %w", err)
		}
	}

	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write(data{Users: []User{}, Senders: []Sender{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("store: stat data file: %w", err)
	}
	return s, nil
}

// view runs fn against a snapshot of the datastore.
func (s *Store) view(ctx context.Context, fn func(data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.read()
	if err != nil {
		return err
	}
	return fn(d)
}

// update runs fn inside a read-modify-write cycle. The mutated state is
// persisted only when fn returns nil.
func (s *Store) update(ctx context.Context, fn func(*data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(&d); err != nil {
		return err
	}
	return s.write(d)
}

func (s *Store) read() (data, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return data{}, fmt.Errorf("store: read data file: %w", err)
	}
	var d data
	if err := json.Unmarshal(raw, &d); err != nil {
		return data{}, fmt.Errorf("store: decode data file: %w", err)
	}
	return d, nil
}

func (s *Store) write(d data) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode data file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("store: write data file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: replace data file: %w", err)
	}
	return nil
}
