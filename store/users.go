package store

import (
	"context"
	"slices"
)

// ListUsers returns all account records.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.view(ctx, func(d data) error {
		users = slices.Clone(d.Users)
		return nil
	})
	return users, err
}

// GetUser returns one account by ID or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	var user User
	err := s.view(ctx, func(d data) error {
		idx := slices.IndexFunc(d.Users, func(x User) bool { return x.ID == id })
		if idx < 0 {
			return ErrNotFound
		}
		user = d.Users[idx]
		return nil
	})
	return user, err
}

// GetUserByEmail returns one account by email or ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.view(ctx, func(d data) error {
		idx := slices.IndexFunc(d.Users, func(x User) bool { return x.Email == email })
		if idx < 0 {
			return ErrNotFound
		}
		user = d.Users[idx]
		return nil
	})
	return user, err
}

// CreateUser appends a new account. Emails are unique; a duplicate returns
// ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user User) error {
	return s.update(ctx, func(d *data) error {
		if slices.ContainsFunc(d.Users, func(x User) bool { return x.Email == user.Email }) {
			return ErrAlreadyExists
		}
		d.Users = append(d.Users, user)
		return nil
	})
}

// UpdateUser replaces the record with the same ID or returns ErrNotFound.
func (s *Store) UpdateUser(ctx context.Context, user User) error {
	return s.update(ctx, func(d *data) error {
		idx := slices.IndexFunc(d.Users, func(x User) bool { return x.ID == user.ID })
		if idx < 0 {
			return ErrNotFound
		}
		d.Users[idx] = user
		return nil
	})
}

// DeleteUser removes the record with the given ID or returns ErrNotFound.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.update(ctx, func(d *data) error {
		idx := slices.IndexFunc(d.Users, func(x User) bool { return x.ID == id })
		if idx < 0 {
			return ErrNotFound
		}
		d.Users = slices.Delete(d.Users, idx, idx+1)
		return nil
	})
}

// CountUsers reports how many accounts exist. Used at startup to decide
// whether the initial superadmin must be seeded.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, func(d data) error {
		n = len(d.Users)
		return nil
	})
	return n, err
}
