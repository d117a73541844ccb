package store

import (
	"context"
	"slices"
)

// ListSenders returns all stored sender mailboxes.
func (s *Store) ListSenders(ctx context.Context) ([]Sender, error) {
	var senders []Sender
	err := s.view(ctx, func(d data) error {
		senders = slices.Clone(d.Senders)
		return nil
	})
	return senders, err
}

// GetSender returns one sender by ID or ErrNotFound.
func (s *Store) GetSender(ctx context.Context, id string) (Sender, error) {
	var sender Sender
	err := s.view(ctx, func(d data) error {
		idx := slices.IndexFunc(d.Senders, func(x Sender) bool { return x.ID == id })
		if idx < 0 {
			return ErrNotFound
		}
		sender = d.Senders[idx]
		return nil
	})
	return sender, err
}

// CreateSender appends a new sender record.
func (s *Store) CreateSender(ctx context.Context, sender Sender) error {
	return s.update(ctx, func(d *data) error {
		d.Senders = append(d.Senders, sender)
		return nil
	})
}

// UpdateSender replaces the record with the same ID or returns ErrNotFound.
func (s *Store) UpdateSender(ctx context.Context, sender Sender) error {
	return s.update(ctx, func(d *data) error {
		idx := slices.IndexFunc(d.Senders, func(x Sender) bool { return x.ID == sender.ID })
		if idx < 0 {
			return ErrNotFound
		}
		d.Senders[idx] = sender
		return nil
	})
}

// DeleteSender removes the record with the given ID. Deleting a missing
// sender is not an error; the end state is the same.
func (s *Store) DeleteSender(ctx context.Context, id string) error {
	return s.update(ctx, func(d *data) error {
		d.Senders = slices.DeleteFunc(d.Senders, func(x Sender) bool { return x.ID == id })
		return nil
	})
}
