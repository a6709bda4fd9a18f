// Package todo implements the staff-facing todo resource.
package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskhive.org/internal/ids"
)

var (
	ErrNotFound     = errors.New("todo: not found")
	ErrInvalidInput = errors.New("todo: invalid input")
)

// Todo is one scheduled task.
type Todo struct {
	ID        string
	Name      string
	Date      time.Time
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update applies partial changes. Nil fields are untouched.
type Update struct {
	Name *string
	Date *time.Time
}

// Store describes todo persistence.
type Store interface {
	Create(ctx context.Context, t *Todo) error
	Find(ctx context.Context, id string) (*Todo, error)
	// List returns todos ordered by date, newest first.
	List(ctx context.Context) ([]*Todo, error)
	Update(ctx context.Context, t *Todo) error
	Delete(ctx context.Context, id string) error
}

// Service provides todo business logic.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("todo store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores a new todo owned by userID. A missing date defaults to today.
func (s *Service) Create(ctx context.Context, userID, name string, date *time.Time) (*Todo, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, fmt.Errorf("%w: name must be between 1 and 255 characters", ErrInvalidInput)
	}
	now := s.now().UTC()
	due := now
	if date != nil {
		due = date.UTC()
	}
	t := &Todo{
		ID:        ids.New(),
		Name:      name,
		Date:      due,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]*Todo, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Todo, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.store.Find(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, upd Update) (*Todo, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len(name) > 255 {
			return nil, fmt.Errorf("%w: name must be between 1 and 255 characters", ErrInvalidInput)
		}
		t.Name = name
	}
	if upd.Date != nil {
		t.Date = upd.Date.UTC()
	}
	t.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}
