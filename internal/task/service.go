package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task/entity"
)

// sentinel errors for common failure modes
var (
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers both a missing task and a task owned by someone else.
	ErrNotFound = errors.New("task not found")
)

// Store is the owner-scoped persistence the service needs; *repo.TaskRepo satisfies it.
type Store interface {
	Create(ctx context.Context, t *entity.Task) error
	ListByOwner(ctx context.Context, owner string) ([]entity.Task, error)
	UpdateOwned(ctx context.Context, id, owner string, p entity.Patch, now time.Time) (*entity.Task, error)
	DeleteOwned(ctx context.Context, id, owner string) error
}

// Service encapsulates task business logic. Every method takes the owner
// explicitly; it is always the authenticated caller, never request input.
type Service struct {
	store Store
	newID func() string
	now   func() time.Time
}

func NewService(store Store, newID func() string) *Service {
	return &Service{store: store, newID: newID, now: time.Now}
}

// CreateInput is the caller-controlled part of a new task.
type CreateInput struct {
	Title       string
	Description string
	Status      string
}

// Create stores a new task owned by owner. An empty status means pending;
// any other value outside the enumeration is rejected.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*entity.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	status := entity.StatusPending
	if in.Status != "" {
		status = entity.Status(in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
		}
	}
	// columns hold milliseconds
	now := s.now().UTC().Truncate(time.Millisecond)
	t := &entity.Task{
		ID:          s.newID(),
		Title:       title,
		Description: in.Description,
		Status:      status,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the owner's tasks, newest first.
func (s *Service) List(ctx context.Context, owner string) ([]entity.Task, error) {
	return s.store.ListByOwner(ctx, owner)
}

// Update applies the present fields of p to the owner's task id.
func (s *Service) Update(ctx context.Context, owner, id string, p entity.Patch) (*entity.Task, error) {
	if p.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		p.Title = &title
	}
	if p.Status != nil && !p.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *p.Status)
	}
	t, err := s.store.UpdateOwned(ctx, id, owner, p, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes the owner's task id.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteOwned(ctx, id, owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
