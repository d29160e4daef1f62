package task

import (
	"context"

	"github.com/alecgard/taskhub/internal/apperr"
)

// ErrNotFound is returned when a task does not exist or belongs to another user.
var ErrNotFound = apperr.NotFound("Personal task not found")

// Repository persists personal tasks. Every method is scoped to the owner so
// that a task belonging to someone else is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, ownerID string, f Fields) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string, status Status) ([]*Task, error)
	Update(ctx context.Context, ownerID, id string, f Fields) (*Task, error)
	UpdateStatus(ctx context.Context, ownerID, id string, status Status) (*Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Service provides validated personal task operations.
type Service struct {
	repo Repository
}

// NewService creates a new Service wrapping the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates the input and stores a new task with status Not Started.
func (s *Service) Create(ctx context.Context, ownerID string, in FieldsInput) (*Task, error) {
	f, err := ParseFields(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, ownerID, f)
}

// List returns the owner's tasks, optionally filtered by status.
func (s *Service) List(ctx context.Context, ownerID, status string) ([]*Task, error) {
	var filter Status
	if status != "" {
		st, err := ParseStatus(status)
		if err != nil {
			return nil, ErrStatusFilterInvalid
		}
		filter = st
	}

	tasks, err := s.repo.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	return tasks, nil
}

// Update replaces the editable fields of an owned task.
func (s *Service) Update(ctx context.Context, ownerID, id string, in FieldsInput) (*Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	f, err := ParseFields(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, ownerID, id, f)
}

// UpdateStatus moves an owned task to a new status.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, id, status string) (*Task, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, ownerID, id, st)
}

// Delete removes an owned task.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, ownerID, id)
}
