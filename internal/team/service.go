package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alecgard/taskhub/internal/apperr"
	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/user"
	"github.com/google/uuid"
)

// Errors returned by the team service and its stores.
var (
	ErrTeamNotFound        = apperr.NotFound("Team not found")
	ErrMemberNotFound      = apperr.NotFound("Member not found")
	ErrContentNotFound     = apperr.NotFound("Task not found")
	ErrNameTaken           = apperr.Conflict("Team name already exists")
	ErrAlreadyMember       = apperr.Conflict("Member is already in the team")
	ErrTeamFull            = apperr.Capacity("Team is full")
	ErrCreatorCannotLeave  = apperr.Forbidden("You cannot leave your own team")
	ErrMaxMembersUnchanged = apperr.NoOp("Max members value is already set to the current value")
	ErrNotMember           = apperr.Forbidden("You are not a member of this team")
	ErrNotContentCreator   = apperr.Forbidden("Only the task creator can modify this task")
	ErrNotAssigned         = apperr.Forbidden("You are not assigned to this task")
	ErrAssigneeNotMember   = apperr.Validation("Assigned users must be members of the team")
	ErrModified            = apperr.Conflict("Team was modified by another request")
)

// Repository persists teams and their embedded content. Every mutation is a
// single conditional write; when its condition no longer holds the store
// returns ErrModified and writes nothing.
type Repository interface {
	Create(ctx context.Context, creatorID, name string, maxMembers int) (*Team, error)
	// Get returns the team with its content in insertion order.
	Get(ctx context.Context, id string) (*Team, error)
	// GetOwned returns the team only when creatorID created it. Content is
	// not loaded.
	GetOwned(ctx context.Context, id, creatorID string) (*Team, error)
	ListByMember(ctx context.Context, userID string) ([]*Team, error)

	// AddMember appends memberID when creatorID owns the team, memberID is
	// not yet a member and the team has room.
	AddMember(ctx context.Context, id, creatorID, memberID string) (*Team, error)
	// RemoveMember drops memberID unless it is the creator.
	RemoveMember(ctx context.Context, id, memberID string) (*Team, error)
	SetMaxMembers(ctx context.Context, id, creatorID string, maxMembers int) (*Team, error)
	Delete(ctx context.Context, id, creatorID string) error

	// AddContent appends items when memberID and every assignee are members.
	AddContent(ctx context.Context, teamID, memberID string, items []*Content) error
	// UpdateContent applies the patch when creatorID is a member and created
	// the content, and any new assignees are members.
	UpdateContent(ctx context.Context, teamID, contentID, creatorID string, patch ContentPatch) (*Content, error)
	// SetContentStatus changes status when assigneeID is assigned.
	SetContentStatus(ctx context.Context, teamID, contentID, assigneeID string, status task.Status) (*Content, error)
	// DeleteContent removes the entry when creatorID is a member and created it.
	DeleteContent(ctx context.Context, teamID, contentID, creatorID string) error
}

// UserLookup resolves user ids for existence checks and display fields.
type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, error)
	GetMany(ctx context.Context, ids []string) ([]*user.User, error)
}

// Service enforces who may change a team and its task list.
type Service struct {
	repo  Repository
	users UserLookup
	now   func() time.Time
	newID func() string
}

// NewService creates a team service.
func NewService(repo Repository, users UserLookup) *Service {
	return &Service{
		repo:  repo,
		users: users,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateTeam creates a team whose only member is its creator.
func (s *Service) CreateTeam(ctx context.Context, creatorID string, in CreateInput) (*Team, error) {
	name, err := parseName(in.Name)
	if err != nil {
		return nil, err
	}
	maxMembers, err := parseMaxMembers(in.MaxMembers)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.Get(ctx, creatorID); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, creatorID, name, maxMembers)
}

// ListTeams returns the teams the user belongs to.
func (s *Service) ListTeams(ctx context.Context, userID string) ([]*Team, error) {
	teams, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []*Team{}
	}
	return teams, nil
}

// AddMember adds memberID to a team the requester created. Teams the
// requester did not create are reported as not found.
func (s *Service) AddMember(ctx context.Context, requesterID, teamID, memberID string) (*Team, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}
	if err := validateID(memberID, ErrInvalidMemberID); err != nil {
		return nil, err
	}

	t, err := s.repo.GetOwned(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}
	if t.HasMember(memberID) {
		return nil, ErrAlreadyMember
	}
	if len(t.Members) >= t.MaxMembers {
		return nil, ErrTeamFull
	}

	if _, err := s.users.Get(ctx, memberID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return s.repo.AddMember(ctx, teamID, requesterID, memberID)
}

// LeaveTeam removes the requester from the team. Leaving a team one is not a
// member of succeeds without a write.
func (s *Service) LeaveTeam(ctx context.Context, requesterID, teamID string) (*Team, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}

	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy == requesterID {
		return nil, ErrCreatorCannotLeave
	}
	if !t.HasMember(requesterID) {
		return t, nil
	}

	return s.repo.RemoveMember(ctx, teamID, requesterID)
}

// EditMaxMembers changes the member limit of a team the requester created.
// The new limit may be below the current member count.
func (s *Service) EditMaxMembers(ctx context.Context, requesterID, teamID string, value *float64) (*Team, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}
	maxMembers, err := parseMaxMembers(value)
	if err != nil {
		return nil, err
	}

	t, err := s.repo.GetOwned(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}
	if t.MaxMembers == maxMembers {
		return nil, ErrMaxMembersUnchanged
	}

	return s.repo.SetMaxMembers(ctx, teamID, requesterID, maxMembers)
}

// DeleteTeam removes a team the requester created along with its content.
func (s *Service) DeleteTeam(ctx context.Context, requesterID, teamID string) error {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, teamID, requesterID)
}

// AddTasks appends one or more tasks to the team's list. raw is either a JSON
// array of items or a JSON string containing one.
func (s *Service) AddTasks(ctx context.Context, requesterID, teamID string, raw json.RawMessage) (*Team, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}
	inputs, err := decodeContentItems(raw)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	items := make([]*Content, 0, len(inputs))
	for _, in := range inputs {
		c, err := parseContent(in)
		if err != nil {
			return nil, err
		}
		c.ID = s.newID()
		c.CreatedBy = requesterID
		c.CreatedAt = now
		c.UpdatedAt = now
		items = append(items, c)
	}

	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.HasMember(requesterID) {
		return nil, ErrNotMember
	}
	for _, c := range items {
		if !t.HasMembers(c.AssignedTo) {
			return nil, ErrAssigneeNotMember
		}
	}

	if err := s.repo.AddContent(ctx, teamID, requesterID, items); err != nil {
		return nil, err
	}

	t.Content = append(t.Content, items...)
	if err := s.populateAssignees(ctx, t.Content); err != nil {
		return nil, err
	}
	return t, nil
}

// EditContent applies a partial update to a task the requester created.
func (s *Service) EditContent(ctx context.Context, requesterID, teamID, contentID string, fields map[string]json.RawMessage) (*Team, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}
	if err := validateID(contentID, ErrInvalidTaskID); err != nil {
		return nil, err
	}

	t, c, err := s.loadContent(ctx, teamID, contentID)
	if err != nil {
		return nil, err
	}
	if !t.HasMember(requesterID) {
		return nil, ErrNotMember
	}
	if c.CreatedBy != requesterID {
		return nil, ErrNotContentCreator
	}

	patch, err := parsePatch(fields)
	if err != nil {
		return nil, err
	}
	if patch.AssignedTo != nil && !t.HasMembers(patch.AssignedTo) {
		return nil, ErrAssigneeNotMember
	}

	updated, err := s.repo.UpdateContent(ctx, teamID, contentID, requesterID, patch)
	if err != nil {
		return nil, err
	}

	t.replaceContent(updated)
	if err := s.populateAssignees(ctx, t.Content); err != nil {
		return nil, err
	}
	return t, nil
}

// EditTaskStatus sets the status of a task the requester is assigned to.
// Setting the current status succeeds without a write.
func (s *Service) EditTaskStatus(ctx context.Context, requesterID, teamID, contentID, status string) (*Content, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}
	if err := validateID(contentID, ErrInvalidTaskID); err != nil {
		return nil, err
	}

	_, c, err := s.loadContent(ctx, teamID, contentID)
	if err != nil {
		return nil, err
	}
	if !c.IsAssigned(requesterID) {
		return nil, ErrNotAssigned
	}
	newStatus, err := task.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	if c.Status != newStatus {
		c, err = s.repo.SetContentStatus(ctx, teamID, contentID, requesterID, newStatus)
		if err != nil {
			return nil, err
		}
	}

	if err := s.populateAssignees(ctx, []*Content{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContent removes a task the requester created. The team remains.
func (s *Service) DeleteContent(ctx context.Context, requesterID, teamID, contentID string) error {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return err
	}
	if err := validateID(contentID, ErrInvalidTaskID); err != nil {
		return err
	}

	t, c, err := s.loadContent(ctx, teamID, contentID)
	if err != nil {
		return err
	}
	if !t.HasMember(requesterID) {
		return ErrNotMember
	}
	if c.CreatedBy != requesterID {
		return ErrNotContentCreator
	}

	return s.repo.DeleteContent(ctx, teamID, contentID, requesterID)
}

// ListTeamTasks returns the team and its task list to a member.
func (s *Service) ListTeamTasks(ctx context.Context, requesterID, teamID string) (*Team, error) {
	if err := validateID(teamID, ErrInvalidTeamID); err != nil {
		return nil, err
	}

	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !t.HasMember(requesterID) {
		return nil, ErrNotMember
	}

	if t.Content == nil {
		t.Content = []*Content{}
	}
	if err := s.populateAssignees(ctx, t.Content); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) loadContent(ctx context.Context, teamID, contentID string) (*Team, *Content, error) {
	t, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	c := t.FindContent(contentID)
	if c == nil {
		return nil, nil, ErrContentNotFound
	}
	return t, c, nil
}

// populateAssignees fills the display fields of each entry's assignees.
// Unknown users are omitted.
func (s *Service) populateAssignees(ctx context.Context, items []*Content) error {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range items {
		for _, id := range c.AssignedTo {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("loading assignees: %w", err)
	}
	byID := make(map[string]Member, len(users))
	for _, u := range users {
		byID[u.ID] = Member{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	for _, c := range items {
		c.Assignees = make([]Member, 0, len(c.AssignedTo))
		for _, id := range c.AssignedTo {
			if m, ok := byID[id]; ok {
				c.Assignees = append(c.Assignees, m)
			}
		}
	}
	return nil
}
