package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alecgard/taskhub/internal/apperr"
	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/user"
)

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
	carol = "33333333-3333-4333-8333-333333333333"
	dave  = "44444444-4444-4444-8444-444444444444"

	missingTeam = "99999999-9999-4999-8999-999999999999"
)

// memRepo is an in-memory Repository that enforces the same write
// conditions as the database stores.
type memRepo struct {
	mu     sync.Mutex
	seq    int
	teams  map[string]*Team
	writes int
}

func newMemRepo() *memRepo {
	return &memRepo{teams: make(map[string]*Team)}
}

func cloneTeam(t *Team) *Team {
	out := *t
	out.Members = slices.Clone(t.Members)
	out.Content = make([]*Content, 0, len(t.Content))
	for _, c := range t.Content {
		out.Content = append(out.Content, cloneContent(c))
	}
	return &out
}

func cloneContent(c *Content) *Content {
	out := *c
	out.AssignedTo = slices.Clone(c.AssignedTo)
	out.Assignees = nil
	return &out
}

func (m *memRepo) Create(_ context.Context, creatorID, name string, maxMembers int) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.Name == name {
			return nil, ErrNameTaken
		}
	}
	m.seq++
	t := &Team{
		ID:         fmt.Sprintf("aaaaaaaa-0000-4000-8000-%012d", m.seq),
		Name:       name,
		CreatedBy:  creatorID,
		Members:    []string{creatorID},
		MaxMembers: maxMembers,
	}
	m.teams[t.ID] = t
	m.writes++
	return cloneTeam(t), nil
}

func (m *memRepo) Get(_ context.Context, id string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return cloneTeam(t), nil
}

func (m *memRepo) GetOwned(_ context.Context, id, creatorID string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok || t.CreatedBy != creatorID {
		return nil, ErrTeamNotFound
	}
	out := cloneTeam(t)
	out.Content = nil
	return out, nil
}

func (m *memRepo) ListByMember(_ context.Context, userID string) ([]*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Team
	for _, t := range m.teams {
		if t.HasMember(userID) {
			out = append(out, cloneTeam(t))
		}
	}
	return out, nil
}

func (m *memRepo) AddMember(_ context.Context, id, creatorID, memberID string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok || t.CreatedBy != creatorID || t.HasMember(memberID) || len(t.Members) >= t.MaxMembers {
		return nil, ErrModified
	}
	t.Members = append(t.Members, memberID)
	m.writes++
	return cloneTeam(t), nil
}

func (m *memRepo) RemoveMember(_ context.Context, id, memberID string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok || t.CreatedBy == memberID {
		return nil, ErrModified
	}
	t.Members = slices.DeleteFunc(t.Members, func(id string) bool { return id == memberID })
	m.writes++
	return cloneTeam(t), nil
}

func (m *memRepo) SetMaxMembers(_ context.Context, id, creatorID string, maxMembers int) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok || t.CreatedBy != creatorID {
		return nil, ErrTeamNotFound
	}
	t.MaxMembers = maxMembers
	m.writes++
	return cloneTeam(t), nil
}

func (m *memRepo) Delete(_ context.Context, id, creatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok || t.CreatedBy != creatorID {
		return ErrTeamNotFound
	}
	delete(m.teams, id)
	m.writes++
	return nil
}

func (m *memRepo) AddContent(_ context.Context, teamID, memberID string, items []*Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok || !t.HasMember(memberID) {
		return ErrModified
	}
	for _, c := range items {
		if !t.HasMembers(c.AssignedTo) {
			return ErrModified
		}
	}
	for _, c := range items {
		t.Content = append(t.Content, cloneContent(c))
	}
	m.writes++
	return nil
}

func (m *memRepo) UpdateContent(_ context.Context, teamID, contentID, creatorID string, patch ContentPatch) (*Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok || !t.HasMember(creatorID) {
		return nil, ErrModified
	}
	c := t.FindContent(contentID)
	if c == nil || c.CreatedBy != creatorID {
		return nil, ErrModified
	}
	if patch.AssignedTo != nil && !t.HasMembers(patch.AssignedTo) {
		return nil, ErrModified
	}
	updated := patch.Apply(c)
	t.replaceContent(updated)
	m.writes++
	return cloneContent(updated), nil
}

func (m *memRepo) SetContentStatus(_ context.Context, teamID, contentID, assigneeID string, status task.Status) (*Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil, ErrModified
	}
	c := t.FindContent(contentID)
	if c == nil || !c.IsAssigned(assigneeID) {
		return nil, ErrModified
	}
	c.Status = status
	m.writes++
	return cloneContent(c), nil
}

func (m *memRepo) DeleteContent(_ context.Context, teamID, contentID, creatorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok || !t.HasMember(creatorID) {
		return ErrModified
	}
	c := t.FindContent(contentID)
	if c == nil || c.CreatedBy != creatorID {
		return ErrModified
	}
	t.Content = slices.DeleteFunc(t.Content, func(c *Content) bool { return c.ID == contentID })
	m.writes++
	return nil
}

type memUsers map[string]*user.User

func (m memUsers) Get(_ context.Context, id string) (*user.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m memUsers) GetMany(_ context.Context, ids []string) ([]*user.User, error) {
	var out []*user.User
	for _, id := range ids {
		if u, ok := m[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	users := memUsers{
		alice: {ID: alice, Name: "Alice", Email: "alice@example.com"},
		bob:   {ID: bob, Name: "Bob", Email: "bob@example.com"},
		carol: {ID: carol, Name: "Carol", Email: "carol@example.com"},
		dave:  {ID: dave, Name: "Dave", Email: "dave@example.com"},
	}
	svc := NewService(repo, users)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("cccccccc-0000-4000-8000-%012d", n)
	}
	return svc, repo
}

func ptr(f float64) *float64 { return &f }

func mustCreate(t *testing.T, svc *Service, creator, name string, maxMembers float64) *Team {
	t.Helper()
	team, err := svc.CreateTeam(context.Background(), creator, CreateInput{Name: name, MaxMembers: ptr(maxMembers)})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	return team
}

func mustAddMember(t *testing.T, svc *Service, creator, teamID, member string) {
	t.Helper()
	if _, err := svc.AddMember(context.Background(), creator, teamID, member); err != nil {
		t.Fatalf("AddMember(%s): %v", member, err)
	}
}

func contentJSON(t *testing.T, items ...map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func item(title string, assignees ...string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "Description of " + title,
		"due_date":    "2025-01-01",
		"priority":    "Low",
		"assigned_to": assignees,
	}
}

func TestCreateTeam(t *testing.T) {
	tests := []struct {
		name    string
		creator string
		input   CreateInput
		wantErr error
	}{
		{"valid", alice, CreateInput{Name: "Alpha", MaxMembers: ptr(5)}, nil},
		{"trimmed name", alice, CreateInput{Name: "  Beta  ", MaxMembers: ptr(2)}, nil},
		{"blank name", alice, CreateInput{Name: "   ", MaxMembers: ptr(5)}, ErrNameRequired},
		{"short name", alice, CreateInput{Name: "ab", MaxMembers: ptr(5)}, ErrNameLength},
		{"missing max", alice, CreateInput{Name: "Gamma"}, ErrMaxMembersInvalid},
		{"max too small", alice, CreateInput{Name: "Gamma", MaxMembers: ptr(1)}, ErrMaxMembersInvalid},
		{"max too large", alice, CreateInput{Name: "Gamma", MaxMembers: ptr(21)}, ErrMaxMembersInvalid},
		{"fractional max", alice, CreateInput{Name: "Gamma", MaxMembers: ptr(2.5)}, ErrMaxMembersInvalid},
		{"unknown creator", missingTeam, CreateInput{Name: "Gamma", MaxMembers: ptr(5)}, user.ErrNotFound},
	}

	svc, _ := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team, err := svc.CreateTeam(context.Background(), tt.creator, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if team.CreatedBy != tt.creator {
				t.Errorf("createdBy = %q, want %q", team.CreatedBy, tt.creator)
			}
			if len(team.Members) != 1 || team.Members[0] != tt.creator {
				t.Errorf("members = %v, want [creator]", team.Members)
			}
		})
	}
}

func TestCreateTeam_DuplicateName(t *testing.T) {
	svc, _ := newTestService()
	mustCreate(t, svc, alice, "Alpha", 3)

	_, err := svc.CreateTeam(context.Background(), bob, CreateInput{Name: "Alpha", MaxMembers: ptr(3)})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
	if apperr.HTTPStatus(err) != 400 {
		t.Errorf("expected 400, got %d", apperr.HTTPStatus(err))
	}
}

func TestAddMember_Capacity(t *testing.T) {
	svc, _ := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 2)

	got, err := svc.AddMember(context.Background(), alice, team.ID, bob)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if len(got.Members) != 2 || got.Members[1] != bob {
		t.Errorf("members = %v, want [alice bob]", got.Members)
	}

	_, err = svc.AddMember(context.Background(), alice, team.ID, carol)
	if !errors.Is(err, ErrTeamFull) {
		t.Fatalf("expected ErrTeamFull, got %v", err)
	}
	if !errors.Is(err, apperr.ErrCapacity) {
		t.Error("expected capacity kind")
	}

	current, _ := svc.repo.Get(context.Background(), team.ID)
	if len(current.Members) > current.MaxMembers {
		t.Errorf("members %d exceed max %d", len(current.Members), current.MaxMembers)
	}
}

func TestAddMember_Errors(t *testing.T) {
	svc, _ := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 3)
	mustAddMember(t, svc, alice, team.ID, bob)

	tests := []struct {
		name      string
		requester string
		teamID    string
		memberID  string
		wantErr   error
	}{
		{"invalid team id", alice, "nope", carol, ErrInvalidTeamID},
		{"invalid member id", alice, team.ID, "nope", ErrInvalidMemberID},
		{"missing team", alice, missingTeam, carol, ErrTeamNotFound},
		{"non-creator sees not found", bob, team.ID, carol, ErrTeamNotFound},
		{"already member", alice, team.ID, bob, ErrAlreadyMember},
		{"unknown user", alice, team.ID, missingTeam, ErrMemberNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddMember(context.Background(), tt.requester, tt.teamID, tt.memberID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if errors.Is(err, apperr.ErrForbidden) {
				t.Error("AddMember must never report forbidden")
			}
		})
	}
}

func TestAddMember_StaleWrite(t *testing.T) {
	svc, repo := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 2)

	// Fill the team behind the service's back after its read.
	stale := &staleRepo{memRepo: repo, before: func() {
		repo.teams[team.ID].Members = append(repo.teams[team.ID].Members, carol)
	}}
	svc.repo = stale

	_, err := svc.AddMember(context.Background(), alice, team.ID, bob)
	if !errors.Is(err, ErrModified) {
		t.Fatalf("expected ErrModified, got %v", err)
	}
	if got := len(repo.teams[team.ID].Members); got != 2 {
		t.Errorf("members = %d, want 2", got)
	}
}

// staleRepo runs before ahead of each conditional write.
type staleRepo struct {
	*memRepo
	before func()
}

func (s *staleRepo) AddMember(ctx context.Context, id, creatorID, memberID string) (*Team, error) {
	s.before()
	return s.memRepo.AddMember(ctx, id, creatorID, memberID)
}

func (s *staleRepo) SetContentStatus(ctx context.Context, teamID, contentID, assigneeID string, status task.Status) (*Content, error) {
	s.before()
	return s.memRepo.SetContentStatus(ctx, teamID, contentID, assigneeID, status)
}

func TestLeaveTeam(t *testing.T) {
	svc, repo := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 3)
	mustAddMember(t, svc, alice, team.ID, bob)

	_, err := svc.LeaveTeam(context.Background(), alice, team.ID)
	if !errors.Is(err, ErrCreatorCannotLeave) {
		t.Fatalf("expected ErrCreatorCannotLeave, got %v", err)
	}
	if apperr.HTTPStatus(err) != 403 {
		t.Errorf("expected 403, got %d", apperr.HTTPStatus(err))
	}

	got, err := svc.LeaveTeam(context.Background(), bob, team.ID)
	if err != nil {
		t.Fatalf("LeaveTeam: %v", err)
	}
	if got.HasMember(bob) {
		t.Error("bob should have left")
	}
	if !got.HasMember(alice) {
		t.Error("creator must remain a member")
	}

	writes := repo.writes
	if _, err := svc.LeaveTeam(context.Background(), bob, team.ID); err != nil {
		t.Fatalf("second LeaveTeam should succeed, got %v", err)
	}
	if repo.writes != writes {
		t.Error("leaving twice should not write")
	}

	if _, err := svc.LeaveTeam(context.Background(), bob, missingTeam); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("expected ErrTeamNotFound, got %v", err)
	}
	if _, err := svc.LeaveTeam(context.Background(), bob, "bad"); !errors.Is(err, ErrInvalidTeamID) {
		t.Errorf("expected ErrInvalidTeamID, got %v", err)
	}
}

func TestEditMaxMembers(t *testing.T) {
	svc, _ := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 3)
	mustAddMember(t, svc, alice, team.ID, bob)
	mustAddMember(t, svc, alice, team.ID, carol)

	tests := []struct {
		name      string
		requester string
		value     *float64
		wantErr   error
	}{
		{"same value", alice, ptr(3), ErrMaxMembersUnchanged},
		{"out of range", alice, ptr(25), ErrMaxMembersInvalid},
		{"missing", alice, nil, ErrMaxMembersInvalid},
		{"non-creator", bob, ptr(5), ErrTeamNotFound},
		{"shrink below membership", alice, ptr(2), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.EditMaxMembers(context.Background(), tt.requester, team.ID, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MaxMembers != int(*tt.value) {
				t.Errorf("maxMembers = %d, want %v", got.MaxMembers, *tt.value)
			}
		})
	}

	if apperr.HTTPStatus(ErrMaxMembersUnchanged) != 400 {
		t.Error("unchanged max members should be a 400")
	}
}

func TestDeleteTeam(t *testing.T) {
	svc, _ := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 3)
	mustAddMember(t, svc, alice, team.ID, bob)
	if _, err := svc.AddTasks(context.Background(), alice, team.ID, contentJSON(t, item("T1", bob))); err != nil {
		t.Fatalf("AddTasks: %v", err)
	}

	if err := svc.DeleteTeam(context.Background(), bob, team.ID); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("non-creator delete: expected ErrTeamNotFound, got %v", err)
	}
	if err := svc.DeleteTeam(context.Background(), alice, team.ID); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if _, err := svc.ListTeamTasks(context.Background(), alice, team.ID); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound after delete, got %v", err)
	}
}

func TestListTeams(t *testing.T) {
	svc, _ := newTestService()
	a := mustCreate(t, svc, alice, "Alpha", 3)
	mustCreate(t, svc, bob, "Bravo", 3)
	mustAddMember(t, svc, alice, a.ID, bob)

	teams, err := svc.ListTeams(context.Background(), bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 2 {
		t.Errorf("bob teams = %d, want 2", len(teams))
	}

	teams, err = svc.ListTeams(context.Background(), carol)
	if err != nil {
		t.Fatal(err)
	}
	if teams == nil || len(teams) != 0 {
		t.Errorf("expected empty non-nil list, got %v", teams)
	}
}

func TestAddTasks(t *testing.T) {
	svc, _ := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 4)
	mustAddMember(t, svc, alice, team.ID, bob)
	mustAddMember(t, svc, alice, team.ID, carol)

	got, err := svc.AddTasks(context.Background(), bob, team.ID, contentJSON(t, item("T1", alice, carol), item("T2", bob)))
	if err != nil {
		t.Fatalf("AddTasks: %v", err)
	}
	if len(got.Content) != 2 {
		t.Fatalf("content = %d, want 2", len(got.Content))
	}
	first := got.Content[0]
	if first.CreatedBy != bob || first.Status != task.StatusNotStarted {
		t.Errorf("unexpected content: %+v", first)
	}
	if len(first.Assignees) != 2 || first.Assignees[0].Name != "Alice" || first.Assignees[1].Email != "carol@example.com" {
		t.Errorf("assignees not populated: %+v", first.Assignees)
	}
	if !first.DueDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("due date = %v", first.DueDate)
	}

	// String form containing a JSON array.
	encoded, _ := json.Marshal(string(contentJSON(t, item("T3", alice))))
	got, err = svc.AddTasks(context.Background(), alice, team.ID, encoded)
	if err != nil {
		t.Fatalf("AddTasks string form: %v", err)
	}
	if len(got.Content) != 3 || got.Content[2].Title != "T3" {
		t.Errorf("expected T3 appended, got %d items", len(got.Content))
	}
}

func TestAddTasks_Errors(t *testing.T) {
	svc, repo := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 4)
	mustAddMember(t, svc, alice, team.ID, bob)

	missingAssignee := item("T1")
	missingAssignee["assigned_to"] = []string{}
	badPriority := item("T1", bob)
	badPriority["priority"] = "Urgent"
	blankTitle := item("T1", bob)
	blankTitle["title"] = "   "
	blankDescription := item("T1", bob)
	blankDescription["description"] = ""

	tests := []struct {
		name      string
		requester string
		teamID    string
		raw       json.RawMessage
		wantErr   error
		wantKind  error
	}{
		{"invalid team id", alice, "x", contentJSON(t, item("T1", bob)), ErrInvalidTeamID, apperr.ErrValidation},
		{"empty body", alice, team.ID, nil, ErrContentRequired, apperr.ErrValidation},
		{"empty list", alice, team.ID, json.RawMessage(`[]`), ErrContentRequired, apperr.ErrValidation},
		{"object not list", alice, team.ID, json.RawMessage(`{"title":"x"}`), ErrContentMalformed, apperr.ErrValidation},
		{"undecodable string", alice, team.ID, json.RawMessage(`"not json"`), nil, apperr.ErrInternal},
		{"no assignees", alice, team.ID, contentJSON(t, missingAssignee), ErrContentFields, apperr.ErrValidation},
		{"bad priority", alice, team.ID, contentJSON(t, badPriority), task.ErrPriorityInvalid, apperr.ErrValidation},
		{"blank title", alice, team.ID, contentJSON(t, blankTitle), ErrContentFields, apperr.ErrValidation},
		{"blank description", alice, team.ID, contentJSON(t, blankDescription), ErrContentFields, apperr.ErrValidation},
		{"bad assignee id", alice, team.ID, contentJSON(t, item("T1", "zzz")), ErrInvalidAssigneeID, apperr.ErrValidation},
		{"missing team", alice, missingTeam, contentJSON(t, item("T1", bob)), ErrTeamNotFound, apperr.ErrNotFound},
		{"non-member", carol, team.ID, contentJSON(t, item("T1", bob)), ErrNotMember, apperr.ErrForbidden},
		{"assignee not member", alice, team.ID, contentJSON(t, item("T1", carol)), ErrAssigneeNotMember, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writes := repo.writes
			_, err := svc.AddTasks(context.Background(), tt.requester, tt.teamID, tt.raw)
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, err)
			}
			if repo.writes != writes {
				t.Error("failed AddTasks must not write")
			}
		})
	}

	if apperr.HTTPStatus(apperr.Internal("Failed to parse task content", errors.New("x"))) != 500 {
		t.Error("parse failure should be a 500")
	}
}

func setupTeamWithTask(t *testing.T) (*Service, *memRepo, *Team, string) {
	t.Helper()
	svc, repo := newTestService()
	team := mustCreate(t, svc, alice, "Alpha", 4)
	mustAddMember(t, svc, alice, team.ID, bob)
	mustAddMember(t, svc, alice, team.ID, carol)
	got, err := svc.AddTasks(context.Background(), alice, team.ID, contentJSON(t, item("T1", bob)))
	if err != nil {
		t.Fatalf("AddTasks: %v", err)
	}
	return svc, repo, team, got.Content[0].ID
}

func TestEditTaskStatus(t *testing.T) {
	svc, repo, team, taskID := setupTeamWithTask(t)

	c, err := svc.EditTaskStatus(context.Background(), bob, team.ID, taskID, "In Progress")
	if err != nil {
		t.Fatalf("assignee EditTaskStatus: %v", err)
	}
	if c.Status != task.StatusInProgress {
		t.Errorf("status = %q, want In Progress", c.Status)
	}
	if len(c.Assignees) != 1 || c.Assignees[0].Name != "Bob" {
		t.Errorf("assignees not populated: %+v", c.Assignees)
	}

	_, err = svc.EditTaskStatus(context.Background(), alice, team.ID, taskID, "Completed")
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("non-assignee: expected ErrNotAssigned, got %v", err)
	}
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Error("expected forbidden kind")
	}

	writes := repo.writes
	c, err = svc.EditTaskStatus(context.Background(), bob, team.ID, taskID, "In Progress")
	if err != nil {
		t.Fatalf("same status should succeed: %v", err)
	}
	if c.Status != task.StatusInProgress || repo.writes != writes {
		t.Error("same status must not write")
	}

	if _, err := svc.EditTaskStatus(context.Background(), bob, team.ID, taskID, "Done"); !errors.Is(err, task.ErrStatusInvalid) {
		t.Errorf("expected ErrStatusInvalid, got %v", err)
	}
	if _, err := svc.EditTaskStatus(context.Background(), alice, team.ID, taskID, "Done"); !errors.Is(err, ErrNotAssigned) {
		t.Errorf("non-assignee with bad status: expected ErrNotAssigned, got %v", err)
	}
	if _, err := svc.EditTaskStatus(context.Background(), bob, team.ID, missingTeam, "Done"); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("missing task with bad status: expected ErrContentNotFound, got %v", err)
	}
	if _, err := svc.EditTaskStatus(context.Background(), bob, team.ID, missingTeam, "Completed"); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("expected ErrContentNotFound, got %v", err)
	}
	if _, err := svc.EditTaskStatus(context.Background(), bob, team.ID, "x", "Completed"); !errors.Is(err, ErrInvalidTaskID) {
		t.Errorf("expected ErrInvalidTaskID, got %v", err)
	}
}

func TestAssignedStatusScenario(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	team := mustCreate(t, svc, alice, "Alpha", 3)
	mustAddMember(t, svc, alice, team.ID, bob)

	got, err := svc.AddTasks(ctx, alice, team.ID, contentJSON(t, map[string]any{
		"title":       "T1",
		"description": "D1",
		"due_date":    "2025-01-01",
		"priority":    "Low",
		"assigned_to": []string{bob},
	}))
	if err != nil {
		t.Fatalf("AddTasks: %v", err)
	}
	if len(got.Content) != 1 {
		t.Fatalf("content = %d, want 1", len(got.Content))
	}
	c := got.Content[0]
	if c.Title != "T1" || c.Description != "D1" || c.Priority != task.PriorityLow || c.CreatedBy != alice {
		t.Errorf("unexpected content: %+v", c)
	}

	updated, err := svc.EditTaskStatus(ctx, bob, team.ID, c.ID, "Completed")
	if err != nil {
		t.Fatalf("assignee EditTaskStatus: %v", err)
	}
	if updated.Status != task.StatusCompleted {
		t.Errorf("status = %q, want Completed", updated.Status)
	}

	_, err = svc.EditTaskStatus(ctx, alice, team.ID, c.ID, "In Progress")
	if !errors.Is(err, ErrNotAssigned) || apperr.HTTPStatus(err) != 403 {
		t.Fatalf("creator not assigned: expected 403 ErrNotAssigned, got %v", err)
	}
}

func TestEditTaskStatus_Unassigned(t *testing.T) {
	svc, repo, team, taskID := setupTeamWithTask(t)

	stale := &staleRepo{memRepo: repo, before: func() {
		repo.teams[team.ID].Content[0].AssignedTo = []string{carol}
	}}
	svc.repo = stale

	_, err := svc.EditTaskStatus(context.Background(), bob, team.ID, taskID, "Completed")
	if !errors.Is(err, ErrModified) {
		t.Fatalf("expected ErrModified, got %v", err)
	}
}

func TestEditContent(t *testing.T) {
	svc, _, team, taskID := setupTeamWithTask(t)

	raw := func(s string) map[string]json.RawMessage {
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			t.Fatal(err)
		}
		return m
	}

	got, err := svc.EditContent(context.Background(), alice, team.ID, taskID,
		raw(`{"title":"Renamed","assigned_to":["`+carol+`","`+bob+`"]}`))
	if err != nil {
		t.Fatalf("EditContent: %v", err)
	}
	c := got.FindContent(taskID)
	if c.Title != "Renamed" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Description != "Description of T1" {
		t.Errorf("description should be untouched, got %q", c.Description)
	}
	if len(c.Assignees) != 2 || c.Assignees[0].ID != carol {
		t.Errorf("assignees = %+v", c.Assignees)
	}

	tests := []struct {
		name      string
		requester string
		taskID    string
		body      string
		wantErr   error
	}{
		{"unknown field", alice, taskID, `{"status":"Completed"}`, ErrUpdateFieldInvalid},
		{"blank title", alice, taskID, `{"title":"  "}`, ErrTitleRequired},
		{"non-string description", alice, taskID, `{"description":5}`, ErrDescriptionRequired},
		{"not creator with unknown field", bob, taskID, `{"status":"Completed"}`, ErrNotContentCreator},
		{"non-member with empty body", dave, taskID, `{}`, ErrNotMember},
		{"empty body", alice, taskID, `{}`, ErrUpdateFieldsRequired},
		{"bad due date", alice, taskID, `{"due_date":"tomorrow"}`, task.ErrDueDateInvalid},
		{"missing task", alice, missingTeam, `{"title":"Again"}`, ErrContentNotFound},
		{"member but not creator", bob, taskID, `{"title":"Again"}`, ErrNotContentCreator},
		{"non-member", dave, taskID, `{"title":"Again"}`, ErrNotMember},
		{"assignee outside team", alice, taskID, `{"assigned_to":["` + dave + `"]}`, ErrAssigneeNotMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.EditContent(context.Background(), tt.requester, team.ID, tt.taskID, raw(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDeleteContent(t *testing.T) {
	svc, _, team, taskID := setupTeamWithTask(t)

	if err := svc.DeleteContent(context.Background(), bob, team.ID, taskID); !errors.Is(err, ErrNotContentCreator) {
		t.Fatalf("expected ErrNotContentCreator, got %v", err)
	}
	if err := svc.DeleteContent(context.Background(), dave, team.ID, taskID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := svc.DeleteContent(context.Background(), alice, team.ID, taskID); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}
	if err := svc.DeleteContent(context.Background(), alice, team.ID, taskID); !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("second delete: expected ErrContentNotFound, got %v", err)
	}

	got, err := svc.ListTeamTasks(context.Background(), alice, team.ID)
	if err != nil {
		t.Fatalf("team should persist: %v", err)
	}
	if len(got.Content) != 0 {
		t.Errorf("content = %d, want 0", len(got.Content))
	}
}

func TestListTeamTasks(t *testing.T) {
	svc, _, team, _ := setupTeamWithTask(t)

	got, err := svc.ListTeamTasks(context.Background(), carol, team.ID)
	if err != nil {
		t.Fatalf("member ListTeamTasks: %v", err)
	}
	if len(got.Content) != 1 || len(got.Content[0].Assignees) != 1 {
		t.Errorf("unexpected content: %+v", got.Content)
	}

	if _, err := svc.ListTeamTasks(context.Background(), dave, team.ID); !errors.Is(err, ErrNotMember) {
		t.Errorf("non-member: expected ErrNotMember, got %v", err)
	}
	if _, err := svc.ListTeamTasks(context.Background(), alice, missingTeam); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestParsePatch_FieldOrder(t *testing.T) {
	fields := map[string]json.RawMessage{
		"assigned_to": json.RawMessage(`["nope"]`),
		"priority":    json.RawMessage(`"Urgent"`),
		"due_date":    json.RawMessage(`"soon"`),
		"description": json.RawMessage(`""`),
		"title":       json.RawMessage(`""`),
	}
	want := []error{ErrTitleRequired, ErrDescriptionRequired, task.ErrDueDateInvalid, task.ErrPriorityInvalid, ErrInvalidAssigneeID}
	valid := map[string]json.RawMessage{
		"title":       json.RawMessage(`"T2"`),
		"description": json.RawMessage(`"D2"`),
		"due_date":    json.RawMessage(`"2025-02-01"`),
		"priority":    json.RawMessage(`"High"`),
		"assigned_to": json.RawMessage(`["` + bob + `"]`),
	}

	for i, key := range patchOrder {
		for run := 0; run < 20; run++ {
			_, err := parsePatch(fields)
			if !errors.Is(err, want[i]) {
				t.Fatalf("with %s first invalid: expected %v, got %v", key, want[i], err)
			}
		}
		fields[key] = valid[key]
	}

	p, err := parsePatch(fields)
	if err != nil {
		t.Fatalf("all valid: %v", err)
	}
	if *p.Title != "T2" || *p.Description != "D2" || len(p.AssignedTo) != 1 {
		t.Errorf("unexpected patch: %+v", p)
	}
}

func TestParseMaxMembers(t *testing.T) {
	tests := []struct {
		in      *float64
		want    int
		wantErr bool
	}{
		{ptr(2), 2, false},
		{ptr(20), 20, false},
		{ptr(1.99), 0, true},
		{ptr(20.5), 0, true},
		{ptr(7.5), 0, true},
		{nil, 0, true},
	}
	for _, tt := range tests {
		got, err := parseMaxMembers(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseMaxMembers(%v) = %d, %v", tt.in, got, err)
		}
	}
}
