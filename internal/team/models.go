package team

import (
	"slices"
	"time"

	"github.com/alecgard/taskhub/internal/task"
)

const (
	MinMembers = 2
	MaxMembers = 20
)

// Team is a named group of users sharing a task list.
type Team struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedBy  string     `json:"createdBy"`
	Members    []string   `json:"members"`
	MaxMembers int        `json:"maxMembers"`
	Content    []*Content `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// HasMember reports whether userID is in the member list.
func (t *Team) HasMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}

// HasMembers reports whether every id in userIDs is a member.
func (t *Team) HasMembers(userIDs []string) bool {
	for _, id := range userIDs {
		if !t.HasMember(id) {
			return false
		}
	}
	return true
}

// FindContent returns the content entry with the given id, or nil.
func (t *Team) FindContent(id string) *Content {
	for _, c := range t.Content {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (t *Team) replaceContent(updated *Content) {
	for i, c := range t.Content {
		if c.ID == updated.ID {
			t.Content[i] = updated
			return
		}
	}
}

// Content is a task embedded in a team's task list.
type Content struct {
	ID          string        `json:"id"`
	CreatedBy   string        `json:"createdBy"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	DueDate     time.Time     `json:"due_date"`
	Priority    task.Priority `json:"priority"`
	Status      task.Status   `json:"status"`
	AssignedTo  []string      `json:"assigned_to"`
	Assignees   []Member      `json:"assignees,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IsAssigned reports whether userID is one of the content's assignees.
func (c *Content) IsAssigned(userID string) bool {
	return slices.Contains(c.AssignedTo, userID)
}

// Overdue reports whether the content is past due and not completed.
func (c *Content) Overdue(now time.Time) bool {
	return c.Status != task.StatusCompleted && c.DueDate.Before(now)
}

// Member is the display projection of a user.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateInput is the request body for creating a team. MaxMembers is decoded
// as a float so non-integral values can be rejected with a domain message.
type CreateInput struct {
	Name       string   `json:"name"`
	MaxMembers *float64 `json:"maxMembers"`
}

// MemberInput is the request body for adding a member.
type MemberInput struct {
	MemberID string `json:"memberId"`
}

// MaxMembersInput is the request body for changing the member limit.
type MaxMembersInput struct {
	MaxMembers *float64 `json:"maxMembers"`
}

// ContentInput is one item of an add-tasks request.
type ContentInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date"`
	Priority    string   `json:"priority"`
	AssignedTo  []string `json:"assigned_to"`
}

// ContentPatch holds validated partial updates. Nil fields are left untouched.
type ContentPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *task.Priority
	AssignedTo  []string
}

// Empty reports whether the patch changes nothing.
func (p ContentPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Priority == nil && p.AssignedTo == nil
}

// Apply returns a copy of c with the patch applied.
func (p ContentPatch) Apply(c *Content) *Content {
	out := *c
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		out.AssignedTo = slices.Clone(p.AssignedTo)
	}
	out.Assignees = nil
	return &out
}
