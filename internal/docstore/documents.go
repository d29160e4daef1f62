package docstore

import (
	"time"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
	"github.com/alecgard/taskhub/internal/user"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *userDoc) toUser() *user.User {
	return &user.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type sessionDoc struct {
	TokenHash string    `bson:"token_hash"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type taskDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	DueDate     time.Time `bson:"due_date"`
	Priority    string    `bson:"priority"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *taskDoc) toTask() *task.Task {
	return &task.Task{
		ID:          d.ID,
		OwnerID:     d.UserID,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate.UTC(),
		Priority:    task.Priority(d.Priority),
		Status:      task.Status(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type contentDoc struct {
	ID          string    `bson:"id"`
	CreatedBy   string    `bson:"created_by"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	DueDate     time.Time `bson:"due_date"`
	Priority    string    `bson:"priority"`
	Status      string    `bson:"status"`
	AssignedTo  []string  `bson:"assigned_to"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func newContentDoc(c *team.Content) contentDoc {
	return contentDoc{
		ID:          c.ID,
		CreatedBy:   c.CreatedBy,
		Title:       c.Title,
		Description: c.Description,
		DueDate:     c.DueDate,
		Priority:    string(c.Priority),
		Status:      string(c.Status),
		AssignedTo:  c.AssignedTo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d *contentDoc) toContent() *team.Content {
	return &team.Content{
		ID:          d.ID,
		CreatedBy:   d.CreatedBy,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate.UTC(),
		Priority:    task.Priority(d.Priority),
		Status:      task.Status(d.Status),
		AssignedTo:  d.AssignedTo,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type teamDoc struct {
	ID         string       `bson:"_id"`
	Name       string       `bson:"name"`
	CreatedBy  string       `bson:"created_by"`
	Members    []string     `bson:"members"`
	MaxMembers int          `bson:"max_members"`
	Content    []contentDoc `bson:"content"`
	CreatedAt  time.Time    `bson:"created_at"`
	UpdatedAt  time.Time    `bson:"updated_at"`
}

func (d *teamDoc) toTeam() *team.Team {
	t := &team.Team{
		ID:         d.ID,
		Name:       d.Name,
		CreatedBy:  d.CreatedBy,
		Members:    d.Members,
		MaxMembers: d.MaxMembers,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if t.Members == nil {
		t.Members = []string{}
	}
	for i := range d.Content {
		t.Content = append(t.Content, d.Content[i].toContent())
	}
	return t
}

func (d *teamDoc) findContent(id string) *team.Content {
	for i := range d.Content {
		if d.Content[i].ID == id {
			return d.Content[i].toContent()
		}
	}
	return nil
}
