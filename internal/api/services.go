package api

import (
	"context"
	"encoding/json"

	"github.com/alecgard/taskhub/internal/dashboard"
	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
	"github.com/alecgard/taskhub/internal/user"
)

// UserService is the identity surface used by the user handlers.
type UserService interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, error)
	Login(ctx context.Context, in user.LoginInput) (string, *user.User, error)
	Logout(ctx context.Context, token string) error
	Get(ctx context.Context, id string) (*user.User, error)
}

// TaskService manages personal tasks.
type TaskService interface {
	Create(ctx context.Context, ownerID string, in task.FieldsInput) (*task.Task, error)
	List(ctx context.Context, ownerID, status string) ([]*task.Task, error)
	Update(ctx context.Context, ownerID, id string, in task.FieldsInput) (*task.Task, error)
	UpdateStatus(ctx context.Context, ownerID, id, status string) (*task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TeamService is the team/task authorization core.
type TeamService interface {
	CreateTeam(ctx context.Context, creatorID string, in team.CreateInput) (*team.Team, error)
	ListTeams(ctx context.Context, userID string) ([]*team.Team, error)
	AddMember(ctx context.Context, requesterID, teamID, memberID string) (*team.Team, error)
	LeaveTeam(ctx context.Context, requesterID, teamID string) (*team.Team, error)
	EditMaxMembers(ctx context.Context, requesterID, teamID string, value *float64) (*team.Team, error)
	DeleteTeam(ctx context.Context, requesterID, teamID string) error
	AddTasks(ctx context.Context, requesterID, teamID string, raw json.RawMessage) (*team.Team, error)
	EditContent(ctx context.Context, requesterID, teamID, contentID string, fields map[string]json.RawMessage) (*team.Team, error)
	EditTaskStatus(ctx context.Context, requesterID, teamID, contentID, status string) (*team.Content, error)
	DeleteContent(ctx context.Context, requesterID, teamID, contentID string) error
	ListTeamTasks(ctx context.Context, requesterID, teamID string) (*team.Team, error)
}

// DashboardService computes per-user rollups.
type DashboardService interface {
	ForUser(ctx context.Context, userID string) (*dashboard.Stats, error)
}

// Pinger reports store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ UserService      = (*user.Service)(nil)
	_ TaskService      = (*task.Service)(nil)
	_ TeamService      = (*team.Service)(nil)
	_ DashboardService = (*dashboard.Service)(nil)
)
