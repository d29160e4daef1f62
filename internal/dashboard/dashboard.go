// Package dashboard rolls up a user's personal and team task counts.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
)

// TaskLister lists a user's personal tasks.
type TaskLister interface {
	ListByOwner(ctx context.Context, ownerID string, status task.Status) ([]*task.Task, error)
}

// TeamLister lists the teams a user belongs to, with content.
type TeamLister interface {
	ListByMember(ctx context.Context, userID string) ([]*team.Team, error)
}

// Stats is the dashboard payload.
type Stats struct {
	Personal PersonalStats `json:"personal"`
	Teams    TeamStats     `json:"teams"`
}

// PersonalStats summarizes the user's own tasks.
type PersonalStats struct {
	Total      int                   `json:"total"`
	ByStatus   map[task.Status]int   `json:"byStatus"`
	ByPriority map[task.Priority]int `json:"byPriority"`
	Overdue    int                   `json:"overdue"`
}

// TeamStats summarizes the user's team membership and team tasks.
type TeamStats struct {
	Joined           int                 `json:"joined"`
	Created          int                 `json:"created"`
	Assigned         int                 `json:"assigned"`
	AssignedByStatus map[task.Status]int `json:"assignedByStatus"`
	AssignedOverdue  int                 `json:"assignedOverdue"`
	CreatedTasks     int                 `json:"createdTasks"`
}

// Service computes dashboard statistics.
type Service struct {
	tasks TaskLister
	teams TeamLister
	now   func() time.Time
}

// NewService creates a dashboard service.
func NewService(tasks TaskLister, teams TeamLister) *Service {
	return &Service{tasks: tasks, teams: teams, now: time.Now}
}

// ForUser returns the statistics for userID.
func (s *Service) ForUser(ctx context.Context, userID string) (*Stats, error) {
	now := s.now()

	tasks, err := s.tasks.ListByOwner(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("listing personal tasks: %w", err)
	}
	teams, err := s.teams.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}

	stats := &Stats{
		Personal: PersonalStats{
			ByStatus:   zeroStatuses(),
			ByPriority: make(map[task.Priority]int, len(task.Priorities)),
		},
		Teams: TeamStats{
			AssignedByStatus: zeroStatuses(),
		},
	}
	for _, p := range task.Priorities {
		stats.Personal.ByPriority[p] = 0
	}

	for _, t := range tasks {
		stats.Personal.Total++
		stats.Personal.ByStatus[t.Status]++
		stats.Personal.ByPriority[t.Priority]++
		if t.Overdue(now) {
			stats.Personal.Overdue++
		}
	}

	for _, tm := range teams {
		stats.Teams.Joined++
		if tm.CreatedBy == userID {
			stats.Teams.Created++
		}
		for _, c := range tm.Content {
			if c.CreatedBy == userID {
				stats.Teams.CreatedTasks++
			}
			if !c.IsAssigned(userID) {
				continue
			}
			stats.Teams.Assigned++
			stats.Teams.AssignedByStatus[c.Status]++
			if c.Overdue(now) {
				stats.Teams.AssignedOverdue++
			}
		}
	}

	return stats, nil
}

func zeroStatuses() map[task.Status]int {
	m := make(map[task.Status]int, len(task.Statuses))
	for _, st := range task.Statuses {
		m[st] = 0
	}
	return m
}
