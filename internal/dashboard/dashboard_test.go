package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
)

type fakeTasks []*task.Task

func (f fakeTasks) ListByOwner(_ context.Context, _ string, _ task.Status) ([]*task.Task, error) {
	return f, nil
}

type fakeTeams struct {
	teams []*team.Team
	err   error
}

func (f fakeTeams) ListByMember(_ context.Context, _ string) ([]*team.Team, error) {
	return f.teams, f.err
}

func TestForUser(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	tasks := fakeTasks{
		{Status: task.StatusNotStarted, Priority: task.PriorityLow, DueDate: past},
		{Status: task.StatusCompleted, Priority: task.PriorityHigh, DueDate: past},
		{Status: task.StatusInProgress, Priority: task.PriorityHigh, DueDate: future},
	}
	teams := fakeTeams{teams: []*team.Team{
		{
			CreatedBy: "me",
			Content: []*team.Content{
				{CreatedBy: "me", AssignedTo: []string{"other"}, Status: task.StatusNotStarted, DueDate: future},
				{CreatedBy: "other", AssignedTo: []string{"me"}, Status: task.StatusInProgress, DueDate: past},
			},
		},
		{
			CreatedBy: "other",
			Content: []*team.Content{
				{CreatedBy: "other", AssignedTo: []string{"me", "other"}, Status: task.StatusCompleted, DueDate: past},
			},
		},
	}}

	svc := NewService(tasks, teams)
	svc.now = func() time.Time { return now }

	stats, err := svc.ForUser(context.Background(), "me")
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}

	p := stats.Personal
	if p.Total != 3 || p.Overdue != 1 {
		t.Errorf("personal total/overdue = %d/%d, want 3/1", p.Total, p.Overdue)
	}
	if p.ByPriority[task.PriorityHigh] != 2 || p.ByPriority[task.PriorityMedium] != 0 {
		t.Errorf("byPriority = %v", p.ByPriority)
	}
	if _, ok := p.ByPriority[task.PriorityMedium]; !ok {
		t.Error("every priority should be present")
	}

	tm := stats.Teams
	if tm.Joined != 2 || tm.Created != 1 {
		t.Errorf("joined/created = %d/%d, want 2/1", tm.Joined, tm.Created)
	}
	if tm.Assigned != 2 || tm.AssignedOverdue != 1 || tm.CreatedTasks != 1 {
		t.Errorf("assigned/overdue/createdTasks = %d/%d/%d, want 2/1/1", tm.Assigned, tm.AssignedOverdue, tm.CreatedTasks)
	}
	if tm.AssignedByStatus[task.StatusCompleted] != 1 || tm.AssignedByStatus[task.StatusNotStarted] != 0 {
		t.Errorf("assignedByStatus = %v", tm.AssignedByStatus)
	}
}

func TestForUser_Error(t *testing.T) {
	svc := NewService(fakeTasks{}, fakeTeams{err: errors.New("boom")})
	if _, err := svc.ForUser(context.Background(), "me"); err == nil {
		t.Fatal("expected error")
	}
}
