package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
	"github.com/alecgard/taskhub/internal/user"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users, a team and tasks",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const demoPassword = "Passw0rd!"

var demoUsers = []user.RegisterInput{
	{Name: "Alice Demo", Email: "alice@taskhub.local", Password: demoPassword},
	{Name: "Bob Demo", Email: "bob@taskhub.local", Password: demoPassword},
	{Name: "Carol Demo", Email: "carol@taskhub.local", Password: demoPassword},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	svc := newServices(cfg, b)

	// Create users; an existing first user means the seed already ran.
	users := make([]*user.User, 0, len(demoUsers))
	for _, in := range demoUsers {
		u, err := svc.users.Register(ctx, in)
		if errors.Is(err, user.ErrEmailTaken) && len(users) == 0 {
			slog.Info("demo data already exists, skipping seed")
			return nil
		}
		if err != nil {
			return fmt.Errorf("creating user %q: %w", in.Email, err)
		}
		slog.Info("created user", "email", u.Email, "id", u.ID)
		users = append(users, u)
	}
	alice, bob, carol := users[0], users[1], users[2]

	due := time.Now().AddDate(0, 0, 7).Format(time.DateOnly)
	if _, err := svc.tasks.Create(ctx, alice.ID, task.FieldsInput{
		Title:       "Plan the week",
		Description: "Block out focus time and review open tickets",
		DueDate:     due,
		Priority:    string(task.PriorityMedium),
	}); err != nil {
		return fmt.Errorf("creating personal task: %w", err)
	}

	maxMembers := 5.0
	tm, err := svc.teams.CreateTeam(ctx, alice.ID, team.CreateInput{Name: "Demo Team", MaxMembers: &maxMembers})
	if err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	for _, member := range []*user.User{bob, carol} {
		if _, err := svc.teams.AddMember(ctx, alice.ID, tm.ID, member.ID); err != nil {
			return fmt.Errorf("adding %s to team: %w", member.Email, err)
		}
	}

	content, err := json.Marshal([]team.ContentInput{
		{
			Title:       "Write onboarding guide",
			Description: "Document local setup and the release process",
			DueDate:     due,
			Priority:    string(task.PriorityHigh),
			AssignedTo:  []string{bob.ID},
		},
		{
			Title:       "Review dashboard metrics",
			Description: "Check the team rollups against the raw task lists",
			DueDate:     due,
			Priority:    string(task.PriorityLow),
			AssignedTo:  []string{bob.ID, carol.ID},
		},
	})
	if err != nil {
		return fmt.Errorf("encoding team tasks: %w", err)
	}
	tm, err = svc.teams.AddTasks(ctx, alice.ID, tm.ID, content)
	if err != nil {
		return fmt.Errorf("adding team tasks: %w", err)
	}

	slog.Info("created demo team", "id", tm.ID, "name", tm.Name, "members", len(tm.Members), "tasks", len(tm.Content))
	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Users:     %d (password %s)\n", len(users), demoPassword)
	fmt.Printf("Team:      %s (%s)\n", tm.Name, tm.ID)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/users/login -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", alice.Email, demoPassword)

	return nil
}
