package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alecgard/taskhub/internal/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const teamColumns = `id::text, name, created_by::text, members::text[], max_members, created_at, updated_at`

const contentColumns = `id::text, created_by::text, title, description, due_date, priority, status, assigned_to::text[], created_at, updated_at`

// Store provides database operations for teams and team tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new team store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func scanTeam(scan func(dest ...any) error) (*Team, error) {
	t := &Team{}
	err := scan(&t.ID, &t.Name, &t.CreatedBy, &t.Members, &t.MaxMembers, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanContent(scan func(dest ...any) error) (*Content, error) {
	c := &Content{}
	var priority, status string
	err := scan(&c.ID, &c.CreatedBy, &c.Title, &c.Description, &c.DueDate, &priority, &status, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Priority = task.Priority(priority)
	c.Status = task.Status(status)
	return c, nil
}

// queryTeam runs a single-row team query. No rows maps to notFound.
func (s *Store) queryTeam(ctx context.Context, notFound error, query string, args ...any) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound
	}
	return t, err
}

// Create inserts a team with the creator as its first member.
func (s *Store) Create(ctx context.Context, creatorID, name string, maxMembers int) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO teams (name, created_by, members, max_members)
			 VALUES ($1, $2, ARRAY[$2::uuid], $3)
			 RETURNING `+teamColumns,
			name, creatorID, maxMembers,
		).Scan(dest...)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("creating team: %w", err)
	}
	return t, nil
}

// Get returns a team and its content.
func (s *Store) Get(ctx context.Context, id string) (*Team, error) {
	t, err := s.queryTeam(ctx, ErrTeamNotFound,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting team: %w", err)
	}

	byTeam, err := s.loadContent(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.Content = byTeam[t.ID]
	return t, nil
}

// GetOwned returns a team created by creatorID, without content.
func (s *Store) GetOwned(ctx context.Context, id, creatorID string) (*Team, error) {
	t, err := s.queryTeam(ctx, ErrTeamNotFound,
		`SELECT `+teamColumns+` FROM teams WHERE id = $1 AND created_by = $2`, id, creatorID)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting owned team: %w", err)
	}
	return t, nil
}

// ListByMember returns every team userID belongs to, with content.
func (s *Store) ListByMember(ctx context.Context, userID string) ([]*Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+teamColumns+` FROM teams
		 WHERE $1::uuid = ANY(members)
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	var ids []string
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	byTeam, err := s.loadContent(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		t.Content = byTeam[t.ID]
	}
	return teams, nil
}

func (s *Store) loadContent(ctx context.Context, teamIDs []string) (map[string][]*Content, error) {
	out := make(map[string][]*Content, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT team_id::text, `+contentColumns+` FROM team_tasks
		 WHERE team_id = ANY($1::text[]::uuid[])
		 ORDER BY seq ASC`,
		teamIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("listing team tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teamID string
		c, err := scanContent(func(dest ...any) error {
			return rows.Scan(append([]any{&teamID}, dest...)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning team task row: %w", err)
		}
		out[teamID] = append(out[teamID], c)
	}
	return out, rows.Err()
}

// AddMember appends memberID if the team is owned by creatorID, does not
// already contain memberID and is below its limit.
func (s *Store) AddMember(ctx context.Context, id, creatorID, memberID string) (*Team, error) {
	t, err := s.queryTeam(ctx, ErrModified,
		`UPDATE teams SET members = array_append(members, $3::uuid), updated_at = now()
		 WHERE id = $1 AND created_by = $2
		   AND NOT ($3::uuid = ANY(members))
		   AND cardinality(members) < max_members
		 RETURNING `+teamColumns,
		id, creatorID, memberID,
	)
	if err != nil {
		if errors.Is(err, ErrModified) {
			return nil, err
		}
		return nil, fmt.Errorf("adding team member: %w", err)
	}
	return t, nil
}

// RemoveMember drops memberID from the team unless memberID is its creator.
func (s *Store) RemoveMember(ctx context.Context, id, memberID string) (*Team, error) {
	t, err := s.queryTeam(ctx, ErrModified,
		`UPDATE teams SET members = array_remove(members, $2::uuid), updated_at = now()
		 WHERE id = $1 AND created_by <> $2
		 RETURNING `+teamColumns,
		id, memberID,
	)
	if err != nil {
		if errors.Is(err, ErrModified) {
			return nil, err
		}
		return nil, fmt.Errorf("removing team member: %w", err)
	}
	return t, nil
}

// SetMaxMembers updates the member limit of a team owned by creatorID.
func (s *Store) SetMaxMembers(ctx context.Context, id, creatorID string, maxMembers int) (*Team, error) {
	t, err := s.queryTeam(ctx, ErrTeamNotFound,
		`UPDATE teams SET max_members = $3, updated_at = now()
		 WHERE id = $1 AND created_by = $2
		 RETURNING `+teamColumns,
		id, creatorID, maxMembers,
	)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating max members: %w", err)
	}
	return t, nil
}

// Delete removes a team owned by creatorID. Its tasks are removed by the
// foreign key cascade.
func (s *Store) Delete(ctx context.Context, id, creatorID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1 AND created_by = $2`, id, creatorID)
	if err != nil {
		return fmt.Errorf("deleting team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// AddContent inserts all items in one statement, guarded by the team's
// current membership.
func (s *Store) AddContent(ctx context.Context, teamID, memberID string, items []*Content) error {
	if len(items) == 0 {
		return nil
	}

	query, args := buildContentInsert(teamID, memberID, items)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("adding team tasks: %w", err)
	}
	if tag.RowsAffected() != int64(len(items)) {
		return ErrModified
	}
	return nil
}

// buildContentInsert builds an INSERT ... SELECT that writes every item only
// when memberID and all assignees are members of the team.
func buildContentInsert(teamID, memberID string, items []*Content) (string, []any) {
	args := []any{teamID, memberID, assigneeUnion(items)}
	rows := make([]string, 0, len(items))

	for _, c := range items {
		base := len(args) + 1
		rows = append(rows, fmt.Sprintf(
			"($%d::uuid, $%d::text, $%d::text, $%d::timestamptz, $%d::text, $%d::text, $%d::text[], $%d::timestamptz, $%d::timestamptz)",
			base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			c.ID,
			c.Title,
			c.Description,
			c.DueDate,
			string(c.Priority),
			string(c.Status),
			c.AssignedTo,
			c.CreatedAt,
			c.UpdatedAt,
		)
	}

	query := `INSERT INTO team_tasks
		(team_id, id, created_by, title, description, due_date, priority, status, assigned_to, created_at, updated_at)
		SELECT t.id, v.id, $2::uuid, v.title, v.description, v.due_date, v.priority, v.status, v.assigned_to::uuid[], v.created_at, v.updated_at
		FROM teams t, (VALUES ` + strings.Join(rows, ", ") + `)
		  AS v(id, title, description, due_date, priority, status, assigned_to, created_at, updated_at)
		WHERE t.id = $1 AND $2::uuid = ANY(t.members) AND $3::text[]::uuid[] <@ t.members`
	return query, args
}

func assigneeUnion(items []*Content) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range items {
		for _, id := range c.AssignedTo {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// UpdateContent applies a partial update to content created by creatorID.
func (s *Store) UpdateContent(ctx context.Context, teamID, contentID, creatorID string, patch ContentPatch) (*Content, error) {
	setClauses, args := buildContentSet(patch)
	if len(setClauses) == 0 {
		return nil, ErrUpdateFieldsRequired
	}

	n := len(args)
	args = append(args, teamID, contentID, creatorID)
	where := []string{
		"t.id = tt.team_id",
		fmt.Sprintf("tt.team_id = $%d", n+1),
		fmt.Sprintf("tt.id = $%d", n+2),
		fmt.Sprintf("tt.created_by = $%d", n+3),
		fmt.Sprintf("$%d::uuid = ANY(t.members)", n+3),
	}
	if patch.AssignedTo != nil {
		args = append(args, patch.AssignedTo)
		where = append(where, fmt.Sprintf("$%d::text[]::uuid[] <@ t.members", n+4))
	}

	query := `UPDATE team_tasks tt SET ` + strings.Join(setClauses, ", ") + `, updated_at = now()
		FROM teams t
		WHERE ` + strings.Join(where, " AND ") + `
		RETURNING ` + prefixColumns("tt.", contentColumns)

	c, err := scanContent(func(dest ...any) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModified
		}
		return nil, fmt.Errorf("updating team task: %w", err)
	}
	return c, nil
}

// buildContentSet returns the SET clauses and arguments for a patch,
// numbered from $1.
func buildContentSet(patch ContentPatch) ([]string, []any) {
	setClauses := []string{}
	args := []any{}
	argIdx := 1

	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *patch.Title)
		argIdx++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *patch.Description)
		argIdx++
	}
	if patch.DueDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("due_date = $%d", argIdx))
		args = append(args, *patch.DueDate)
		argIdx++
	}
	if patch.Priority != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, string(*patch.Priority))
		argIdx++
	}
	if patch.AssignedTo != nil {
		setClauses = append(setClauses, fmt.Sprintf("assigned_to = $%d::text[]::uuid[]", argIdx))
		args = append(args, patch.AssignedTo)
	}
	return setClauses, args
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}

// SetContentStatus updates the status of content assigned to assigneeID.
func (s *Store) SetContentStatus(ctx context.Context, teamID, contentID, assigneeID string, status task.Status) (*Content, error) {
	c, err := scanContent(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`UPDATE team_tasks SET status = $4, updated_at = now()
			 WHERE team_id = $1 AND id = $2 AND $3::uuid = ANY(assigned_to)
			 RETURNING `+contentColumns,
			teamID, contentID, assigneeID, string(status),
		).Scan(dest...)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModified
		}
		return nil, fmt.Errorf("updating team task status: %w", err)
	}
	return c, nil
}

// DeleteContent removes content created by creatorID while they are a member.
func (s *Store) DeleteContent(ctx context.Context, teamID, contentID, creatorID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM team_tasks tt USING teams t
		 WHERE t.id = tt.team_id AND tt.team_id = $1 AND tt.id = $2
		   AND tt.created_by = $3 AND $3::uuid = ANY(t.members)`,
		teamID, contentID, creatorID,
	)
	if err != nil {
		return fmt.Errorf("deleting team task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrModified
	}
	return nil
}
