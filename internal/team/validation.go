package team

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/alecgard/taskhub/internal/apperr"
	"github.com/alecgard/taskhub/internal/task"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Input validation errors.
var (
	ErrNameRequired         = apperr.Validation("Please provide a team name")
	ErrNameLength           = apperr.Validation("Team name must be a string between 3 and 100 characters")
	ErrMaxMembersInvalid    = apperr.Validation("Invalid max members value. It should be a number between 2 and 20")
	ErrInvalidTeamID        = apperr.Validation("Invalid team ID")
	ErrInvalidMemberID      = apperr.Validation("Invalid member ID")
	ErrInvalidTaskID        = apperr.Validation("Invalid task ID")
	ErrInvalidAssigneeID    = apperr.Validation("Invalid assigned user ID")
	ErrContentRequired      = apperr.Validation("Please provide at least one task")
	ErrContentMalformed     = apperr.Validation("Task content must be a list of tasks")
	ErrContentFields        = apperr.Validation("Each task requires title, description, due_date, priority and assigned_to")
	ErrUpdateFieldsRequired = apperr.Validation("Please provide fields to update")
	ErrUpdateFieldInvalid   = apperr.Validation("Invalid update field")
	ErrAssigneesRequired    = apperr.Validation("assigned_to must contain at least one user")
	ErrTitleRequired        = apperr.Validation("Title is required")
	ErrDescriptionRequired  = apperr.Validation("Description is required")
)

var validate = validator.New()

// patchOrder fixes the order edit fields are validated in.
var patchOrder = []string{"title", "description", "due_date", "priority", "assigned_to"}

var editableFields = map[string]bool{
	"title":       true,
	"description": true,
	"due_date":    true,
	"priority":    true,
	"assigned_to": true,
}

func validateID(id string, invalid error) error {
	if uuid.Validate(id) != nil {
		return invalid
	}
	return nil
}

func parseName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrNameRequired
	}
	if err := validate.Var(trimmed, "min=3,max=100"); err != nil {
		return "", ErrNameLength
	}
	return trimmed, nil
}

// parseMaxMembers accepts integral values in [MinMembers, MaxMembers].
func parseMaxMembers(v *float64) (int, error) {
	if v == nil || *v != math.Trunc(*v) || *v < MinMembers || *v > MaxMembers {
		return 0, ErrMaxMembersInvalid
	}
	return int(*v), nil
}

// parseAssignees validates ids and drops duplicates while keeping order.
func parseAssignees(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrAssigneesRequired
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if err := validateID(id, ErrInvalidAssigneeID); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// decodeContentItems accepts a JSON array of items or a JSON string holding
// one. A string that does not decode is an internal error.
func decodeContentItems(raw json.RawMessage) ([]ContentInput, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrContentRequired
	}

	var items []ContentInput
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, apperr.Internal("Failed to parse task content", err)
		}
		if err := json.Unmarshal([]byte(encoded), &items); err != nil {
			return nil, apperr.Internal("Failed to parse task content", err)
		}
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrContentMalformed
	}

	if len(items) == 0 {
		return nil, ErrContentRequired
	}
	return items, nil
}

// parseContent validates one add-tasks item.
func parseContent(in ContentInput) (*Content, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.DueDate) == "" || strings.TrimSpace(in.Priority) == "" || len(in.AssignedTo) == 0 {
		return nil, ErrContentFields
	}

	due, err := task.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	priority, err := task.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	assignees, err := parseAssignees(in.AssignedTo)
	if err != nil {
		return nil, err
	}

	return &Content{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     due,
		Priority:    priority,
		Status:      task.StatusNotStarted,
		AssignedTo:  assignees,
	}, nil
}

// requiredString decodes a JSON string and returns it trimmed. A non-string
// or blank value yields missing.
func requiredString(raw json.RawMessage, missing error) (string, error) {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", missing
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", missing
	}
	return s, nil
}

// parsePatch validates an edit-content body. Only the content fields may be
// present.
func parsePatch(fields map[string]json.RawMessage) (ContentPatch, error) {
	var p ContentPatch
	if len(fields) == 0 {
		return p, ErrUpdateFieldsRequired
	}
	for key := range fields {
		if !editableFields[key] {
			return p, ErrUpdateFieldInvalid
		}
	}

	for _, key := range patchOrder {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		switch key {
		case "title":
			title, err := requiredString(raw, ErrTitleRequired)
			if err != nil {
				return p, err
			}
			p.Title = &title
		case "description":
			description, err := requiredString(raw, ErrDescriptionRequired)
			if err != nil {
				return p, err
			}
			p.Description = &description
		case "due_date":
			var s string
			if json.Unmarshal(raw, &s) != nil {
				return p, task.ErrDueDateInvalid
			}
			due, err := task.ParseDueDate(s)
			if err != nil {
				return p, err
			}
			p.DueDate = &due
		case "priority":
			var s string
			if json.Unmarshal(raw, &s) != nil {
				return p, task.ErrPriorityInvalid
			}
			priority, err := task.ParsePriority(s)
			if err != nil {
				return p, err
			}
			p.Priority = &priority
		case "assigned_to":
			var ids []string
			if json.Unmarshal(raw, &ids) != nil {
				return p, ErrInvalidAssigneeID
			}
			assignees, err := parseAssignees(ids)
			if err != nil {
				return p, err
			}
			p.AssignedTo = assignees
		}
	}
	return p, nil
}
