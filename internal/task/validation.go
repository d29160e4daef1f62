package task

import (
	"strings"
	"time"

	"github.com/alecgard/taskhub/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Validation errors shared by personal tasks and team task content.
var (
	ErrFieldsRequired      = apperr.Validation("All fields are required")
	ErrTitleLength         = apperr.Validation("Title must be a string between 3 and 100 characters")
	ErrDescriptionLength   = apperr.Validation("Description must be a string between 3 and 500 characters")
	ErrDueDateInvalid      = apperr.Validation("Due date must be a valid date")
	ErrPriorityInvalid     = apperr.Validation("Invalid priority value")
	ErrStatusInvalid       = apperr.Validation("Invalid status value. Status value must be one of the following: Not Started, In Progress, Completed")
	ErrStatusFilterInvalid = apperr.Validation("Invalid status value")
	ErrInvalidID           = apperr.Validation("Invalid task ID")
)

var validate = validator.New()

// dueDateLayouts are tried in order when parsing a due date.
var dueDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ValidateTitle returns the trimmed title or ErrTitleLength.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if err := validate.Var(trimmed, "min=3,max=100"); err != nil {
		return "", ErrTitleLength
	}
	return trimmed, nil
}

// ValidateDescription returns the trimmed description or ErrDescriptionLength.
func ValidateDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	if err := validate.Var(trimmed, "min=3,max=500"); err != nil {
		return "", ErrDescriptionLength
	}
	return trimmed, nil
}

// ParseDueDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrDueDateInvalid
}

// ParsePriority validates a priority value. An empty value is rejected; callers
// that apply a default must do so before calling.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ErrPriorityInvalid
}

// ParseStatus validates a status value.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrStatusInvalid
}

// ParseFields validates a full set of task fields. A missing priority
// defaults to Medium.
func ParseFields(in FieldsInput) (Fields, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.DueDate) == "" {
		return Fields{}, ErrFieldsRequired
	}

	title, err := ValidateTitle(in.Title)
	if err != nil {
		return Fields{}, err
	}
	description, err := ValidateDescription(in.Description)
	if err != nil {
		return Fields{}, err
	}
	due, err := ParseDueDate(in.DueDate)
	if err != nil {
		return Fields{}, err
	}

	priority := PriorityMedium
	if in.Priority != "" {
		if priority, err = ParsePriority(in.Priority); err != nil {
			return Fields{}, err
		}
	}

	return Fields{
		Title:       title,
		Description: description,
		DueDate:     due,
		Priority:    priority,
	}, nil
}

func validateID(id string) error {
	if uuid.Validate(id) != nil {
		return ErrInvalidID
	}
	return nil
}
