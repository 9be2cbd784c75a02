package task

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MaxTitleLength    = 200
	MaxCategoryLength = 50
	MaxProjectLength  = 100
	MaxNotesLength    = 2000
	MaxTagLength      = 30
)

// ValidationError reports a single field constraint violation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func fieldError(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Err: err}
}

func tooLong(max int) string {
	return fmt.Sprintf("cannot exceed %d characters", max)
}

func ValidateTitle(title string) error {
	return fieldError("title", validation.Validate(strings.TrimSpace(title),
		validation.Required.Error("cannot be empty"),
		validation.RuneLength(1, MaxTitleLength).Error(tooLong(MaxTitleLength)),
	))
}

func ValidateCategory(category string) error {
	return fieldError("category", validation.Validate(strings.TrimSpace(category),
		validation.RuneLength(0, MaxCategoryLength).Error(tooLong(MaxCategoryLength)),
	))
}

func ValidateProject(project string) error {
	return fieldError("project", validation.Validate(strings.TrimSpace(project),
		validation.RuneLength(0, MaxProjectLength).Error(tooLong(MaxProjectLength)),
	))
}

func ValidateNotes(notes string) error {
	return fieldError("notes", validation.Validate(strings.TrimSpace(notes),
		validation.RuneLength(0, MaxNotesLength).Error(tooLong(MaxNotesLength)),
	))
}

// Validate checks every field constraint of a complete record.
func Validate(t Task) error {
	var errs []error
	errs = append(errs,
		ValidateTitle(t.Title),
		ValidateCategory(t.Category),
		ValidateProject(t.Project),
		ValidateNotes(t.Notes),
	)
	if !t.Priority.Valid() {
		errs = append(errs, fieldError("priority", fmt.Errorf("invalid value %d", int(t.Priority))))
	}
	if !t.Status.Valid() {
		errs = append(errs, fieldError("status", fmt.Errorf("invalid value %d", int(t.Status))))
	}
	for _, tag := range t.Tags {
		if err := validateTag(tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateTag(tag string) error {
	switch {
	case tag == "":
		return fieldError("tags", errors.New("tag cannot be empty"))
	case strings.ContainsAny(tag, " \t\n"):
		return fieldError("tags", fmt.Errorf("tag %q cannot contain spaces (use underscores)", tag))
	case len([]rune(tag)) > MaxTagLength:
		return fieldError("tags", fmt.Errorf("tag %q cannot exceed %d characters", tag, MaxTagLength))
	}
	return nil
}

// NormalizeTags parses a comma separated tag list. Tags are lowercased,
// inner spaces become underscores and duplicates collapse to the first
// occurrence.
func NormalizeTags(input string) ([]string, error) {
	var tags []string
	for _, part := range strings.Split(input, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		tag = strings.Join(strings.Fields(tag), "_")
		if err := validateTag(tag); err != nil {
			return nil, err
		}
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// ApplyTagEdits applies "+tag" and "-tag" edits from a comma separated
// list. Entries without a sign are ignored.
func ApplyTagEdits(tags []string, edits string) []string {
	out := slices.Clone(tags)
	for _, part := range strings.Split(edits, ",") {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			continue
		}
		tag := strings.ToLower(part[1:])
		switch part[0] {
		case '+':
			if !slices.Contains(out, tag) {
				out = append(out, tag)
			}
		case '-':
			out = slices.DeleteFunc(out, func(t string) bool { return t == tag })
		}
	}
	return out
}
