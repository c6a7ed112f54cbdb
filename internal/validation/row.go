package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	personKeyPattern = regexp.MustCompile(`^[A-Za-z0-9\-/_.]+$`)
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	validate = newValidator()
)

const (
	PersonKeyMinLen = 3
	PersonKeyMaxLen = 20
)

// Row is one normalized upload row as seen by the validator.
type Row struct {
	PersonKey string `validate:"required,personkey"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"omitempty,rosteremail"`
}

// Issue describes one problem found on a source line.
type Issue struct {
	Line    int
	Field   string
	Value   string
	Message string
}

func (i Issue) String() string {
	if i.Value == "" {
		return fmt.Sprintf("line %d, %s: %s", i.Line, i.Field, i.Message)
	}
	return fmt.Sprintf("line %d, %s: %s (value: '%s')", i.Line, i.Field, i.Message, i.Value)
}

// RowCheck is the outcome for a single row. Skip is set when a required field
// or the person key is unusable; Warnings never cause a skip.
type RowCheck struct {
	Skip     *Issue
	Warnings []Issue
}

func (c RowCheck) Accepted() bool { return c.Skip == nil }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("personkey", func(fl validator.FieldLevel) bool {
		return IsValidPersonKey(fl.Field().String())
	})
	_ = v.RegisterValidation("rosteremail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// IsValidPersonKey reports whether s is 3 to 20 characters of letters, digits,
// '-', '/', '_' or '.'.
func IsValidPersonKey(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < PersonKeyMinLen || len(s) > PersonKeyMaxLen {
		return false
	}
	return personKeyPattern.MatchString(s)
}

// IsValidEmail applies the same check rows get on upload.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidateRow checks an already normalized row.
func ValidateRow(line int, r Row) RowCheck {
	var out RowCheck
	err := validate.Struct(r)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Skip = &Issue{Line: line, Field: "row", Message: err.Error()}
		return out
	}
	for _, fe := range verrs {
		issue := Issue{Line: line, Field: fieldName(fe.StructField()), Value: fmt.Sprint(fe.Value())}
		switch fe.StructField() {
		case "Email":
			issue.Message = "invalid email format"
			out.Warnings = append(out.Warnings, issue)
		default:
			issue.Message = message(fe)
			if out.Skip == nil {
				out.Skip = &issue
			}
		}
	}
	return out
}

func fieldName(structField string) string {
	switch structField {
	case "PersonKey":
		return "person_key"
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "Email":
		return "email"
	}
	return strings.ToLower(structField)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "personkey":
		v := fmt.Sprint(fe.Value())
		switch {
		case len(v) < PersonKeyMinLen:
			return fmt.Sprintf("too short (minimum %d characters)", PersonKeyMinLen)
		case len(v) > PersonKeyMaxLen:
			return fmt.Sprintf("too long (maximum %d characters)", PersonKeyMaxLen)
		}
		return "contains invalid characters; only letters, digits, -, /, _ and . are allowed"
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// Summarize returns at most limit issue strings followed by an "... and N more"
// line when issues were dropped.
func Summarize(issues []Issue, limit int) []string {
	out := make([]string, 0, limit+1)
	for i, is := range issues {
		if i >= limit {
			out = append(out, fmt.Sprintf("... and %d more", len(issues)-limit))
			break
		}
		out = append(out, is.String())
	}
	return out
}
