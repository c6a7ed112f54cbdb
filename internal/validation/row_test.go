package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidPersonKey(t *testing.T) {
	valid := []string{"1001", "AB-12/3", "x_y.z", strings.Repeat("9", 20)}
	for _, k := range valid {
		require.Truef(t, IsValidPersonKey(k), "want %q valid", k)
	}
	invalid := []string{"", "12", strings.Repeat("9", 21), "10 01", "10#1", "ğüş"}
	for _, k := range invalid {
		require.Falsef(t, IsValidPersonKey(k), "want %q invalid", k)
	}
}

func TestValidateRow(t *testing.T) {
	ok := ValidateRow(2, Row{PersonKey: "1001", FirstName: "Ali", LastName: "Kaya", Email: "ali@example.com"})
	require.True(t, ok.Accepted())
	require.Empty(t, ok.Warnings)

	badEmail := ValidateRow(3, Row{PersonKey: "1001", FirstName: "Ali", LastName: "Kaya", Email: "not-an-email"})
	require.True(t, badEmail.Accepted(), "a malformed email must not skip the row")
	require.Len(t, badEmail.Warnings, 1)
	require.Equal(t, "email", badEmail.Warnings[0].Field)

	missingKey := ValidateRow(4, Row{FirstName: "Ali"})
	require.False(t, missingKey.Accepted())
	require.Equal(t, "person_key", missingKey.Skip.Field)
	require.Equal(t, "line 4, person_key: is required", missingKey.Skip.String())

	shortKey := ValidateRow(5, Row{PersonKey: "10", FirstName: "Ali", LastName: "Kaya"})
	require.False(t, shortKey.Accepted())
	require.Contains(t, shortKey.Skip.Message, "too short")

	missingLast := ValidateRow(6, Row{PersonKey: "1001", FirstName: "Ali"})
	require.False(t, missingLast.Accepted())
	require.Equal(t, "last_name", missingLast.Skip.Field)
}

func TestSummarize(t *testing.T) {
	var issues []Issue
	for i := 0; i < 8; i++ {
		issues = append(issues, Issue{Line: i + 2, Field: "person_key", Message: "is required"})
	}
	out := Summarize(issues, 5)
	require.Len(t, out, 6)
	require.Equal(t, "... and 3 more", out[5])

	require.Len(t, Summarize(issues[:2], 5), 2)
}
