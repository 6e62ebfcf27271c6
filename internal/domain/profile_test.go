package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProfileComplete(t *testing.T) {
	require.True(t, Profile{Firstname: "Ada", Lastname: "Lovelace"}.Complete())
	require.False(t, Profile{Firstname: "Ada"}.Complete())
	require.False(t, Profile{Lastname: "Lovelace"}.Complete())
	require.False(t, Profile{Firstname: "  ", Lastname: "Lovelace"}.Complete())
	require.False(t, Profile{}.Complete())
}

func TestProfileMergeOverwritesOnlyNonEmpty(t *testing.T) {
	base := Profile{
		UserID:    "u1",
		Firstname: "Ada",
		Company:   "Analytical Engines",
		About:     "bio",
	}
	overlay := Profile{
		Firstname: "Augusta",
		Lastname:  "King",
		Company:   "",
	}

	merged := base.Merge(overlay)
	require.Equal(t, "u1", merged.UserID)
	require.Equal(t, "Augusta", merged.Firstname)
	require.Equal(t, "King", merged.Lastname)
	require.Equal(t, "Analytical Engines", merged.Company, "empty overlay field must not erase")
	require.Equal(t, "bio", merged.About)
}

func TestProfileMergeTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	merged := Profile{CreatedAt: created}.Merge(Profile{UpdatedAt: updated})
	require.Equal(t, created, merged.CreatedAt)
	require.Equal(t, updated, merged.UpdatedAt)
}

func TestProfileScalarsSkipsEmpty(t *testing.T) {
	p := Profile{UserID: "u1", Firstname: "Ada", Phone: " "}
	scalars := p.Scalars()
	require.Equal(t, "u1", scalars["userId"])
	require.Equal(t, "Ada", scalars["firstname"])
	require.NotContains(t, scalars, "phone")
	require.NotContains(t, scalars, "lastname")
}

func TestSubmissionTrimAndProfile(t *testing.T) {
	s := ProfileSubmission{Firstname: "  Ada ", Lastname: "Lovelace\t", URL: " https://example.com "}
	s.Trim()
	require.Equal(t, "Ada", s.Firstname)
	require.Equal(t, "Lovelace", s.Lastname)

	p := s.Profile("u1")
	require.Equal(t, "u1", p.UserID)
	require.Equal(t, "https://example.com", p.URL)
	require.True(t, p.Complete())
}
