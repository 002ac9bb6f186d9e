package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/feedback-client/internal/locales"
	"github.com/vultisig/feedback-client/internal/types"
	"github.com/vultisig/feedback-client/service"
)

var renderNow = time.Date(2025, 1, 1, 10, 0, 30, 0, time.UTC)

func newTestRenderer() *Renderer {
	return New(locales.English(logrus.New()), func() time.Time { return renderNow }, 5000)
}

func TestStars(t *testing.T) {
	require.Equal(t, "☆☆☆☆☆", Stars(0))
	require.Equal(t, "★★★☆☆", Stars(3))
	require.Equal(t, "★★★★★", Stars(5))
	require.Equal(t, "★★★★★", Stars(9))
	require.Equal(t, "☆☆☆☆☆", Stars(-1))
}

func TestRenderForm(t *testing.T) {
	testCases := []struct {
		name        string
		state       service.FormState
		contains    []string
		notContains []string
	}{
		{
			name:        "empty form",
			state:       service.FormState{Phase: service.PhaseEditing},
			contains:    []string{"Share Your Feedback", "How would you rate your experience?", "0/5000"},
			notContains: []string{"out of 5 stars", "Submitting..."},
		},
		{
			name:     "filled form with validation error",
			state:    service.FormState{Phase: service.PhaseEditing, Rating: 4, Error: &service.InlineError{Kind: service.ErrorKindValidation, Message: "Please write a review"}},
			contains: []string{"★★★★☆", "4 out of 5 stars", "! Please write a review"},
		},
		{
			name:     "submitting",
			state:    service.FormState{Phase: service.PhaseSubmitting, Rating: 5, Review: "Great service"},
			contains: []string{"Great service", "13/5000", "Submitting..."},
		},
		{
			name: "success with response",
			state: service.FormState{Phase: service.PhaseSuccess, Response: &types.Submission{
				ID:         "x1",
				AIResponse: "Thank you!",
			}},
			contains:    []string{"Thank you for your feedback!", "Our Response:", "Thank you!"},
			notContains: []string{"Your Review"},
		},
		{
			name:        "success without response",
			state:       service.FormState{Phase: service.PhaseSuccess, Response: &types.Submission{ID: "x1"}},
			contains:    []string{"Thank you for your feedback!"},
			notContains: []string{"Our Response:"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			newTestRenderer().Form(&buf, tc.state)
			out := buf.String()
			for _, s := range tc.contains {
				require.Contains(t, out, s)
			}
			for _, s := range tc.notContains {
				require.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderDashboard(t *testing.T) {
	subs := []types.Submission{
		{ID: "a", Rating: 4, Review: "good", Timestamp: types.NewTimestamp(renderNow), AISummary: "Positive", RecommendedActions: "None"},
		{ID: "b", Rating: 4, Review: "fine", Timestamp: types.NewTimestamp(renderNow)},
	}
	state := service.DashboardState{
		Page:       types.SubmissionPage{Submissions: subs, Total: 1200},
		Stats:      types.ComputeRatingStats(subs),
		Filter:     4,
		Loading:    true,
		LastUpdate: renderNow.Add(-30 * time.Second),
		Error:      &service.InlineError{Kind: service.ErrorKindFetch, Message: "Failed to fetch submissions"},
	}

	var buf bytes.Buffer
	newTestRenderer().Dashboard(&buf, state)
	out := buf.String()

	require.Contains(t, out, "Admin Dashboard")
	require.Contains(t, out, "Last updated: 30 seconds ago")
	require.Contains(t, out, "Refreshing...")
	require.Contains(t, out, "! Failed to fetch submissions")
	require.Contains(t, out, "Total Submissions: 2\n")
	require.Contains(t, out, "Matching on server: 1,200")
	require.Contains(t, out, "> 4 ★ Ratings: 2")
	require.Contains(t, out, "  5 ★ Ratings: 0")
	require.Contains(t, out, "Submissions (4 ★)")
	require.Contains(t, out, "User Review: good")
	require.Contains(t, out, "AI Summary: Positive")
	require.Contains(t, out, "Recommended Actions: None")
}

func TestRenderEmptyDashboard(t *testing.T) {
	var buf bytes.Buffer
	newTestRenderer().Dashboard(&buf, service.DashboardState{})
	out := buf.String()

	require.Contains(t, out, "Last updated: -")
	require.Contains(t, out, "Total Submissions: 0")
	require.NotContains(t, out, "Matching on server")
	require.Contains(t, out, "Submissions\n")
	require.Contains(t, out, "No submissions yet")
}
