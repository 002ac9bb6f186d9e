package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vultisig/feedback-client/internal/locales"
	"github.com/vultisig/feedback-client/internal/types"
	"github.com/vultisig/feedback-client/service"
)

const timestampLayout = "2006-01-02 15:04:05"

// Renderer draws controller state as plain text for the terminal.
type Renderer struct {
	tr              *locales.Translator
	now             func() time.Time
	maxReviewLength int
}

func New(tr *locales.Translator, now func() time.Time, maxReviewLength int) *Renderer {
	if now == nil {
		now = time.Now
	}
	if maxReviewLength <= 0 {
		maxReviewLength = types.MaxReviewLength
	}
	return &Renderer{tr: tr, now: now, maxReviewLength: maxReviewLength}
}

// Stars renders a rating as filled and empty stars. Out of range ratings are clamped.
func Stars(rating int) string {
	filled := min(max(rating, 0), types.MaxRating)
	return strings.Repeat("★", filled) + strings.Repeat("☆", types.MaxRating-filled)
}

func (r *Renderer) Form(w io.Writer, state service.FormState) {
	if state.Phase == service.PhaseSuccess {
		r.success(w, state.Response)
		return
	}

	fmt.Fprintln(w, r.tr.T(locales.FormTitle))
	fmt.Fprintln(w, r.tr.T(locales.FormSubtitle))
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.tr.T(locales.FormRatingPrompt))
	fmt.Fprintf(w, "  %s", Stars(state.Rating))
	if state.Rating > 0 {
		fmt.Fprintf(w, "  %s", r.tr.Tf(locales.FormRatingText, map[string]interface{}{"Rating": state.Rating}))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintln(w, r.tr.T(locales.FormReviewLabel))
	for _, line := range strings.Split(state.Review, "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w, r.tr.Tf(locales.FormCharCount, map[string]interface{}{
		"Count": len([]rune(state.Review)),
		"Max":   r.maxReviewLength,
	}))

	if state.Error != nil {
		fmt.Fprintf(w, "! %s\n", state.Error.Message)
	}
	if state.Phase == service.PhaseSubmitting {
		fmt.Fprintln(w, r.tr.T(locales.FormSubmitting))
	}
}

func (r *Renderer) success(w io.Writer, sub *types.Submission) {
	fmt.Fprintln(w, r.tr.T(locales.SuccessTitle))
	if sub == nil || sub.AIResponse == "" {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.tr.T(locales.SuccessResponseLabel))
	fmt.Fprintf(w, "  %s\n", sub.AIResponse)
}

func (r *Renderer) Dashboard(w io.Writer, state service.DashboardState) {
	fmt.Fprintln(w, r.tr.T(locales.DashboardTitle))

	when := "-"
	if !state.LastUpdate.IsZero() {
		when = humanize.RelTime(state.LastUpdate, r.now(), "ago", "from now")
	}
	fmt.Fprint(w, r.tr.Tf(locales.DashboardLastUpdate, map[string]interface{}{"When": when}))
	if state.Loading {
		fmt.Fprintf(w, "  %s", r.tr.T(locales.DashboardRefreshing))
	}
	fmt.Fprintln(w)

	if state.Error != nil {
		fmt.Fprintf(w, "! %s\n", state.Error.Message)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", r.tr.T(locales.DashboardTotal), humanize.Comma(int64(state.Stats.Total)))
	if state.MatchingTotal() != state.Stats.Total {
		fmt.Fprintf(w, "%s: %s\n", r.tr.T(locales.DashboardMatching), humanize.Comma(int64(state.MatchingTotal())))
	}
	for _, rc := range state.Stats.Dto() {
		marker := " "
		if state.Filter == rc.Rating {
			marker = ">"
		}
		label := r.tr.Tf(locales.DashboardRatingCard, map[string]interface{}{"Rating": rc.Rating})
		fmt.Fprintf(w, "%s %s: %s\n", marker, label, humanize.Comma(int64(rc.Count)))
	}
	fmt.Fprintln(w)

	if state.Filter != 0 {
		fmt.Fprintln(w, r.tr.Tf(locales.DashboardSubmissionsFiltered, map[string]interface{}{"Rating": state.Filter}))
	} else {
		fmt.Fprintln(w, r.tr.T(locales.DashboardSubmissions))
	}

	if len(state.Page.Submissions) == 0 {
		fmt.Fprintf(w, "  %s\n", r.tr.T(locales.DashboardEmpty))
		return
	}
	for _, sub := range state.Page.Submissions {
		r.Submission(w, sub)
	}
}

// Submission renders one list entry with its optional AI fields.
func (r *Renderer) Submission(w io.Writer, sub types.Submission) {
	fmt.Fprintf(w, "- %s  %s  [%s]\n", Stars(sub.Rating), sub.Timestamp.Local().Format(timestampLayout), sub.ID)
	fmt.Fprintf(w, "  %s %s\n", r.tr.T(locales.DashboardReview), sub.Review)
	if sub.AISummary != "" {
		fmt.Fprintf(w, "  %s %s\n", r.tr.T(locales.DashboardSummary), sub.AISummary)
	}
	if sub.RecommendedActions != "" {
		fmt.Fprintf(w, "  %s %s\n", r.tr.T(locales.DashboardActions), sub.RecommendedActions)
	}
	if sub.AIResponse != "" {
		fmt.Fprintf(w, "  %s %s\n", r.tr.T(locales.SuccessResponseLabel), sub.AIResponse)
	}
}
