package backend

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/vultisig/feedback-client/internal/types"
)

// Responder produces the AI fields for a new submission.
type Responder func(rating int, review string) (aiResponse, aiSummary, recommendedActions string)

func DefaultResponder(rating int, review string) (string, string, string) {
	if rating <= 2 {
		return "We're sorry to hear that. Our team will reach out to help resolve the issue.",
			"Customer reports a negative experience.",
			"Follow up with customer"
	}
	return "Thank you for your feedback!",
		"Customer reports a positive experience.",
		"Document as positive feedback"
}

type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

type failure struct {
	status int
	body   string
}

// Backend is an in-memory double of the feedback service HTTP contract.
type Backend struct {
	mu          sync.Mutex
	echo        *echo.Echo
	submissions []types.Submission
	requests    []RecordedRequest
	now         func() time.Time
	responder   Responder

	createFailure *failure
	listFailure   *failure
}

func New() *Backend {
	b := &Backend{
		now:       time.Now,
		responder: DefaultResponder,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)
	e.Use(b.record)

	e.GET("/health", b.health)
	e.POST("/api/submissions", b.createSubmission)
	e.GET("/api/submissions", b.listSubmissions)
	e.GET("/api/submissions/:id", b.getSubmission)

	b.echo = e
	return b
}

// Handler exposes the routes, e.g. for httptest.NewServer.
func (b *Backend) Handler() http.Handler {
	return b.echo
}

// Start serves on addr until the echo instance is shut down.
func (b *Backend) Start(addr string) error {
	return b.echo.Start(addr)
}

func (b *Backend) Echo() *echo.Echo {
	return b.echo
}

// NewServer starts an httptest server. Callers must Close it.
func (b *Backend) NewServer() *httptest.Server {
	return httptest.NewServer(b.echo)
}

func (b *Backend) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

func (b *Backend) SetResponder(r Responder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responder = r
}

// FailCreate makes every create request fail with status and an optional
// `{"error": message}` body. An empty message sends an empty body.
func (b *Backend) FailCreate(status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body := ""
	if message != "" {
		body = fmt.Sprintf(`{"error":%q}`, message)
	}
	b.createFailure = &failure{status: status, body: body}
}

func (b *Backend) FailList(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listFailure = &failure{status: status, body: "upstream unavailable"}
}

func (b *Backend) Recover() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createFailure = nil
	b.listFailure = nil
}

// Seed stores submissions as-is, filling missing ids and timestamps.
func (b *Backend) Seed(subs ...types.Submission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range subs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = types.NewTimestamp(b.now().UTC())
		}
		if s.Status == "" {
			s.Status = "success"
		}
		b.submissions = append(b.submissions, s)
	}
}

func (b *Backend) Submissions() []types.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Submission, len(b.submissions))
	copy(out, b.submissions)
	return out
}

func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *Backend) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: req.Method,
			Path:   req.URL.Path,
			Query:  req.URL.Query(),
			Header: req.Header.Clone(),
		})
		b.mu.Unlock()
		return next(c)
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, types.ErrorResponse{Error: msg})
}

func (b *Backend) health(c echo.Context) error {
	return c.JSON(http.StatusOK, types.HealthStatus{Status: "ok"})
}

func (b *Backend) createSubmission(c echo.Context) error {
	b.mu.Lock()
	fail := b.createFailure
	b.mu.Unlock()
	if fail != nil {
		return c.Blob(fail.status, echo.MIMEApplicationJSON, []byte(fail.body))
	}

	var req types.SubmissionCreateDto
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusUnprocessableEntity, "Invalid request body")
	}
	if !types.ValidRating(req.Rating) {
		return errorJSON(c, http.StatusUnprocessableEntity, "Rating must be between 1 and 5")
	}
	review := strings.TrimSpace(req.Review)
	if review == "" {
		return errorJSON(c, http.StatusBadRequest, "Review cannot be empty")
	}
	if len([]rune(req.Review)) > types.MaxReviewLength {
		return errorJSON(c, http.StatusBadRequest, "Review is too long (max 5000 characters)")
	}

	b.mu.Lock()
	aiResponse, aiSummary, actions := b.responder(req.Rating, review)
	sub := types.Submission{
		ID:                 uuid.NewString(),
		Rating:             req.Rating,
		Review:             review,
		Timestamp:          types.NewTimestamp(b.now().UTC()),
		AIResponse:         aiResponse,
		AISummary:          aiSummary,
		RecommendedActions: actions,
		Status:             "success",
	}
	b.submissions = append(b.submissions, sub)
	b.mu.Unlock()

	return c.JSON(http.StatusCreated, sub)
}

func intParam(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (b *Backend) listSubmissions(c echo.Context) error {
	b.mu.Lock()
	fail := b.listFailure
	b.mu.Unlock()
	if fail != nil {
		return c.String(fail.status, fail.body)
	}

	limit, ok := intParam(c, "limit", 50)
	if !ok || limit < 1 || limit > 100 {
		return errorJSON(c, http.StatusUnprocessableEntity, "limit must be between 1 and 100")
	}
	skip, ok := intParam(c, "skip", 0)
	if !ok || skip < 0 {
		return errorJSON(c, http.StatusUnprocessableEntity, "skip must be non-negative")
	}
	rating, ok := intParam(c, "rating", 0)
	if !ok || (rating != 0 && !types.ValidRating(rating)) {
		return errorJSON(c, http.StatusUnprocessableEntity, "rating must be between 1 and 5")
	}

	b.mu.Lock()
	matching := make([]types.Submission, 0, len(b.submissions))
	for _, s := range b.submissions {
		if rating == 0 || s.Rating == rating {
			s.AIResponse = ""
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Timestamp.After(matching[j].Timestamp.Time)
	})

	total := len(matching)
	start := min(skip, total)
	end := min(start+limit, total)

	return c.JSON(http.StatusOK, types.SubmissionPage{
		Submissions: matching[start:end],
		Total:       total,
	})
}

func (b *Backend) getSubmission(c echo.Context) error {
	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.submissions {
		if s.ID == id {
			return c.JSON(http.StatusOK, s)
		}
	}
	return errorJSON(c, http.StatusNotFound, "Submission not found")
}
