package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/feedback-client/internal/types"
	"github.com/vultisig/feedback-client/test/mocks/backend"
)

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, 5*time.Second, logrus.StandardLogger(), nil)
}

func TestSubmitFeedback(t *testing.T) {
	testCases := []struct {
		name           string
		rating         int
		review         string
		serverResponse func(w http.ResponseWriter, r *http.Request)
		wantErr        bool
		expectedErrMsg string
		expectedStatus int
		validate       func(t *testing.T, sub *types.Submission)
	}{
		{
			name:   "Successful submission",
			rating: 5,
			review: "Great service",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.Equal(t, "/api/submissions", r.URL.Path)
				require.Equal(t, "application/json", r.Header.Get("Content-Type"))
				_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
				require.NoError(t, err)

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				require.JSONEq(t, `{"rating":5,"review":"Great service"}`, string(body))

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"x1","rating":5,"review":"Great service","ai_response":"Thank you!","ai_summary":"Positive","recommended_actions":"None","timestamp":"2025-01-01T10:00:00Z","status":"success"}`))
			},
			validate: func(t *testing.T, sub *types.Submission) {
				require.Equal(t, "x1", sub.ID)
				require.Equal(t, 5, sub.Rating)
				require.Equal(t, "Thank you!", sub.AIResponse)
				require.Equal(t, "Positive", sub.AISummary)
				require.Equal(t, "success", sub.Status)
				require.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), sub.Timestamp.Time)
			},
		},
		{
			name:   "Backend error message is surfaced",
			rating: 3,
			review: "meh",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"Review cannot be empty"}`))
			},
			wantErr:        true,
			expectedErrMsg: "Review cannot be empty",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "Missing error field falls back to generic message",
			rating: 3,
			review: "meh",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"detail":"boom"}`))
			},
			wantErr:        true,
			expectedErrMsg: "Failed to submit feedback",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:   "Unparsable error body falls back to generic message",
			rating: 3,
			review: "meh",
			serverResponse: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`<html>bad gateway</html>`))
			},
			wantErr:        true,
			expectedErrMsg: "Failed to submit feedback",
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tc.serverResponse))
			defer server.Close()

			client := newTestClient(server.URL).WithHTTPClient(server.Client())
			sub, err := client.SubmitFeedback(context.Background(), tc.rating, tc.review)

			if tc.wantErr {
				require.Error(t, err)
				require.Nil(t, sub)
				var subErr *SubmissionError
				require.True(t, errors.As(err, &subErr))
				require.Equal(t, tc.expectedErrMsg, subErr.UserMessage())
				require.Equal(t, tc.expectedStatus, subErr.StatusCode())

				var remote RemoteError
				require.True(t, errors.As(err, &remote))
			} else {
				require.NoError(t, err)
				tc.validate(t, sub)
			}
		})
	}
}

func TestSubmitFeedbackRejectsInvalidDtoWithoutNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.SubmitFeedback(context.Background(), 0, "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid submission")

	_, err = client.SubmitFeedback(context.Background(), 6, "text")
	require.Error(t, err)

	_, err = client.SubmitFeedback(context.Background(), 4, strings.Repeat("a", 5001))
	require.Error(t, err)

	require.False(t, called)
}

func TestSubmitFeedbackTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := newTestClient(serverURL)
	_, err := client.SubmitFeedback(context.Background(), 4, "fine")
	require.Error(t, err)

	var subErr *SubmissionError
	require.False(t, errors.As(err, &subErr))
	require.Contains(t, err.Error(), "fail to submit feedback")
}

func TestSubmitFeedbackContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).SubmitFeedback(ctx, 4, "fine")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestListSubmissionsQuery(t *testing.T) {
	testCases := []struct {
		name          string
		query         ListQuery
		expectedQuery string
	}{
		{
			name:          "unfiltered dashboard page",
			query:         ListQuery{Limit: 100, Skip: 0},
			expectedQuery: "limit=100&skip=0",
		},
		{
			name:          "filtered by rating",
			query:         ListQuery{Limit: 100, Skip: 0, Rating: 4},
			expectedQuery: "limit=100&rating=4&skip=0",
		},
		{
			name:          "default limit",
			query:         ListQuery{},
			expectedQuery: "limit=50&skip=0",
		},
		{
			name:          "limit and skip are clamped",
			query:         ListQuery{Limit: 500, Skip: -3},
			expectedQuery: "limit=100&skip=0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodGet, r.Method)
				require.Equal(t, "/api/submissions", r.URL.Path)
				require.Equal(t, tc.expectedQuery, r.URL.RawQuery)
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"submissions":[],"total":0}`))
			}))
			defer server.Close()

			page, err := newTestClient(server.URL).ListSubmissions(context.Background(), tc.query)
			require.NoError(t, err)
			require.NotNil(t, page.Submissions)
			require.Empty(t, page.Submissions)
		})
	}
}

func TestListSubmissionsFailureIsGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to retrieve submissions"}`))
	}))
	defer server.Close()

	page, err := newTestClient(server.URL).ListSubmissions(context.Background(), ListQuery{Limit: 100})
	require.Error(t, err)
	require.Nil(t, page)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode())
	require.Equal(t, "Failed to fetch submissions", fetchErr.UserMessage())
}

func TestListSubmissionsAgainstStubBackend(t *testing.T) {
	stub := backend.New()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	stub.Seed(
		types.Submission{ID: "a", Rating: 4, Review: "good", Timestamp: types.NewTimestamp(base)},
		types.Submission{ID: "b", Rating: 5, Review: "great", Timestamp: types.NewTimestamp(base.Add(time.Minute))},
		types.Submission{ID: "c", Rating: 4, Review: "nice", Timestamp: types.NewTimestamp(base.Add(2 * time.Minute))},
		types.Submission{ID: "d", Rating: 4, Review: "solid", Timestamp: types.NewTimestamp(base.Add(3 * time.Minute))},
	)
	server := stub.NewServer()
	defer server.Close()

	client := newTestClient(server.URL)

	page, err := client.ListSubmissions(context.Background(), ListQuery{Limit: 100, Rating: 4})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Submissions, 3)
	require.Equal(t, []string{"d", "c", "a"}, []string{page.Submissions[0].ID, page.Submissions[1].ID, page.Submissions[2].ID})

	page, err = client.ListSubmissions(context.Background(), ListQuery{Limit: 2, Skip: 1})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Submissions, 2)
	require.Equal(t, "c", page.Submissions[0].ID)
	require.Equal(t, "b", page.Submissions[1].ID)
}

func TestSubmitThenGetAgainstStubBackend(t *testing.T) {
	stub := backend.New()
	server := stub.NewServer()
	defer server.Close()

	client := newTestClient(server.URL)

	created, err := client.SubmitFeedback(context.Background(), 5, "  Great service  ")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Great service", created.Review)
	require.Equal(t, "Thank you for your feedback!", created.AIResponse)

	fetched, err := client.GetSubmission(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.AIResponse, fetched.AIResponse)

	_, err = client.GetSubmission(context.Background(), "missing")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.Status)

	_, err = client.GetSubmission(context.Background(), "")
	require.Error(t, err)

	stub.FailCreate(http.StatusBadRequest, "Review is too long (max 5000 characters)")
	_, err = client.SubmitFeedback(context.Background(), 5, "again")
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	require.Equal(t, "Review is too long (max 5000 characters)", subErr.Message)
}

func TestHealth(t *testing.T) {
	stub := backend.New()
	server := stub.NewServer()
	defer server.Close()

	status, err := newTestClient(server.URL).Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", status.Status)

	requests := stub.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, "/health", requests[0].Path)
	require.NotEmpty(t, requests[0].Header.Get("X-Request-ID"))
}

func TestSubmissionJSONShape(t *testing.T) {
	raw, err := json.Marshal(types.SubmissionCreateDto{Rating: 2, Review: "slow"})
	require.NoError(t, err)
	require.JSONEq(t, `{"rating":2,"review":"slow"}`, string(raw))
}

// Bodies as the feedback backend writes them: UTC datetimes without a zone.
const (
	createdSubmissionBody = `{"id":"65a1f0c2e4b0a1b2c3d4e5f6","rating":2,"review":"Support never answered","ai_response":"We're sorry to hear that.","ai_summary":"Customer reports a negative experience.","recommended_actions":"Follow up with customer","timestamp":"2025-01-01T10:00:00.123456","status":"success"}`
	submissionListBody    = `{"total":2,"submissions":[{"id":"65a1f0c2e4b0a1b2c3d4e5f6","rating":2,"review":"Support never answered","ai_summary":"Customer reports a negative experience.","recommended_actions":"Follow up with customer","timestamp":"2025-01-01T10:00:00.123456","status":"success"},{"id":"65a1f0b9e4b0a1b2c3d4e5f5","rating":5,"review":"Great service","ai_summary":"Customer reports a positive experience.","recommended_actions":"Document as positive feedback","timestamp":"2025-01-01T09:59:00","status":"success"}]}`
)

func TestZoneLessBackendTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(createdSubmissionBody))
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(submissionListBody))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	created, err := client.SubmitFeedback(context.Background(), 2, "Support never answered")
	require.NoError(t, err)
	require.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", created.ID)
	require.Equal(t, "We're sorry to hear that.", created.AIResponse)
	require.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.UTC), created.Timestamp.Time)

	page, err := client.ListSubmissions(context.Background(), ListQuery{Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Submissions, 2)
	require.Empty(t, page.Submissions[0].AIResponse)
	require.Equal(t, "Customer reports a negative experience.", page.Submissions[0].AISummary)
	require.Equal(t, time.Date(2025, 1, 1, 9, 59, 0, 0, time.UTC), page.Submissions[1].Timestamp.Time)
	require.Equal(t, time.UTC, page.Submissions[1].Timestamp.Location())
}

func TestStubBackendWritesZoneLessTimestamps(t *testing.T) {
	stub := backend.New()
	stub.SetClock(func() time.Time {
		return time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.UTC)
	})
	server := stub.NewServer()
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/submissions", "application/json", strings.NewReader(`{"rating":3,"review":"ok"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Contains(t, string(body), `"timestamp":"2025-01-01T10:00:00.123456"`)

	resp, err = http.Get(server.URL + "/api/submissions?limit=100&skip=0")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), `"timestamp":"2025-01-01T10:00:00.123456"`)
	require.NotContains(t, string(body), "ai_response")

	page, err := newTestClient(server.URL).ListSubmissions(context.Background(), ListQuery{Limit: 100})
	require.NoError(t, err)
	require.Len(t, page.Submissions, 1)
	require.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.UTC), page.Submissions[0].Timestamp.Time)
}
