package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/feedback-client/common"
	"github.com/vultisig/feedback-client/internal/types"
)

const (
	submissionsPath = "/api/submissions"
	healthPath      = "/health"

	DefaultListLimit = 50
	MaxListLimit     = 100

	requestIDHeader = "X-Request-ID"
)

// SubmissionClient is the contract the controllers depend on.
type SubmissionClient interface {
	SubmitFeedback(ctx context.Context, rating int, review string) (*types.Submission, error)
	ListSubmissions(ctx context.Context, query ListQuery) (*types.SubmissionPage, error)
}

type ListQuery struct {
	Limit int
	Skip  int
	// Rating filters by a single rating; zero means no filter.
	Rating int
}

func (q ListQuery) values() url.Values {
	limit := q.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(common.Clamp(limit, 1, MaxListLimit)))
	params.Set("skip", strconv.Itoa(max(q.Skip, 0)))
	if q.Rating != 0 {
		params.Set("rating", strconv.Itoa(q.Rating))
	}
	return params
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	sdClient   statsd.ClientInterface
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger, sdClient statsd.ClientInterface) *Client {
	if sdClient == nil {
		sdClient = &statsd.NoOpClient{}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		sdClient:   sdClient,
	}
}

// WithHTTPClient replaces the transport, mainly for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

func (c *Client) incCounter(name string, tags []string) {
	if err := c.sdClient.Incr(name, tags, 1); err != nil {
		c.logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (c *Client) measureTime(name string, start time.Time, tags []string) {
	if err := c.sdClient.Timing(name, time.Since(start), tags, 1); err != nil {
		c.logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

func (c *Client) bodyCloser(body io.ReadCloser) {
	if body != nil {
		if err := body.Close(); err != nil {
			c.logger.Error("Failed to close body,err:", err)
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, string, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, "", fmt.Errorf("fail to create request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	return req, requestID, nil
}

func (c *Client) SubmitFeedback(ctx context.Context, rating int, review string) (*types.Submission, error) {
	defer c.measureTime("api.submission.create.latency", time.Now(), nil)
	c.incCounter("api.submission.create", nil)

	payload := types.SubmissionCreateDto{Rating: rating, Review: review}
	if err := common.ValidateStruct(payload); err != nil {
		return nil, fmt.Errorf("invalid submission: %w", err)
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fail to marshal payload: %w", err)
	}

	req, requestID, err := c.newRequest(ctx, http.MethodPost, submissionsPath, nil, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	logger := c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"rating":     rating,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.incCounter("api.submission.create.error", []string{"kind:transport"})
		logger.WithError(err).Error("fail to submit feedback")
		return nil, fmt.Errorf("fail to submit feedback: %w", err)
	}
	defer c.bodyCloser(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.incCounter("api.submission.create.error", []string{"kind:remote", "status:" + strconv.Itoa(resp.StatusCode)})
		subErr := &SubmissionError{Status: resp.StatusCode, Message: defaultSubmitErrorMessage}
		var errBody types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			subErr.Message = errBody.Error
		}
		logger.WithField("status", resp.Status).Warn(subErr.Message)
		return nil, subErr
	}

	var submission types.Submission
	if err := json.NewDecoder(resp.Body).Decode(&submission); err != nil {
		return nil, fmt.Errorf("fail to unmarshal submission: %w", err)
	}

	logger.WithField("submission_id", submission.ID).Info("feedback submitted")
	return &submission, nil
}

func (c *Client) ListSubmissions(ctx context.Context, query ListQuery) (*types.SubmissionPage, error) {
	defer c.measureTime("api.submission.list.latency", time.Now(), nil)
	c.incCounter("api.submission.list", nil)

	var page types.SubmissionPage
	if err := c.getJSON(ctx, submissionsPath, query.values(), "api.submission.list.error", &page); err != nil {
		return nil, err
	}
	if page.Submissions == nil {
		page.Submissions = []types.Submission{}
	}
	return &page, nil
}

// GetSubmission reads one submission, including its ai_response.
func (c *Client) GetSubmission(ctx context.Context, id string) (*types.Submission, error) {
	if id == "" {
		return nil, fmt.Errorf("submission id is required")
	}
	defer c.measureTime("api.submission.get.latency", time.Now(), nil)
	c.incCounter("api.submission.get", nil)

	var submission types.Submission
	if err := c.getJSON(ctx, submissionsPath+"/"+url.PathEscape(id), nil, "api.submission.get.error", &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (c *Client) Health(ctx context.Context) (*types.HealthStatus, error) {
	var status types.HealthStatus
	if err := c.getJSON(ctx, healthPath, nil, "api.health.error", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, errMetric string, out interface{}) error {
	req, requestID, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	logger := c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"path":       path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.incCounter(errMetric, []string{"kind:transport"})
		logger.WithError(err).Error("fail to fetch")
		return fmt.Errorf("fail to fetch %s: %w", path, err)
	}
	defer c.bodyCloser(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.incCounter(errMetric, []string{"kind:remote", "status:" + strconv.Itoa(resp.StatusCode)})
		logger.WithField("status", resp.Status).Warn("fail to fetch")
		return &FetchError{Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("fail to unmarshal %s response: %w", path, err)
	}
	logger.Debug("fetched")
	return nil
}
