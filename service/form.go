package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/feedback-client/common"
	"github.com/vultisig/feedback-client/internal/api"
	"github.com/vultisig/feedback-client/internal/locales"
	"github.com/vultisig/feedback-client/internal/scheduler"
	"github.com/vultisig/feedback-client/internal/telemetry"
	"github.com/vultisig/feedback-client/internal/types"
)

type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
)

type FormConfig struct {
	ResetDelay      time.Duration
	MaxReviewLength int
}

type FormState struct {
	Rating   int
	Review   string
	Phase    Phase
	Error    *InlineError
	Response *types.Submission
}

// CanSubmit mirrors the enabled state of the submit button.
func (s FormState) CanSubmit() bool {
	return s.Phase == PhaseEditing && s.Rating != 0 && strings.TrimSpace(s.Review) != ""
}

type FormController struct {
	client     api.SubmissionClient
	clock      scheduler.Clock
	translator *locales.Translator
	reporter   telemetry.Reporter
	logger     *logrus.Logger
	cfg        FormConfig

	mu        sync.Mutex
	state     FormState
	resetTask *scheduler.Task
	observers []func(FormState)
	closed    bool
}

func NewFormController(client api.SubmissionClient, clock scheduler.Clock, translator *locales.Translator, reporter telemetry.Reporter, logger *logrus.Logger, cfg FormConfig) (*FormController, error) {
	if client == nil {
		return nil, fmt.Errorf("submission client cannot be nil")
	}
	if translator == nil {
		return nil, fmt.Errorf("translator cannot be nil")
	}
	if clock == nil {
		clock = scheduler.RealClock()
	}
	if reporter == nil {
		reporter = telemetry.NopReporter{}
	}
	if cfg.MaxReviewLength <= 0 || cfg.MaxReviewLength > types.MaxReviewLength {
		cfg.MaxReviewLength = types.MaxReviewLength
	}
	if cfg.ResetDelay <= 0 {
		cfg.ResetDelay = 5 * time.Second
	}
	return &FormController{
		client:     client,
		clock:      clock,
		translator: translator,
		reporter:   reporter,
		logger:     logger,
		cfg:        cfg,
		state:      FormState{Phase: PhaseEditing},
	}, nil
}

// OnChange registers fn to be called with a snapshot after every state change.
func (c *FormController) OnChange(fn func(FormState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// commit releases the lock and notifies observers with the state it saw.
func (c *FormController) commit() {
	snapshot := c.state
	observers := append([]func(FormState){}, c.observers...)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func (c *FormController) SelectRating(rating int) error {
	if !types.ValidRating(rating) {
		return ErrInvalidRating
	}
	c.mu.Lock()
	if c.state.Phase != PhaseEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	c.state.Rating = rating
	c.commit()
	return nil
}

// SetReview stores text cut to the maximum review length.
func (c *FormController) SetReview(text string) error {
	c.mu.Lock()
	if c.state.Phase != PhaseEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	c.state.Review = common.TruncateRunes(text, c.cfg.MaxReviewLength)
	c.commit()
	return nil
}

func (c *FormController) DismissError() {
	c.mu.Lock()
	c.state.Error = nil
	c.commit()
}

// Submit validates the form and sends it. It returns a *ValidationError or a
// *SubmissionFailure; either is also stored as the inline error.
func (c *FormController) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.state.Phase {
	case PhaseSubmitting:
		c.mu.Unlock()
		return ErrSubmitInProgress
	case PhaseSuccess:
		c.mu.Unlock()
		return ErrNotEditing
	}

	c.state.Error = nil
	if verr := c.validateLocked(); verr != nil {
		c.state.Error = &InlineError{Kind: ErrorKindValidation, Message: verr.Message}
		c.commit()
		return verr
	}

	rating, review := c.state.Rating, c.state.Review
	c.state.Phase = PhaseSubmitting
	c.state.Response = nil
	c.commit()

	logger := c.logger.WithField("rating", rating)
	submission, err := c.client.SubmitFeedback(ctx, rating, review)

	c.mu.Lock()
	if err != nil {
		msg := userMessage(err, c.translator.T(locales.ErrSubmitFailed))
		c.state.Phase = PhaseEditing
		c.state.Error = &InlineError{Kind: ErrorKindSubmission, Message: msg}
		c.commit()

		logger.WithError(err).Warn("feedback submission failed")
		c.reporter.Report(err, map[string]string{"component": "form"})
		return &SubmissionFailure{Message: msg, Err: err}
	}

	c.state.Phase = PhaseSuccess
	c.state.Response = submission
	c.state.Rating = 0
	c.state.Review = ""
	c.resetTask.Stop()
	c.resetTask = nil
	if !c.closed {
		c.resetTask = scheduler.After(c.clock, c.logger, "form-reset", c.cfg.ResetDelay, c.reset)
	}
	c.commit()

	logger.WithField("submission_id", submission.ID).Info("feedback submission succeeded")
	return nil
}

func (c *FormController) validateLocked() *ValidationError {
	if c.state.Rating == 0 {
		return &ValidationError{Field: "rating", Message: c.translator.T(locales.ErrSelectRating)}
	}
	if strings.TrimSpace(c.state.Review) == "" {
		return &ValidationError{Field: "review", Message: c.translator.T(locales.ErrWriteReview)}
	}
	return nil
}

func (c *FormController) reset() {
	c.mu.Lock()
	if c.closed || c.state.Phase != PhaseSuccess {
		c.mu.Unlock()
		return
	}
	c.state.Phase = PhaseEditing
	c.state.Response = nil
	c.resetTask = nil
	c.commit()
}

// Close cancels the pending reset. The controller rejects submissions afterwards.
func (c *FormController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.resetTask.Stop()
	c.resetTask = nil
}
