package telemetry

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/feedback-client/config"
)

const metricNamespace = "feedback_client."

// NewLogger builds the logrus logger used by every component.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("invalid log level %q, falling back to info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// NewStatsd returns a no-op client when no agent address is configured.
func NewStatsd(cfg *config.Config) (statsd.ClientInterface, error) {
	addr := cfg.DatadogAddr()
	if addr == "" {
		return &statsd.NoOpClient{}, nil
	}
	client, err := statsd.New(addr, statsd.WithNamespace(metricNamespace))
	if err != nil {
		return nil, fmt.Errorf("fail to create statsd client: %w", err)
	}
	return client, nil
}

type Reporter interface {
	Report(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopReporter struct{}

func (NopReporter) Report(error, map[string]string) {}
func (NopReporter) Flush(time.Duration)             {}

type SentryReporter struct {
	hub    *sentry.Hub
	logger *logrus.Logger
}

// NewReporter returns a NopReporter when no DSN is configured.
func NewReporter(cfg *config.Config, logger *logrus.Logger) (Reporter, error) {
	if cfg.Sentry.DSN == "" {
		return NopReporter{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("fail to init sentry: %w", err)
	}
	return &SentryReporter{
		hub:    sentry.NewHub(client, sentry.NewScope()),
		logger: logger,
	}, nil
}

func (r *SentryReporter) Report(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if id := r.hub.CaptureException(err); id != nil {
			r.logger.WithField("event_id", string(*id)).Debug("reported error to sentry")
		}
	})
}

func (r *SentryReporter) Flush(timeout time.Duration) {
	r.hub.Flush(timeout)
}
