package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vultisig/feedback-client/config"
	"github.com/vultisig/feedback-client/internal/api"
	"github.com/vultisig/feedback-client/internal/locales"
	"github.com/vultisig/feedback-client/internal/render"
	"github.com/vultisig/feedback-client/internal/telemetry"
)

const flushTimeout = 2 * time.Second

// app carries the dependencies shared by every subcommand.
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	sdClient   statsd.ClientInterface
	reporter   telemetry.Reporter
	translator *locales.Translator
	client     *api.Client
	renderer   *render.Renderer

	apiURL string
	locale string
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.GetConfigure()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.Api.BaseURL = a.apiURL
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	a.cfg = cfg

	a.logger = telemetry.NewLogger(cfg)
	a.logger.SetOutput(cmd.ErrOrStderr())

	a.sdClient, err = telemetry.NewStatsd(cfg)
	if err != nil {
		return err
	}
	a.reporter, err = telemetry.NewReporter(cfg, a.logger)
	if err != nil {
		return err
	}
	a.translator, err = locales.NewTranslator(a.logger, cfg.Locale)
	if err != nil {
		return fmt.Errorf("fail to load translations: %w", err)
	}

	a.client = api.NewClient(cfg.Api.BaseURL, cfg.Api.Timeout, a.logger, a.sdClient)
	a.renderer = render.New(a.translator, time.Now, cfg.Form.MaxReviewLength)

	a.logger.WithFields(logrus.Fields{
		"api":    cfg.Api.BaseURL,
		"locale": cfg.Locale,
	}).Debug("feedback client configured")
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.reporter != nil {
		a.reporter.Flush(flushTimeout)
	}
	if a.sdClient != nil {
		if err := a.sdClient.Close(); err != nil {
			a.logger.WithError(err).Warn("fail to close statsd client")
		}
	}
}

// NewRootCommand builds the feedback command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "feedback",
		Short:             "Submit and review customer feedback",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "feedback backend base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.locale, "locale", "", "message language, e.g. en or ru (overrides config)")

	root.AddCommand(
		newSubmitCommand(a),
		newListCommand(a),
		newShowCommand(a),
		newHealthCommand(a),
		newDashboardCommand(a),
	)
	return root
}

func Execute(out io.Writer, args []string) error {
	root := NewRootCommand()
	root.SetOut(out)
	root.SetArgs(args)
	return root.Execute()
}
