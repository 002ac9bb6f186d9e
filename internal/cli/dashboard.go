package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vultisig/feedback-client/internal/scheduler"
	"github.com/vultisig/feedback-client/service"
)

const (
	clearScreen   = "\033[H\033[2J"
	dashboardHelp = "[1-5] toggle filter  [c] clear filter  [r] refresh  [q] quit"
)

func newDashboardCommand(a *app) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Watch submissions and rating counts, refreshing periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dashboard, err := service.NewDashboardController(a.client, scheduler.RealClock(), a.translator, a.reporter, a.logger, service.DashboardConfig{
				PageLimit:    a.cfg.Dashboard.PageLimit,
				PollInterval: a.cfg.Dashboard.PollInterval,
			})
			if err != nil {
				return err
			}
			defer dashboard.Close()

			if once {
				refreshErr := dashboard.Refresh(ctx)
				a.renderer.Dashboard(cmd.OutOrStdout(), dashboard.State())
				return refreshErr
			}
			if _, err := a.client.Health(ctx); err != nil {
				a.logger.WithError(err).Warn("feedback backend is not healthy, polling anyway")
			}
			return runDashboard(ctx, a, dashboard, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "fetch a single page, print it and exit")
	return cmd
}

func runDashboard(ctx context.Context, a *app, dashboard *service.DashboardController, in io.Reader, out io.Writer) error {
	var drawMu sync.Mutex
	dashboard.OnChange(func(state service.DashboardState) {
		drawMu.Lock()
		defer drawMu.Unlock()
		fmt.Fprint(out, clearScreen)
		a.renderer.Dashboard(out, state)
		fmt.Fprintln(out)
		fmt.Fprintln(out, dashboardHelp)
	})

	if err := dashboard.Activate(ctx); err != nil {
		a.logger.WithError(err).Warn("initial dashboard fetch failed")
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if isInteractive(in) {
					return nil
				}
				// Input is exhausted but polling continues until cancelled.
				lines = nil
				continue
			}
			if quit := handleDashboardInput(ctx, a, dashboard, line); quit {
				return nil
			}
		}
	}
}

// isInteractive reports whether in is a terminal, where end of input means
// the user is done.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// handleDashboardInput applies one command line and reports whether to quit.
func handleDashboardInput(ctx context.Context, a *app, dashboard *service.DashboardController, line string) bool {
	var err error
	switch strings.ToLower(line) {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "r", "refresh":
		err = dashboard.Refresh(ctx)
	case "c", "clear":
		err = dashboard.ClearFilter(ctx)
	default:
		rating, convErr := strconv.Atoi(line)
		if convErr != nil {
			a.logger.WithField("input", line).Warn("unknown dashboard command")
			return false
		}
		err = dashboard.ToggleFilter(ctx, rating)
	}
	if err != nil {
		a.logger.WithError(err).WithField("input", line).Debug("dashboard command failed")
	}
	return false
}
