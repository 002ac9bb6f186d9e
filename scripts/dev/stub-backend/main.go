package main

import (
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/feedback-client/internal/types"
	"github.com/vultisig/feedback-client/test/mocks/backend"
)

// Usage:
//   - `go run ./scripts/dev/stub-backend -addr=:8000 -seed=true`
//   - `API_URL=http://localhost:8000 go run ./cmd/feedback dashboard`
func main() {
	var (
		addr string
		seed bool
	)
	flag.StringVar(&addr, "addr", ":8000", "listen address")
	flag.BoolVar(&seed, "seed", true, "preload a few submissions")
	flag.Parse()

	stub := backend.New()
	if seed {
		now := time.Now().UTC()
		stub.Seed(
			types.Submission{Rating: 5, Review: "Great service", Timestamp: types.NewTimestamp(now.Add(-3 * time.Hour)), AISummary: "Customer reports a positive experience.", RecommendedActions: "Document as positive feedback"},
			types.Submission{Rating: 4, Review: "Quick delivery, packaging could be better", Timestamp: types.NewTimestamp(now.Add(-2 * time.Hour))},
			types.Submission{Rating: 2, Review: "Support never answered my email", Timestamp: types.NewTimestamp(now.Add(-time.Hour)), AISummary: "Customer reports a negative experience.", RecommendedActions: "Follow up with customer"},
		)
	}

	logrus.WithField("addr", addr).Info("stub feedback backend listening")
	if err := stub.Start(addr); err != nil {
		logrus.WithError(err).Fatal("stub backend stopped")
	}
}
