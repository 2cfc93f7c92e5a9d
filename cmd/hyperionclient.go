package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hyperion-go/hyperion"
	"github.com/hyperion-go/hyperion/internal/logging"
)

// newClient builds a Client from the persistent flags, wiring file logging
// through internal/logging the same way for every subcommand.
func newClient(alsoStderr bool) (*hyperion.Client, func(), error) {
	if flagHost == "" {
		return nil, nil, fmt.Errorf("--host is required")
	}

	logDir, err := logging.DefaultLogDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve log dir: %w", err)
	}
	logger, cleanup, err := logging.Setup(logDir, slog.LevelInfo, alsoStderr)
	if err != nil {
		return nil, nil, fmt.Errorf("set up logging: %w", err)
	}

	opts := hyperion.NewOptions(flagHost,
		hyperion.WithPort(flagPort),
		hyperion.WithToken(flagToken),
		hyperion.WithTargetInstance(flagTargetInstance),
		hyperion.WithTimeout(time.Duration(flagTimeoutSecs)*time.Second),
		hyperion.WithLogger(logger),
	)
	return hyperion.New(opts), cleanup, nil
}
