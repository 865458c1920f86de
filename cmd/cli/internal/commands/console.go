package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/cmd/cli/internal/prefs"
	"github.com/wolfeidau/agencyctl/internal/console"
)

const consoleLogFile = "console.log"

type ConsoleCmd struct{}

func (c *ConsoleCmd) Run(ctx context.Context, globals *Globals) error {
	// logs go to a file while the console owns the terminal
	f, err := openConsoleLog(globals.StateDir)
	if err != nil {
		return err
	}
	defer f.Close()

	restore := log.Logger
	log.Logger = log.Output(f)
	defer func() { log.Logger = restore }()

	hub := console.NewHub()

	a, err := globals.open(ctx, hub, hub)
	if err != nil {
		return err
	}
	defer a.close()

	return console.Run(ctx, console.New(ctx, a.sess, a.svc, hub))
}

func openConsoleLog(dir string) (*os.File, error) {
	if dir == "" {
		var err error
		if dir, err = prefs.DefaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, consoleLogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open console log: %w", err)
	}
	return f, nil
}
