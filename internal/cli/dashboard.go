package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/mactop/internal/dashboard"
	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// dashboardCommand starts the collectors and runs the dashboard until the
// user quits.
func dashboardCommand(cmd *cobra.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrConfig,
			"The dashboard needs a terminal",
			"Use 'mactop dump' to print snapshots when piping or scripting.")
	}

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	// Logs would corrupt the alt-screen, so they only go to the log file.
	log, closer, err := setupLogging(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	store := metrics.NewStore()
	group, _ := buildCollectors(cfg, store, afero.NewOsFs(), log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := group.Start(ctx); err != nil {
		return err
	}

	log.Info("dashboard started with %d collectors, refresh %s", len(group.Collectors()), cfg.RefreshInterval)

	p := tea.NewProgram(dashboard.New(store, cfg.RefreshInterval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	if runErr != nil {
		runErr = errors.WrapWithCode(runErr, errors.ErrExec,
			"The dashboard stopped unexpectedly",
			"Try a larger terminal, or 'mactop dump' to check the collectors.")
	}

	cancel()
	return errors.Join(runErr, group.Stop())
}
