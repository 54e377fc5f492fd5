package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/rileyhilliard/mactop/internal/ui"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var (
	dumpWait   time.Duration
	dumpFormat string
)

// dumpPoll is how often dump checks the store for first publishes.
const dumpPoll = 50 * time.Millisecond

// dumpCmd prints one round of snapshots and exits.
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the current snapshots and exit",
	Long: `Start the collectors, wait until every enabled source has published once
(or --wait elapses), print the snapshots, and stop.

Examples:
  sudo mactop dump
  mactop dump --wait 5s --format json
  mactop dump --powermetrics-fake capture.plist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpCommand(cmd)
	},
}

func init() {
	dumpCmd.Flags().DurationVar(&dumpWait, "wait", 3*time.Second, "how long to wait for every source to publish")
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(dumpCmd)
}

func dumpCommand(cmd *cobra.Command) error {
	if err := validateDumpFormat(dumpFormat); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	log, closer, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := metrics.NewStore()
	group, sources := buildCollectors(cfg, store, afero.NewOsFs(), log)
	if len(sources) == 0 {
		return errors.New(errors.ErrConfig,
			"Every collector is disabled",
			"Enable at least one of powermetrics, ioreg or system in the config.")
	}

	if err := group.Start(ctx); err != nil {
		return err
	}

	var spinner *ui.Spinner
	if term.IsTerminal(int(os.Stderr.Fd())) {
		spinner = ui.NewSpinner(os.Stderr, "Waiting for "+joinSources(sources))
		spinner.Start()
	}

	missing := waitForSources(ctx, store, sources, dumpWait, dumpPoll)

	if spinner != nil {
		if len(missing) == 0 {
			spinner.Success("Every source reported")
		} else {
			spinner.Fail("No data from " + joinSources(missing))
		}
	}
	for _, src := range missing {
		log.Warn("%s didn't publish within %s", src, dumpWait)
	}

	stopErr := group.Stop()
	writeErr := writeDump(cmd.OutOrStdout(), dumpFormat, store, sources)
	return errors.Join(writeErr, stopErr)
}

func validateDumpFormat(format string) error {
	switch format {
	case "yaml", "json":
		return nil
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown dump format '%s'", format),
			"Use --format yaml or --format json.")
	}
}

// waitForSources blocks until every source has published at least once, the
// wait elapses, or ctx is done. It returns the sources still missing.
func waitForSources(ctx context.Context, store *metrics.Store, sources []metrics.Source, wait, poll time.Duration) []metrics.Source {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		missing := unpublished(store, sources)
		if len(missing) == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return missing
		case <-deadline.C:
			return unpublished(store, sources)
		case <-ticker.C:
		}
	}
}

func unpublished(store *metrics.Store, sources []metrics.Source) []metrics.Source {
	var missing []metrics.Source
	for _, src := range sources {
		if store.Version(src) == 0 {
			missing = append(missing, src)
		}
	}
	return missing
}

func joinSources(sources []metrics.Source) string {
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.String()
	}
	return strings.Join(names, ", ")
}

// dumpDocument is the printed shape: one key per enabled source.
type dumpDocument struct {
	Powermetrics *metrics.PowerSnapshot   `yaml:"powermetrics,omitempty" json:"powermetrics,omitempty"`
	IOReg        *metrics.BatterySnapshot `yaml:"ioreg,omitempty" json:"ioreg,omitempty"`
	System       *metrics.SystemSnapshot  `yaml:"system,omitempty" json:"system,omitempty"`
}

func buildDumpDocument(store *metrics.Store, sources []metrics.Source) dumpDocument {
	var doc dumpDocument
	for _, src := range sources {
		switch src {
		case metrics.SourcePower:
			p := store.Power()
			doc.Powermetrics = &p
		case metrics.SourceBattery:
			b := store.Battery()
			doc.IOReg = &b
		case metrics.SourceSystem:
			s := store.System()
			doc.System = &s
		}
	}
	return doc
}

// writeDump prints the enabled sources' snapshots in format.
func writeDump(w io.Writer, format string, store *metrics.Store, sources []metrics.Source) error {
	doc := buildDumpDocument(store, sources)

	var err error
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(doc)
		if err == nil {
			err = enc.Close()
		}
	}

	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't write the snapshot dump",
			"Check that stdout is writable.")
	}
	return nil
}
