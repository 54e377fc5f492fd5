package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/mactop/internal/config"
	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	initForce          bool
	initNonInteractive bool
	initGlobal         bool
)

// initCmd writes a config file.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .mactop.yaml configuration",
	Long: `Write a config file with the default settings.

Prompts for the refresh interval, an optional powermetrics capture to replay,
and whether to dump every record for debugging. Use --non-interactive to
write the defaults as they are.

Examples:
  mactop init
  mactop init --global
  mactop init --force --non-interactive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(".", config.ConfigFileName)
		if initGlobal {
			path = config.GlobalConfigPath()
			if path == "" {
				return errors.New(errors.ErrConfig,
					"Couldn't find your home directory",
					"Write a local config with 'mactop init' instead.")
			}
		}

		nonInteractive := initNonInteractive || !term.IsTerminal(int(os.Stdin.Fd()))
		return Init(cmd.OutOrStdout(), InitOptions{
			Path:           path,
			Overwrite:      initForce,
			NonInteractive: nonInteractive,
		})
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts and write defaults")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/mactop/config.yaml instead of ./.mactop.yaml")
	rootCmd.AddCommand(initCmd)
}

// InitOptions holds options for Init.
type InitOptions struct {
	Path           string
	Overwrite      bool
	NonInteractive bool
}

// initAnswers are the values the prompts collect.
type initAnswers struct {
	Refresh  string
	FakeFile string
	Debug    bool
}

// Init writes a config file to opts.Path.
func Init(out io.Writer, opts InitOptions) error {
	if _, err := os.Stat(opts.Path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", opts.Path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", opts.Path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	answers := initAnswers{Refresh: cfg.RefreshInterval.String()}

	if !opts.NonInteractive {
		if err := promptInit(&answers); err != nil {
			return err
		}
	}
	if err := answers.apply(cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := config.Write(opts.Path, cfg, true); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n\n", ui.Success("Created "+opts.Path))
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  sudo mactop   - Open the dashboard")
	fmt.Fprintln(out, "  mactop dump   - Print one round of snapshots")
	return nil
}

func promptInit(a *initAnswers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh interval").
				Description("How often powermetrics samples and the dashboard redraws").
				Placeholder("1s").
				Value(&a.Refresh).
				Validate(validateRefresh),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Replay file (optional)").
				Description("A captured powermetrics plist stream to replay instead of running powermetrics").
				Placeholder("leave empty to sample live").
				Value(&a.FakeFile),
			huh.NewConfirm().
				Title("Dump every powermetrics record for debugging?").
				Value(&a.Debug),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use the --non-interactive flag")
	}
	return nil
}

func validateRefresh(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("use a duration like 500ms or 2s")
	}
	if d < config.MinRefreshInterval {
		return fmt.Errorf("use at least %s", config.MinRefreshInterval)
	}
	return nil
}

// apply copies the answers onto cfg.
func (a initAnswers) apply(cfg *config.Config) error {
	if err := validateRefresh(a.Refresh); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a usable refresh interval", a.Refresh),
			"Try something like 500ms, 1s or 2s.")
	}
	cfg.RefreshInterval, _ = time.ParseDuration(strings.TrimSpace(a.Refresh))
	cfg.Powermetrics.FakeFile = strings.TrimSpace(a.FakeFile)
	cfg.Debug.Enabled = a.Debug
	return nil
}
