package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// rootCmd runs the dashboard.
var rootCmd = &cobra.Command{
	Use:   "mactop",
	Short: "Real-time power, thermal and load monitor for macOS",
	Long: `mactop shows CPU, GPU, energy, thermal, memory, network, disk and
battery telemetry in the terminal.

Power and thermal data come from powermetrics, which needs root. Run mactop
with sudo, or keep 'sudo' at the front of powermetrics.command in the config.

Examples:
  sudo mactop
  mactop -r 500ms
  mactop --powermetrics-fake capture.plist
  mactop dump --wait 5s`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool(flagNoColor); noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd)
	},
}

func init() {
	registerGlobalFlags(rootCmd.PersistentFlags())
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
