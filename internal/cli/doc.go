// Package cli implements the mactop command-line interface.
//
// # Command Structure
//
//	mactop              - live dashboard (needs a terminal)
//	mactop dump         - print one round of snapshots as YAML or JSON
//	mactop init         - write a .mactop.yaml with defaults
//	mactop version      - build information
//	mactop completion   - shell completion scripts
//
// # Flag Handling
//
// Global flags are registered on the root command's persistent flag set and
// override config file values only when set on the command line. Config is
// loaded from --config, ./.mactop.yaml, ~/.config/mactop/config.yaml, or
// defaults, in that order, then validated before any collector starts.
//
// # Collectors
//
// Commands that read telemetry build a collector.Group from the config
// (buildCollectors), start it, and stop it on the way out so powermetrics
// is terminated and reaped even when the dashboard exits with an error.
package cli
