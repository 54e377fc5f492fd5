package cli

import (
	"github.com/rileyhilliard/mactop/internal/collector"
	"github.com/rileyhilliard/mactop/internal/config"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/spf13/afero"
)

// buildCollectors creates one collector per enabled source, all publishing
// to store. It also returns the sources they feed, in start order.
func buildCollectors(cfg *config.Config, store *metrics.Store, fs afero.Fs, log logger.Logger) (*collector.Group, []metrics.Source) {
	var (
		collectors []collector.Collector
		sources    []metrics.Source
	)

	if cfg.Powermetrics.Enabled {
		debugDir := ""
		if cfg.Debug.Enabled {
			debugDir = cfg.Debug.Dir
		}
		collectors = append(collectors, collector.NewPowerCollector(store, collector.PowerOptions{
			Command:     cfg.Powermetrics.Command,
			Interval:    cfg.RefreshInterval,
			FakeFile:    cfg.Powermetrics.FakeFile,
			FakeDelay:   cfg.Powermetrics.FakeDelay,
			HistorySize: cfg.HistorySize,
			Fs:          fs,
			Dumper:      collector.NewDumper(fs, cfg.Powermetrics.DumpDir, debugDir),
			Logger:      log,
		}))
		sources = append(sources, metrics.SourcePower)
	}

	if cfg.IOReg.Enabled {
		collectors = append(collectors, collector.NewBatteryCollector(store, collector.BatteryOptions{
			Command:     cfg.IOReg.Command,
			Interval:    cfg.IORegInterval(),
			HistorySize: cfg.BatteryHistorySize,
			Logger:      log,
		}))
		sources = append(sources, metrics.SourceBattery)
	}

	if cfg.System.Enabled {
		collectors = append(collectors, collector.NewSystemCollector(store, collector.SystemOptions{
			Interval: cfg.SystemInterval(),
			Logger:   log,
		}))
		sources = append(sources, metrics.SourceSystem)
	}

	return collector.NewGroup(collectors...), sources
}
