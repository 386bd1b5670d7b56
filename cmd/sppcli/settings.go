package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/sppcli/internal/devicefactory"
	"github.com/srg/sppcli/pkg/config"
)

// loadSettings loads the configuration, applies the global flags on top of
// it and builds the logger.
func loadSettings(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("adapter") {
		cfg.Adapter, _ = cmd.Flags().GetString("adapter")
	}

	logger, err := configureLogger(cmd, "verbose", cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openAdapter(cfg *config.Config, logger *logrus.Logger) (devicefactory.Adapter, error) {
	kind, err := devicefactory.ParseKind(cfg.Adapter)
	if err != nil {
		return nil, err
	}
	logger.WithField("adapter", kind).Debug("Opening adapter")
	return devicefactory.AdapterFactory(kind, cfg.Simulated, logger)
}
