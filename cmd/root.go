package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/yelp-featureserver/internal/config"
)

var (
	cfg *config.Config

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "yelp-featureserver",
	Short:         "Serve Yelp business search as a GeoServices feature layer",
	Long:          "Translates FeatureServer queries into Yelp search requests and returns the matching businesses as GeoJSON point features.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(configPath, logLevel)
		if err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("file", configPath),
			zap.String("yelp_version", cfg.Yelp.Version),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadConfig reads the config file and applies flag overrides on top of it.
func loadConfig(path, level string) (*config.Config, error) {
	c, err := config.LoadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "load config")
	}
	if level != "" {
		c.Log.Level = level
	}
	return c, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
