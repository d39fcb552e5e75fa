package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/yelp-featureserver/internal/featureserver"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the FeatureServer HTTP endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		router := featureserver.NewRouter(newProvider(cfg), featureserver.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		zap.L().Info("yelp provider ready",
			zap.String("version", cfg.Yelp.Version),
			zap.String("stagger", cfg.Provider.Stagger),
			zap.Bool("split_geometry", cfg.Provider.SplitGeometry),
			zap.Bool("paginate", cfg.Provider.Paginate),
		)

		return featureserver.Serve(ctx, port, router)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
