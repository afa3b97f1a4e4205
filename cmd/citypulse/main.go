package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// global flags
var (
	configDir   string
	lat, lng    float64
	geojsonPath string
	platform    string
	pick        int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "citypulse",
		Short:         "Discover what is happening around a location",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configDir, "config-dir", ".", "directory containing citypulse.cfg.json")
	pf.String("server", "", "backend base URL (overrides api.serverUrl)")
	pf.String("log-level", "", "log level (overrides logLevel)")
	pf.String("logs-dir", "", "log directory, empty logs to stdout (overrides logsDir)")
	pf.Float64Var(&lat, "lat", 0, "latitude to use instead of geolocation")
	pf.Float64Var(&lng, "lng", 0, "longitude to use instead of geolocation")
	pf.StringVar(&geojsonPath, "geojson", "", `write the final map state as GeoJSON to this file ("-" for stdout)`)

	_ = viper.BindPFlag("api.serverUrl", pf.Lookup("server"))
	_ = viper.BindPFlag("logLevel", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logsDir", pf.Lookup("logs-dir"))

	root.AddCommand(
		newDiscoverCmd(),
		newSearchCmd(),
		newSuggestCmd(),
		newDetailCmd(),
		newShareCmd(),
		newSharedCmd(),
		newServeCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
