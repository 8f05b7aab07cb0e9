package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/georgemunganga/mama-web/internal/modules/config"
	"github.com/georgemunganga/mama-web/internal/modules/delivery"
	"github.com/georgemunganga/mama-web/internal/modules/render"
)

var (
	cfg    *config.Config
	logger *zap.Logger
	dotenv bool
)

var rootCmd = &cobra.Command{
	Use:   "mama-web",
	Short: "Mama storefront, public site and admin panel",
	Long: `mama-web serves the browser front end of the Mama platform: the public
site, the shop with cart, wishlist and checkout, and the admin panel.
Every read and write goes to the REST API; per-browser state lives in the
configured session store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, dotenv = config.Load()

		zc := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
		if logger, err = zc.Build(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

// deliveryPriceCmd prints the delivery fee for a wilaya, given by code or
// by its full "NN - name" label.
var deliveryPriceCmd = &cobra.Command{
	Use:   "delivery-price [wilaya]",
	Short: "Print the delivery price for a wilaya",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region := resolveRegion(args[0])
		if !delivery.Known(region) {
			fmt.Fprintf(cmd.ErrOrStderr(), "unknown wilaya %q, using the default price\n", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.Money(delivery.Price(region)))
		return nil
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the wilayas and their delivery prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, w := range delivery.Regions() {
			fmt.Fprintf(out, "%s\t%s\n", w.Key(), render.Money(w.Price))
		}
		return nil
	},
}

// resolveRegion maps a bare wilaya code to its label.
func resolveRegion(arg string) string {
	arg = strings.TrimSpace(arg)
	code, err := strconv.Atoi(arg)
	if err != nil {
		return arg
	}
	for _, w := range delivery.Regions() {
		if w.Code == code {
			return w.Key()
		}
	}
	return arg
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides APP_PORT)")
	rootCmd.AddCommand(serveCmd, deliveryPriceCmd, regionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
