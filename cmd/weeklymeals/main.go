package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pevans/weeklymeals/config"
)

// version is reported in the email footer.
var version = "1.0.0"

var (
	cfg        *config.Config
	configFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "weeklymeals",
	Short: "Weekly meal planner",
	Long: "Collects recipes from a set of cooking sites, picks a balanced week of " +
		"mains and sides at random, and emails the plan.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if debugMode {
			cfg.Log.Level = "debug"
			cfg.Log.Format = "console"
		}
		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: runPlan,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false,
		"test one site against an empty ledger and mail only the sender")
	rootCmd.Flags().String("source", "", "site to use in debug mode instead of prompting")

	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
