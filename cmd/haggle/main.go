package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/haggle/internal/config"
	"github.com/freeeve/haggle/internal/logger"
	"github.com/freeeve/haggle/pkg/negotiation"
)

var (
	configPath   string
	scenarioPath string
	debug        bool
	jsonOut      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "haggle",
	Short:         "Bilateral negotiation agent",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (HAGGLE_* env vars override it)")
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output results as JSON")

	rootCmd.AddCommand(matchCmd, elicitCmd, connectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			log.Info().Msg("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// loadScenario reads --scenario, or generates a random scenario when it is
// not set.
func loadScenario(seed int64, issues, values int) (*negotiation.Scenario, error) {
	if scenarioPath != "" {
		return negotiation.LoadScenario(scenarioPath)
	}
	if issues <= 0 {
		return nil, fmt.Errorf("--scenario or --issues is required")
	}
	return negotiation.GenerateScenario(rand.New(rand.NewSource(seed)), issues, values, 0.3)
}
