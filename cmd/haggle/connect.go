package main

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/freeeve/haggle/internal/agent"
	"github.com/freeeve/haggle/internal/logger"
	"github.com/freeeve/haggle/internal/transport"
	"github.com/freeeve/haggle/pkg/negotiation"
)

var connectFlags struct {
	url     string
	profile int
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Negotiate against a websocket host",
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectFlags.url, "url", "ws://localhost:3009/negotiate", "host websocket URL")
	connectCmd.Flags().IntVar(&connectFlags.profile, "profile", 0, "scenario profile to negotiate for (0 or 1)")
}

func runConnect(cmd *cobra.Command, _ []string) error {
	if scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}
	if connectFlags.profile != 0 && connectFlags.profile != 1 {
		return fmt.Errorf("--profile must be 0 or 1, got %d", connectFlags.profile)
	}
	sc, err := negotiation.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	sink, err := openSink()
	if err != nil {
		return err
	}
	defer sink.Close()

	ctx, cancel := signalContext()
	defer cancel()

	id := uuid.NewString()
	ctx = logger.WithSessionID(ctx, id)
	l := logger.ForContext(ctx)

	clock := &negotiation.HostClock{}
	a, err := agent.New(sc.Domain, sc.Profiles[connectFlags.profile], clock, agent.Options{
		Name:      sc.Names[connectFlags.profile],
		SessionID: id,
		Hyper:     cfg.Hyperparameters,
		Rand:      rand.New(rand.NewSource(cfg.Seed)),
		Logger:    &l,
		Sink:      sink,
	})
	if err != nil {
		return err
	}

	client, err := transport.Dial(ctx, connectFlags.url, l)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Info().Str("url", connectFlags.url).Str("session", id).Msg("Connected to host")
	if err := transport.Run(ctx, client, sc.Domain, a, clock); err != nil {
		return fmt.Errorf("negotiate: %w", err)
	}
	log.Info().Str("state", a.State().String()).Msg("Negotiation finished")
	return nil
}
