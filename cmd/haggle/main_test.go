package main

import (
	"testing"
)

const lunchPath = "../../pkg/negotiation/testdata/lunch.yaml"

func execute(t *testing.T, args ...string) error {
	t.Helper()
	scenarioPath, configPath, jsonOut = "", "", false
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestLoadScenario(t *testing.T) {
	scenarioPath = ""
	sc, err := loadScenario(7, 3, 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := len(sc.Domain.Issues); got != 3 {
		t.Errorf("issues = %d, want 3", got)
	}
	if _, err := loadScenario(7, 0, 0); err == nil {
		t.Error("expected an error without --scenario or --issues")
	}

	scenarioPath = lunchPath
	defer func() { scenarioPath = "" }()
	sc, err = loadScenario(7, 0, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := sc.Domain.NumberOfPossibleBids(); got != 36 {
		t.Errorf("bids = %d, want 36", got)
	}
}

func TestElicitCommand(t *testing.T) {
	if err := execute(t, "elicit", "--scenario", lunchPath, "--ranked", "8", "--seed", "3", "--json"); err != nil {
		t.Fatalf("elicit: %v", err)
	}
}

func TestMatchCommand(t *testing.T) {
	if err := execute(t, "match", "--scenario", lunchPath, "-n", "2", "--workers", "2", "--rounds", "20", "--opponent", "hardliner", "--seed", "4"); err != nil {
		t.Fatalf("match: %v", err)
	}
}

func TestConnectRequiresScenario(t *testing.T) {
	if err := execute(t, "connect"); err == nil {
		t.Error("expected an error without --scenario")
	}
}
