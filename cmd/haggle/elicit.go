package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/freeeve/haggle/internal/arena"
	"github.com/freeeve/haggle/internal/elicit"
	"github.com/freeeve/haggle/pkg/negotiation"
)

var elicitFlags struct {
	ranked int
	seed   int64
}

var elicitCmd = &cobra.Command{
	Use:   "elicit",
	Short: "Fit a utility space to a partial ranking of the first profile",
	RunE:  runElicit,
}

func init() {
	elicitCmd.Flags().IntVar(&elicitFlags.ranked, "ranked", 10, "bids in the ranking")
	elicitCmd.Flags().Int64Var(&elicitFlags.seed, "seed", 0, "seed (0 = config seed)")
}

type issueReport struct {
	Issue  string             `json:"issue"`
	Weight float64            `json:"weight"`
	True   float64            `json:"true_weight"`
	Spread float64            `json:"spread"`
	Values map[string]float64 `json:"values"`
}

func runElicit(cmd *cobra.Command, _ []string) error {
	seed := elicitFlags.seed
	if seed == 0 {
		seed = cfg.Seed
	}
	sc, err := loadScenario(seed, 0, 0)
	if err != nil {
		return err
	}
	ranking, err := arena.PartialRanking(rand.New(rand.NewSource(seed)), sc, elicitFlags.ranked)
	if err != nil {
		return err
	}
	fit, err := elicit.EstimateUtilitySpace(sc.Domain, ranking, sc.Profiles[0].ReservationValue())
	if err != nil {
		return err
	}
	if fit.Fallback() {
		fmt.Fprintf(os.Stderr, "LP failed (%v), showing rank estimate\n", fit.LPErr)
	}

	spread := make(map[string]float64)
	for _, p := range elicit.IssuePreferences(sc.Domain, ranking) {
		spread[p.Issue.Name] = p.Spread
	}
	reports := make([]issueReport, len(sc.Domain.Issues))
	for i, iss := range sc.Domain.Issues {
		r := issueReport{
			Issue:  iss.Name,
			Weight: fit.Space.Weight(i),
			True:   sc.Profiles[0].Weight(i),
			Spread: spread[iss.Name],
			Values: make(map[string]float64, iss.NumValues()),
		}
		for vi, v := range iss.Values {
			r.Values[string(v)] = fit.Space.Evaluation(i, vi)
		}
		reports[i] = r
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Ranked int           `json:"ranked"`
			LP     bool          `json:"lp"`
			Issues []issueReport `json:"issues"`
		}{ranking.Len(), !fit.Fallback(), reports})
	}

	fmt.Printf("Fitted %d ranked bids (lp=%t)\n", ranking.Len(), !fit.Fallback())
	for i, r := range reports {
		fmt.Printf("  %-16s weight %s (true %s)  spread %s\n", r.Issue,
			negotiation.Significant(r.Weight, negotiation.ReportDigits),
			negotiation.Significant(r.True, negotiation.ReportDigits),
			negotiation.Significant(r.Spread, negotiation.ReportDigits))
		for _, v := range sc.Domain.Issues[i].Values {
			fmt.Printf("    %-14s %s\n", v, negotiation.Significant(r.Values[string(v)], negotiation.ReportDigits))
		}
	}
	return nil
}
