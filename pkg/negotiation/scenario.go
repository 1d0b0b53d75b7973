package negotiation

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a domain plus the two parties' true preference profiles.
type Scenario struct {
	Domain   *Domain
	Names    [2]string
	Profiles [2]*AdditiveUtilitySpace
}

type scenarioFile struct {
	Name   string `yaml:"name"`
	Issues []struct {
		Name   string   `yaml:"name"`
		Values []string `yaml:"values"`
	} `yaml:"issues"`
	Profiles []profileFile `yaml:"profiles"`
}

type profileFile struct {
	Name        string                        `yaml:"name"`
	Reservation float64                       `yaml:"reservation"`
	Weights     map[string]float64            `yaml:"weights"`
	Scores      map[string]map[string]float64 `yaml:"scores"`
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(b)
}

// ParseScenario decodes a YAML scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if len(f.Profiles) != 2 {
		return nil, fmt.Errorf("scenario %q: expected 2 profiles, got %d", f.Name, len(f.Profiles))
	}

	issues := make([]*Issue, 0, len(f.Issues))
	for i, fi := range f.Issues {
		values := make([]Value, len(fi.Values))
		for j, v := range fi.Values {
			values[j] = Value(v)
		}
		iss, err := NewIssue(i+1, fi.Name, values...)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", f.Name, err)
		}
		issues = append(issues, iss)
	}
	d, err := NewDomain(f.Name, issues...)
	if err != nil {
		return nil, err
	}

	sc := &Scenario{Domain: d}
	for p, pf := range f.Profiles {
		space, err := pf.build(d)
		if err != nil {
			return nil, fmt.Errorf("scenario %q profile %q: %w", f.Name, pf.Name, err)
		}
		sc.Names[p] = pf.Name
		sc.Profiles[p] = space
	}
	return sc, nil
}

func (pf profileFile) build(d *Domain) (*AdditiveUtilitySpace, error) {
	for name := range pf.Weights {
		if d.IssueIndex(name) < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownIssue, name)
		}
	}
	weights := make([]float64, len(d.Issues))
	scores := make([][]float64, len(d.Issues))
	for i, iss := range d.Issues {
		weights[i] = pf.Weights[iss.Name]
		scores[i] = make([]float64, iss.NumValues())
		for v, s := range pf.Scores[iss.Name] {
			vi := iss.ValueIndex(Value(v))
			if vi < 0 {
				return nil, fmt.Errorf("%w: %q for issue %q", ErrUnknownValue, v, iss.Name)
			}
			scores[i][vi] = s
		}
	}
	return NewAdditiveUtilitySpace(d, weights, scores, pf.Reservation)
}

// GenerateScenario builds a random scenario. Half of the issues are opposed
// (one party's best value is the other's worst), the rest are independent,
// so the outcome space has room for integrative deals.
func GenerateScenario(rng *rand.Rand, numIssues, valuesPerIssue int, reservation float64) (*Scenario, error) {
	if numIssues < 1 || valuesPerIssue < 2 {
		return nil, fmt.Errorf("generate scenario: need at least 1 issue and 2 values, got %d and %d", numIssues, valuesPerIssue)
	}
	issues := make([]*Issue, numIssues)
	for i := range issues {
		values := make([]Value, valuesPerIssue)
		for j := range values {
			values[j] = Value(fmt.Sprintf("v%d", j+1))
		}
		iss, err := NewIssue(i+1, fmt.Sprintf("issue%d", i+1), values...)
		if err != nil {
			return nil, err
		}
		issues[i] = iss
	}
	d, err := NewDomain("generated", issues...)
	if err != nil {
		return nil, err
	}

	var weights [2][]float64
	var scores [2][][]float64
	for p := 0; p < 2; p++ {
		weights[p] = make([]float64, numIssues)
		scores[p] = make([][]float64, numIssues)
	}
	for i := 0; i < numIssues; i++ {
		for p := 0; p < 2; p++ {
			weights[p][i] = 0.1 + rng.Float64()
			scores[p][i] = make([]float64, valuesPerIssue)
		}
		for j := 0; j < valuesPerIssue; j++ {
			a := rng.Float64()
			scores[0][i][j] = a
			if i%2 == 0 {
				scores[1][i][j] = 1 - a
			} else {
				scores[1][i][j] = rng.Float64()
			}
		}
	}

	sc := &Scenario{Domain: d, Names: [2]string{"a", "b"}}
	for p := 0; p < 2; p++ {
		sc.Profiles[p], err = NewAdditiveUtilitySpace(d, weights[p], scores[p], reservation)
		if err != nil {
			return nil, err
		}
	}
	return sc, nil
}
