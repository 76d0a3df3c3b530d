// Package chainspec holds the chain specification document consumed by the
// node lifecycle layer. The lifecycle layer treats it as opaque; only the
// build-spec and export-state subcommands look inside.
package chainspec

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainSpec describes a chain: identity, type and genesis payload.
type ChainSpec struct {
	Name       string         `yaml:"name" json:"name"`
	ID         string         `yaml:"id" json:"id"`
	ChainType  string         `yaml:"chain_type" json:"chainType"`
	Bootnodes  []string       `yaml:"bootnodes,omitempty" json:"bootNodes,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`

	// Genesis carries the raw genesis state. Opaque here; export-state
	// replaces it with the current state of a running client.
	Genesis json.RawMessage `yaml:"-" json:"genesis,omitempty"`

	// GenesisYAML is the on-disk yaml form of Genesis.
	GenesisYAML map[string]any `yaml:"genesis,omitempty" json:"-"`
}

// Load reads a chain specification from a yaml file.
func Load(path string) (*ChainSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain spec %s: %w", path, err)
	}
	var spec ChainSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse chain spec %s: %w", path, err)
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("chain spec %s: missing id", path)
	}
	if spec.Name == "" {
		spec.Name = spec.ID
	}
	if spec.GenesisYAML != nil {
		genesis, err := json.Marshal(spec.GenesisYAML)
		if err != nil {
			return nil, fmt.Errorf("encode genesis of %s: %w", path, err)
		}
		spec.Genesis = genesis
	}
	return &spec, nil
}

// Development returns the built-in single-node development spec.
func Development() *ChainSpec {
	return &ChainSpec{
		Name:      "Development",
		ID:        "dev",
		ChainType: "development",
		Properties: map[string]any{
			"tokenSymbol":   "MRD",
			"tokenDecimals": 12,
		},
		Genesis: json.RawMessage(`{}`),
	}
}

// RawJSON renders the spec as the canonical raw json document.
func (s *ChainSpec) RawJSON() ([]byte, error) {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode chain spec: %w", err)
	}
	return out, nil
}

// WithGenesis returns a copy of the spec carrying the given genesis state.
func (s *ChainSpec) WithGenesis(state json.RawMessage) *ChainSpec {
	out := *s
	out.Genesis = state
	out.GenesisYAML = nil
	return &out
}
