// Package commands defines the subcommand surface routed by the runner.
// Each variant carries its own argument payload and consumes its own subset
// of the resources a service builder assembles.
package commands

import (
	"fmt"
	"os"

	apperrors "github.com/meridianchain/meridian/pkg/app/errors"
	"github.com/meridianchain/meridian/pkg/chainspec"
	"github.com/meridianchain/meridian/pkg/config"
)

// Subcommand is the sealed set of node subcommands.
type Subcommand interface {
	subcommand()
}

func (*BuildSpec) subcommand()    {}
func (*ExportBlocks) subcommand() {}
func (*ImportBlocks) subcommand() {}
func (*CheckBlock) subcommand()   {}
func (*Revert) subcommand()       {}
func (*PurgeChain) subcommand()   {}
func (*ExportState) subcommand()  {}

// BuildSpec renders the chain specification as raw json. Synchronous; it
// touches neither the builder nor the execution pool.
type BuildSpec struct {
	// Output is the destination file; stdout when empty.
	Output string

	// IncludeBootnode advertises this node's listen address in the
	// emitted spec.
	IncludeBootnode bool
}

func (c *BuildSpec) Run(spec *chainspec.ChainSpec, net config.NetworkConfig) error {
	doc := *spec
	if c.IncludeBootnode {
		doc.Bootnodes = append(doc.Bootnodes,
			fmt.Sprintf("/addr/%s/node/%s", net.ListenAddr, net.NodeName))
	}
	raw, err := doc.RawJSON()
	if err != nil {
		return err
	}
	return writeOutput(c.Output, raw)
}

// PurgeChain removes the chain database. Synchronous and destructive; it
// refuses to run without explicit confirmation.
type PurgeChain struct {
	// Yes skips the confirmation requirement.
	Yes bool
}

func (c *PurgeChain) Run(db config.DatabaseConfig, chainPath string) error {
	if db.Kind == "memory" {
		return nil
	}
	if !c.Yes {
		return apperrors.InvalidInputError(nil,
			fmt.Sprintf("refusing to purge %s without confirmation", chainPath))
	}
	if err := os.RemoveAll(chainPath); err != nil {
		return fmt.Errorf("purge chain database %s: %w", chainPath, err)
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
