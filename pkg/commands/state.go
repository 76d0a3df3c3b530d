package commands

import (
	"context"
	"fmt"

	apperrors "github.com/meridianchain/meridian/pkg/app/errors"
	"github.com/meridianchain/meridian/pkg/chainspec"
	"github.com/meridianchain/meridian/pkg/service"
)

// Revert rolls the chain back by a number of blocks. Finalized history is
// the backend's concern; the command only reports how far it actually got.
type Revert struct {
	// Blocks is how many blocks to roll back.
	Blocks uint64
}

func (c *Revert) Run(ctx context.Context, client service.Client, backend service.Backend) error {
	if c.Blocks == 0 {
		return apperrors.InvalidInputError(nil, "nothing to revert")
	}
	before := client.Info().BestNumber
	newBest, err := backend.Revert(ctx, c.Blocks)
	if err != nil {
		return fmt.Errorf("revert %d blocks: %w", c.Blocks, err)
	}
	if newBest > before {
		return fmt.Errorf("backend reported best %d above previous best %d", newBest, before)
	}
	return nil
}

// ExportState renders a chain spec whose genesis is the current state of
// the client's best block.
type ExportState struct {
	// Output is the destination file; stdout when empty.
	Output string
}

func (c *ExportState) Run(ctx context.Context, client service.Client, spec *chainspec.ChainSpec) error {
	state, err := client.StateRaw(ctx)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	raw, err := spec.WithGenesis(state).RawJSON()
	if err != nil {
		return err
	}
	return writeOutput(c.Output, raw)
}
