package service

import (
	"context"
	"encoding/json"
)

// ClientInfo is a snapshot of chain usage reported by a client.
type ClientInfo struct {
	BestNumber  uint64
	GenesisHash string
}

// Client reads chain data. Implemented by the node, consumed by
// subcommands.
type Client interface {
	Info() ClientInfo

	// BlockRaw returns the encoded block at the given height.
	BlockRaw(ctx context.Context, number uint64) (json.RawMessage, error)

	// StateRaw returns the encoded state at the current best block.
	StateRaw(ctx context.Context) (json.RawMessage, error)
}

// Backend exposes the destructive chain-store operations.
type Backend interface {
	// Revert rolls the chain back by up to n blocks and returns the
	// resulting best number.
	Revert(ctx context.Context, n uint64) (uint64, error)
}

// ImportQueue verifies and imports encoded blocks.
type ImportQueue interface {
	ImportRaw(ctx context.Context, block json.RawMessage) error

	// VerifyRaw checks a block without importing it.
	VerifyRaw(ctx context.Context, block json.RawMessage) error
}

