package steer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tanmosh/toolwire/pkg/steer/steercfg"
)

// Engine is the host side of the driver's directive vocabulary. All
// I/O, tool execution, and sub-agent parallelism live behind it; the
// driver only sees the aggregated results it is handed.
type Engine interface {
	// RunOneTurn advances the engine one turn and reports the updated
	// history.
	RunOneTurn(ctx context.Context) (*TurnResult, error)

	// ReplaceHistory swaps the working context for the given messages.
	ReplaceHistory(ctx context.Context, messages []*Message) error

	// ReadFiles loads file contents into the working context.
	ReadFiles(ctx context.Context, paths []string) error

	// SpawnAgents runs the named sub-agents to completion and returns
	// one aggregated result per spec.
	SpawnAgents(ctx context.Context, specs []steercfg.AgentSpec) ([]*AgentResult, error)

	// Call performs a fire-and-forget side call.
	Call(ctx context.Context, call steercfg.CallSpec) error
}

// Run drives a session to completion against the given engine. It
// returns nil when the driver stops, or the first engine error other
// than an auxiliary call failure. Auxiliary call failures are logged
// and do not interrupt the session.
func Run(ctx context.Context, d *Driver, engine Engine) error {
	var turn *TurnResult
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := d.Next(turn)
		turn = nil

		switch dir := dir.(type) {
		case Stop:
			return nil
		case RunTurn:
			t, err := engine.RunOneTurn(ctx)
			if err != nil {
				return fmt.Errorf("steer: run turn: %w", err)
			}
			turn = t
		case ReplaceHistory:
			if err := engine.ReplaceHistory(ctx, dir.Messages); err != nil {
				return fmt.Errorf("steer: replace history: %w", err)
			}
		case ReadFiles:
			if err := engine.ReadFiles(ctx, dir.Paths); err != nil {
				return fmt.Errorf("steer: read files: %w", err)
			}
		case SpawnAgents:
			if _, err := engine.SpawnAgents(ctx, dir.Specs); err != nil {
				return fmt.Errorf("steer: spawn agents: %w", err)
			}
		case AuxiliaryCall:
			if err := engine.Call(ctx, dir.Call); err != nil {
				slog.Warn("steer: auxiliary call failed", "call", dir.Call.Name, "error", err)
			}
		default:
			return fmt.Errorf("steer: unknown directive %T", dir)
		}
	}
}
