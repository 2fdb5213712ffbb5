package steer

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tanmosh/toolwire/pkg/steer/steercfg"
)

// Directive kinds used in snapshots.
const (
	kindRunTurn        = "run_turn"
	kindReplaceHistory = "replace_history"
	kindReadFiles      = "read_files"
	kindSpawnAgents    = "spawn_agents"
	kindAuxiliaryCall  = "auxiliary_call"
	kindStop           = "stop"
)

type queuedDirective struct {
	Kind     string               `msgpack:"kind"`
	Messages []*Message           `msgpack:"messages,omitempty"`
	Paths    []string             `msgpack:"paths,omitempty"`
	Specs    []steercfg.AgentSpec `msgpack:"specs,omitempty"`
	Call     *steercfg.CallSpec   `msgpack:"call,omitempty"`
}

type snapshot struct {
	Phase phase             `msgpack:"phase"`
	Queue []queuedDirective `msgpack:"queue,omitempty"`
	Stats Stats             `msgpack:"stats"`
}

// Snapshot serializes the driver's current state so the session can be
// resumed later with Restore. The session configuration is not part of
// the snapshot; the restoring side supplies it to NewDriver.
func (d *Driver) Snapshot() ([]byte, error) {
	snap := snapshot{Phase: d.phase, Stats: d.stats}
	for _, dir := range d.queue {
		qd, err := encodeDirective(dir)
		if err != nil {
			return nil, err
		}
		snap.Queue = append(snap.Queue, qd)
	}
	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("steer: snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the driver's state with a previously taken snapshot.
func (d *Driver) Restore(data []byte) error {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("steer: restore: %w", err)
	}
	switch snap.Phase {
	case phaseAux, phaseRun, phaseAwait, phaseStopped:
	default:
		return fmt.Errorf("steer: restore: unknown phase %q", snap.Phase)
	}
	queue := make([]Directive, 0, len(snap.Queue))
	for _, qd := range snap.Queue {
		dir, err := decodeDirective(qd)
		if err != nil {
			return err
		}
		queue = append(queue, dir)
	}
	d.phase = snap.Phase
	d.queue = queue
	d.stats = snap.Stats
	return nil
}

func encodeDirective(dir Directive) (queuedDirective, error) {
	switch dir := dir.(type) {
	case RunTurn:
		return queuedDirective{Kind: kindRunTurn}, nil
	case ReplaceHistory:
		return queuedDirective{Kind: kindReplaceHistory, Messages: dir.Messages}, nil
	case ReadFiles:
		return queuedDirective{Kind: kindReadFiles, Paths: dir.Paths}, nil
	case SpawnAgents:
		return queuedDirective{Kind: kindSpawnAgents, Specs: dir.Specs}, nil
	case AuxiliaryCall:
		call := dir.Call
		return queuedDirective{Kind: kindAuxiliaryCall, Call: &call}, nil
	case Stop:
		return queuedDirective{Kind: kindStop}, nil
	default:
		return queuedDirective{}, fmt.Errorf("steer: snapshot: unknown directive %T", dir)
	}
}

func decodeDirective(qd queuedDirective) (Directive, error) {
	switch qd.Kind {
	case kindRunTurn:
		return RunTurn{}, nil
	case kindReplaceHistory:
		return ReplaceHistory{Messages: qd.Messages}, nil
	case kindReadFiles:
		return ReadFiles{Paths: qd.Paths}, nil
	case kindSpawnAgents:
		return SpawnAgents{Specs: qd.Specs}, nil
	case kindAuxiliaryCall:
		if qd.Call == nil {
			return nil, fmt.Errorf("steer: restore: auxiliary directive without call")
		}
		return AuxiliaryCall{Call: *qd.Call}, nil
	case kindStop:
		return Stop{}, nil
	default:
		return nil, fmt.Errorf("steer: restore: unknown directive kind %q", qd.Kind)
	}
}
