package steer

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonrepair"

	"github.com/tanmosh/toolwire/pkg/steer/steercfg"
)

// phase is the driver's position within one iteration of the loop.
type phase string

const (
	phaseAux     phase = ""        // next directive is the pruning call
	phaseRun     phase = "run"     // next directive is RunTurn
	phaseAwait   phase = "await"   // RunTurn issued, waiting for the TurnResult
	phaseStopped phase = "stopped" // terminal
)

// Stats counts what the driver has done so far in the session.
type Stats struct {
	Turns       int `json:"turns" yaml:"turns" msgpack:"turns"`
	Compactions int `json:"compactions" yaml:"compactions" msgpack:"compactions"`
	Spawns      int `json:"spawns" yaml:"spawns" msgpack:"spawns"`
}

func (s Stats) String() string {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Sprintf("stats: %v", err)
	}
	return string(data)
}

// Driver is a per-session orchestration state machine.
//
// Usage:
//
//	d := steer.NewDriver(cfg)
//	var turn *steer.TurnResult
//	for {
//		switch dir := d.Next(turn).(type) {
//		case steer.RunTurn:
//			turn, _ = engine.RunOneTurn(ctx)
//			continue
//		case steer.Stop:
//			return
//		case ...:
//			// execute against the engine
//		}
//		turn = nil
//	}
//
// Driver is not safe for concurrent use; a session is single-threaded.
type Driver struct {
	cfg *steercfg.Session

	phase phase
	queue []Directive
	stats Stats
}

// NewDriver creates a driver for one task session. cfg may be nil or
// partially filled; defaults are applied.
func NewDriver(cfg *steercfg.Session) *Driver {
	if cfg == nil {
		cfg = &steercfg.Session{}
	}
	c := *cfg
	c.Normalize()
	return &Driver{cfg: &c}
}

// Stats reports the session counters.
func (d *Driver) Stats() Stats { return d.stats }

// Stopped reports whether the session has reached its terminal state.
func (d *Driver) Stopped() bool { return d.phase == phaseStopped }

// Next returns the next directive for the host to execute.
//
// turn must carry the result of the previous RunTurn directive and must
// be nil for every other call. Calling Next with a nil turn while a
// TurnResult is due re-issues RunTurn.
func (d *Driver) Next(turn *TurnResult) Directive {
	if d.phase == phaseAwait {
		if turn == nil {
			return RunTurn{}
		}
		if turn.StepsComplete {
			d.phase = phaseStopped
			return Stop{}
		}
		d.observeTurn(turn.Messages)
		d.phase = phaseAux
	}

	if len(d.queue) > 0 {
		dir := d.queue[0]
		d.queue = d.queue[1:]
		return dir
	}

	switch d.phase {
	case phaseAux:
		d.phase = phaseRun
		return AuxiliaryCall{Call: d.cfg.Prune}
	case phaseRun:
		d.phase = phaseAwait
		d.stats.Turns++
		return RunTurn{}
	default:
		return Stop{}
	}
}

// observeTurn scans the history tail for a research tool result and, if
// its payload carries the marker fields, queues the compaction sequence.
//
// The scan walks backward and stops at the first user message: a marker
// older than the latest user input belongs to an already-handled phase
// and must not trigger compaction again.
func (d *Driver) observeTurn(messages []*Message) {
	marker := -1
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role == RoleUser {
			break
		}
		if msg.Role == RoleTool && msg.ToolName == d.cfg.ResearchTool {
			marker = i
			break
		}
	}
	if marker < 0 {
		return
	}

	files, report, ok := d.extractMarker(messages[marker].Content)
	if !ok {
		return
	}

	instruction := nearestUserBefore(messages, marker)
	if instruction == nil {
		slog.Debug("steer: research result without a preceding instruction, skipping compaction",
			"tool", d.cfg.ResearchTool)
		return
	}

	d.queue = append(d.queue,
		ReplaceHistory{Messages: []*Message{
			{Role: RoleUser, Content: report},
			{Role: instruction.Role, Content: instruction.Content},
		}},
		ReadFiles{Paths: files},
		SpawnAgents{Specs: []steercfg.AgentSpec{d.cfg.Planner}},
	)
	d.stats.Compactions++
	d.stats.Spawns++
}

// extractMarker decodes a research result payload and pulls out the
// relevant file list and the distilled report. A payload missing either
// field, or malformed beyond repair, yields ok=false and is treated the
// same as no marker at all.
func (d *Driver) extractMarker(content string) (files []string, report string, ok bool) {
	var payload any
	if err := unmarshalPayload(content, &payload); err != nil {
		return nil, "", false
	}

	fv, found := d.cfg.Extract.RelevantFiles.First(payload)
	if !found {
		return nil, "", false
	}
	list, isList := fv.([]any)
	if !isList {
		return nil, "", false
	}
	files = make([]string, 0, len(list))
	for _, item := range list {
		s, isStr := item.(string)
		if !isStr {
			return nil, "", false
		}
		files = append(files, s)
	}

	rv, found := d.cfg.Extract.Report.First(payload)
	if !found {
		return nil, "", false
	}
	report, isStr := rv.(string)
	if !isStr || report == "" {
		return nil, "", false
	}
	return files, report, true
}

// unmarshalPayload parses a tool result body, repairing sloppy JSON
// (trailing commas, single quotes) before giving up.
func unmarshalPayload(content string, v any) error {
	err := json.Unmarshal([]byte(content), v)
	if err == nil {
		return nil
	}
	repaired, rerr := jsonrepair.JSONRepair(content)
	if rerr != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), v)
}

func nearestUserBefore(messages []*Message, i int) *Message {
	for j := i - 1; j >= 0; j-- {
		if messages[j].Role == RoleUser {
			return messages[j]
		}
	}
	return nil
}
