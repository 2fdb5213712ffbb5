// Package steer implements a resumable orchestration step driver for
// multi-phase agent tasks. The driver is an explicit state machine: the
// host calls Next() in a loop, executes the returned directive against
// its own engine, and feeds turn results back in. When a research tool
// result appears in the history the driver compacts the working context
// down to the distilled report plus the original instruction, loads the
// reported files, and hands off to a planner agent before the next phase.
//
// All driver state is held in the Driver value itself. Independent
// sessions use independent Driver instances.
package steer

import (
	"github.com/tanmosh/toolwire/pkg/steer/steercfg"
)

// Message roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
	RoleTool  = "tool"
)

// Message is one entry of the host engine's conversation history.
// The driver reads messages but never mutates them.
type Message struct {
	Role    string `json:"role" msgpack:"role"`
	Content string `json:"content" msgpack:"content"`

	// ToolName is set on tool result messages (Role == RoleTool).
	ToolName string `json:"tool_name,omitzero" msgpack:"tool_name,omitempty"`
}

// TurnResult is what the host engine reports back after a RunTurn
// directive.
type TurnResult struct {
	// StepsComplete signals the overall task is finished. The driver
	// never self-terminates; this is the only stop condition.
	StepsComplete bool

	// Messages is the full conversation history after the turn.
	Messages []*Message
}

// AgentResult is one spawned sub-agent's aggregated output.
type AgentResult struct {
	Agent  string `json:"agent" msgpack:"agent"`
	Output string `json:"output" msgpack:"output"`
}

// Directive is what the driver asks the host to do next.
//
// The concrete types are RunTurn, ReplaceHistory, ReadFiles,
// SpawnAgents, AuxiliaryCall, and Stop.
type Directive interface {
	isDirective()
}

// RunTurn advances the host engine one turn. The host must pass the
// resulting TurnResult to the next Next() call.
type RunTurn struct{}

// ReplaceHistory replaces the engine's working context with the given
// messages.
type ReplaceHistory struct {
	Messages []*Message
}

// ReadFiles loads the named files into the engine's context.
type ReadFiles struct {
	Paths []string
}

// SpawnAgents runs the named sub-agents to completion.
type SpawnAgents struct {
	Specs []steercfg.AgentSpec
}

// AuxiliaryCall is a fire-and-forget side call. Failures do not affect
// the session.
type AuxiliaryCall struct {
	Call steercfg.CallSpec
}

// Stop ends the session. Terminal: every later Next() returns Stop.
type Stop struct{}

func (RunTurn) isDirective()        {}
func (ReplaceHistory) isDirective() {}
func (ReadFiles) isDirective()      {}
func (SpawnAgents) isDirective()    {}
func (AuxiliaryCall) isDirective()  {}
func (Stop) isDirective()           {}
