// Package steercfg provides configuration definitions for orchestration
// sessions: which tool result marks the end of a research phase, how its
// payload fields are extracted, which planner agent follows, and which
// auxiliary call prunes context each iteration. Definitions load from
// JSON or YAML and validate on unmarshal.
package steercfg

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Session.Normalize.
const (
	DefaultResearchTool = "research_codebase"
	DefaultPlannerName  = "planner"
	DefaultPruneCall    = "prune_context"

	defaultFilesExpr  = ".relevantFiles"
	defaultReportExpr = ".report // .summary"
)

// AgentSpec names one sub-agent to spawn, with its prompt and model.
type AgentSpec struct {
	Name   string `json:"name" yaml:"name" msgpack:"name"`
	Prompt string `json:"prompt,omitzero" yaml:"prompt,omitempty" msgpack:"prompt,omitempty"`
	Model  string `json:"model,omitzero" yaml:"model,omitempty" msgpack:"model,omitempty"`
	Input  string `json:"input,omitzero" yaml:"input,omitempty" msgpack:"input,omitempty"`
}

// CallSpec names one auxiliary host call with optional arguments.
type CallSpec struct {
	Name string         `json:"name" yaml:"name" msgpack:"name"`
	Args map[string]any `json:"args,omitzero" yaml:"args,omitempty" msgpack:"args,omitempty"`
}

// ExtractRules configures how marker fields are pulled out of the
// research tool's result payload.
type ExtractRules struct {
	// RelevantFiles must select an array of file path strings.
	RelevantFiles JQExpr `json:"relevant_files,omitzero" yaml:"relevant_files,omitempty" msgpack:"relevant_files,omitempty"`

	// Report must select the distilled report text.
	Report JQExpr `json:"report,omitzero" yaml:"report,omitempty" msgpack:"report,omitempty"`
}

// Session configures one orchestration session.
type Session struct {
	// ResearchTool is the tool name whose result ends the research phase.
	ResearchTool string `json:"research_tool,omitzero" yaml:"research_tool,omitempty" msgpack:"research_tool,omitempty"`

	// Planner is spawned after each context compaction.
	Planner AgentSpec `json:"planner,omitzero" yaml:"planner,omitempty" msgpack:"planner,omitempty"`

	// Prune is the fire-and-forget context-pruning call issued each iteration.
	Prune CallSpec `json:"prune,omitzero" yaml:"prune,omitempty" msgpack:"prune,omitempty"`

	// Extract overrides the default payload field extraction.
	Extract ExtractRules `json:"extract,omitzero" yaml:"extract,omitempty" msgpack:"extract,omitempty"`
}

// Normalize fills unset fields with defaults. It is idempotent and is
// called by the driver, so a zero Session is usable.
func (s *Session) Normalize() {
	if s.ResearchTool == "" {
		s.ResearchTool = DefaultResearchTool
	}
	if s.Planner.Name == "" {
		s.Planner.Name = DefaultPlannerName
	}
	if s.Prune.Name == "" {
		s.Prune.Name = DefaultPruneCall
	}
	if s.Extract.RelevantFiles.IsZero() {
		s.Extract.RelevantFiles = MustJQ(defaultFilesExpr)
	}
	if s.Extract.Report.IsZero() {
		s.Extract.Report = MustJQ(defaultReportExpr)
	}
}

// LoadSession reads a session definition from a YAML (or JSON; YAML is a
// superset) file and normalizes it.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("steercfg: read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("steercfg: parse session %s: %w", path, err)
	}
	s.Normalize()
	return &s, nil
}

// ParseSession reads a session definition from JSON bytes.
func ParseSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("steercfg: parse session: %w", err)
	}
	s.Normalize()
	return &s, nil
}
