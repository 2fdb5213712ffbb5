package steercfg

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// JQExpr is a jq expression configured as a plain string and pre-parsed
// on unmarshal so invalid expressions fail at load time, not at use.
type JQExpr struct {
	Expr  string      // raw expression text
	Query *gojq.Query // pre-parsed query (not serialized)
}

// CompileJQ parses expr into a JQExpr.
func CompileJQ(expr string) (JQExpr, error) {
	var e JQExpr
	if err := e.set(expr); err != nil {
		return JQExpr{}, err
	}
	return e, nil
}

// MustJQ is CompileJQ that panics on error, for package-level defaults.
func MustJQ(expr string) JQExpr {
	e, err := CompileJQ(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// IsZero reports whether no expression is configured.
func (e JQExpr) IsZero() bool {
	return e.Expr == ""
}

// First runs the query against v and returns the first non-error result.
// It reports false when the query is unset, yields nothing, yields an
// error, or yields null.
func (e JQExpr) First(v any) (any, bool) {
	if e.Query == nil {
		return nil, false
	}
	iter := e.Query.Run(v)
	out, ok := iter.Next()
	if !ok {
		return nil, false
	}
	if _, isErr := out.(error); isErr {
		return nil, false
	}
	if out == nil {
		return nil, false
	}
	return out, true
}

func (e *JQExpr) set(expr string) error {
	e.Expr = expr
	e.Query = nil
	if expr == "" {
		return nil
	}
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	e.Query = query
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e JQExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Expr)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *JQExpr) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err != nil {
		return err
	}
	return e.set(expr)
}

// MarshalYAML implements yaml.Marshaler.
func (e JQExpr) MarshalYAML() (any, error) {
	return e.Expr, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *JQExpr) UnmarshalYAML(node *yaml.Node) error {
	var expr string
	if err := node.Decode(&expr); err != nil {
		return err
	}
	return e.set(expr)
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e JQExpr) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(e.Expr)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (e *JQExpr) DecodeMsgpack(dec *msgpack.Decoder) error {
	expr, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return e.set(expr)
}
