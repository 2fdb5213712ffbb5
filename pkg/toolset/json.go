package toolset

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// unmarshalLenient unmarshals data into v, attempting to repair malformed
// JSON. Model-produced argument objects occasionally carry trailing
// commas or single quotes; a syntax error triggers one repair pass before
// giving up.
func unmarshalLenient(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return repairErr
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
