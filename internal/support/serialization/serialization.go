// Package serialization provides JSON helpers for the execution metadata
// persisted by the schedule repository, such as execution contexts and
// failure lists.
package serialization

import (
	"encoding/json"

	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "serialization"

// MarshalExecutionContext serializes an execution context map into a JSON byte slice.
func MarshalExecutionContext(ctx map[string]interface{}) ([]byte, error) {
	if ctx == nil {
		logger.Debugf("ExecutionContext is nil. Returning empty JSON object.")
		return []byte("{}"), nil
	}
	data, err := json.Marshal(ctx)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to serialize ExecutionContext", err, false, false)
	}
	return data, nil
}

// UnmarshalExecutionContext deserializes a JSON byte slice into an execution context map.
func UnmarshalExecutionContext(data []byte, ctx *map[string]interface{}) error {
	if len(data) == 0 {
		*ctx = map[string]interface{}{}
		return nil
	}
	if err := json.Unmarshal(data, ctx); err != nil {
		return exception.NewBatchError(moduleName, "failed to deserialize ExecutionContext", err, false, false)
	}
	return nil
}

// MarshalFailureList serializes a list of failure messages into JSON.
func MarshalFailureList(failures []string) ([]byte, error) {
	if failures == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(failures)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to serialize failure list", err, false, false)
	}
	return data, nil
}

// UnmarshalFailureList deserializes a JSON byte slice into a failure list.
func UnmarshalFailureList(data []byte, failures *[]string) error {
	if len(data) == 0 {
		*failures = []string{}
		return nil
	}
	if err := json.Unmarshal(data, failures); err != nil {
		return exception.NewBatchError(moduleName, "failed to deserialize failure list", err, false, false)
	}
	return nil
}
