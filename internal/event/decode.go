package event

import (
	"encoding/json"
	"fmt"
)

// DecodePayload returns the payload as T. In-process publishers hand over
// the struct itself, or a pointer to it; anything else (dead letters replayed
// from disk, generic maps) is converted through JSON.
func DecodePayload[T any](input any) (T, error) {
	var out T
	switch v := input.(type) {
	case T:
		return v, nil
	case *T:
		if v == nil {
			return out, fmt.Errorf("%s: nil %T", ErrMsgDecodePayload, v)
		}
		return *v, nil
	case nil:
		return out, fmt.Errorf("%s: empty payload", ErrMsgDecodePayload)
	}

	data, err := json.Marshal(input)
	if err != nil {
		return out, fmt.Errorf("%s: %w", ErrMsgDecodePayload, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%s into %T: %w", ErrMsgDecodePayload, out, err)
	}
	return out, nil
}
