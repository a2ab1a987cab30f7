package persistence

import (
	"encoding/json"
	"fmt"
)

func encodeFile(f *FileMeta) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("persistence: encode file: %w", err)
	}
	return b, nil
}

func decodeFile(b []byte) (*FileMeta, error) {
	var f FileMeta
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("persistence: decode file: %w", err)
	}
	return &f, nil
}
