package codec

import (
	"encoding/json"
	"fmt"
)

// JSON is a field-map codec for deployments where the upstream concentrator
// already unpacks the bitmap format. The real binary bitmap codec plugs in
// behind the same interface.
type JSON struct{}

func (JSON) Encode(fields map[int]string) ([]byte, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode field map: %w", err)
	}
	return data, nil
}

func (JSON) Decode(data []byte) (map[int]string, error) {
	var fields map[int]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode field map: %w", err)
	}
	return fields, nil
}
