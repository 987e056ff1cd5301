package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-graph/engine/param"
)

// paramState is the program blob of processors whose whole state is their
// parameters: a JSON object of symbol to natural value.
func paramState(params []*param.ControlPort) ([]byte, error) {
	values := make(map[string]float64, len(params))
	for _, p := range params {
		values[p.Symbol()] = p.Get()
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("nodes: encode state: %w", err)
	}

	return data, nil
}

// setParamState restores a blob written by paramState. Unknown symbols are
// ignored; missing ones keep their value.
func setParamState(params []*param.ControlPort, data []byte) error {
	var values map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("nodes: decode state: %w", err)
	}

	for _, p := range params {
		if v, ok := values[p.Symbol()]; ok {
			p.Set(v)
		}
	}

	return nil
}
