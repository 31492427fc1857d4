package model

import "fmt"

// Flow is a directed edge (From -> To) between a component and a bus,
// e.g. {"from_grid", "bel"}.
type Flow struct {
	From string
	To   string
}

func (f Flow) String() string {
	return fmt.Sprintf("%s->%s", f.From, f.To)
}

// ParseFlow builds a Flow from a two element list as written in model files.
func ParseFlow(parts []string) (Flow, error) {
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Flow{}, fmt.Errorf("flow must name two nodes, got %v", parts)
	}
	return Flow{From: parts[0], To: parts[1]}, nil
}
