package model

// Inputs is what a simulation run consumes once a model file has been
// loaded: the simulated components, the components that only carry costs,
// and the busses connecting them.
type Inputs struct {
	Components         []Params
	ExternalComponents []Params
	Busses             []string
}
