package components

// Forager holds the per-bout behavior state of an agent.
type Forager struct {
	State           State
	Energy          float64
	RouteLength     float64 // distance flown since leaving the colony
	BestRouteLength float64 // shortest route that ended in a flower visit
	HiveArrival     float64 // simulated seconds at last colony arrival
	Bouts           int
}

// Tally accumulates lifetime totals used by the efficiency metrics.
type Tally struct {
	Nectar         float64
	FlowersVisited int
	Distance       float64
}

// SearchEfficiency returns flowers visited per unit distance, or 0 before any flight.
func (t *Tally) SearchEfficiency() float64 {
	if t.Distance <= 0 {
		return 0
	}
	return float64(t.FlowersVisited) / t.Distance
}
