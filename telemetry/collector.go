package telemetry

// Collector accumulates the per-tick efficiency series of one run.
// Entries are appended only once at least one full-hive bout exists.
type Collector struct {
	foraging []float64
	search   []float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record derives and appends this tick's efficiencies.
//
// Foraging efficiency is total nectar per full-hive bout. Search efficiency
// is the mean over agents of flowers visited per unit distance (agents that
// have not flown contribute 0). Returns false when there is no full-hive
// bout yet, in which case nothing is appended.
func (c *Collector) Record(fullBouts int, totalNectar float64, agentSearch []float64) (foraging, search float64, ok bool) {
	if fullBouts <= 0 {
		return 0, 0, false
	}
	foraging = totalNectar / float64(fullBouts)
	search = Mean(agentSearch)

	c.foraging = append(c.foraging, foraging)
	c.search = append(c.search, search)
	return foraging, search, true
}

// Foraging returns the foraging efficiency series.
func (c *Collector) Foraging() []float64 {
	return c.foraging
}

// Search returns the search efficiency series.
func (c *Collector) Search() []float64 {
	return c.search
}

// Len returns the number of recorded ticks.
func (c *Collector) Len() int {
	return len(c.foraging)
}

// Last returns the most recent efficiencies, or zeros before any entry.
func (c *Collector) Last() (foraging, search float64) {
	if len(c.foraging) == 0 {
		return 0, 0
	}
	return c.foraging[len(c.foraging)-1], c.search[len(c.search)-1]
}

// Reset discards the series.
func (c *Collector) Reset() {
	c.foraging = c.foraging[:0]
	c.search = c.search[:0]
}
