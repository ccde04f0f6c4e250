package systems

import "github.com/pthm-cable/forage/config"

// Colony is the hive. TotalBouts counts every completed bout by any agent
// and never decreases.
type Colony struct {
	X, Y                       float64
	TotalBouts                 int
	BoutsAtLastObstacleRefresh int
}

// NewColony places a colony for the given arrangement. Arrangements whose
// layout is anchored to the hive pin it near the bottom edge.
func NewColony(world config.WorldConfig, cfg config.ColonyConfig, arrangement string) *Colony {
	c := &Colony{X: cfg.X, Y: cfg.Y}
	if IsV2(arrangement) {
		c.Y = world.Height - cfg.BottomMargin
	}
	return c
}

// RecordBout counts one completed bout.
func (c *Colony) RecordBout() {
	c.TotalBouts++
}

// MarkObstacleRefresh records the full-hive bout count at which bout-driven
// world changes last ran.
func (c *Colony) MarkObstacleRefresh(fullBouts int) {
	c.BoutsAtLastObstacleRefresh = fullBouts
}

// Geometry returns the arrangement geometry anchored on this colony.
func (c *Colony) Geometry(world config.WorldConfig) Geometry {
	return Geometry{Width: world.Width, Height: world.Height, ColonyX: c.X, ColonyY: c.Y}
}
