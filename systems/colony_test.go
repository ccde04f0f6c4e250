package systems

import (
	"testing"

	"github.com/pthm-cable/forage/config"
)

func TestNewColonyPlacement(t *testing.T) {
	world := config.WorldConfig{Width: 800, Height: 700}
	cfg := config.ColonyConfig{X: 400, Y: 300, BottomMargin: 50}

	tests := []struct {
		arrangement string
		wantY       float64
	}{
		{ArrangementRandom, 300},
		{ArrangementNegative, 300},
		{ArrangementPositiveV2, 650},
		{ArrangementIndependentV2, 650},
	}
	for _, tt := range tests {
		c := NewColony(world, cfg, tt.arrangement)
		if c.X != 400 || c.Y != tt.wantY {
			t.Errorf("%s: colony at (%v,%v), want (400,%v)", tt.arrangement, c.X, c.Y, tt.wantY)
		}
	}
}

func TestColonyBouts(t *testing.T) {
	c := &Colony{}
	c.RecordBout()
	c.RecordBout()
	c.MarkObstacleRefresh(1)
	if c.TotalBouts != 2 || c.BoutsAtLastObstacleRefresh != 1 {
		t.Errorf("colony = %+v", c)
	}
}
