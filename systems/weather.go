package systems

import (
	"math"

	"github.com/pthm-cable/forage/config"
)

// WeatherState is the current weather.
type WeatherState uint8

const (
	WeatherClear WeatherState = iota
	WeatherRainy
)

func (w WeatherState) String() string {
	if w == WeatherRainy {
		return "rainy"
	}
	return "clear"
}

// Indicator returns the sensor encoding: 1 for clear, 0 for rain.
func (w WeatherState) Indicator() float64 {
	if w == WeatherRainy {
		return 0
	}
	return 1
}

// Weather derives the weather from external toggles and simulated time.
// Nothing but the latest state is kept.
type Weather struct {
	periodSeconds float64
	clearSeconds  float64
	state         WeatherState
}

// NewWeather creates a clear weather process.
func NewWeather(cfg config.WeatherConfig) *Weather {
	return &Weather{
		periodSeconds: cfg.PeriodSeconds,
		clearSeconds:  cfg.ClearSeconds,
	}
}

// Update recomputes the state: forced rain wins, then the oscillation
// (clear for the first clearSeconds of every period), else clear.
func (w *Weather) Update(rainForced, oscillation bool, nowSeconds float64) WeatherState {
	switch {
	case rainForced:
		w.state = WeatherRainy
	case oscillation:
		phase := math.Mod(math.Floor(nowSeconds), w.periodSeconds)
		if phase < w.clearSeconds {
			w.state = WeatherClear
		} else {
			w.state = WeatherRainy
		}
	default:
		w.state = WeatherClear
	}
	return w.state
}

// State returns the state computed by the last Update.
func (w *Weather) State() WeatherState {
	return w.state
}

// DecayRate returns the pheromone decay rate for the current weather:
// rain multiplies the base rate, capped at rainCap.
func DecayRate(base float64, state WeatherState, cfg config.PheromoneConfig) float64 {
	if state != WeatherRainy {
		return base
	}
	return math.Min(base*cfg.RainMultiplier, cfg.RainCap)
}
