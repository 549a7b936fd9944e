// Package alert decides which alert conditions are active for a cycle.
package alert

import (
	"fmt"
	"strings"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
)

const (
	DefaultLuxDark     = 500
	DefaultVibration   = 1.0
	DefaultTemperature = 70.0
)

// Thresholds are fixed for the lifetime of the process.
type Thresholds struct {
	LuxDark     int     // lux at or above this is "Claro" and triggers the light burst
	Vibration   float64 // g, mean deviation strictly above alerts
	Temperature float64 // °C, strictly above alerts
}

// DefaultThresholds returns the thresholds of the reference installation.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LuxDark:     DefaultLuxDark,
		Vibration:   DefaultVibration,
		Temperature: DefaultTemperature,
	}
}

// Validate checks the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.LuxDark < 0 {
		return fmt.Errorf("lux dark threshold must be non-negative, got %d", t.LuxDark)
	}
	if t.Vibration < 0 {
		return fmt.Errorf("vibration threshold must be non-negative, got %f", t.Vibration)
	}
	return nil
}

// LightAlert reports whether the ambient light is bright enough to trigger
// the light burst. The comparison is inclusive.
func (t Thresholds) LightAlert(lux int) bool {
	return lux >= t.LuxDark
}

// VibrationAlert reports whether the mean deviation is abnormal.
func (t Thresholds) VibrationAlert(mean float64) bool {
	return mean > t.Vibration
}

// TemperatureAlert reports whether the asset is running hot.
func (t Thresholds) TemperatureAlert(tempC float64) bool {
	return tempC > t.Temperature
}

// Set records which conditions are active in one cycle. The conditions are
// independent; any combination may be active.
type Set struct {
	Light       bool `json:"light"`
	Vibration   bool `json:"vibration"`
	Temperature bool `json:"temperature"`
}

// Evaluate computes the full set for a reading and its vibration mean.
func (t Thresholds) Evaluate(r sensor.Reading, vibrationMean float64) Set {
	return Set{
		Light:       t.LightAlert(r.Lux),
		Vibration:   t.VibrationAlert(vibrationMean),
		Temperature: t.TemperatureAlert(r.TempC),
	}
}

// Count returns how many conditions are active.
func (s Set) Count() int {
	n := 0
	for _, v := range []bool{s.Light, s.Vibration, s.Temperature} {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one condition is active.
func (s Set) Any() bool { return s.Count() > 0 }

func (s Set) String() string {
	var active []string
	if s.Light {
		active = append(active, "light")
	}
	if s.Vibration {
		active = append(active, "vibration")
	}
	if s.Temperature {
		active = append(active, "temperature")
	}
	if len(active) == 0 {
		return "none"
	}
	return strings.Join(active, ",")
}
