// Package units converts raw sensor codes into physical units.
package units

import (
	"math/bits"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
)

// Scale factors for the motion sensor at its power-on ranges
// (±2 g accelerometer, ±250 deg/s gyroscope).
const (
	AccelLSBPerG     = 16384.0
	GyroLSBPerDegSec = 131.0
	TempLSBPerDegC   = 340.0
	TempOffsetDegC   = 36.53
	LuxMax           = 2000
	DefaultADCMax    = 4095
	StandardGravityG = 1.0
)

// ToCelsius converts a raw temperature code to degrees Celsius.
func ToCelsius(raw int) float64 {
	return float64(raw)/TempLSBPerDegC + TempOffsetDegC
}

// ToG converts a raw acceleration axis to g.
func ToG(raw int) float64 {
	return float64(raw) / AccelLSBPerG
}

// ToDegPerSec converts a raw rotation axis to degrees per second.
func ToDegPerSec(raw int) float64 {
	return float64(raw) / GyroLSBPerDegSec
}

// ToLux rescales a raw ADC value from [0, adcMax] to [0, LuxMax] using
// integer arithmetic. Raw values outside the input range are clamped first,
// so any int maps into [0, LuxMax].
func ToLux(raw, adcMax int) int {
	if adcMax <= 0 {
		return 0
	}
	switch {
	case raw <= 0:
		return 0
	case raw >= adcMax:
		return LuxMax
	}
	// raw < adcMax, so the 128-bit product divided by adcMax fits in 64 bits
	hi, lo := bits.Mul64(uint64(raw), LuxMax)
	lux, _ := bits.Div64(hi, lo, uint64(adcMax))
	return int(lux)
}

// AccelToG converts all three acceleration axes.
func AccelToG(v sensor.RawVec3) sensor.Vec3 {
	return sensor.Vec3{X: ToG(int(v.X)), Y: ToG(int(v.Y)), Z: ToG(int(v.Z))}
}

// RotToDegPerSec converts all three rotation axes.
func RotToDegPerSec(v sensor.RawVec3) sensor.Vec3 {
	return sensor.Vec3{X: ToDegPerSec(int(v.X)), Y: ToDegPerSec(int(v.Y)), Z: ToDegPerSec(int(v.Z))}
}

// Convert maps a whole raw sample to physical units.
func Convert(s sensor.RawSample, adcMax int) sensor.Reading {
	return sensor.Reading{
		TempC: ToCelsius(int(s.Temperature)),
		Lux:   ToLux(s.Light, adcMax),
		Accel: AccelToG(s.Accel),
		Rot:   RotToDegPerSec(s.Rot),
	}
}
