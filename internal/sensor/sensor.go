// Package sensor defines the raw and converted sample types produced by the
// light and motion sensors, and the driver interfaces the monitor reads from.
package sensor

import "fmt"

// RawVec3 is one 3-axis reading straight from the motion sensor registers.
type RawVec3 struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Vec3 is a 3-axis reading in physical units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// RawSample holds the unscaled readings of one instant.
type RawSample struct {
	Light       int     `json:"light"` // ADC counts, 0..4095 on the reference board
	Temperature int16   `json:"temperature"`
	Accel       RawVec3 `json:"accel"`
	Rot         RawVec3 `json:"rot"`
}

// Reading is a RawSample converted to physical units.
type Reading struct {
	TempC float64 `json:"temp_c"`
	Lux   int     `json:"lux"`   // 0..2000
	Accel Vec3    `json:"accel"` // g
	Rot   Vec3    `json:"rot"`   // deg/s
}

// AccelSource is anything that can be sampled for acceleration.
type AccelSource interface {
	ReadAcceleration() RawVec3
}

// MotionSensor is the driver for the accelerometer/gyroscope/thermometer
// package on the sensor bus.
type MotionSensor interface {
	AccelSource

	// Initialise wakes the device and prepares it for reads.
	Initialise() error
	// TestConnection reports whether the device answered on the bus.
	TestConnection() bool

	ReadRotation() RawVec3
	ReadTemperature() int16
}

// LightSensor is the driver for the analog light channel.
type LightSensor interface {
	// ReadLight returns the raw ADC value of the light channel.
	ReadLight() int
}
