// Package testutil provides shared test fakes for the sensor drivers and
// small file helpers.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
)

// Raw codes for round temperatures.
const (
	RawTemp25C int16 = -3920 // 25.0 C
	RawTemp75C int16 = 13080 // 75.0 C
)

var (
	// RestAccel is 1 g straight down: no vibration.
	RestAccel = sensor.RawVec3{Z: 16384}
	// ShakeAccel is about 2.8 g: well over the default vibration threshold.
	ShakeAccel = sensor.RawVec3{X: 32767, Y: 32767}
)

// FakeMotion is a sensor.MotionSensor returning fixed values and counting
// every call.
type FakeMotion struct {
	Connected bool
	InitErr   error

	Temp  int16
	Accel sensor.RawVec3
	Rot   sensor.RawVec3

	Inits, Tests         int
	AccelReads, RotReads int
	TempReads            int
}

// NewFakeMotion returns a connected sensor at rest at 25 C.
func NewFakeMotion() *FakeMotion {
	return &FakeMotion{Connected: true, Temp: RawTemp25C, Accel: RestAccel}
}

func (f *FakeMotion) Initialise() error                { f.Inits++; return f.InitErr }
func (f *FakeMotion) TestConnection() bool             { f.Tests++; return f.Connected }
func (f *FakeMotion) ReadAcceleration() sensor.RawVec3 { f.AccelReads++; return f.Accel }
func (f *FakeMotion) ReadRotation() sensor.RawVec3     { f.RotReads++; return f.Rot }
func (f *FakeMotion) ReadTemperature() int16           { f.TempReads++; return f.Temp }

// FakeLight is a sensor.LightSensor returning a fixed ADC value.
type FakeLight struct {
	Raw   int
	Reads int
}

func (f *FakeLight) ReadLight() int { f.Reads++; return f.Raw }

// WriteFile writes content to name inside a fresh temp dir and returns the
// path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
