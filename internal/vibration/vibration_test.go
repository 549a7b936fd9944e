package vibration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
	"github.com/banshee-data/vibration.monitor/internal/timeutil"
)

// scriptedAccel returns the queued samples in order, repeating the last one.
type scriptedAccel struct {
	samples []sensor.RawVec3
	reads   int
}

func (s *scriptedAccel) ReadAcceleration() sensor.RawVec3 {
	i := s.reads
	if i >= len(s.samples) {
		i = len(s.samples) - 1
	}
	s.reads++
	return s.samples[i]
}

func TestDeviation(t *testing.T) {
	tests := []struct {
		name     string
		accel    sensor.Vec3
		expected float64
	}{
		{"at rest on z", sensor.Vec3{Z: 1}, 0},
		{"at rest tilted", sensor.Vec3{X: 0.6, Z: 0.8}, 0},
		{"free fall", sensor.Vec3{}, 1},
		{"two g", sensor.Vec3{Z: -2}, 1},
		{"shake", sensor.Vec3{X: 1, Y: 1, Z: 1}, math.Sqrt(3) - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deviation(tt.accel)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Deviation(%v) = %f, want %f", tt.accel, got, tt.expected)
			}
		})
	}
}

func TestReduce(t *testing.T) {
	assert.Equal(t, 0.0, Reduce(nil))
	assert.InDelta(t, 2.0, Reduce([]float64{1, 2, 3}), 1e-12)

	uniform := make([]float64, DefaultSamples)
	for i := range uniform {
		uniform[i] = 0.37
	}
	assert.InDelta(t, 0.37, Reduce(uniform), 1e-12)
}

func TestWindow(t *testing.T) {
	w := NewWindow(3)
	assert.False(t, w.Full())

	w.Add(1)
	w.Add(2)
	w.Add(3)
	w.Add(100)

	assert.True(t, w.Full())
	assert.Equal(t, 3, w.Len())
	assert.InDelta(t, 2.0, w.Mean(), 1e-12)
}

func TestAggregator_Measure_AtRest(t *testing.T) {
	clock := timeutil.NewMockClock(time.Time{})
	src := &scriptedAccel{samples: []sensor.RawVec3{{Z: 16384}}}

	mean := NewAggregator(clock).Measure(src)

	assert.Equal(t, 0.0, mean)
	assert.Equal(t, DefaultSamples, src.reads, "accelerometer must be re-read every iteration")

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, DefaultSamples)
	for i, d := range sleeps {
		if d != DefaultInterval {
			t.Fatalf("sleep[%d] = %v, want %v", i, d, DefaultInterval)
		}
	}
	assert.Equal(t, 500*time.Millisecond, clock.Slept())
}

func TestAggregator_Measure_UsesEverySample(t *testing.T) {
	clock := timeutil.NewMockClock(time.Time{})

	// Half the window at rest, half in free fall: mean deviation 0.5.
	samples := make([]sensor.RawVec3, 0, DefaultSamples)
	for i := 0; i < DefaultSamples/2; i++ {
		samples = append(samples, sensor.RawVec3{Z: 16384})
	}
	for i := 0; i < DefaultSamples/2; i++ {
		samples = append(samples, sensor.RawVec3{})
	}
	src := &scriptedAccel{samples: samples}

	mean := NewAggregator(clock).Measure(src)

	assert.InDelta(t, 0.5, mean, 1e-12)
}

func TestAggregator_Measure_CustomWindow(t *testing.T) {
	clock := timeutil.NewMockClock(time.Time{})
	src := &scriptedAccel{samples: []sensor.RawVec3{{Z: 32767}}}

	agg := &Aggregator{Samples: 10, Interval: time.Millisecond, Clock: clock}
	mean := agg.Measure(src)

	assert.InDelta(t, 32767.0/16384.0-1, mean, 1e-9)
	assert.Equal(t, 10, src.reads)
	assert.Equal(t, 10*time.Millisecond, clock.Slept())
}
