// Package vibration reduces a short burst of accelerometer samples to a
// single vibration level: the mean deviation of the acceleration magnitude
// from the 1 g of static gravity.
package vibration

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
	"github.com/banshee-data/vibration.monitor/internal/timeutil"
	"github.com/banshee-data/vibration.monitor/internal/units"
)

const (
	DefaultSamples  = 100
	DefaultInterval = 5 * time.Millisecond
)

// Deviation returns |‖accel‖ − 1 g| for one acceleration vector in g.
func Deviation(accel sensor.Vec3) float64 {
	modulo := floats.Norm([]float64{accel.X, accel.Y, accel.Z}, 2)
	return math.Abs(modulo - units.StandardGravityG)
}

// Reduce returns the arithmetic mean of the samples, or 0 for none.
func Reduce(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return stat.Mean(samples, nil)
}

// Window is a fixed-capacity run of deviation samples.
type Window struct {
	samples []float64
	size    int
}

// NewWindow returns an empty window that is full after size samples.
func NewWindow(size int) *Window {
	return &Window{samples: make([]float64, 0, size), size: size}
}

// Add appends a sample. Samples past capacity are ignored.
func (w *Window) Add(v float64) {
	if len(w.samples) < w.size {
		w.samples = append(w.samples, v)
	}
}

// Len returns the number of samples added so far.
func (w *Window) Len() int { return len(w.samples) }

// Full reports whether the window holds its full capacity.
func (w *Window) Full() bool { return len(w.samples) == w.size }

// Mean reduces the window.
func (w *Window) Mean() float64 { return Reduce(w.samples) }

// Aggregator samples an accelerometer Samples times, Interval apart, and
// reports the mean deviation.
type Aggregator struct {
	Samples  int
	Interval time.Duration
	Clock    timeutil.Clock
}

// NewAggregator returns an Aggregator with the default window of 100 samples
// 5 ms apart.
func NewAggregator(clock timeutil.Clock) *Aggregator {
	return &Aggregator{
		Samples:  DefaultSamples,
		Interval: DefaultInterval,
		Clock:    clock,
	}
}

// Measure fills a window from src and returns its mean. The accelerometer is
// re-read on every iteration and the call blocks for Samples × Interval.
func (a *Aggregator) Measure(src sensor.AccelSource) float64 {
	clock := a.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	w := NewWindow(a.Samples)
	for i := 0; i < a.Samples; i++ {
		accel := units.AccelToG(src.ReadAcceleration())
		w.Add(Deviation(accel))
		clock.Sleep(a.Interval)
	}
	return w.Mean()
}
