// Package actuator drives the indicator LED, the relay and the buzzer.
//
// Every alert source shares one primitive, Controller.Play, which blinks the
// LED and relay together with a tone for a fixed number of repetitions and
// always leaves the outputs deasserted and silent.
package actuator

import (
	"time"

	"github.com/banshee-data/vibration.monitor/internal/timeutil"
)

// GPIO is the raw output layer.
type GPIO interface {
	SetLevel(pin int, high bool)
	Tone(pin int, hz int)
	StopTone(pin int)
}

// Pins maps the outputs to GPIO numbers.
type Pins struct {
	LED    int `json:"led"`
	Relay  int `json:"relay"`
	Buzzer int `json:"buzzer"`
}

// DefaultPins is the ESP32 wiring of the reference board.
func DefaultPins() Pins {
	return Pins{LED: 15, Relay: 32, Buzzer: 2}
}

// Pattern identifies an alert burst and the tone it plays.
type Pattern struct {
	Name        string
	FrequencyHz int
}

var (
	LightPattern       = Pattern{Name: "light", FrequencyHz: 1000}
	VibrationPattern   = Pattern{Name: "vibration", FrequencyHz: 1000}
	TemperaturePattern = Pattern{Name: "temperature", FrequencyHz: 1500}
)

const (
	DefaultRepetitions = 3
	DefaultOn          = 300 * time.Millisecond
	DefaultOff         = 300 * time.Millisecond
)

// Controller plays alert bursts on a GPIO.
type Controller struct {
	gpio  GPIO
	pins  Pins
	clock timeutil.Clock

	Repetitions int
	On          time.Duration
	Off         time.Duration
}

// NewController returns a Controller with the default 3 × (300 ms on,
// 300 ms off) burst.
func NewController(gpio GPIO, pins Pins, clock timeutil.Clock) *Controller {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Controller{
		gpio:        gpio,
		pins:        pins,
		clock:       clock,
		Repetitions: DefaultRepetitions,
		On:          DefaultOn,
		Off:         DefaultOff,
	}
}

// Play blocks until the whole burst has been played.
func (c *Controller) Play(p Pattern) {
	for i := 0; i < c.Repetitions; i++ {
		c.assert(p.FrequencyHz)
		c.clock.Sleep(c.On)
		c.Idle()
		c.clock.Sleep(c.Off)
	}
	// A zero-repetition burst still leaves the outputs in a known state.
	if c.Repetitions <= 0 {
		c.Idle()
	}
}

// Idle drives every output low and silences the buzzer. It is safe to call
// repeatedly.
func (c *Controller) Idle() {
	c.gpio.SetLevel(c.pins.LED, false)
	c.gpio.SetLevel(c.pins.Relay, false)
	c.gpio.StopTone(c.pins.Buzzer)
}

// BurstDuration is how long one Play call blocks.
func (c *Controller) BurstDuration() time.Duration {
	if c.Repetitions <= 0 {
		return 0
	}
	return time.Duration(c.Repetitions) * (c.On + c.Off)
}

func (c *Controller) assert(hz int) {
	c.gpio.SetLevel(c.pins.LED, true)
	c.gpio.SetLevel(c.pins.Relay, true)
	c.gpio.Tone(c.pins.Buzzer, hz)
}
