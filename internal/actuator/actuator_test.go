package actuator

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/vibration.monitor/internal/timeutil"
)

func newTestController() (*Controller, *Recorder, *timeutil.MockClock) {
	rec := NewRecorder()
	clock := timeutil.NewMockClock(time.Time{})
	return NewController(rec, DefaultPins(), clock), rec, clock
}

func TestPlay_Waveform(t *testing.T) {
	c, rec, clock := newTestController()
	pins := DefaultPins()

	c.Play(LightPattern)

	on := []Event{
		{Kind: EventLevel, Pin: pins.LED, High: true},
		{Kind: EventLevel, Pin: pins.Relay, High: true},
		{Kind: EventTone, Pin: pins.Buzzer, Hz: 1000},
	}
	off := []Event{
		{Kind: EventLevel, Pin: pins.LED, High: false},
		{Kind: EventLevel, Pin: pins.Relay, High: false},
		{Kind: EventStopTone, Pin: pins.Buzzer},
	}
	var want []Event
	for i := 0; i < 3; i++ {
		want = append(want, on...)
		want = append(want, off...)
	}

	if diff := cmp.Diff(want, rec.Events()); diff != "" {
		t.Errorf("GPIO events mismatch (-want +got):\n%s", diff)
	}

	wantSleeps := []time.Duration{
		300 * time.Millisecond, 300 * time.Millisecond,
		300 * time.Millisecond, 300 * time.Millisecond,
		300 * time.Millisecond, 300 * time.Millisecond,
	}
	if diff := cmp.Diff(wantSleeps, clock.Sleeps()); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, c.BurstDuration(), clock.Slept())
}

func TestPlay_OutputsHighDuringOnPhase(t *testing.T) {
	c, rec, clock := newTestController()
	pins := DefaultPins()

	var phases []bool
	clock.OnSleep(func(time.Duration) {
		phases = append(phases, rec.Level(pins.LED) && rec.Level(pins.Relay) && rec.ToneHz(pins.Buzzer) == 1500)
	})

	c.Play(TemperaturePattern)

	assert.Equal(t, []bool{true, false, true, false, true, false}, phases)
}

func TestPlay_AlwaysEndsQuiet(t *testing.T) {
	for _, p := range []Pattern{LightPattern, VibrationPattern, TemperaturePattern, {Name: "odd", FrequencyHz: 440}} {
		t.Run(p.Name, func(t *testing.T) {
			c, rec, _ := newTestController()
			c.Play(p)
			assert.True(t, rec.Quiet(), "outputs left asserted after %s burst", p.Name)
		})
	}
}

func TestPlay_ZeroRepetitions(t *testing.T) {
	c, rec, clock := newTestController()
	c.Repetitions = 0

	// Force a stuck output first so the idle reset is observable.
	rec.SetLevel(DefaultPins().LED, true)

	c.Play(LightPattern)

	assert.True(t, rec.Quiet())
	assert.Empty(t, clock.Sleeps())
	assert.Empty(t, rec.Tones())
	assert.Equal(t, time.Duration(0), c.BurstDuration())
}

func TestPlay_BackToBackBursts(t *testing.T) {
	c, rec, _ := newTestController()

	c.Play(VibrationPattern)
	c.Play(TemperaturePattern)

	assert.Equal(t, []int{1000, 1000, 1000, 1500, 1500, 1500}, rec.Tones())
	assert.True(t, rec.Quiet())
}

func TestIdle_Idempotent(t *testing.T) {
	c, rec, clock := newTestController()

	c.Idle()
	c.Idle()

	assert.True(t, rec.Quiet())
	assert.Len(t, rec.Events(), 6)
	assert.Empty(t, clock.Sleeps(), "idle must not block")
}

func TestBurstDuration(t *testing.T) {
	c, _, _ := newTestController()
	assert.Equal(t, 1800*time.Millisecond, c.BurstDuration())

	c.Repetitions = 1
	c.On = 100 * time.Millisecond
	c.Off = 50 * time.Millisecond
	assert.Equal(t, 150*time.Millisecond, c.BurstDuration())
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	assert.True(t, rec.Quiet())

	rec.SetLevel(4, true)
	rec.Tone(2, 880)
	assert.False(t, rec.Quiet())
	assert.True(t, rec.Level(4))
	assert.Equal(t, 880, rec.ToneHz(2))

	rec.SetLevel(4, false)
	rec.StopTone(2)
	assert.True(t, rec.Quiet())

	assert.Equal(t, []string{"pin 4 high", "pin 2 tone 880Hz", "pin 4 low", "pin 2 silent"}, eventStrings(rec.Events()))

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func eventStrings(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.String()
	}
	return out
}
