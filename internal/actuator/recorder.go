package actuator

import (
	"fmt"
	"sync"
)

// EventKind is the kind of a recorded GPIO call.
type EventKind int

const (
	EventLevel EventKind = iota
	EventTone
	EventStopTone
)

// Event is one recorded GPIO call.
type Event struct {
	Kind EventKind
	Pin  int
	High bool // EventLevel
	Hz   int  // EventTone
}

func (e Event) String() string {
	switch e.Kind {
	case EventLevel:
		if e.High {
			return fmt.Sprintf("pin %d high", e.Pin)
		}
		return fmt.Sprintf("pin %d low", e.Pin)
	case EventTone:
		return fmt.Sprintf("pin %d tone %dHz", e.Pin, e.Hz)
	case EventStopTone:
		return fmt.Sprintf("pin %d silent", e.Pin)
	default:
		return "unknown"
	}
}

// Recorder is a GPIO that keeps every call and the resulting output state.
// It stands in for the hardware in tests and dry runs.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	levels map[int]bool
	tones  map[int]int
}

// NewRecorder returns an empty Recorder with every output low.
func NewRecorder() *Recorder {
	return &Recorder{
		levels: make(map[int]bool),
		tones:  make(map[int]int),
	}
}

func (r *Recorder) SetLevel(pin int, high bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: EventLevel, Pin: pin, High: high})
	r.levels[pin] = high
}

func (r *Recorder) Tone(pin int, hz int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: EventTone, Pin: pin, Hz: hz})
	r.tones[pin] = hz
}

func (r *Recorder) StopTone(pin int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: EventStopTone, Pin: pin})
	delete(r.tones, pin)
}

// Events returns a copy of the recorded calls.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Level returns the current level of a pin.
func (r *Recorder) Level(pin int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.levels[pin]
}

// ToneHz returns the frequency currently playing on a pin, or 0.
func (r *Recorder) ToneHz(pin int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tones[pin]
}

// Quiet reports whether every pin is low and no tone is playing.
func (r *Recorder) Quiet() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, high := range r.levels {
		if high {
			return false
		}
	}
	return len(r.tones) == 0
}

// Tones returns the frequency of every tone started, in order. Each burst
// repetition contributes one entry.
func (r *Recorder) Tones() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, e := range r.events {
		if e.Kind == EventTone {
			out = append(out, e.Hz)
		}
	}
	return out
}

// Reset forgets recorded events but keeps the current output state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
