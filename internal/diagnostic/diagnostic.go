// Package diagnostic writes the human-readable status stream. Each monitoring
// cycle produces one line built from segments separated by "|"; segments are
// written as soon as they are known so a reader tailing the line sees the
// cycle progress.
package diagnostic

import (
	"fmt"
	"io"
	"sync"

	"github.com/banshee-data/vibration.monitor/internal/monitoring"
)

// Record segments, in the order a cycle emits them.
const (
	FmtTemperature    = "Temperatura: %.1f C |"
	CondDark          = " Condição: Escuro |"
	CondBright        = " Condição: Claro |"
	FmtVibrationMean  = " Vibracao media: %.2f |"
	VibrationAbnormal = " ⚠️ Vibração anormal detectada! ⚠️ |"
	VibrationNormal   = " Vibração normal |"
	TemperatureHigh   = " ⚠️ TEMPERATURA ALTA! ⚠️ |"
	FmtAccel          = " X:%.2f Y:%.2f Z:%.2f"

	SensorNotConnected = "MPU6050 nao conectado!"
)

// Sink is the diagnostic stream. It is safe for use from one goroutine at a
// time; the mutex only protects Lines against a concurrent reader.
type Sink struct {
	mu    sync.Mutex
	w     io.Writer
	lines int
	errs  int
}

// NewSink writes the stream to w. A nil writer discards everything.
func NewSink(w io.Writer) *Sink {
	if w == nil {
		w = io.Discard
	}
	return &Sink{w: w}
}

// Printf appends a formatted segment to the current record.
func (s *Sink) Printf(format string, args ...interface{}) {
	s.write(fmt.Sprintf(format, args...))
}

// Print appends a literal segment to the current record.
func (s *Sink) Print(segment string) {
	s.write(segment)
}

// Println appends a segment and terminates the record.
func (s *Sink) Println(segment string) {
	s.write(segment + "\n")
	s.mu.Lock()
	s.lines++
	s.mu.Unlock()
}

// Lines returns how many records have been terminated.
func (s *Sink) Lines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Errors returns how many writes failed.
func (s *Sink) Errors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// write never fails the caller; a broken diagnostic line must not stop the
// monitoring loop.
func (s *Sink) write(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, text); err != nil {
		s.errs++
		// log only the first failure of a run to keep a dead port from
		// flooding the log
		if s.errs == 1 {
			monitoring.Logf("diagnostic write failed: %v", err)
		}
	}
}
