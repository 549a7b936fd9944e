// Package bridge talks to the sensor board over a serial line.
//
// The board owns the motion sensor, the light sensor ADC, the LCD and the
// output pins; it streams raw samples as text lines and executes one command
// per line written to it. Bridge turns that link into the sensor, GPIO and
// display interfaces the monitor depends on.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/vibration.monitor/internal/monitoring"
	"github.com/banshee-data/vibration.monitor/internal/sensor"
	"github.com/banshee-data/vibration.monitor/internal/serialport"
)

var ErrWriteFailed = errors.New("failed to write to serial port")

// DefaultConnectTimeout bounds how long TestConnection waits for the board to
// report the motion sensor status.
const DefaultConnectTimeout = 2 * time.Second

// Bridge is a serial link to the sensor board.
type Bridge struct {
	port serialport.Port

	// ConnectTimeout bounds TestConnection.
	ConnectTimeout time.Duration

	commandMu sync.Mutex

	sampleMu   sync.Mutex
	latest     sensor.RawSample
	haveSample bool
	samples    uint64

	status chan bool

	closingMu sync.Mutex
	closing   bool
}

// New wraps an open port.
func New(port serialport.Port) *Bridge {
	return &Bridge{
		port:           port,
		ConnectTimeout: DefaultConnectTimeout,
		status:         make(chan bool, 1),
	}
}

// SendCommand writes one command line to the board.
func (b *Bridge) SendCommand(command string) error {
	b.commandMu.Lock()
	defer b.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := io.WriteString(b.port, command)
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the board until ctx is done or the port fails.
// Samples replace the latest snapshot; status lines wake TestConnection.
func (b *Bridge) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(b.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs in its own goroutine so the loop below can
	// observe cancellation
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			if b.isClosing() {
				return nil
			}
			return fmt.Errorf("bridge read failed: %w", err)

		case line, ok := <-lineChan:
			if !ok {
				return nil
			}
			b.handleLine(line)
		}
	}
}

func (b *Bridge) handleLine(line string) {
	msg, err := ParseLine(line)
	if err != nil {
		monitoring.Logf("bridge: skipping line: %v", err)
		return
	}

	switch msg.Kind {
	case MessageSample:
		b.sampleMu.Lock()
		b.latest = msg.Sample
		b.haveSample = true
		b.samples++
		b.sampleMu.Unlock()
	case MessageStatus:
		// keep only the newest status
		select {
		case <-b.status:
		default:
		}
		b.status <- msg.Connected
	default:
		if msg.Raw != "" {
			monitoring.Logf("bridge: board said %q", msg.Raw)
		}
	}
}

// Latest returns the newest sample and whether any sample has arrived yet.
func (b *Bridge) Latest() (sensor.RawSample, bool) {
	b.sampleMu.Lock()
	defer b.sampleMu.Unlock()
	return b.latest, b.haveSample
}

// Samples returns how many sample lines have been received.
func (b *Bridge) Samples() uint64 {
	b.sampleMu.Lock()
	defer b.sampleMu.Unlock()
	return b.samples
}

// Close stops Monitor and closes the port.
func (b *Bridge) Close() error {
	b.closingMu.Lock()
	b.closing = true
	b.closingMu.Unlock()
	return b.port.Close()
}

func (b *Bridge) isClosing() bool {
	b.closingMu.Lock()
	defer b.closingMu.Unlock()
	return b.closing
}

// send is used by the interface methods that cannot return an error.
func (b *Bridge) send(command string) {
	if err := b.SendCommand(command); err != nil {
		monitoring.Logf("bridge: command %q failed: %v", command, err)
	}
}

// Initialise asks the board to wake the motion sensor.
func (b *Bridge) Initialise() error {
	if err := b.SendCommand(CmdInitialise); err != nil {
		return fmt.Errorf("failed to initialise motion sensor: %w", err)
	}
	return nil
}

// TestConnection queries the motion sensor status and waits up to
// ConnectTimeout for the answer. No answer counts as not connected.
func (b *Bridge) TestConnection() bool {
	select {
	case <-b.status:
	default:
	}

	if err := b.SendCommand(CmdQueryConnection); err != nil {
		monitoring.Logf("bridge: connection query failed: %v", err)
		return false
	}

	timer := time.NewTimer(b.ConnectTimeout)
	defer timer.Stop()
	select {
	case ok := <-b.status:
		return ok
	case <-timer.C:
		monitoring.Logf("bridge: no status from board within %v", b.ConnectTimeout)
		return false
	}
}

// ReadAcceleration returns the acceleration of the newest sample.
func (b *Bridge) ReadAcceleration() sensor.RawVec3 {
	s, _ := b.Latest()
	return s.Accel
}

// ReadRotation returns the rotation of the newest sample.
func (b *Bridge) ReadRotation() sensor.RawVec3 {
	s, _ := b.Latest()
	return s.Rot
}

// ReadTemperature returns the temperature code of the newest sample.
func (b *Bridge) ReadTemperature() int16 {
	s, _ := b.Latest()
	return s.Temperature
}

// ReadLight returns the light ADC value of the newest sample.
func (b *Bridge) ReadLight() int {
	s, _ := b.Latest()
	return s.Light
}

func (b *Bridge) SetLevel(pin int, high bool) { b.send(cmdSetLevel(pin, high)) }
func (b *Bridge) Tone(pin int, hz int)        { b.send(cmdTone(pin, hz)) }
func (b *Bridge) StopTone(pin int)            { b.send(cmdStopTone(pin)) }

func (b *Bridge) Clear()                 { b.send(CmdDisplayClear) }
func (b *Bridge) SetCursor(row, col int) { b.send(cmdSetCursor(row, col)) }
func (b *Bridge) Print(text string)      { b.send(cmdPrint(text)) }
