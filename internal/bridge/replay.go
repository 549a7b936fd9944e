package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/vibration.monitor/internal/actuator"
	"github.com/banshee-data/vibration.monitor/internal/display"
	"github.com/banshee-data/vibration.monitor/internal/monitoring"
)

// ReplayPort emulates the sensor board for dev mode. It streams fixture
// sample lines on a ticker, answers the connection query, and applies LCD and
// pin commands to an in-memory display and pin recorder.
type ReplayPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	replies chan string
	done    chan struct{}
	once    sync.Once

	// Connected is the status reported in answer to the connection query.
	Connected bool

	mu      sync.Mutex
	pending string
	lcd     *display.Grid
	pins    *actuator.Recorder
}

// NewReplayPort starts replaying lines, one every interval, looping forever.
func NewReplayPort(lines []string, interval time.Duration) *ReplayPort {
	r, w := io.Pipe()
	p := &ReplayPort{
		r:         r,
		w:         w,
		replies:   make(chan string, 8),
		done:      make(chan struct{}),
		Connected: true,
		lcd:       display.NewGrid(display.DefaultRows, display.DefaultCols),
		pins:      actuator.NewRecorder(),
	}
	go p.feed(lines, interval)
	return p
}

func (p *ReplayPort) feed(lines []string, interval time.Duration) {
	defer p.w.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	next := 0
	for {
		var out string
		select {
		case <-p.done:
			return
		case reply := <-p.replies:
			out = reply
		case <-ticker.C:
			if len(lines) == 0 {
				continue
			}
			out = lines[next%len(lines)]
			next++
		}
		if _, err := io.WriteString(p.w, out+"\n"); err != nil {
			return
		}
	}
}

func (p *ReplayPort) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

// Write executes the host commands contained in b. Partial lines are held
// until their newline arrives.
func (p *ReplayPort) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, errors.New("replay port closed")
	default:
	}

	p.mu.Lock()
	p.pending += string(b)
	var lines []string
	for {
		i := strings.IndexByte(p.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, p.pending[:i])
		p.pending = p.pending[i+1:]
	}
	p.mu.Unlock()

	for _, line := range lines {
		p.execute(line)
	}
	return len(b), nil
}

func (p *ReplayPort) execute(line string) {
	cmd, err := ParseCommand(line)
	if err != nil {
		monitoring.Logf("replay: %v", err)
		return
	}

	switch cmd.Kind {
	case CommandQuery:
		status := "M,0"
		if p.Connected {
			status = "M,1"
		}
		select {
		case p.replies <- status:
		case <-p.done:
		}
	case CommandLevel:
		p.pins.SetLevel(cmd.Pin, cmd.High)
	case CommandTone:
		p.pins.Tone(cmd.Pin, cmd.Hz)
	case CommandStopTone:
		p.pins.StopTone(cmd.Pin)
	case CommandClear:
		p.lcd.Clear()
	case CommandCursor:
		p.lcd.SetCursor(cmd.Row, cmd.Col)
	case CommandPrint:
		p.lcd.Print(cmd.Text)
	case CommandInitialise:
	default:
		monitoring.Logf("replay: unknown command %q", cmd.Text)
	}
}

// Close stops the replay. It is safe to call more than once.
func (p *ReplayPort) Close() error {
	p.once.Do(func() {
		close(p.done)
		p.r.Close()
	})
	return nil
}

// Display returns the emulated LCD.
func (p *ReplayPort) Display() *display.Grid { return p.lcd }

// Pins returns the emulated output pins.
func (p *ReplayPort) Pins() *actuator.Recorder { return p.pins }

// LoadFixtures reads sample lines from a file. Blank lines and lines starting
// with '#' are skipped; every other line must be a valid sample line.
func LoadFixtures(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures file: %w", err)
	}
	defer f.Close()
	return ReadFixtures(f)
}

// ReadFixtures is LoadFixtures for an already open reader.
func ReadFixtures(r io.Reader) ([]string, error) {
	var lines []string
	scan := bufio.NewScanner(r)
	n := 0
	for scan.Scan() {
		n++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		msg, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if msg.Kind != MessageSample {
			return nil, fmt.Errorf("line %d: %w: not a sample line", n, ErrMalformedLine)
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if len(lines) == 0 {
		return nil, errors.New("fixtures contain no sample lines")
	}
	return lines, nil
}
