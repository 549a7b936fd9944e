package bridge

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
)

// ErrMalformedLine is returned for a line that looks like a known message but
// cannot be decoded.
var ErrMalformedLine = errors.New("malformed bridge line")

// MessageKind classifies a line received from the sensor board.
type MessageKind int

const (
	MessageUnknown MessageKind = iota
	MessageSample
	MessageStatus
)

// Message is one decoded line from the sensor board.
type Message struct {
	Kind      MessageKind
	Sample    sensor.RawSample // MessageSample
	Connected bool             // MessageStatus
	Raw       string
}

// ParseLine decodes a line from the sensor board. Lines the protocol does not
// define are returned as MessageUnknown without error, so firmware chatter is
// tolerated.
//
//	S,<ldr>,<temp>,<ax>,<ay>,<az>,<gx>,<gy>,<gz>
//	M,<0|1>
func ParseLine(line string) (Message, error) {
	line = strings.TrimSpace(line)
	msg := Message{Raw: line}

	switch {
	case strings.HasPrefix(line, "S,"):
		s, err := parseSample(line[2:])
		if err != nil {
			return msg, err
		}
		msg.Kind = MessageSample
		msg.Sample = s
	case strings.HasPrefix(line, "M,"):
		switch line[2:] {
		case "0":
			msg.Connected = false
		case "1":
			msg.Connected = true
		default:
			return msg, fmt.Errorf("%w: status %q", ErrMalformedLine, line)
		}
		msg.Kind = MessageStatus
	}
	return msg, nil
}

func parseSample(body string) (sensor.RawSample, error) {
	var s sensor.RawSample

	fields := strings.Split(body, ",")
	if len(fields) != 8 {
		return s, fmt.Errorf("%w: expected 8 sample fields, got %d", ErrMalformedLine, len(fields))
	}

	light, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return s, fmt.Errorf("%w: light: %v", ErrMalformedLine, err)
	}
	s.Light = light

	codes := make([]int16, 7)
	for i, f := range fields[1:] {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 16)
		if err != nil {
			return s, fmt.Errorf("%w: field %d: %v", ErrMalformedLine, i+2, err)
		}
		codes[i] = int16(v)
	}
	s.Temperature = codes[0]
	s.Accel = sensor.RawVec3{X: codes[1], Y: codes[2], Z: codes[3]}
	s.Rot = sensor.RawVec3{X: codes[4], Y: codes[5], Z: codes[6]}
	return s, nil
}

// FormatSample encodes a sample the way the sensor board sends it.
func FormatSample(s sensor.RawSample) string {
	return fmt.Sprintf("S,%d,%d,%d,%d,%d,%d,%d,%d",
		s.Light, s.Temperature,
		s.Accel.X, s.Accel.Y, s.Accel.Z,
		s.Rot.X, s.Rot.Y, s.Rot.Z)
}

// Host → board commands.
const (
	CmdQueryConnection = "M?"
	CmdInitialise      = "MI"
	CmdDisplayClear    = "LC"
)

func cmdSetLevel(pin int, high bool) string {
	if high {
		return fmt.Sprintf("G%d=1", pin)
	}
	return fmt.Sprintf("G%d=0", pin)
}

func cmdTone(pin, hz int) string { return fmt.Sprintf("T%d=%d", pin, hz) }
func cmdStopTone(pin int) string { return fmt.Sprintf("N%d", pin) }

func cmdSetCursor(row, col int) string { return fmt.Sprintf("LS%d,%d", row, col) }

// cmdPrint keeps the text on one protocol line.
func cmdPrint(text string) string {
	return "LP" + strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
}

// CommandKind classifies a host command as seen by the board.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandQuery
	CommandInitialise
	CommandLevel
	CommandTone
	CommandStopTone
	CommandClear
	CommandCursor
	CommandPrint
)

// Command is a decoded host command.
type Command struct {
	Kind CommandKind
	Pin  int
	High bool
	Hz   int
	Row  int
	Col  int
	Text string
}

// ParseCommand decodes a host command. The emulated board in ReplayPort uses
// it; real firmware implements the same grammar.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")

	switch {
	case line == CmdQueryConnection:
		return Command{Kind: CommandQuery}, nil
	case line == CmdInitialise:
		return Command{Kind: CommandInitialise}, nil
	case line == CmdDisplayClear:
		return Command{Kind: CommandClear}, nil
	case strings.HasPrefix(line, "LS"):
		var c Command
		if _, err := fmt.Sscanf(line, "LS%d,%d", &c.Row, &c.Col); err != nil {
			return Command{}, fmt.Errorf("%w: cursor %q", ErrMalformedLine, line)
		}
		c.Kind = CommandCursor
		return c, nil
	case strings.HasPrefix(line, "LP"):
		return Command{Kind: CommandPrint, Text: line[2:]}, nil
	case strings.HasPrefix(line, "G"):
		var c Command
		var level int
		if _, err := fmt.Sscanf(line, "G%d=%d", &c.Pin, &level); err != nil || (level != 0 && level != 1) {
			return Command{}, fmt.Errorf("%w: level %q", ErrMalformedLine, line)
		}
		c.Kind = CommandLevel
		c.High = level == 1
		return c, nil
	case strings.HasPrefix(line, "T"):
		var c Command
		if _, err := fmt.Sscanf(line, "T%d=%d", &c.Pin, &c.Hz); err != nil {
			return Command{}, fmt.Errorf("%w: tone %q", ErrMalformedLine, line)
		}
		c.Kind = CommandTone
		return c, nil
	case strings.HasPrefix(line, "N"):
		var c Command
		if _, err := fmt.Sscanf(line, "N%d", &c.Pin); err != nil {
			return Command{}, fmt.Errorf("%w: stop tone %q", ErrMalformedLine, line)
		}
		c.Kind = CommandStopTone
		return c, nil
	}
	return Command{Kind: CommandUnknown, Text: line}, nil
}
