package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vibration.monitor/internal/testutil"
	"github.com/banshee-data/vibration.monitor/internal/version"
)

const testFixtures = `# a quiet sample, then one raising every alert
S,100,-3920,0,0,16384,0,0,0
S,4095,13080,32767,32767,0,0,0,0
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunFlagDefaults(t *testing.T) {
	flags := newRunCmd().Flags()

	tests := []struct {
		name string
		want string
	}{
		{"config", ""},
		{"port", "/dev/ttyUSB0"},
		{"baud", "0"},
		{"diag-port", ""},
		{"dev", "false"},
		{"fixtures", "fixtures.txt"},
		{"replay-interval", "100ms"},
		{"log-level", "info"},
		{"log-format", "console"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flags.Lookup(tt.name)
			require.NotNil(t, f, "flag --%s not defined", tt.name)
			assert.Equal(t, tt.want, f.DefValue)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestCheckCommand(t *testing.T) {
	path := testutil.WriteFile(t, "fixtures.txt", testFixtures)

	out, err := execute(t, "check", "--fixtures", path)
	require.NoError(t, err)
	assert.Equal(t, path+": 2 sample lines OK\n", out)
}

func TestCheckCommandVerbose(t *testing.T) {
	path := testutil.WriteFile(t, "fixtures.txt", testFixtures)

	out, err := execute(t, "check", "--fixtures", path, "-v")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "TEMP C")
	assert.Contains(t, lines[1], "25.0")
	assert.Contains(t, lines[1], "none")
	assert.Contains(t, lines[2], "75.0")
	assert.Contains(t, lines[2], "light")
	assert.Contains(t, lines[2], "temperature")
}

func TestCheckCommandErrors(t *testing.T) {
	bad := testutil.WriteFile(t, "bad.txt", "S,1,2,3\n")
	_, err := execute(t, "check", "--fixtures", bad)
	assert.Error(t, err)

	empty := testutil.WriteFile(t, "empty.txt", "# nothing\n")
	_, err = execute(t, "check", "--fixtures", empty)
	assert.ErrorContains(t, err, "no sample lines")

	good := testutil.WriteFile(t, "fixtures.txt", testFixtures)
	badConfig := testutil.WriteFile(t, "monitor.json", `{"vibration_samples": -1}`)
	_, err = execute(t, "check", "--fixtures", good, "--config", badConfig)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestRunRejectsBadLogLevel(t *testing.T) {
	err := runMonitor(context.Background(), runOptions{logLevel: "loud", logFormat: "json"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestRunDevMode(t *testing.T) {
	fixtures := testutil.WriteFile(t, "fixtures.txt", "S,100,-3920,0,0,16384,0,0,0\n")
	cfg := testutil.WriteFile(t, "fast.json", `{
  "vibration_samples": 5,
  "vibration_sample_interval": "1ms",
  "startup_delay": "0s",
  "light_settle_delay": "1ms",
  "idle_delay": "1ms"
}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var out bytes.Buffer
	err := runMonitor(ctx, runOptions{
		configPath:     cfg,
		dev:            true,
		fixtures:       fixtures,
		replayInterval: time.Millisecond,
		logLevel:       "error",
		logFormat:      "json",
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "Temperatura: "), "got %q", lines[0])
	assert.Contains(t, lines[0], "| Vibracao media: ")
	assert.NotContains(t, out.String(), "MPU6050")
}

func stubPorts(t *testing.T, ports []string, err error) {
	t.Helper()
	old := listPorts
	listPorts = func() ([]string, error) { return ports, err }
	t.Cleanup(func() { listPorts = old })
}

func TestCheckListPorts(t *testing.T) {
	stubPorts(t, []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, nil)

	out, err := execute(t, "check", "--list-ports")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0\n/dev/ttyACM0\n", out)
}

func TestCheckListPortsEmpty(t *testing.T) {
	stubPorts(t, nil, nil)

	out, err := execute(t, "check", "--list-ports")
	require.NoError(t, err)
	assert.Equal(t, "no serial ports found\n", out)
}

func TestCheckListPortsError(t *testing.T) {
	stubPorts(t, nil, errors.New("no sysfs"))

	_, err := execute(t, "check", "--list-ports")
	assert.ErrorContains(t, err, "failed to list serial ports")
}

func TestRunOpenFailureListsPorts(t *testing.T) {
	stubPorts(t, []string{"/dev/ttyUSB1"}, nil)

	err := runMonitor(context.Background(), runOptions{
		port:      filepath.Join(t.TempDir(), "missing-tty"),
		logLevel:  "error",
		logFormat: "json",
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to open sensor board port (available: /dev/ttyUSB1)")
}
