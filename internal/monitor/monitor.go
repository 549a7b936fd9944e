// Package monitor runs the asset monitoring cycle: light, vibration and
// temperature checks followed by a render step and an idle delay, repeated
// until the context is cancelled.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/banshee-data/vibration.monitor/internal/actuator"
	"github.com/banshee-data/vibration.monitor/internal/alert"
	"github.com/banshee-data/vibration.monitor/internal/config"
	"github.com/banshee-data/vibration.monitor/internal/diagnostic"
	"github.com/banshee-data/vibration.monitor/internal/display"
	"github.com/banshee-data/vibration.monitor/internal/monitoring"
	"github.com/banshee-data/vibration.monitor/internal/sensor"
	"github.com/banshee-data/vibration.monitor/internal/timeutil"
	"github.com/banshee-data/vibration.monitor/internal/units"
	"github.com/banshee-data/vibration.monitor/internal/vibration"
)

// ErrSensorNotConnected is returned by Start when the motion sensor does not
// answer its connectivity check. It is not retried.
var ErrSensorNotConnected = errors.New("motion sensor not connected")

// Display text.
const (
	SplashText          = "LCD OK!"
	FmtTempRow          = "Temp: %.1f C"
	DarkRow             = "Condicao: Escuro"
	BrightRow           = "Condicao: Claro"
	FmtVibrationRow     = "Vibracao media: %.2f"
	VibrationAlarm      = "#ALERTA DE VIBRACAO#"
	VibrationOK         = "Vibracao normal!"
	FmtTemperatureAlarm = "#ALERTA: >%s C#"
	AccelLabel          = "Accelerometer:"
	FmtAccelRow         = "x:%.1f y:%.1f z:%.1f"
)

// Deps are the hardware collaborators of a Monitor.
type Deps struct {
	Motion     sensor.MotionSensor
	Light      sensor.LightSensor
	GPIO       actuator.GPIO
	Display    display.Display
	Diagnostic *diagnostic.Sink // nil discards the stream
	Clock      timeutil.Clock   // nil uses the real clock
}

// Result summarises one completed cycle.
type Result struct {
	Cycle          int
	RawLight       int
	RawTemperature int16
	Reading        sensor.Reading
	VibrationMean  float64
	Alerts         alert.Set
	Bursts         []actuator.Pattern // in the order they were played
	Duration       time.Duration
}

// Observer is called after every cycle with its Result.
type Observer func(Result)

// Monitor owns the cycle. It is not safe for concurrent use: one goroutine
// drives Start, RunCycle and Run.
type Monitor struct {
	deps  Deps
	cfg   *config.MonitorConfig
	clock timeutil.Clock
	diag  *diagnostic.Sink

	thresholds alert.Thresholds
	ctrl       *actuator.Controller
	agg        *vibration.Aggregator

	lightPattern       actuator.Pattern
	vibrationPattern   actuator.Pattern
	temperaturePattern actuator.Pattern

	cycles int

	// Observer, if set, receives every Result produced by Run.
	Observer Observer
}

// New builds a Monitor. A nil cfg uses the defaults.
func New(deps Deps, cfg *config.MonitorConfig) (*Monitor, error) {
	if deps.Motion == nil {
		return nil, errors.New("monitor: motion sensor is required")
	}
	if deps.Light == nil {
		return nil, errors.New("monitor: light sensor is required")
	}
	if deps.GPIO == nil {
		return nil, errors.New("monitor: GPIO is required")
	}
	if deps.Display == nil {
		return nil, errors.New("monitor: display is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	clock := deps.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	diag := deps.Diagnostic
	if diag == nil {
		diag = diagnostic.NewSink(nil)
	}

	m := &Monitor{
		deps:       deps,
		cfg:        cfg,
		clock:      clock,
		diag:       diag,
		thresholds: cfg.Thresholds(),
		ctrl:       cfg.NewController(deps.GPIO, clock),
		agg:        cfg.NewAggregator(clock),
	}
	m.lightPattern, m.vibrationPattern, m.temperaturePattern = cfg.Patterns()
	return m, nil
}

// Start puts the outputs in their safe state, shows the splash screen and
// verifies the motion sensor. On failure the diagnostic stream gets one
// failure line and ErrSensorNotConnected is returned.
func (m *Monitor) Start() error {
	m.ctrl.Idle()

	m.deps.Display.Clear()
	m.row(0, SplashText)
	m.clock.Sleep(m.cfg.GetStartupDelay())

	if err := m.deps.Motion.Initialise(); err != nil {
		// the connectivity check below decides whether this is fatal
		monitoring.Logf("motion sensor initialise: %v", err)
	}
	if !m.deps.Motion.TestConnection() {
		m.diag.Println(diagnostic.SensorNotConnected)
		return ErrSensorNotConnected
	}

	monitoring.Logf("motion sensor connected")
	return nil
}

// RunCycle executes one full cycle and blocks until its idle delay is over.
// Sensor values are used as read; a cycle is never skipped.
func (m *Monitor) RunCycle() Result {
	start := m.clock.Now()
	m.cycles++
	res := Result{Cycle: m.cycles}

	m.lightCheck(&res)
	m.vibrationCheck(&res)
	m.temperatureCheck(&res)
	m.render(&res)

	m.clock.Sleep(m.cfg.GetIdleDelay())

	res.Duration = m.clock.Since(start)
	return res
}

// Run starts the monitor and loops until ctx is cancelled. Cancellation is
// observed between cycles only. It returns nil on cancellation and the Start
// error otherwise.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(); err != nil {
		return err
	}
	for ctx.Err() == nil {
		res := m.RunCycle()
		if m.Observer != nil {
			m.Observer(res)
		}
	}
	return nil
}

// Cycles returns the number of cycles run so far.
func (m *Monitor) Cycles() int { return m.cycles }

func (m *Monitor) lightCheck(res *Result) {
	res.RawLight = m.deps.Light.ReadLight()
	res.RawTemperature = m.deps.Motion.ReadTemperature()
	res.Reading.Lux = units.ToLux(res.RawLight, m.cfg.GetADCMax())
	res.Reading.TempC = units.ToCelsius(int(res.RawTemperature))

	m.deps.Display.Clear()
	m.row(0, fmt.Sprintf(FmtTempRow, res.Reading.TempC))
	m.diag.Printf(diagnostic.FmtTemperature, res.Reading.TempC)

	res.Alerts.Light = m.thresholds.LightAlert(res.Reading.Lux)
	if res.Alerts.Light {
		m.row(1, BrightRow)
		m.diag.Print(diagnostic.CondBright)
		m.play(res, m.lightPattern)
	} else {
		m.row(1, DarkRow)
		m.diag.Print(diagnostic.CondDark)
		m.ctrl.Idle()
	}

	m.clock.Sleep(m.cfg.GetLightSettleDelay())
}

func (m *Monitor) vibrationCheck(res *Result) {
	res.Reading.Accel = units.AccelToG(m.deps.Motion.ReadAcceleration())
	res.Reading.Rot = units.RotToDegPerSec(m.deps.Motion.ReadRotation())

	res.VibrationMean = m.agg.Measure(m.deps.Motion)
	m.diag.Printf(diagnostic.FmtVibrationMean, res.VibrationMean)

	m.deps.Display.Clear()
	m.row(0, fmt.Sprintf(FmtVibrationRow, res.VibrationMean))

	res.Alerts.Vibration = m.thresholds.VibrationAlert(res.VibrationMean)
	if res.Alerts.Vibration {
		m.diag.Print(diagnostic.VibrationAbnormal)
		m.row(1, VibrationAlarm)
		m.play(res, m.vibrationPattern)
	} else {
		m.diag.Print(diagnostic.VibrationNormal)
		m.row(1, VibrationOK)
	}
}

func (m *Monitor) temperatureCheck(res *Result) {
	res.Alerts.Temperature = m.thresholds.TemperatureAlert(res.Reading.TempC)
	if !res.Alerts.Temperature {
		return
	}
	m.row(1, TemperatureAlarmText(m.thresholds.Temperature))
	m.diag.Print(diagnostic.TemperatureHigh)
	m.play(res, m.temperaturePattern)
}

func (m *Monitor) render(res *Result) {
	a := res.Reading.Accel
	m.row(2, AccelLabel)
	m.row(3, fmt.Sprintf(FmtAccelRow, a.X, a.Y, a.Z))
	m.diag.Println(fmt.Sprintf(diagnostic.FmtAccel, a.X, a.Y, a.Z))
}

func (m *Monitor) play(res *Result, p actuator.Pattern) {
	m.ctrl.Play(p)
	res.Bursts = append(res.Bursts, p)
}

func (m *Monitor) row(i int, text string) {
	display.PrintRow(m.deps.Display, i, m.cfg.GetDisplayCols(), text)
}

// TemperatureAlarmText is the status row shown when the temperature is over
// threshold, e.g. "#ALERTA: >70 C#".
func TemperatureAlarmText(threshold float64) string {
	return fmt.Sprintf(FmtTemperatureAlarm, strconv.FormatFloat(threshold, 'f', -1, 64))
}
