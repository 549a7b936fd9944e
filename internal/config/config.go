package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/vibration.monitor/internal/actuator"
	"github.com/banshee-data/vibration.monitor/internal/alert"
	"github.com/banshee-data/vibration.monitor/internal/display"
	"github.com/banshee-data/vibration.monitor/internal/serialport"
	"github.com/banshee-data/vibration.monitor/internal/timeutil"
	"github.com/banshee-data/vibration.monitor/internal/units"
	"github.com/banshee-data/vibration.monitor/internal/vibration"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/monitor.defaults.json"

// MonitorConfig is the static configuration of the monitor. It is read once
// at startup; nothing changes it while the loop runs. Every field is optional
// and the Get* methods supply the reference-installation default.
type MonitorConfig struct {
	// Thresholds
	LuxDarkThreshold     *int     `json:"lux_dark_threshold,omitempty"`
	VibrationThreshold   *float64 `json:"vibration_threshold,omitempty"` // g
	TemperatureThreshold *float64 `json:"temperature_threshold,omitempty"`

	// Light sensor ADC full scale
	ADCMax *int `json:"adc_max,omitempty"`

	// Vibration window
	VibrationSamples        *int    `json:"vibration_samples,omitempty"`
	VibrationSampleInterval *string `json:"vibration_sample_interval,omitempty"` // duration string like "5ms"

	// Cycle pacing
	StartupDelay     *string `json:"startup_delay,omitempty"`
	LightSettleDelay *string `json:"light_settle_delay,omitempty"`
	IdleDelay        *string `json:"idle_delay,omitempty"`

	// Alert burst
	BurstRepetitions  *int    `json:"burst_repetitions,omitempty"`
	BurstOn           *string `json:"burst_on,omitempty"`
	BurstOff          *string `json:"burst_off,omitempty"`
	LightToneHz       *int    `json:"light_tone_hz,omitempty"`
	VibrationToneHz   *int    `json:"vibration_tone_hz,omitempty"`
	TemperatureToneHz *int    `json:"temperature_tone_hz,omitempty"`

	// Wiring
	LEDPin    *int `json:"led_pin,omitempty"`
	RelayPin  *int `json:"relay_pin,omitempty"`
	BuzzerPin *int `json:"buzzer_pin,omitempty"`

	// Display geometry
	DisplayRows *int `json:"display_rows,omitempty"`
	DisplayCols *int `json:"display_cols,omitempty"`

	// Serial links
	ConnectTimeout   *string                 `json:"connect_timeout,omitempty"`
	BridgeSerial     *serialport.PortOptions `json:"bridge_serial,omitempty"`
	DiagnosticSerial *serialport.PortOptions `json:"diagnostic_serial,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a MonitorConfig with all fields set to nil.
func EmptyConfig() *MonitorConfig {
	return &MonitorConfig{}
}

// DefaultConfig returns a MonitorConfig with every field set explicitly to
// its default.
func DefaultConfig() *MonitorConfig {
	return &MonitorConfig{
		LuxDarkThreshold:        ptrInt(alert.DefaultLuxDark),
		VibrationThreshold:      ptrFloat64(alert.DefaultVibration),
		TemperatureThreshold:    ptrFloat64(alert.DefaultTemperature),
		ADCMax:                  ptrInt(units.DefaultADCMax),
		VibrationSamples:        ptrInt(vibration.DefaultSamples),
		VibrationSampleInterval: ptrString("5ms"),
		StartupDelay:            ptrString("1s"),
		LightSettleDelay:        ptrString("1s"),
		IdleDelay:               ptrString("5s"),
		BurstRepetitions:        ptrInt(actuator.DefaultRepetitions),
		BurstOn:                 ptrString("300ms"),
		BurstOff:                ptrString("300ms"),
		LightToneHz:             ptrInt(actuator.LightPattern.FrequencyHz),
		VibrationToneHz:         ptrInt(actuator.VibrationPattern.FrequencyHz),
		TemperatureToneHz:       ptrInt(actuator.TemperaturePattern.FrequencyHz),
		LEDPin:                  ptrInt(actuator.DefaultPins().LED),
		RelayPin:                ptrInt(actuator.DefaultPins().Relay),
		BuzzerPin:               ptrInt(actuator.DefaultPins().Buzzer),
		DisplayRows:             ptrInt(display.DefaultRows),
		DisplayCols:             ptrInt(display.DefaultCols),
		ConnectTimeout:          ptrString("2s"),
		BridgeSerial:            &serialport.PortOptions{BaudRate: serialport.DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"},
		DiagnosticSerial:        &serialport.PortOptions{BaudRate: serialport.DefaultBaudRate},
	}
}

// LoadConfig loads a MonitorConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the file keep their defaults, so partial
// configs are safe.
func LoadConfig(path string) (*MonitorConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *MonitorConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *MonitorConfig) Validate() error {
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}

	if c.ADCMax != nil && *c.ADCMax <= 0 {
		return fmt.Errorf("adc_max must be positive, got %d", *c.ADCMax)
	}
	if c.VibrationSamples != nil && *c.VibrationSamples <= 0 {
		return fmt.Errorf("vibration_samples must be positive, got %d", *c.VibrationSamples)
	}
	if c.BurstRepetitions != nil && *c.BurstRepetitions < 0 {
		return fmt.Errorf("burst_repetitions must be non-negative, got %d", *c.BurstRepetitions)
	}

	for name, hz := range map[string]*int{
		"light_tone_hz":       c.LightToneHz,
		"vibration_tone_hz":   c.VibrationToneHz,
		"temperature_tone_hz": c.TemperatureToneHz,
	} {
		if hz != nil && *hz <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *hz)
		}
	}

	for name, d := range map[string]*string{
		"vibration_sample_interval": c.VibrationSampleInterval,
		"startup_delay":             c.StartupDelay,
		"light_settle_delay":        c.LightSettleDelay,
		"idle_delay":                c.IdleDelay,
		"burst_on":                  c.BurstOn,
		"burst_off":                 c.BurstOff,
		"connect_timeout":           c.ConnectTimeout,
	} {
		if d == nil || *d == "" {
			continue
		}
		parsed, err := time.ParseDuration(*d)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *d, err)
		}
		if parsed < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *d)
		}
	}

	// The cycle renders four rows and the longest fixed text is 20 characters.
	if c.DisplayRows != nil && *c.DisplayRows < display.DefaultRows {
		return fmt.Errorf("display_rows must be at least %d, got %d", display.DefaultRows, *c.DisplayRows)
	}
	if c.DisplayCols != nil && *c.DisplayCols < display.DefaultCols {
		return fmt.Errorf("display_cols must be at least %d, got %d", display.DefaultCols, *c.DisplayCols)
	}

	if c.BridgeSerial != nil {
		if _, err := c.BridgeSerial.Normalise(); err != nil {
			return fmt.Errorf("invalid bridge_serial: %w", err)
		}
	}
	if c.DiagnosticSerial != nil {
		if _, err := c.DiagnosticSerial.Normalise(); err != nil {
			return fmt.Errorf("invalid diagnostic_serial: %w", err)
		}
	}

	return nil
}

func durationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetLuxDarkThreshold returns the lux_dark_threshold value or the default.
func (c *MonitorConfig) GetLuxDarkThreshold() int {
	return intOr(c.LuxDarkThreshold, alert.DefaultLuxDark)
}

// GetVibrationThreshold returns the vibration_threshold value or the default.
func (c *MonitorConfig) GetVibrationThreshold() float64 {
	return floatOr(c.VibrationThreshold, alert.DefaultVibration)
}

// GetTemperatureThreshold returns the temperature_threshold value or the default.
func (c *MonitorConfig) GetTemperatureThreshold() float64 {
	return floatOr(c.TemperatureThreshold, alert.DefaultTemperature)
}

// GetADCMax returns the adc_max value or the default.
func (c *MonitorConfig) GetADCMax() int {
	return intOr(c.ADCMax, units.DefaultADCMax)
}

// GetVibrationSamples returns the vibration_samples value or the default.
func (c *MonitorConfig) GetVibrationSamples() int {
	return intOr(c.VibrationSamples, vibration.DefaultSamples)
}

// GetVibrationSampleInterval returns the vibration_sample_interval value or the default.
func (c *MonitorConfig) GetVibrationSampleInterval() time.Duration {
	return durationOr(c.VibrationSampleInterval, vibration.DefaultInterval)
}

// GetStartupDelay returns the startup_delay value or the default.
func (c *MonitorConfig) GetStartupDelay() time.Duration {
	return durationOr(c.StartupDelay, time.Second)
}

// GetLightSettleDelay returns the light_settle_delay value or the default.
func (c *MonitorConfig) GetLightSettleDelay() time.Duration {
	return durationOr(c.LightSettleDelay, time.Second)
}

// GetIdleDelay returns the idle_delay value or the default.
func (c *MonitorConfig) GetIdleDelay() time.Duration {
	return durationOr(c.IdleDelay, 5*time.Second)
}

// GetBurstRepetitions returns the burst_repetitions value or the default.
func (c *MonitorConfig) GetBurstRepetitions() int {
	return intOr(c.BurstRepetitions, actuator.DefaultRepetitions)
}

// GetBurstOn returns the burst_on value or the default.
func (c *MonitorConfig) GetBurstOn() time.Duration {
	return durationOr(c.BurstOn, actuator.DefaultOn)
}

// GetBurstOff returns the burst_off value or the default.
func (c *MonitorConfig) GetBurstOff() time.Duration {
	return durationOr(c.BurstOff, actuator.DefaultOff)
}

// GetDisplayRows returns the display_rows value or the default.
func (c *MonitorConfig) GetDisplayRows() int {
	return intOr(c.DisplayRows, display.DefaultRows)
}

// GetDisplayCols returns the display_cols value or the default.
func (c *MonitorConfig) GetDisplayCols() int {
	return intOr(c.DisplayCols, display.DefaultCols)
}

// GetConnectTimeout returns the connect_timeout value or the default.
func (c *MonitorConfig) GetConnectTimeout() time.Duration {
	return durationOr(c.ConnectTimeout, 2*time.Second)
}

// GetBridgeSerial returns the bridge serial options with defaults applied.
func (c *MonitorConfig) GetBridgeSerial() serialport.PortOptions {
	return normalisedOr(c.BridgeSerial)
}

// GetDiagnosticSerial returns the diagnostic serial options with defaults applied.
func (c *MonitorConfig) GetDiagnosticSerial() serialport.PortOptions {
	return normalisedOr(c.DiagnosticSerial)
}

func normalisedOr(o *serialport.PortOptions) serialport.PortOptions {
	var opts serialport.PortOptions
	if o != nil {
		opts = *o
	}
	n, err := opts.Normalise()
	if err != nil {
		n, _ = serialport.PortOptions{}.Normalise()
	}
	return n
}

// Thresholds returns the alert thresholds.
func (c *MonitorConfig) Thresholds() alert.Thresholds {
	return alert.Thresholds{
		LuxDark:     c.GetLuxDarkThreshold(),
		Vibration:   c.GetVibrationThreshold(),
		Temperature: c.GetTemperatureThreshold(),
	}
}

// Pins returns the output wiring.
func (c *MonitorConfig) Pins() actuator.Pins {
	def := actuator.DefaultPins()
	return actuator.Pins{
		LED:    intOr(c.LEDPin, def.LED),
		Relay:  intOr(c.RelayPin, def.Relay),
		Buzzer: intOr(c.BuzzerPin, def.Buzzer),
	}
}

// Patterns returns the light, vibration and temperature burst patterns.
func (c *MonitorConfig) Patterns() (light, vib, temp actuator.Pattern) {
	light = actuator.Pattern{Name: actuator.LightPattern.Name, FrequencyHz: intOr(c.LightToneHz, actuator.LightPattern.FrequencyHz)}
	vib = actuator.Pattern{Name: actuator.VibrationPattern.Name, FrequencyHz: intOr(c.VibrationToneHz, actuator.VibrationPattern.FrequencyHz)}
	temp = actuator.Pattern{Name: actuator.TemperaturePattern.Name, FrequencyHz: intOr(c.TemperatureToneHz, actuator.TemperaturePattern.FrequencyHz)}
	return light, vib, temp
}

// NewAggregator builds the vibration aggregator.
func (c *MonitorConfig) NewAggregator(clock timeutil.Clock) *vibration.Aggregator {
	return &vibration.Aggregator{
		Samples:  c.GetVibrationSamples(),
		Interval: c.GetVibrationSampleInterval(),
		Clock:    clock,
	}
}

// NewController builds the actuation controller.
func (c *MonitorConfig) NewController(gpio actuator.GPIO, clock timeutil.Clock) *actuator.Controller {
	ctrl := actuator.NewController(gpio, c.Pins(), clock)
	ctrl.Repetitions = c.GetBurstRepetitions()
	ctrl.On = c.GetBurstOn()
	ctrl.Off = c.GetBurstOff()
	return ctrl
}
