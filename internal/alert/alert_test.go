package alert

import (
	"testing"

	"github.com/banshee-data/vibration.monitor/internal/sensor"
)

func TestLightAlert(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		lux  int
		want bool
	}{
		{0, false},
		{499, false},
		{500, true},
		{2000, true},
	}
	for _, tt := range tests {
		if got := th.LightAlert(tt.lux); got != tt.want {
			t.Errorf("LightAlert(%d) = %v, want %v", tt.lux, got, tt.want)
		}
	}
}

func TestVibrationAlert(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		mean float64
		want bool
	}{
		{0, false},
		{0.99, false},
		{1.0, false},
		{1.01, true},
	}
	for _, tt := range tests {
		if got := th.VibrationAlert(tt.mean); got != tt.want {
			t.Errorf("VibrationAlert(%v) = %v, want %v", tt.mean, got, tt.want)
		}
	}
}

func TestTemperatureAlert(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		tempC float64
		want  bool
	}{
		{36.53, false},
		{70.0, false},
		{70.01, true},
		{75.0, true},
	}
	for _, tt := range tests {
		if got := th.TemperatureAlert(tt.tempC); got != tt.want {
			t.Errorf("TemperatureAlert(%v) = %v, want %v", tt.tempC, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name    string
		reading sensor.Reading
		mean    float64
		want    Set
	}{
		{"all clear", sensor.Reading{TempC: 25, Lux: 0}, 0, Set{}},
		{"bright only", sensor.Reading{TempC: 25, Lux: 2000}, 0, Set{Light: true}},
		{"shaking only", sensor.Reading{TempC: 25, Lux: 10}, 1.5, Set{Vibration: true}},
		{"hot only", sensor.Reading{TempC: 75, Lux: 10}, 0, Set{Temperature: true}},
		{"everything", sensor.Reading{TempC: 90, Lux: 1500}, 2, Set{Light: true, Vibration: true, Temperature: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Evaluate(tt.reading, tt.mean)
			if got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	th := Thresholds{LuxDark: 100, Vibration: 0.2, Temperature: 40}
	got := th.Evaluate(sensor.Reading{TempC: 40.5, Lux: 100}, 0.2)
	want := Set{Light: true, Vibration: false, Temperature: true}
	if got != want {
		t.Errorf("Evaluate() = %+v, want %+v", got, want)
	}
}

func TestSet_CountAndString(t *testing.T) {
	tests := []struct {
		set   Set
		count int
		str   string
	}{
		{Set{}, 0, "none"},
		{Set{Vibration: true}, 1, "vibration"},
		{Set{Light: true, Temperature: true}, 2, "light,temperature"},
		{Set{Light: true, Vibration: true, Temperature: true}, 3, "light,vibration,temperature"},
	}
	for _, tt := range tests {
		if got := tt.set.Count(); got != tt.count {
			t.Errorf("%+v.Count() = %d, want %d", tt.set, got, tt.count)
		}
		if got := tt.set.Any(); got != (tt.count > 0) {
			t.Errorf("%+v.Any() = %v", tt.set, got)
		}
		if got := tt.set.String(); got != tt.str {
			t.Errorf("%+v.String() = %q, want %q", tt.set, got, tt.str)
		}
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("default thresholds invalid: %v", err)
	}
	if err := (Thresholds{LuxDark: -1}).Validate(); err == nil {
		t.Error("expected error for negative lux threshold")
	}
	if err := (Thresholds{Vibration: -0.1}).Validate(); err == nil {
		t.Error("expected error for negative vibration threshold")
	}
}
