package mapper

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/config"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/intent"
	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

func forwardProfile() *config.Profile {
	return &config.Profile{
		Name:        "test",
		Sensitivity: 1.0,
		Deadzone:    0.1,
		Bindings: []config.Binding{
			{Intent: intent.Forward, Axis: motion.AxisPitch, Direction: 1, Threshold: 0.3, Key: "w"},
		},
	}
}

// sample builds a sample with pitch set and everything else at rest
func sample(pitch float64) motion.Sample {
	var axes [6]float64
	axes[4] = pitch
	return motion.NewSample(axes, nil, time.Time{})
}

func TestForwardAboveThreshold(t *testing.T) {
	got := MapToIntents(sample(0.5), forwardProfile())
	if diff := cmp.Diff([]intent.Intent{intent.Forward}, got.Items()); diff != "" {
		t.Errorf("Intents mismatch (-want +got):\n%s", diff)
	}
}

func TestBelowDeadzoneIsEmpty(t *testing.T) {
	if got := MapToIntents(sample(0.05), forwardProfile()); got.Len() != 0 {
		t.Errorf("Expected no intents, got %v", got)
	}
}

func TestWrongDirectionDoesNotTrigger(t *testing.T) {
	if got := MapToIntents(sample(-0.8), forwardProfile()); got.Len() != 0 {
		t.Errorf("Expected no intents for opposite deflection, got %v", got)
	}
}

func TestSensitivityScalesBeforeThreshold(t *testing.T) {
	p := forwardProfile()
	p.Sensitivity = 2.0

	// 0.2 * 2 = 0.4 > 0.3
	if got := MapToIntents(sample(0.2), p); !got.Has(intent.Forward) {
		t.Errorf("Expected forward with doubled sensitivity, got %v", got)
	}
	p.Sensitivity = 0.5
	// 0.5 * 0.5 = 0.25 < 0.3
	if got := MapToIntents(sample(0.5), p); got.Has(intent.Forward) {
		t.Errorf("Expected no forward with halved sensitivity, got %v", got)
	}
}

func TestDeadzoneUsesRawValue(t *testing.T) {
	p := forwardProfile()
	p.Sensitivity = 2.0
	p.Bindings[0].Threshold = 0.15

	// 0.1 is inside the deadzone even though 0.1 * 2 would exceed the threshold
	if got := MapToIntents(sample(0.1), p); got.Len() != 0 {
		t.Errorf("Expected deadzone to suppress raw value, got %v", got)
	}
}

func TestThresholdIsExclusive(t *testing.T) {
	if got := MapToIntents(sample(0.3), forwardProfile()); got.Len() != 0 {
		t.Errorf("Value equal to threshold must not trigger, got %v", got)
	}
}

func TestDefaultProfileScenarios(t *testing.T) {
	p := config.DefaultProfile()

	tests := []struct {
		name string
		axes [6]float64
		btns []int
		want []intent.Intent
	}{
		{"rest", [6]float64{}, nil, nil},
		{"tilt forward", [6]float64{0, 0, 0, 0, 0.7, 0}, nil, []intent.Intent{intent.Forward}},
		{"tilt back left", [6]float64{0, 0, 0, -0.6, -0.6, 0}, nil, []intent.Intent{intent.Back, intent.Left}},
		{"lift", [6]float64{0, 0, 0.8, 0, 0, 0}, nil, []intent.Intent{intent.Jump}},
		{"push", [6]float64{0, 0, -0.7, 0, 0, 0}, nil, []intent.Intent{intent.Crouch}},
		{"push hard", [6]float64{0, 0, -1, 0, 0, 0}, nil, []intent.Intent{intent.Crouch, intent.Prone}},
		{"full tilt", [6]float64{0, 0, 0, 0.7, 0.7, 0}, nil, []intent.Intent{intent.Right, intent.Forward, intent.Sprint}},
		{"buttons", [6]float64{}, []int{0, 1, 5}, []intent.Intent{intent.Button(0), intent.Button(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapToIntents(motion.NewSample(tt.axes, tt.btns, time.Time{}), p)
			want := intent.NewSet(tt.want...)
			if !got.Equal(want) {
				t.Errorf("Expected %v, got %v", want, got)
			}
		})
	}
}

func TestDisabledBindingNeverTriggers(t *testing.T) {
	p := config.DefaultProfile()
	for i := range p.Bindings {
		p.Bindings[i].Disabled = p.Bindings[i].Intent == intent.Sprint
	}
	got := MapToIntents(motion.NewSample([6]float64{0, 0, 0, 1, 1, 0}, nil, time.Time{}), p)
	if got.Has(intent.Sprint) {
		t.Errorf("Disabled sprint triggered: %v", got)
	}
}

// wideDeadzoneProfile is the default profile at the widest deadzone and
// highest sensitivity, with every threshold just above the deadzone
func wideDeadzoneProfile() *config.Profile {
	p := config.DefaultProfile()
	p.Sensitivity = config.MaxSensitivity
	p.Deadzone = config.MaxDeadzone
	for i := range p.Bindings {
		p.Bindings[i].Threshold = 0.6
	}
	p.Buttons = nil
	return p
}

func TestInsideDeadzoneAlwaysEmpty(t *testing.T) {
	for _, p := range []*config.Profile{config.DefaultProfile(), wideDeadzoneProfile()} {
		p.Sensitivity = config.MaxSensitivity
		p.Buttons = nil
		r := rand.New(rand.NewSource(1))

		for i := 0; i < 1000; i++ {
			var axes [6]float64
			for a := range axes {
				axes[a] = (r.Float64()*2 - 1) * p.Deadzone
			}
			if got := MapToIntents(motion.NewSample(axes, nil, time.Time{}), p); got.Len() != 0 {
				t.Fatalf("Deadzone %.2f: sample %v produced %v", p.Deadzone, axes, got)
			}
		}
	}
}

func TestAllAxesAtDeadzoneIsEmpty(t *testing.T) {
	p := wideDeadzoneProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("Profile should be valid: %v", err)
	}
	for _, v := range []float64{p.Deadzone, -p.Deadzone} {
		axes := [6]float64{v, v, v, v, v, v}
		if got := MapToIntents(motion.NewSample(axes, nil, time.Time{}), p); got.Len() != 0 {
			t.Errorf("All axes at %.2f produced %v", v, got)
		}
	}
}

func TestPlanarUsesComponentsOutsideDeadzone(t *testing.T) {
	p := wideDeadzoneProfile()

	// pitch inside the deadzone does not add to roll
	got := MapToIntents(motion.NewSample([6]float64{0, 0, 0, 0.51, 0.5, 0}, nil, time.Time{}), p)
	if !got.Has(intent.Sprint) {
		t.Errorf("Expected sprint from roll alone (0.51 * 2 > 0.6), got %v", got)
	}
	got = MapToIntents(motion.NewSample([6]float64{0, 0, 0, 0.5, 0.5, 0}, nil, time.Time{}), p)
	if got.Has(intent.Sprint) {
		t.Errorf("Sprint triggered with roll and pitch at the deadzone: %v", got)
	}
}

func TestNilProfile(t *testing.T) {
	if got := MapToIntents(sample(1), nil); got.Len() != 0 {
		t.Errorf("Expected empty set for nil profile, got %v", got)
	}
}
