package intent

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetCanonicalOrder(t *testing.T) {
	s := NewSet(Button(1), Jump, Forward, Button(0), Jump)

	want := []Intent{Forward, Jump, "button1", "button2"}
	if diff := cmp.Diff(want, s.Items()); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 4 {
		t.Errorf("Expected 4 items, got %d", s.Len())
	}
}

func TestSetDifference(t *testing.T) {
	prev := NewSet(Forward, Jump)
	next := NewSet(Forward, Left)

	if diff := cmp.Diff([]Intent{Jump}, prev.Difference(next).Items()); diff != "" {
		t.Errorf("released mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Intent{Left}, next.Difference(prev).Items()); diff != "" {
		t.Errorf("pressed mismatch (-want +got):\n%s", diff)
	}
	if got := NewSet().Difference(prev); got.Len() != 0 {
		t.Errorf("Expected empty difference, got %v", got)
	}
}

func TestSetEqual(t *testing.T) {
	if !NewSet(Forward, Jump).Equal(NewSet(Jump, Forward)) {
		t.Error("Expected sets to be equal regardless of input order")
	}
	if NewSet(Forward).Equal(NewSet(Back)) {
		t.Error("Expected different sets to be unequal")
	}
	if !(Set{}).Equal(NewSet()) {
		t.Error("Expected zero set to equal empty set")
	}
}

func TestButtonIntents(t *testing.T) {
	b := Button(0)
	if b != "button1" {
		t.Errorf("Expected button1, got %s", b)
	}
	if idx, ok := b.ButtonIndex(); !ok || idx != 0 {
		t.Errorf("Expected index 0, got %d (%v)", idx, ok)
	}
	if _, ok := Forward.ButtonIndex(); ok {
		t.Error("forward is not a button intent")
	}
	if Intent("button0").Valid() {
		t.Error("button0 should be invalid")
	}
}

func TestParse(t *testing.T) {
	if i, err := Parse(" Sprint"); err != nil || i != Sprint {
		t.Errorf("Expected sprint, got %q (%v)", i, err)
	}
	if _, err := Parse("fly"); err == nil {
		t.Error("Expected error for unknown intent")
	}
}

func TestSetMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewSet(Jump, Forward))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["forward","jump"]` {
		t.Errorf("Unexpected JSON %s", data)
	}

	data, _ = json.Marshal(Set{})
	if string(data) != `[]` {
		t.Errorf("Expected empty array, got %s", data)
	}
}
