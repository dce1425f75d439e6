// Package intent names the discrete movement actions derived from device motion.
package intent

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Intent is a logical movement action such as forward or jump
type Intent string

const (
	Forward Intent = "forward"
	Back    Intent = "back"
	Left    Intent = "left"
	Right   Intent = "right"
	Jump    Intent = "jump"
	Crouch  Intent = "crouch"
	Prone   Intent = "prone"
	Sprint  Intent = "sprint"
)

// Movement lists the axis-driven intents in display order
var Movement = []Intent{Forward, Back, Left, Right, Jump, Crouch, Prone, Sprint}

const buttonPrefix = "button"

// Button returns the intent for a device button (0-based index). The name is 1-based
// to match the labels printed on the device.
func Button(index int) Intent {
	return Intent(buttonPrefix + strconv.Itoa(index+1))
}

// ButtonIndex returns the 0-based device button of a button intent
func (i Intent) ButtonIndex() (int, bool) {
	s := string(i)
	if !strings.HasPrefix(s, buttonPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(buttonPrefix):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Valid reports whether i is a movement or button intent
func (i Intent) Valid() bool {
	if lo.Contains(Movement, i) {
		return true
	}
	_, ok := i.ButtonIndex()
	return ok
}

// Parse converts a name into an Intent
func Parse(name string) (Intent, error) {
	i := Intent(strings.ToLower(strings.TrimSpace(name)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown intent %q", name)
	}
	return i, nil
}

// Set is an immutable set of intents. The zero value is the empty set.
type Set struct {
	items []Intent // sorted, unique
}

// NewSet builds a set from the given intents
func NewSet(intents ...Intent) Set {
	if len(intents) == 0 {
		return Set{}
	}
	items := lo.Uniq(intents)
	sort.Slice(items, func(a, b int) bool { return less(items[a], items[b]) })
	return Set{items: items}
}

// Has reports whether i is in the set
func (s Set) Has(i Intent) bool {
	for _, it := range s.items {
		if it == i {
			return true
		}
	}
	return false
}

// Len returns the number of intents in the set
func (s Set) Len() int { return len(s.items) }

// Items returns a copy of the set contents in canonical order
func (s Set) Items() []Intent {
	return append([]Intent(nil), s.items...)
}

// Equal reports whether both sets hold the same intents
func (s Set) Equal(o Set) bool {
	if len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if s.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// Difference returns the intents in s that are not in o
func (s Set) Difference(o Set) Set {
	return Set{items: lo.Filter(s.items, func(i Intent, _ int) bool { return !o.Has(i) })}
}

// Strings returns the intent names in canonical order
func (s Set) Strings() []string {
	return lo.Map(s.items, func(i Intent, _ int) string { return string(i) })
}

func (s Set) String() string {
	if len(s.items) == 0 {
		return "{}"
	}
	return "{" + strings.Join(s.Strings(), ", ") + "}"
}

func (s Set) MarshalJSON() ([]byte, error) {
	names := s.Strings()
	if names == nil {
		names = []string{}
	}
	quoted := lo.Map(names, func(n string, _ int) string { return strconv.Quote(n) })
	return []byte("[" + strings.Join(quoted, ",") + "]"), nil
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewSet(lo.Map(names, func(n string, _ int) Intent { return Intent(n) })...)
	return nil
}

// movement intents sort in display order, button intents after them by index
func less(a, b Intent) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func rank(i Intent) int {
	if idx := lo.IndexOf(Movement, i); idx >= 0 {
		return idx
	}
	if n, ok := i.ButtonIndex(); ok {
		return len(Movement) + n
	}
	return 1 << 30
}
