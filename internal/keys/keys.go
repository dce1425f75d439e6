// Package keys defines the platform-neutral key names used in key bindings.
package keys

import (
	"fmt"
	"sort"
	"strings"
)

// canonical key names. Platform sinks translate these into native codes.
var names = map[string]bool{
	"space": true, "enter": true, "tab": true, "escape": true, "backspace": true,
	"shift": true, "rshift": true, "ctrl": true, "rctrl": true, "alt": true, "ralt": true,
	"capslock": true, "up": true, "down": true, "left": true, "right": true,
	"insert": true, "delete": true, "home": true, "end": true, "pageup": true, "pagedown": true,
	"minus": true, "equal": true, "leftbracket": true, "rightbracket": true, "backslash": true,
	"semicolon": true, "apostrophe": true, "grave": true, "comma": true, "period": true, "slash": true,
	"kp0": true, "kp1": true, "kp2": true, "kp3": true, "kp4": true,
	"kp5": true, "kp6": true, "kp7": true, "kp8": true, "kp9": true,
}

var aliases = map[string]string{
	"spacebar":   "space",
	"return":     "enter",
	"esc":        "escape",
	"bksp":       "backspace",
	"lshift":     "shift",
	"shiftleft":  "shift",
	"shiftright": "rshift",
	"control":    "ctrl",
	"lctrl":      "ctrl",
	"ctrlleft":   "ctrl",
	"ctrlright":  "rctrl",
	"lalt":       "alt",
	"altleft":    "alt",
	"altright":   "ralt",
	"option":     "alt",
	"caps":       "capslock",
	"del":        "delete",
	"ins":        "insert",
	"pgup":       "pageup",
	"pgdn":       "pagedown",
	"-":          "minus",
	"=":          "equal",
	"[":          "leftbracket",
	"]":          "rightbracket",
	"\\":         "backslash",
	";":          "semicolon",
	"'":          "apostrophe",
	"`":          "grave",
	",":          "comma",
	".":          "period",
	"/":          "slash",
}

func init() {
	for c := 'a'; c <= 'z'; c++ {
		names[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		names[string(c)] = true
	}
	for i := 1; i <= 12; i++ {
		names[fmt.Sprintf("f%d", i)] = true
	}
}

// Normalize returns the canonical name for a key, or false if it is unknown
func Normalize(name string) (string, bool) {
	if name == " " {
		return "space", true
	}
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = a
	}
	if names[n] {
		return n, true
	}
	return "", false
}

// Known reports whether name (or one of its aliases) is a supported key
func Known(name string) bool {
	_, ok := Normalize(name)
	return ok
}

// Names returns every canonical key name, sorted
func Names() []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
