// Package device reads 3Dconnexion SpaceMouse devices.
package device

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/laurensguijt/SpaceMouse-Gamepad/internal/motion"
)

// Vendor IDs used by 3Dconnexion over the years
const (
	VendorLogitech      uint16 = 0x046d
	Vendor3Dconnexion   uint16 = 0x256f
	defaultIdleTimeout         = 2 * time.Second
)

// supportedProducts lists product IDs known to speak the SpaceMouse report format
var supportedProducts = map[uint16]string{
	0xc625: "SpacePilot",
	0xc626: "SpaceNavigator",
	0xc627: "SpaceExplorer",
	0xc62b: "SpaceMouse Pro",
	0xc62e: "SpaceMouse Wireless (cabled)",
	0xc62f: "SpaceMouse Wireless",
	0xc631: "SpaceMouse Pro Wireless (cabled)",
	0xc632: "SpaceMouse Pro Wireless",
	0xc633: "SpaceMouse Enterprise",
	0xc635: "SpaceMouse Compact",
	0xc63a: "SpaceMouse Wireless BT",
	0xc652: "3Dconnexion Universal Receiver",
}

// Info describes an attached device
type Info struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	VendorID  uint16 `json:"vendor_id"`
	ProductID uint16 `json:"product_id"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s [%04x:%04x] %s", i.Name, i.VendorID, i.ProductID, i.Path)
}

// IsSupported reports whether a vendor/product pair is a known SpaceMouse
func IsSupported(vendor, product uint16) bool {
	if vendor != VendorLogitech && vendor != Vendor3Dconnexion {
		return false
	}
	_, ok := supportedProducts[product]
	return ok
}

// ProductName returns a display name for a product ID
func ProductName(product uint16) string {
	if name, ok := supportedProducts[product]; ok {
		return name
	}
	return fmt.Sprintf("Unknown SpaceMouse %04x", product)
}

// UniqueNames returns the distinct device names in order. Receivers and
// multi-interface devices show up once per interface.
func UniqueNames(infos []Info) []string {
	return lo.Uniq(lo.Map(infos, func(i Info, _ int) string { return i.Name }))
}

// matches reports whether info is selected by a user filter (name or path)
func matches(info Info, filter string) bool {
	if filter == "" {
		return true
	}
	return info.Path == filter || strings.EqualFold(info.Name, filter)
}

// Options configures a device source
type Options struct {
	// Match selects a device by product name or path; empty picks the first supported
	Match string

	// IdleTimeout is how long a deflected device may stay silent before Poll
	// reports ReadTimeout. Zero uses the default, negative disables the check.
	IdleTimeout time.Duration

	Clock  clock.Clock
	Logger *zap.SugaredLogger
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout == 0 {
		o.IdleTimeout = defaultIdleTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// Backend names accepted by New
const (
	BackendHID   = "hid"
	BackendEvdev = "evdev"
)

// New creates the source for a backend name
func New(backend string, opts Options) (motion.Source, error) {
	switch strings.ToLower(backend) {
	case "", BackendHID:
		return NewHIDSource(opts), nil
	case BackendEvdev:
		return NewEvdevSource(opts)
	default:
		return nil, fmt.Errorf("unknown device backend %q", backend)
	}
}

// List enumerates supported devices for a backend
func List(backend string) ([]Info, error) {
	switch strings.ToLower(backend) {
	case "", BackendHID:
		return ListHID()
	case BackendEvdev:
		return ListEvdev()
	default:
		return nil, fmt.Errorf("unknown device backend %q", backend)
	}
}
