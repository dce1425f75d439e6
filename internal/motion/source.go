package motion

// Source is the device boundary. Implementations must be safe for use by a
// single polling goroutine; callers serialize Connect, Poll and Disconnect.
type Source interface {
	// Connect opens the device. Calling it while connected reopens the device.
	// Fails with a ConnectFailed DeviceError when no compatible device is found.
	Connect() error

	// Poll returns the latest sample. Fails with NotConnected before Connect.
	Poll() (Sample, error)

	// Disconnect releases the device handle. Idempotent.
	Disconnect() error

	// Name returns the connected device name, or "" when disconnected.
	Name() string
}
