package contracts

// PortInfo describes one MIDI output port as reported by a driver.
type PortInfo struct {
	ID           int    // Identifier passed to Driver.Open.
	Name         string // Port name; the key used to select a device.
	Manufacturer string // Device manufacturer, when the backend reports one.
}
