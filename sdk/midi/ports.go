package midi

import (
	"github.com/leandrodaf/notekeys/sdk/contracts"
	"go.uber.org/multierr"
)

// Ports returns a snapshot of the output ports the configured driver sees.
func Ports(opts ...contracts.Option) (ports []contracts.PortInfo, err error) {
	options := applyDefaultOptions(opts...)
	driver, err := NewDriver(&options)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, driver.Close())
	}()

	return driver.Ports()
}

// ListPorts queries the driver once and maps each output port name to its
// identifier. Ports whose name cannot be read are left out.
func ListPorts(opts ...contracts.Option) (map[string]int, error) {
	ports, err := Ports(opts...)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int, len(ports))
	for name, p := range indexByName(ports) {
		byName[name] = p.ID
	}
	return byName, nil
}

// indexByName maps port names to ports. When several ports share a name the
// one listed last wins, both here and when a keyboard opens a port by name.
func indexByName(ports []contracts.PortInfo) map[string]contracts.PortInfo {
	byName := make(map[string]contracts.PortInfo, len(ports))
	for _, p := range ports {
		byName[p.Name] = p
	}
	return byName
}
