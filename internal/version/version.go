// ABOUTME: Version information for the pedalboard
// ABOUTME: Reported in the web host handshake and the CLI
package version

const (
	// Version is the current pedalboard version
	Version = "0.1.0"

	// Product is the product name sent to web clients
	Product = "Pedalboard"

	// Manufacturer is the manufacturer name sent to web clients
	Manufacturer = "Resonate"
)
