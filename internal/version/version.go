// ABOUTME: Version and product identification
// ABOUTME: Version is overridden at build time with -ldflags
package version

// Version is the release version
var Version = "0.1.0"

const (
	// Product is the product name shown in the UI and logs
	Product = "audiobob"
	// Manufacturer identifies who builds the player
	Manufacturer = "Sendspin"
)
