// Package build holds build-time information.
package build

// These default to placeholders and are overwritten by linker flags:
//
//	-X go.trai.ch/envcache/internal/build.Version=...
var (
	// Version is the application version.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
