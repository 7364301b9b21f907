// Package version carries build metadata. The linker overrides these values
// with -ldflags "-X github.com/hazz-dev/statusboard/internal/version.Version=...".
package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build metadata for the version command.
func String() string {
	return Version + " (commit " + Commit + ", built " + Date + ")"
}
