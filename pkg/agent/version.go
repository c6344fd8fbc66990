package agent

// Version is the library version string.
const Version = "0.1.0"

// Version components, for callers that compare numerically.
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// VersionComponents returns the version as (major, minor, patch).
func VersionComponents() (int, int, int) {
	return VersionMajor, VersionMinor, VersionPatch
}
