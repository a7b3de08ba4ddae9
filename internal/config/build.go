package config

// Set at link time, e.g.
//
//	go build -ldflags "-X eventcast/internal/config.version=$(git describe --tags) \
//	    -X eventcast/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X eventcast/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/api
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo reads the linker-injected metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// String renders the build as "version (commit, buildTime)" for startup logs
// and the health endpoint.
func (b BuildInfo) String() string {
	return b.Version + " (" + b.Commit + ", " + b.BuildTime + ")"
}
