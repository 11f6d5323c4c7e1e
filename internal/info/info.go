// Package info holds this build's identity, surfaced by the /info route.
package info

// version is overridden at build time via:
//
//	go build -ldflags "-X github.com/scylladb/vector-store/internal/info.version=1.2.3"
var version = "dev"

const serviceName = "vector-store"

// Version returns the build's version string.
func Version() string {
	return version
}

// Name returns the service's name.
func Name() string {
	return serviceName
}
