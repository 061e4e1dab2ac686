// Package version holds build information injected at link time.
package version

// Version is the application version, set with
// -ldflags "-X github.com/ndewijer/Property-Investment-Backend/internal/version.Version=1.2.3".
var Version = "dev"
