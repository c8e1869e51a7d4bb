package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// These values are overridden at build time via -ldflags "-X ...".
var (
	Version      = "dev"
	GitCommit    = "unknown"
	GitTreeState = "unknown" // clean|dirty|unknown
	BuildDate    = "unknown" // RFC3339 UTC preferred
)

type Info struct {
	Version      string
	GitCommit    string
	GitTreeState string
	BuildDate    string
	GoVersion    string
	Platform     string
}

// Get returns the build metadata. A "dev" build installed with `go install`
// reports the module version recorded by the toolchain instead.
func Get() Info {
	info := Info{
		Version:      Version,
		GitCommit:    GitCommit,
		GitTreeState: GitTreeState,
		BuildDate:    BuildDate,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}

// String renders the multi-line `olympus version` output. Unknown fields are omitted.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "olympus version: %s\n", i.Version)
	for _, kv := range [][2]string{
		{"GitCommit", i.GitCommit},
		{"GitTreeState", i.GitTreeState},
		{"BuildDate", i.BuildDate},
	} {
		if kv[1] != "" && kv[1] != "unknown" {
			fmt.Fprintf(&b, "%s: %s\n", kv[0], kv[1])
		}
	}
	fmt.Fprintf(&b, "GoVersion: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "Platform: %s\n", i.Platform)
	return b.String()
}
