// Package version reports the version of this module as recorded in the build information of the running binary.
package version

import "runtime/debug"

// Default is returned when the build information has no usable version, such as in tests or `go run`.
const Default = "dev"

const modulePath = "github.com/tetratelabs/nyuzi"

// GetVersion returns the version of this module in the running binary. When the binary is this module's own
// command, that is the main module version. When another module embeds it, that is the version in its go.mod.
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Default
	}
	return versionFromBuildInfo(info)
}

func versionFromBuildInfo(info *debug.BuildInfo) string {
	if info.Main.Path == modulePath {
		return usable(info.Main.Version)
	}
	for _, dep := range info.Deps {
		if dep.Path != modulePath {
			continue
		}
		if dep.Replace != nil {
			return usable(dep.Replace.Version)
		}
		return usable(dep.Version)
	}
	return Default
}

func usable(v string) string {
	if v == "" || v == "(devel)" {
		return Default
	}
	return v
}
