// file: internal/utils/appinfo/appinfo.go
// Package appinfo reports build-time application information.
package appinfo

import (
	"os"
	"runtime/debug"
)

// GetVersion returns the application version, preferring an explicit
// APP_VERSION over the module version baked into the binary.
func GetVersion() string {
	if version := os.Getenv("APP_VERSION"); version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
				return "0.0.0-" + setting.Value[:8]
			}
		}
	}
	return "0.0.0-unknown"
}
