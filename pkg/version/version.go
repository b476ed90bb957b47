package version

import (
	"github.com/go-logr/logr"
)

// These fields are set during an official build
// Global vars set from command-line arguments
var (
	BuildVersion = "--"
	BuildHash    = "--"
	BuildTime    = "--"
)

// Version returns the build version
func Version() string {
	return BuildVersion
}

// PrintVersionInfo displays the engine version - git version
func PrintVersionInfo(log logr.Logger) {
	log.Info("kyverno-engine", "Version", BuildVersion)
	log.Info("kyverno-engine", "BuildHash", BuildHash)
	log.Info("kyverno-engine", "BuildTime", BuildTime)
}
