// Package buildinfo exposes build metadata stamped in via ldflags.
package buildinfo

import (
	"fmt"
	"io"
)

// Set at build time, e.g.
//
//	go build -ldflags "-X .../internal/buildinfo.Version=v1.0.0"
var (
	Version   = "N/A"
	BuildDate = "N/A"
	Commit    = "N/A"
)

// PrintBuildData writes the build banner to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
