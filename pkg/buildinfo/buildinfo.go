// Package buildinfo contains build information.
//
// Build information should be set during compilation by passing
// -ldflags "-X github.com/vtree-ui/vtree/pkg/buildinfo.Var=value" to
// "go build".
package buildinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/vtree-ui/vtree/pkg/prog"
)

// Version identifies the version of vtree. On development commits, it
// identifies the next release.
const Version = "0.3.0"

// VersionSuffix is appended to Version to build the full version string. It
// can be overridden when building.
var VersionSuffix = "-dev.unknown"

// Program is the buildinfo subprogram.
type Program struct {
	version, buildinfo bool
	json               *bool
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.version, "version", false, "Show version and quit")
	fs.BoolVar(&p.buildinfo, "buildinfo", false, "Show build information and quit")
	p.json = fs.JSON()
}

func (p *Program) Run(fds [3]*os.File, _ []string) error {
	switch {
	case p.buildinfo:
		info := struct {
			Version   string `json:"version"`
			GoVersion string `json:"goversion"`
		}{Version + VersionSuffix, runtime.Version()}
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(info))
		} else {
			fmt.Fprintln(fds[1], "Version:", info.Version)
			fmt.Fprintln(fds[1], "Go version:", info.GoVersion)
		}
	case p.version:
		if *p.json {
			fmt.Fprintln(fds[1], mustToJSON(Version+VersionSuffix))
		} else {
			fmt.Fprintln(fds[1], Version+VersionSuffix)
		}
	default:
		return prog.ErrNextProgram
	}
	return nil
}

func mustToJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
