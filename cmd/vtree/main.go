// Vtree drives a declarative tree engine from the command line. By default
// it runs a scripted demo against an in-memory surface; with -devtools it
// serves the inspector protocol on stdin and stdout.
package main

import (
	"os"

	"github.com/vtree-ui/vtree/pkg/buildinfo"
	"github.com/vtree-ui/vtree/pkg/demo"
	"github.com/vtree-ui/vtree/pkg/devtools"
	"github.com/vtree-ui/vtree/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(
			&buildinfo.Program{}, &devtools.Program{}, &demo.Program{})))
}
