package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creedlang/creed/pkg"
)

// Version prints the module name and version.
type Version struct {
	out io.Writer
}

// Run executes the version command.
func (v *Version) Run(_ context.Context) error {
	out := v.out
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintf(out, "%s %s\n", pkg.Name, strings.TrimSpace(pkg.Version))

	return nil
}
