// Command cms operates the Heritage Hub CMS backend.
package main

import (
	"context"
	"os"

	"github.com/heritagehub/cms/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
