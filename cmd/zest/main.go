// Command zest renders, lists, scaffolds and serves zest components.
package main

import (
	"context"
	"os"

	"impractical.co/zest/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
