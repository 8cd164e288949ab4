// qiyas is the assessment continuity engine: previous-year context
// resolution, section mapping management, and recommendation uploads.
package main

import (
	"os"

	"github.com/qiyas/continuity/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
