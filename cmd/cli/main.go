// mitilog - Mitigation Window Analysis
//
// mitilog replays combat event logs, captures the windows in which a buff is
// active, and grades what happened inside each one.
package main

import (
	"os"

	"github.com/ccollicutt/mitilog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
