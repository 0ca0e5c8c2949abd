// Package display renders the banner and the end-of-run report tables.
// Purely presentational; nothing here mutates run state.
package display

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// PrintBanner prints the startup banner; magenta when colors are enabled.
func PrintBanner() {
	banner := color.New(color.FgHiMagenta, color.Bold)
	banner.Fprint(os.Stdout, `             _ ____                  _  _
  __ ___   _(_)___ \ _ __ ___  _ __ | || |
 / _`+"`"+` \ \ / / | __) | '_ `+"`"+` _ \| '_ \| || |_
| (_| |\ V /| |/ __/| | | | | | |_) |__   _|
 \__,_| \_/ |_|_____|_| |_| |_| .__/   |_|
                              |_|
`)
	fmt.Fprintln(os.Stdout)
}
