// Command canteen-report prints ledger summaries and category breakdowns
// in the terminal.
package main

import "os"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
