// Command remontctl is the operator CLI: schema migrations, demo data,
// budget reports and the spreadsheet sync queue.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
