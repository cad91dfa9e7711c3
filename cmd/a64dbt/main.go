// Command a64dbt decodes, compiles, and executes a static AArch64 Linux
// binary, and exposes the same pipeline's debug surface for register/memory
// inspection.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
