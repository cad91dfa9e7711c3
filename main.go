// Command a64dbt is the module's root stub.
//
// For the full CLI, use: go run ./cmd/a64dbt
package main

import "fmt"

func main() {
	fmt.Println("a64dbt - AArch64 user-mode dynamic binary translator")
	fmt.Println("")
	fmt.Println("Usage: a64dbt <run|regs|step> <program.elf> [flags]")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/a64dbt' for the full CLI.")
}
