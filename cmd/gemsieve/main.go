// Command gemsieve is the CLI entry point for mining a mailbox for latent
// commercial opportunities (§6.1).
package main

import "github.com/hoyack/gemsieve/internal/cliapp"

func main() {
	cliapp.Execute()
}
