package main

import "github.com/synapsefi/pm-ledger/cmd"

func main() {
	cmd.Execute()
}
