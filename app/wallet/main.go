// This program is a command line client of the ledger service.
package main

import "github.com/cosmicspace/cisp/app/wallet/cmd"

func main() {
	cmd.Execute()
}
