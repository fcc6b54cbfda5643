// This program performs administrative tasks for the ledger service.
package main

import (
	"fmt"
	"os"

	"github.com/cosmicspace/cisp/app/tooling/admin/commands"
	"github.com/cosmicspace/cisp/foundation/logger"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := commands.Execute(build, log, os.Stdout, os.Args[1:]); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}
