package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var walletName string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet and connect it",
	Run:   createRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&walletName, "name", "n", "", "Name of the wallet.")
}

func createRun(cmd *cobra.Command, args []string) {
	var w struct {
		Address    string `json:"address"`
		Name       string `json:"name"`
		SeedPhrase string `json:"seedPhrase"`
	}

	body := struct {
		Name string `json:"name"`
	}{
		Name: walletName,
	}

	if err := call(http.MethodPost, "/v1/wallets", body, &w); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Address:", w.Address)
	fmt.Println("Name:   ", w.Name)
	fmt.Println("Seed:   ", w.SeedPhrase)
}
