package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect <address>",
	Short: "Connect an existing wallet",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := struct {
			Address string `json:"address"`
		}{
			Address: args[0],
		}

		if err := call(http.MethodPost, "/v1/wallets/connect", body, nil); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Connected:", args[0])
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the connected wallet",
	Run: func(cmd *cobra.Command, args []string) {
		if err := call(http.MethodPost, "/v1/wallets/disconnect", nil, nil); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Disconnected")
	},
}

// addressCmd represents the address command
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print address for the connected wallet",
	Run: func(cmd *cobra.Command, args []string) {
		var w struct {
			Address string `json:"address"`
		}
		if err := call(http.MethodGet, "/v1/wallets/current", nil, &w); err != nil {
			log.Fatal(err)
		}
		fmt.Println(w.Address)
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(addressCmd)
}
