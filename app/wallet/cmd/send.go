package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	to     string
	token  string
	amount float64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send tokens from the connected wallet",
	Run: func(cmd *cobra.Command, args []string) {
		body := struct {
			To     string  `json:"to"`
			Token  string  `json:"token"`
			Amount float64 `json:"amount"`
		}{
			To:     to,
			Token:  token,
			Amount: amount,
		}

		var tx struct {
			ID string `json:"id"`
		}
		if err := call(http.MethodPost, "/v1/transfers", body, &tx); err != nil {
			log.Fatal(err)
		}

		fmt.Println("Transaction:", tx.ID)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address to send to.")
	sendCmd.Flags().StringVarP(&token, "token", "k", "xCIS", "Token to send: CIS or xCIS.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "a", 0, "Amount to send.")
}
