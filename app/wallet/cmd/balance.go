package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type account struct {
	Address  string             `json:"address"`
	Balances map[string]float64 `json:"balances"`
	NFTs     []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Rarity   string `json:"rarity"`
		Category string `json:"category"`
	} `json:"nfts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Print your balance.",
	Args:  cobra.MaximumNArgs(1),
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	address := currentAddress(args)
	fmt.Println("For Account:", address)

	var acct account
	if err := call(http.MethodGet, "/v1/accounts/"+address, nil, &acct); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CIS:  %.2f\n", acct.Balances["CIS"])
	fmt.Printf("xCIS: %.2f\n", acct.Balances["xCIS"])
	for _, n := range acct.NFTs {
		fmt.Printf("NFT:  %s  %s  %s %s\n", n.ID, n.Name, n.Rarity, n.Category)
	}
}

// currentAddress returns the address named on the command line or the
// address of the connected wallet.
func currentAddress(args []string) string {
	if len(args) == 1 {
		return args[0]
	}

	var w struct {
		Address string `json:"address"`
	}
	if err := call(http.MethodGet, "/v1/wallets/current", nil, &w); err != nil {
		log.Fatal(err)
	}

	return w.Address
}
