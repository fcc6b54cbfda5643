package commands

import (
	"fmt"
	"io"

	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
)

func walletsCmd(s *settings, ev func(v string, args ...any)) *cobra.Command {
	return &cobra.Command{
		Use:   "wallets",
		Short: "Print the known wallets and the connected one.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, ev, func(c *components, out io.Writer) error {
				current, _ := c.wallets.CurrentAddress()

				for _, w := range c.wallets.Wallets() {
					mark := " "
					if w.Address == current {
						mark = "*"
					}
					fmt.Fprintf(out, "%s Address: %s  Name: %s  CIS: %.2f  xCIS: %.2f\n",
						mark, w.Address, w.Name, c.ledger.Balance(w.Address, genesis.TokenCIS), c.ledger.Balance(w.Address, genesis.TokenXCIS))
				}

				return nil
			})
		},
	}
}

func listingsCmd(s *settings, ev func(v string, args ...any)) *cobra.Command {
	return &cobra.Command{
		Use:   "listings",
		Short: "Print the active listings and auctions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, ev, func(c *components, out io.Writer) error {
				for _, l := range c.market.ActiveListings() {
					fmt.Fprintf(out, "Listing: %s  NFT: %s  Seller: %s  Price: %.2f %s\n",
						l.ID, l.NFTID, l.Seller, l.Price, l.Currency)
				}

				for _, a := range c.market.ActiveAuctions() {
					fmt.Fprintf(out, "Auction: %s  NFT: %s  Seller: %s  Current: %.2f %s  Bids: %d  Ends: %d\n",
						a.ID, a.NFTID, a.Seller, a.CurrentPrice, a.Currency, len(a.Bids), a.EndTime)
				}

				return nil
			})
		},
	}
}
