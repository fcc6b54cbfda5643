package commands

import (
	"fmt"
	"io"

	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/spf13/cobra"
)

func nftsCmd(s *settings, ev func(v string, args ...any)) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "nfts",
		Short: "Print the tokens in the registry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, ev, func(c *components, out io.Writer) error {
				var ns []nft.NFT
				switch owner {
				case "":
					ns = c.nfts.All()
				default:
					ns = c.nfts.ByOwner(owner)
				}

				for _, n := range ns {
					fmt.Fprintf(out, "ID: %s  Name: %s  Category: %s  Rarity: %s  Owner: %s  Listed: %t\n",
						n.ID, n.Name, n.Category, n.Rarity, n.Owner, c.market.IsNFTListed(n.ID))
				}

				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Only print the tokens owned by this address.")

	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Drop unreadable tokens and fill in missing fields.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, ev, func(c *components, out io.Writer) error {
				removed, repaired := c.nfts.ValidateAndRepair(cmd.Context())
				fmt.Fprintf(out, "Removed: %d  Repaired: %d\n", removed, repaired)
				return nil
			})
		},
	}
	cmd.AddCommand(repairCmd)

	return cmd
}
