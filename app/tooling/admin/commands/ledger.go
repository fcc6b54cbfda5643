package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
)

func balancesCmd(s *settings, ev func(v string, args ...any)) *cobra.Command {
	return &cobra.Command{
		Use:   "balances [address]",
		Short: "Print the balance table or the balances of one address.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, ev, func(c *components, out io.Writer) error {
				meta := c.ledger.Meta()
				fmt.Fprintf(out, "LatestHash: %s  Height: %d\n\n", meta.LatestHash, meta.Height)

				accounts := c.ledger.Accounts()
				if len(args) == 1 {
					accounts = map[string]map[string]float64{args[0]: c.ledger.Balances(args[0])}
				}

				addrs := make([]string, 0, len(accounts))
				for addr := range accounts {
					addrs = append(addrs, addr)
				}
				sort.Strings(addrs)

				for _, addr := range addrs {
					tokens := make([]string, 0, len(accounts[addr]))
					for token := range accounts[addr] {
						tokens = append(tokens, token)
					}
					sort.Strings(tokens)

					for _, token := range tokens {
						fmt.Fprintf(out, "Account: %s  Token: %s  Balance: %.2f\n", addr, token, accounts[addr][token])
					}
				}

				return nil
			})
		},
	}
}

func transactionsCmd(s *settings, ev func(v string, args ...any)) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions [address]",
		Short: "Print the transaction log or the entries touching one address.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, s, ev, func(c *components, out io.Writer) error {
				var addr string
				if len(args) == 1 {
					addr = args[0]
				}

				for _, tx := range c.ledger.Transactions(addr) {
					fmt.Fprintf(out, "ID: %s  Type: %s  From: %s  To: %s  Amount: %.2f %s\n",
						tx.ID, tx.Type, tx.From, tx.To, tx.Amount, tx.Token)
				}

				return nil
			})
		},
	}
}
