// Package commands contains the admin commands that inspect and maintain
// the durable store.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/cosmicspace/cisp/business/sys/database"
	"github.com/cosmicspace/cisp/foundation/blockchain/genesis"
	"github.com/cosmicspace/cisp/foundation/blockchain/ledger"
	"github.com/cosmicspace/cisp/foundation/blockchain/market"
	"github.com/cosmicspace/cisp/foundation/blockchain/nft"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage"
	"github.com/cosmicspace/cisp/foundation/blockchain/storage/memory"
	"github.com/cosmicspace/cisp/foundation/blockchain/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// settings holds the values of the persistent flags.
type settings struct {
	dbCfg       database.Config
	genesisPath string
}

// Execute builds the command tree and runs the command named by args.
func Execute(build string, log *zap.SugaredLogger, out io.Writer, args []string) error {
	var s settings

	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Inspect and maintain the ledger store.",
		Version:       build,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.dbCfg.Backend, "backend", database.BackendLevelDB, "Storage backend: memory, leveldb or redis.")
	flags.StringVar(&s.dbCfg.LevelDBPath, "leveldb", "zblock/cisp.db", "Path to the leveldb store.")
	flags.StringVar(&s.dbCfg.RedisURL, "redis-url", "redis://localhost:6379/0", "Url of the redis store.")
	flags.StringVar(&s.dbCfg.RedisNamespace, "redis-namespace", "cisp", "Key namespace in the redis store.")
	flags.StringVar(&s.dbCfg.RedisChannel, "redis-channel", "cisp:changes", "Change channel of the redis store.")
	flags.StringVar(&s.genesisPath, "genesis", "zblock/genesis.json", "Path to the genesis file.")

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	rootCmd.AddCommand(
		balancesCmd(&s, ev),
		transactionsCmd(&s, ev),
		nftsCmd(&s, ev),
		walletsCmd(&s, ev),
		listingsCmd(&s, ev),
	)

	return rootCmd.ExecuteContext(context.Background())
}

// =============================================================================

// components holds the parts of the ledger system read by the commands.
type components struct {
	store   storage.Store
	ledger  *ledger.Ledger
	nfts    *nft.Registry
	wallets *wallet.Store
	market  *market.Market
}

// open opens the configured store and loads the components over it.
func open(ctx context.Context, s *settings, ev func(v string, args ...any)) (*components, error) {
	gen, err := genesis.Load(s.genesisPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		gen = genesis.Default()
	case err != nil:
		return nil, fmt.Errorf("loading genesis: %w", err)
	}

	store, err := database.Open(ctx, s.dbCfg)
	if err != nil {
		return nil, err
	}

	c := components{
		store: store,
	}

	c.ledger, err = ledger.New(ctx, ledger.Config{
		Store:      store,
		TxHistory:  gen.TxHistory,
		Difficulty: gen.Difficulty,
		EvHandler:  ev,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	c.nfts, err = nft.New(ctx, nft.Config{
		Store:     store,
		EvHandler: ev,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	c.wallets, err = wallet.New(ctx, wallet.Config{
		Store:     store,
		Session:   memory.New(),
		Minter:    c.ledger,
		EvHandler: ev,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	c.market, err = market.New(ctx, market.Config{
		Store:     store,
		Ledger:    c.ledger,
		Registry:  c.nfts,
		Economics: gen.Market,
		EvHandler: ev,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &c, nil
}

// Close releases the store.
func (c *components) Close() error {
	return c.store.Close()
}

// run opens the components, calls fn and closes them.
func run(cmd *cobra.Command, s *settings, ev func(v string, args ...any), fn func(c *components, out io.Writer) error) error {
	c, err := open(cmd.Context(), s, ev)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c, cmd.OutOrStdout())
}
