// Package genesis maintains access to the genesis file. The genesis file
// carries the economics of the ledger: the welcome grant, marketplace fees,
// mining rewards and the referral level table.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Token symbols known to the ledger.
const (
	TokenCIS  = "CIS"
	TokenXCIS = "xCIS"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time                     `json:"date"`
	ChainID      uint16                        `json:"chain_id"`      // The chain id represents an unique id for this running instance.
	Tokens       []string                      `json:"tokens"`        // Token symbols tracked by the ledger.
	WelcomeGrant float64                       `json:"welcome_grant"` // xCIS minted into every new wallet.
	TxHistory    int                           `json:"tx_history"`    // Number of transactions kept in durable storage.
	Difficulty   int                           `json:"difficulty"`    // Leading zeros required by the block hash.
	SyncInterval Duration                      `json:"sync_interval"` // How often a context polls durable storage.
	Market       Market                        `json:"market"`
	Mining       Mining                        `json:"mining"`
	Referral     []ReferralLevel               `json:"referral_levels"`
	Balances     map[string]map[string]float64 `json:"balances"` // Founder allocations minted into an empty ledger.
}

// Market represents the marketplace economics.
type Market struct {
	MinPrice           float64  `json:"min_price"`
	Fee                float64  `json:"fee"`
	MinAuctionDuration Duration `json:"min_auction_duration"`
	MaxAuctionDuration Duration `json:"max_auction_duration"`
	MinBidIncrement    float64  `json:"min_bid_increment"`
	AntiSnipeWindow    Duration `json:"anti_snipe_window"`
	MonitorInterval    Duration `json:"monitor_interval"`
	EscrowAddress      string   `json:"escrow_address"`
	TreasuryAddress    string   `json:"treasury_address"`
}

// Mining represents the mining simulator economics.
type Mining struct {
	Difficulty        int      `json:"difficulty"`
	BlockReward       float64  `json:"block_reward"`
	MinRewardInterval Duration `json:"min_reward_interval"`
	HashTime          Duration `json:"hash_time"`
	PoolAddress       string   `json:"pool_address"`
}

// ReferralLevel represents one row of the referral level table.
type ReferralLevel struct {
	Level    int     `json:"level"`
	Required int     `json:"required"`
	XCIS     float64 `json:"xcis"`
	NFT      bool    `json:"nft"`
	Title    string  `json:"title"`
}

// =============================================================================

// Default returns the genesis values used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:      1,
		Tokens:       []string{TokenCIS, TokenXCIS},
		WelcomeGrant: 100,
		TxHistory:    100,
		Difficulty:   2,
		SyncInterval: Duration(3 * time.Second),
		Market: Market{
			MinPrice:           100,
			Fee:                0.025,
			MinAuctionDuration: Duration(time.Hour),
			MaxAuctionDuration: Duration(7 * 24 * time.Hour),
			MinBidIncrement:    0.1,
			AntiSnipeWindow:    Duration(5 * time.Minute),
			MonitorInterval:    Duration(time.Minute),
			EscrowAddress:      "CISPMARKETESCROW",
			TreasuryAddress:    "CISPMARKETTREASURY",
		},
		Mining: Mining{
			Difficulty:        4,
			BlockReward:       50,
			MinRewardInterval: Duration(30 * time.Second),
			HashTime:          Duration(time.Second),
			PoolAddress:       "CISPMININGPOOL",
		},
		Referral: []ReferralLevel{
			{Level: 1, Required: 5, XCIS: 50, Title: "Cosmic Starter"},
			{Level: 2, Required: 10, XCIS: 100, NFT: true, Title: "Space Explorer"},
			{Level: 3, Required: 20, XCIS: 200, Title: "Star Navigator"},
			{Level: 4, Required: 35, XCIS: 350, NFT: true, Title: "Galaxy Pioneer"},
			{Level: 5, Required: 50, XCIS: 500, Title: "Nebula Master"},
			{Level: 6, Required: 75, XCIS: 750, NFT: true, Title: "Cosmic Elite"},
			{Level: 7, Required: 100, XCIS: 1000, Title: "Universe Sage"},
			{Level: 8, Required: 150, XCIS: 1500, NFT: true, Title: "Celestial Lord"},
			{Level: 9, Required: 200, XCIS: 2000, Title: "Cosmic Overlord"},
			{Level: 10, Required: 300, XCIS: 3000, NFT: true, Title: "Cosmic Legend"},
		},
	}
}

// Load opens and consumes the genesis file. Values missing from the file
// keep their defaults.
func Load(path string) (Genesis, error) {
	genesis := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis %q: %w", path, err)
	}

	if err := genesis.validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %q: %w", path, err)
	}

	return genesis, nil
}

func (g Genesis) validate() error {
	switch {
	case g.TxHistory <= 0:
		return fmt.Errorf("tx_history must be positive")
	case g.Market.Fee < 0 || g.Market.Fee >= 1:
		return fmt.Errorf("market fee must be in [0, 1)")
	case g.Market.MinAuctionDuration > g.Market.MaxAuctionDuration:
		return fmt.Errorf("min auction duration is above the max")
	case g.Mining.Difficulty <= 0:
		return fmt.Errorf("mining difficulty must be positive")
	}

	for i := 1; i < len(g.Referral); i++ {
		if g.Referral[i].Required < g.Referral[i-1].Required {
			return fmt.Errorf("referral level %d requires fewer referrals than level %d", g.Referral[i].Level, g.Referral[i-1].Level)
		}
	}

	return nil
}

// =============================================================================

// Duration is a time.Duration that reads and writes as a string like "5m".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON implements the json.Marshaler interface.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	*d = Duration(v)
	return nil
}
