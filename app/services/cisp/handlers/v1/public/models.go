package public

import "github.com/cosmicspace/cisp/foundation/blockchain/wallet"

type newWallet struct {
	Name string `json:"name" validate:"max=64"`
}

type connectWallet struct {
	Address string `json:"address" validate:"required"`
}

type transfer struct {
	To     string  `json:"to" validate:"required"`
	Token  string  `json:"token" validate:"required,oneof=CIS xCIS"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type mintNFT struct {
	Category string `json:"category"`
	Rarity   string `json:"rarity"`
}

type transferNFT struct {
	To string `json:"to" validate:"required"`
}

type listNFT struct {
	NFTID    string  `json:"nftId" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"omitempty,oneof=CIS xCIS"`
}

// The auction duration is carried in milliseconds.
type createAuction struct {
	NFTID         string  `json:"nftId" validate:"required"`
	StartingPrice float64 `json:"startingPrice" validate:"required,gt=0"`
	Duration      int64   `json:"duration" validate:"required,gt=0"`
}

type placeBid struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type applyCode struct {
	Code string `json:"code" validate:"required"`
}

// publicWallet is a wallet as returned to clients. The seed phrase is only
// returned once, when the wallet is created.
type publicWallet struct {
	Address      string             `json:"address"`
	Name         string             `json:"name"`
	CreatedAt    int64              `json:"createdAt"`
	LastAccessed int64              `json:"lastAccessed"`
	Balances     map[string]float64 `json:"balances"`
	Connected    bool               `json:"connected"`
}

func toPublicWallet(w wallet.Wallet, current string) publicWallet {
	return publicWallet{
		Address:      w.Address,
		Name:         w.Name,
		CreatedAt:    w.CreatedAt,
		LastAccessed: w.LastAccessed,
		Balances:     w.Balances,
		Connected:    w.Address == current,
	}
}

type createdWallet struct {
	publicWallet
	SeedPhrase string `json:"seedPhrase"`
}

type status struct {
	Status string `json:"status"`
}
