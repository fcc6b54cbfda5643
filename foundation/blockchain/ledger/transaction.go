package ledger

import (
	"errors"
	"fmt"

	"github.com/cosmicspace/cisp/foundation/blockchain/signature"
)

// Set of transaction types recorded by the ledger.
const (
	TypeTransfer     = "TRANSFER"
	TypeMint         = "MINT"
	TypeReward       = "REWARD"
	TypeNFTMint      = "NFT_MINT"
	TypeMiningReward = "MINING_REWARD"
)

// issuance is the set of types that create tokens out of nothing.
var issuance = map[string]bool{
	TypeMint:         true,
	TypeReward:       true,
	TypeNFTMint:      true,
	TypeMiningReward: true,
}

// Transaction represents a single movement or creation of tokens. An empty
// From means the tokens were issued by the system.
type Transaction struct {
	ID        string  `json:"id"`
	From      string  `json:"from,omitempty"`
	To        string  `json:"to"`
	Token     string  `json:"token"`
	Amount    float64 `json:"amount"`
	Type      string  `json:"type"`
	Timestamp int64   `json:"timestamp"`
	Nonce     uint64  `json:"nonce"`
	Signature string  `json:"signature,omitempty"`
}

// Hash returns the unique hash for the transaction. The id and signature
// are not part of the hash.
func (tx Transaction) Hash() string {
	return signature.Hash(struct {
		From      string  `json:"from"`
		To        string  `json:"to"`
		Token     string  `json:"token"`
		Amount    float64 `json:"amount"`
		Type      string  `json:"type"`
		Timestamp int64   `json:"timestamp"`
		Nonce     uint64  `json:"nonce"`
	}{tx.From, tx.To, tx.Token, tx.Amount, tx.Type, tx.Timestamp, tx.Nonce})
}

// Sign stamps the transaction with a signature produced from its hash and
// the signing key.
func (tx Transaction) Sign(signingKey string) (Transaction, error) {
	sig, err := signature.Sign(tx.Hash(), signingKey)
	if err != nil {
		return Transaction{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// Validate checks the transaction is well formed. Transactions issued by
// the system carry no signature and are always valid.
func (tx Transaction) Validate() error {
	if tx.From == "" {
		return nil
	}

	if !validAmount(tx.Amount) {
		return fmt.Errorf("transaction amount %v is not positive", tx.Amount)
	}

	if tx.Signature == "" {
		return errors.New("transaction is not signed")
	}

	return signature.Verify(tx.Signature)
}

// Touches reports if the address is the sender or receiver.
func (tx Transaction) Touches(address string) bool {
	return tx.From == address || tx.To == address
}
