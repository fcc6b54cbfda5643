package ledger

import (
	"context"
	"strings"

	"github.com/cosmicspace/cisp/foundation/blockchain/signature"
)

// MaxDifficulty bounds the proof of work search. Every extra zero multiplies
// the expected number of attempts by sixteen.
const MaxDifficulty = 6

// Block represents a group of transactions sealed by a proof of work hash.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previousHash"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// NewBlock constructs a block ready for the proof of work search.
func NewBlock(index uint64, previousHash string, timestamp int64, txs []Transaction) Block {
	if previousHash == "" {
		previousHash = signature.ZeroHash
	}

	b := Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: append([]Transaction(nil), txs...),
		PreviousHash: previousHash,
	}
	b.Hash = b.CalculateHash()

	return b
}

// CalculateHash returns the hash over every field of the block except the
// hash itself.
func (b Block) CalculateHash() string {
	return signature.Hash(struct {
		Index        uint64        `json:"index"`
		Timestamp    int64         `json:"timestamp"`
		Transactions []Transaction `json:"transactions"`
		PreviousHash string        `json:"previousHash"`
		Nonce        uint64        `json:"nonce"`
	}{b.Index, b.Timestamp, b.Transactions, b.PreviousHash, b.Nonce})
}

// IsSolved reports if the block hash satisfies the difficulty.
func (b Block) IsSolved(difficulty int) bool {
	return b.Hash == b.CalculateHash() && isHashSolved(difficulty, b.Hash)
}

// POW searches for the smallest nonce whose hash starts with difficulty
// zeros. The block is updated in place with the nonce and hash found.
func POW(ctx context.Context, b *Block, difficulty int, ev func(v string, args ...any)) error {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("ledger: POW: MINING: started: blk[%d]: difficulty[%d]", b.Index, difficulty)

	b.Nonce = 0
	for {
		if b.Nonce%1_000_000 == 0 && b.Nonce > 0 {
			ev("ledger: POW: MINING: attempts[%d]", b.Nonce)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("ledger: POW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := b.CalculateHash()
		if !isHashSolved(difficulty, hash) {
			b.Nonce++
			continue
		}

		b.Hash = hash
		ev("ledger: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PreviousHash, hash, b.Nonce+1)

		return nil
	}
}

// isHashSolved checks the hash digits start with a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	digits := signature.Digits(hash)
	if len(digits) < difficulty {
		return false
	}

	return strings.Count(digits[:difficulty], "0") == difficulty
}
