package bundle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lisanmuaddib/rescue-go/pkg/engine"
)

// Role says which account signs a bundle entry.
type Role int

const (
	// RoleSponsor signs the funding transfer
	RoleSponsor Role = iota
	// RoleExecutor signs the payload transactions
	RoleExecutor
)

func (r Role) String() string {
	switch r {
	case RoleSponsor:
		return "sponsor"
	case RoleExecutor:
		return "executor"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// TxRequest is a fully priced transaction, still unsigned and without a nonce.
type TxRequest struct {
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasPrice *big.Int
	GasLimit uint64
}

// Cost returns GasLimit * GasPrice.
func (t TxRequest) Cost() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(t.GasLimit), t.GasPrice)
}

// Entry is one transaction of a bundle and the role that signs it.
type Entry struct {
	Tx   TxRequest
	Role Role
}

// Bundle is the ordered transaction set of one submission cycle. The
// funding entry is always first.
type Bundle struct {
	Entries  []Entry
	Sponsor  common.Address
	Executor common.Address
	Plan     *GasPlan
}

// Assemble builds the bundle for txs under plan: a funding transfer from
// sponsor to executor worth exactly TotalGas * GasPrice, followed by each
// payload transaction with its own gas limit and the shared gas price.
func Assemble(txs []engine.UnsignedTransaction, plan *GasPlan, sponsor, executor common.Address) (*Bundle, error) {
	if plan == nil || plan.GasPrice == nil || plan.TotalGas == nil {
		return nil, fmt.Errorf("incomplete gas plan")
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("no payload transactions")
	}
	if len(plan.GasLimits) != len(txs) {
		return nil, fmt.Errorf("gas plan has %d limits for %d transactions", len(plan.GasLimits), len(txs))
	}
	if sponsor == executor {
		return nil, fmt.Errorf("sponsor and executor must be different accounts")
	}

	sum := new(big.Int)
	for _, l := range plan.GasLimits {
		sum.Add(sum, new(big.Int).SetUint64(l))
	}
	if sum.Cmp(plan.TotalGas) != 0 {
		return nil, fmt.Errorf("gas plan total %s does not match limits sum %s", plan.TotalGas, sum)
	}

	fundingGas := plan.FundingGasLimit
	if fundingGas == 0 {
		fundingGas = FundingGasLimit
	}

	entries := make([]Entry, 0, len(txs)+1)
	entries = append(entries, Entry{
		Role: RoleSponsor,
		Tx: TxRequest{
			To:       executor,
			Value:    new(big.Int).Mul(plan.TotalGas, plan.GasPrice),
			GasPrice: new(big.Int).Set(plan.GasPrice),
			GasLimit: fundingGas,
		},
	})

	for i, tx := range txs {
		entries = append(entries, Entry{
			Role: RoleExecutor,
			Tx: TxRequest{
				To:       tx.To,
				Data:     append([]byte(nil), tx.Data...),
				Value:    tx.ValueOrZero(),
				GasPrice: new(big.Int).Set(plan.GasPrice),
				GasLimit: plan.GasLimits[i],
			},
		})
	}

	return &Bundle{
		Entries:  entries,
		Sponsor:  sponsor,
		Executor: executor,
		Plan:     plan,
	}, nil
}

// Funding returns the sponsor's funding entry.
func (b *Bundle) Funding() Entry {
	return b.Entries[0]
}

// Payload returns the executor entries in payload order.
func (b *Bundle) Payload() []Entry {
	return b.Entries[1:]
}

// FundingValue is the wei the sponsor sends to the executor.
func (b *Bundle) FundingValue() *big.Int {
	return new(big.Int).Set(b.Entries[0].Tx.Value)
}

// ExecutorCost is the sum of GasLimit * GasPrice over the payload entries.
func (b *Bundle) ExecutorCost() *big.Int {
	total := new(big.Int)
	for _, e := range b.Payload() {
		total.Add(total, e.Tx.Cost())
	}
	return total
}
