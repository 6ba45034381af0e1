package bundle

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

// GasPriceToGwei renders a wei amount in gwei with two decimals. Digits
// beyond the second decimal are truncated, never rounded.
func GasPriceToGwei(wei *big.Int) string {
	if wei == nil {
		return "0.00"
	}

	sign := ""
	centi := new(big.Int).Mul(wei, big.NewInt(100))
	if centi.Sign() < 0 {
		sign = "-"
		centi.Neg(centi)
	}
	centi.Quo(centi, big.NewInt(GweiUnit))

	whole, frac := new(big.Int).QuoRem(centi, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, whole.String(), frac.Int64())
}

// LogTransactions writes one line per bundle entry with everything needed
// to reproduce it by hand.
func LogTransactions(log logrus.FieldLogger, b *Bundle) {
	if b == nil {
		return
	}
	for i, e := range b.Entries {
		from := b.Executor
		if e.Role == RoleSponsor {
			from = b.Sponsor
		}
		log.WithFields(logrus.Fields{
			"index":          i,
			"role":           e.Role.String(),
			"from":           from.Hex(),
			"to":             e.Tx.To.Hex(),
			"value_wei":      e.Tx.Value.String(),
			"gas_limit":      e.Tx.GasLimit,
			"gas_price_gwei": GasPriceToGwei(e.Tx.GasPrice),
			"data":           hexutil.Encode(e.Tx.Data),
		}).Info("Bundle transaction")
	}
}
