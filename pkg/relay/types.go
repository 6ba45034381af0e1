package relay

import (
	"encoding/json"
	"fmt"
	"math/big"
)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type callBundleParams struct {
	Txs              []string `json:"txs"`
	BlockNumber      string   `json:"blockNumber"`
	StateBlockNumber string   `json:"stateBlockNumber"`
}

type sendBundleParams struct {
	Txs             []string `json:"txs"`
	BlockNumber     string   `json:"blockNumber"`
	ReplacementUUID string   `json:"replacementUuid,omitempty"`
}

type cancelBundleParams struct {
	ReplacementUUID string `json:"replacementUuid"`
}

type sendBundleResult struct {
	BundleHash string `json:"bundleHash"`
}

// TxResult is the per-transaction outcome of eth_callBundle.
type TxResult struct {
	TxHash            string `json:"txHash"`
	FromAddress       string `json:"fromAddress,omitempty"`
	ToAddress         string `json:"toAddress,omitempty"`
	GasUsed           uint64 `json:"gasUsed"`
	GasPrice          string `json:"gasPrice,omitempty"`
	GasFees           string `json:"gasFees,omitempty"`
	CoinbaseDiff      string `json:"coinbaseDiff,omitempty"`
	EthSentToCoinbase string `json:"ethSentToCoinbase,omitempty"`
	Value             string `json:"value,omitempty"`
	Error             string `json:"error,omitempty"`
	Revert            string `json:"revert,omitempty"`
}

// Failed reports whether the transaction errored or reverted.
func (r TxResult) Failed() bool {
	return r.Error != "" || r.Revert != ""
}

// SimulationResult is the result object of eth_callBundle.
type SimulationResult struct {
	BundleGasPrice    string     `json:"bundleGasPrice"`
	BundleHash        string     `json:"bundleHash"`
	CoinbaseDiff      string     `json:"coinbaseDiff"`
	EthSentToCoinbase string     `json:"ethSentToCoinbase"`
	GasFees           string     `json:"gasFees"`
	Results           []TxResult `json:"results"`
	StateBlockNumber  uint64     `json:"stateBlockNumber"`
	TotalGasUsed      uint64     `json:"totalGasUsed"`
}

// FirstFailure returns the index and result of the first failed
// transaction, or -1 when every transaction succeeded.
func (r *SimulationResult) FirstFailure() (int, *TxResult) {
	for i := range r.Results {
		if r.Results[i].Failed() {
			return i, &r.Results[i]
		}
	}
	return -1, nil
}

// EffectiveGasPrice is coinbaseDiff / totalGasUsed in wei.
func (r *SimulationResult) EffectiveGasPrice() (*big.Int, error) {
	if r.TotalGasUsed == 0 {
		return nil, fmt.Errorf("simulation used no gas")
	}
	diff, err := parseWei(r.CoinbaseDiff)
	if err != nil {
		return nil, fmt.Errorf("invalid coinbaseDiff: %w", err)
	}
	return diff.Quo(diff, new(big.Int).SetUint64(r.TotalGasUsed)), nil
}

// GasPrice returns the relay's reported bundleGasPrice in wei.
func (r *SimulationResult) GasPrice() (*big.Int, error) {
	price, err := parseWei(r.BundleGasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid bundleGasPrice: %w", err)
	}
	return price, nil
}

// parseWei accepts decimal or 0x-prefixed hex integers.
func parseWei(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}
