// Package wallettest provides an in-memory wallet.Chain for tests.
package wallettest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
)

// Chain is a scriptable wallet.Chain. Zero values are usable: chain ID 1,
// head 0, no base fee, every estimate returns DefaultGas.
type Chain struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	Head         uint64
	BaseFee      *big.Int
	DefaultGas   uint64

	// EstimateFunc overrides DefaultGas when set.
	EstimateFunc func(msg ethereum.CallMsg) (uint64, error)
	// CallFunc answers CallContract.
	CallFunc func(msg ethereum.CallMsg) ([]byte, error)
	// SubscribeErr is returned by SubscribeNewHead when set. Use
	// rpc.ErrNotificationsUnsupported to force polling.
	SubscribeErr error
	// HeaderErr is returned by HeaderByNumber when set.
	HeaderErr error

	nonces   map[common.Address]uint64
	receipts map[common.Hash]uint64
	headSubs []chan<- *types.Header

	EstimateCalls []ethereum.CallMsg
	NonceCalls    int
	CallCount     int
}

// NewChain returns a chain with the given head and base fee.
func NewChain(head uint64, baseFee *big.Int) *Chain {
	return &Chain{Head: head, BaseFee: baseFee, DefaultGas: 21000}
}

// Unsubscribable is a convenience for forcing the polling path.
var Unsubscribable = rpc.ErrNotificationsUnsupported

// SetHead moves the chain head.
func (c *Chain) SetHead(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Head = n
}

// SetBaseFee changes the latest block base fee.
func (c *Chain) SetBaseFee(fee *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BaseFee = fee
}

// SetNonce sets the confirmed nonce of account.
func (c *Chain) SetNonce(account common.Address, nonce uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nonces == nil {
		c.nonces = make(map[common.Address]uint64)
	}
	c.nonces[account] = nonce
}

// Mine records a receipt for hash in block.
func (c *Chain) Mine(hash common.Hash, block uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.receipts == nil {
		c.receipts = make(map[common.Hash]uint64)
	}
	c.receipts[hash] = block
}

// PublishHead pushes a header to every active subscription.
func (c *Chain) PublishHead(ctx context.Context, number uint64) {
	c.mu.Lock()
	subs := append([]chan<- *types.Header(nil), c.headSubs...)
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- &types.Header{Number: new(big.Int).SetUint64(number)}:
		case <-ctx.Done():
			return
		}
	}
}

// Subscribers returns how many head subscriptions were opened.
func (c *Chain) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.headSubs)
}

func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ChainIDValue == nil {
		return big.NewInt(1), nil
	}
	return new(big.Int).Set(c.ChainIDValue), nil
}

func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Head, nil
}

func (c *Chain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.HeaderErr != nil {
		return nil, c.HeaderErr
	}
	head := &types.Header{Number: new(big.Int).SetUint64(c.Head)}
	if number != nil {
		head.Number = new(big.Int).Set(number)
	}
	if c.BaseFee != nil {
		head.BaseFee = new(big.Int).Set(c.BaseFee)
	}
	return head, nil
}

func (c *Chain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	c.EstimateCalls = append(c.EstimateCalls, msg)
	fn, gas := c.EstimateFunc, c.DefaultGas
	c.mu.Unlock()

	if fn != nil {
		return fn(msg)
	}
	return gas, nil
}

func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	c.CallCount++
	fn := c.CallFunc
	c.mu.Unlock()

	if fn == nil {
		return nil, ethereum.NotFound
	}
	return fn(msg)
}

func (c *Chain) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NonceCalls++
	return c.nonces[account], nil
}

func (c *Chain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	block, ok := c.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{
		TxHash:      txHash,
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: new(big.Int).SetUint64(block),
	}, nil
}

func (c *Chain) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}
	c.headSubs = append(c.headSubs, ch)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}
