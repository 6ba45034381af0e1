// Package relay talks to a Flashbots-compatible bundle relay: it signs
// bundles, simulates them with eth_callBundle, submits them with
// eth_sendBundle and resolves each submission against the chain.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/lisanmuaddib/rescue-go/pkg/bundle"
	"github.com/lisanmuaddib/rescue-go/pkg/wallet"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// SignatureHeader carries the relay authentication signature
	SignatureHeader = "X-Flashbots-Signature"

	defaultHTTPTimeout  = 30 * time.Second
	defaultPollInterval = time.Second
	defaultRateLimit    = rate.Limit(5)
	defaultRateBurst    = 2
	maxErrorBody        = 512
)

// Client is a relay connection bound to one run. All submissions share the
// run's replacement UUID so a later bundle replaces the earlier one.
type Client struct {
	chain        wallet.Chain
	authKey      *wallet.KeyManager
	url          string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *logrus.Logger
	pollInterval time.Duration
	runID        uuid.UUID
	nonces       *wallet.NonceManager

	nextID  atomic.Int64
	chainMu sync.Mutex
	chainID *big.Int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing relay requests.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithPollInterval sets how often the chain head is polled while waiting
// for a target block.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithLogger sets the client logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithNonceManager shares a nonce manager with the caller.
func WithNonceManager(nm *wallet.NonceManager) Option {
	return func(c *Client) { c.nonces = nm }
}

// WithRunID fixes the replacement UUID instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(c *Client) { c.runID = id }
}

// NewClient creates a relay client. authKey only authenticates requests; it
// never signs bundle transactions.
func NewClient(chain wallet.Chain, authKey *wallet.KeyManager, url string, opts ...Option) (*Client, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain is required")
	}
	if authKey == nil {
		return nil, fmt.Errorf("relay signing key is required")
	}
	if url == "" {
		return nil, fmt.Errorf("relay url is required")
	}

	c := &Client{
		chain:        chain,
		authKey:      authKey,
		url:          url,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		limiter:      rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		pollInterval: defaultPollInterval,
		runID:        uuid.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
	}
	if c.nonces == nil {
		c.nonces = wallet.NewNonceManager()
	}

	c.logger.WithFields(logrus.Fields{
		"relay":        url,
		"relay_signer": authKey.GetAddress().Hex(),
		"run_id":       c.runID.String(),
	}).Debug("Relay client created")

	return c, nil
}

// RunID returns the replacement UUID shared by every submission.
func (c *Client) RunID() uuid.UUID {
	return c.runID
}

// SignBundle signs b with signers, using the run's pinned nonces.
func (c *Client) SignBundle(ctx context.Context, b *bundle.Bundle, signers Signers) (*SignedBundle, error) {
	chainID, err := c.getChainID(ctx)
	if err != nil {
		return nil, err
	}
	return SignBundle(ctx, c.chain, c.nonces, chainID, b, signers)
}

func (c *Client) getChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.chain.ChainID(ctx)
	if err != nil {
		return nil, wallet.NewWalletError(wallet.ErrCodeRPCError, "failed to get chain ID", err, "")
	}
	c.chainID = id
	return id, nil
}

// Simulate runs the bundle with eth_callBundle as if it were mined in
// blockNumber, on top of the latest state.
func (c *Client) Simulate(ctx context.Context, signed *SignedBundle, blockNumber uint64) (*SimulationResult, error) {
	params := callBundleParams{
		Txs:              signed.RawTransactions(),
		BlockNumber:      hexutil.EncodeUint64(blockNumber),
		StateBlockNumber: "latest",
	}

	var result SimulationResult
	if err := c.call(ctx, "eth_callBundle", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendBundle submits the bundle for inclusion in target.
func (c *Client) SendBundle(ctx context.Context, signed *SignedBundle, target uint64) (*Submission, error) {
	params := sendBundleParams{
		Txs:             signed.RawTransactions(),
		BlockNumber:     hexutil.EncodeUint64(target),
		ReplacementUUID: c.runID.String(),
	}

	var result sendBundleResult
	if err := c.call(ctx, "eth_sendBundle", params, &result); err != nil {
		return nil, err
	}

	sub := &Submission{
		Target: target,
		Txs:    append([]SignedTx(nil), signed.Txs...),
		client: c,
	}
	if result.BundleHash != "" {
		sub.BundleHash = common.HexToHash(result.BundleHash)
	}

	hashes := make([]string, 0, len(signed.Txs))
	for _, h := range signed.Hashes() {
		hashes = append(hashes, h.Hex())
	}
	c.logger.WithFields(logrus.Fields{
		"target_block": target,
		"bundle_hash":  sub.BundleHash.Hex(),
		"tx_hashes":    hashes,
	}).Debug("Bundle sent")
	return sub, nil
}

// CancelBundle withdraws every pending submission of this run.
func (c *Client) CancelBundle(ctx context.Context) error {
	return c.call(ctx, "eth_cancelBundle", cancelBundleParams{ReplacementUUID: c.runID.String()}, nil)
}

// Wait resolves sub. See Submission.Wait.
func (c *Client) Wait(ctx context.Context, sub *Submission) (Resolution, error) {
	return sub.Wait(ctx)
}

// signBody returns the authentication header value for body.
func (c *Client) signBody(body []byte) (string, error) {
	digest := hexutil.Encode(crypto.Keccak256(body))
	sig, err := c.authKey.SignText([]byte(digest))
	if err != nil {
		return "", err
	}
	return c.authKey.GetAddress().Hex() + ":" + hexutil.Encode(sig), nil
}

func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RelayError{Method: method, Message: "rate limiter", Err: err}
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  []interface{}{params},
	})
	if err != nil {
		return &RelayError{Method: method, Message: "failed to encode request", Err: err}
	}

	signature, err := c.signBody(body)
	if err != nil {
		return &RelayError{Method: method, Message: "failed to sign request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &RelayError{Method: method, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	log := c.logger.WithField("method", method)
	log.Debug("Sending relay request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RelayError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RelayError{Method: method, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := raw
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return &RelayError{Method: method, StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(snippet))}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return &RelayError{Method: method, StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	if rpcResp.Error != nil {
		return &RelayError{Method: method, StatusCode: resp.StatusCode, Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}

	if out == nil || len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return &RelayError{Method: method, StatusCode: resp.StatusCode, Message: "invalid result", Err: err}
	}
	return nil
}
