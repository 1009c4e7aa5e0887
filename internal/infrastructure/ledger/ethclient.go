// Package ledger implements the ledger client on an Ethereum compatible
// network through go-ethereum.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	appledger "github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/infrastructure/cache"
	"github.com/openpublisher/openpublisher/internal/shared/config"
	"github.com/openpublisher/openpublisher/internal/shared/constants"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
)

const (
	reachabilityTimeout = 5 * time.Second
	nonceLockTTL        = 30 * time.Second
	maxSendRetries      = 3
	sendRetryBase       = 250 * time.Millisecond
	defaultPollInterval = 2 * time.Second
	defaultGasLimit     = 2000000
)

// Backend is the part of ethclient.Client the ledger client uses.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EthClient is built once at startup and shared by all requests.
type EthClient struct {
	backend        Backend
	signer         Signer
	contract       common.Address
	contractABI    abi.ABI
	gasLimit       uint64
	confirmTimeout time.Duration
	pollInterval   time.Duration
	limiter        *rate.Limiter
	locker         cache.Locker
	logger         logger.Interface

	chainMu sync.Mutex
	chainID *big.Int
}

// Dial connects to cfg.RPCURL. A missing private key is not fatal: the
// client still answers reachability and receipt queries but every
// submission fails.
func Dial(ctx context.Context, cfg *config.LedgerConfig, locker cache.Locker, log logger.Interface) (*EthClient, error) {
	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger rpc: %w", err)
	}

	var signer Signer
	if cfg.PrivateKey != "" {
		ks, err := NewKeySigner(cfg.PrivateKey)
		if err != nil {
			rpc.Close()
			return nil, err
		}
		signer = ks
	} else {
		log.Warnw("ledger private key not configured, submissions will fail")
	}

	return NewEthClient(rpc, signer, cfg, locker, log)
}

func NewEthClient(backend Backend, signer Signer, cfg *config.LedgerConfig, locker cache.Locker, log logger.Interface) (*EthClient, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %q", cfg.ContractAddress)
	}
	parsed, err := parseContractABI()
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	if locker == nil {
		locker = cache.NewLocalLocker()
	}

	c := &EthClient{
		backend:        backend,
		signer:         signer,
		contract:       common.HexToAddress(cfg.ContractAddress),
		contractABI:    parsed,
		gasLimit:       gasLimit,
		confirmTimeout: cfg.ConfirmationTimeout,
		pollInterval:   poll,
		limiter:        rate.NewLimiter(limit, 1),
		locker:         locker,
		logger:         log,
	}
	if cfg.ChainID > 0 {
		c.chainID = big.NewInt(cfg.ChainID)
	}
	return c, nil
}

// Close releases the RPC connection when the backend holds one.
func (c *EthClient) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *EthClient) IsReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, reachabilityTimeout)
	defer cancel()

	if _, err := c.backend.BlockNumber(ctx); err != nil {
		c.logger.Debugw("ledger node not reachable", "error", err)
		return false
	}
	return true
}

// Anchor checks reachability, submits payload and waits for the receipt.
func (c *EthClient) Anchor(ctx context.Context, payload []byte) (*appledger.Receipt, error) {
	if !c.IsReachable(ctx) {
		return nil, appledger.NewAnchorError(appledger.ErrUnreachable, "", nil)
	}

	txHash, err := c.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	return c.WaitReceipt(ctx, txHash)
}

func (c *EthClient) Submit(ctx context.Context, payload []byte) (string, error) {
	if c.signer == nil {
		return "", appledger.NewAnchorError(appledger.ErrSubmission, "", errors.New("no signing key configured"))
	}

	data, err := c.contractABI.Pack(publishMethod, string(payload))
	if err != nil {
		return "", appledger.NewAnchorError(appledger.ErrSubmission, "", fmt.Errorf("encode call: %w", err))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", appledger.NewAnchorError(appledger.ErrSubmission, "", fmt.Errorf("rate limit: %w", err))
	}

	chainID, err := c.resolveChainID(ctx)
	if err != nil {
		return "", appledger.NewAnchorError(appledger.ErrUnreachable, "", err)
	}

	lockKey := constants.RedisKeyNonceLock + ":" + strings.ToLower(c.signer.Address().Hex())
	release, err := c.locker.Acquire(ctx, lockKey, nonceLockTTL)
	if err != nil {
		return "", appledger.NewAnchorError(appledger.ErrSubmission, "", fmt.Errorf("nonce lock: %w", err))
	}
	defer func() {
		// release even if ctx is already done
		if err := release(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warnw("failed to release nonce lock", "error", err)
		}
	}()

	var sent *types.Transaction
	backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(sendRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		tx, err := c.buildAndSign(ctx, chainID, data)
		if err != nil {
			return err
		}

		err = c.backend.SendTransaction(ctx, tx)
		switch {
		case err == nil, isAlreadyKnown(err):
			sent = tx
			return nil
		case isNonceConflict(err):
			c.logger.Warnw("ledger nonce conflict, retrying", "nonce", tx.Nonce(), "error", err)
			return retry.RetryableError(err)
		default:
			return err
		}
	})
	if err != nil {
		return "", appledger.NewAnchorError(appledger.ErrSubmission, "", err)
	}

	txHash := appledger.NormalizeTxHash(sent.Hash().Hex())
	c.logger.Infow("ledger transaction sent",
		"tx_hash", txHash,
		"nonce", sent.Nonce(),
		"payload_bytes", len(payload),
	)
	return txHash, nil
}

func (c *EthClient) buildAndSign(ctx context.Context, chainID *big.Int, data []byte) (*types.Transaction, error) {
	from := c.signer.Address()

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Value:    big.NewInt(0),
		Gas:      c.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := c.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// WaitReceipt polls until the receipt appears, ctx ends or the confirmation
// timeout passes, whichever is first.
func (c *EthClient) WaitReceipt(ctx context.Context, txHash string) (*appledger.Receipt, error) {
	txHash = appledger.NormalizeTxHash(txHash)
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.Receipt(ctx, txHash)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				c.logger.Debugw("receipt lookup failed, will retry", "tx_hash", txHash, "error", err)
			}
		case receipt != nil:
			if !receipt.Success {
				return receipt, appledger.NewAnchorError(appledger.ErrReverted, txHash, nil)
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, appledger.NewAnchorError(appledger.ErrConfirmationTimeout, txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *EthClient) Receipt(ctx context.Context, txHash string) (*appledger.Receipt, error) {
	r, err := c.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch receipt %s: %w", txHash, err)
	}
	return toReceipt(r), nil
}

func (c *EthClient) resolveChainID(ctx context.Context) (*big.Int, error) {
	c.chainMu.Lock()
	defer c.chainMu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

func toReceipt(r *types.Receipt) *appledger.Receipt {
	out := &appledger.Receipt{
		TxHash:    appledger.NormalizeTxHash(r.TxHash.Hex()),
		Success:   r.Status == types.ReceiptStatusSuccessful,
		BlockHash: appledger.NormalizeTxHash(r.BlockHash.Hex()),
		GasUsed:   r.GasUsed,
		TxIndex:   r.TransactionIndex,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out
}

func isNonceConflict(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "replacement transaction underpriced")
}

func isAlreadyKnown(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already known")
}

var _ appledger.Client = (*EthClient)(nil)
