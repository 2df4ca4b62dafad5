// Package ledger is the typed client for the four remote contract services
// (token, vault, order book, document registry). Reads go through eth_call;
// writes are signed with the session key and returned as PendingTx handles.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/config"
	"tradedesk/apps/tradedesk/internal/model"
)

const (
	// Default gas limit for contract writes
	DefaultGasLimit = uint64(300000)

	// Fallback when a token's decimals() call cannot be made
	DefaultDecimals = 18
)

// Client is the ledger session: one RPC connection plus one signing key on
// a single designated network.
type Client struct {
	eth     *ethclient.Client
	logger  *zap.Logger
	chainID *big.Int
	key     *ecdsa.PrivateKey
	account common.Address

	erc20ABI     abi.ABI
	vaultABI     abi.ABI
	orderBookABI abi.ABI
	docRegABI    abi.ABI

	vaultAddr     common.Address
	orderBookAddr common.Address
	docRegAddr    common.Address

	mu       sync.RWMutex
	decimals map[common.Address]int // per-session cache
}

// Dial connects to the RPC endpoint, verifies the network and the presence
// of contract code at the configured addresses, and loads the signing key.
func Dial(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrNoSession, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}
	if chainID.Uint64() != cfg.ChainID {
		return nil, fmt.Errorf("%w: connected to chain %d, want %d", model.ErrWrongNetwork, chainID.Uint64(), cfg.ChainID)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session key: %w", err)
	}

	c := &Client{
		eth:           eth,
		logger:        logger,
		chainID:       chainID,
		key:           key,
		account:       crypto.PubkeyToAddress(key.PublicKey),
		vaultAddr:     common.HexToAddress(cfg.VaultAddress),
		orderBookAddr: common.HexToAddress(cfg.OrderBookAddress),
		docRegAddr:    common.HexToAddress(cfg.DocRegistryAddress),
		decimals:      make(map[common.Address]int),
	}

	for name, raw := range map[string]string{
		"erc20":     ERC20ABI,
		"vault":     VaultABI,
		"orderBook": OrderBookABI,
		"docReg":    DocRegistryABI,
	} {
		parsed, err := abi.JSON(strings.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s ABI: %w", name, err)
		}
		switch name {
		case "erc20":
			c.erc20ABI = parsed
		case "vault":
			c.vaultABI = parsed
		case "orderBook":
			c.orderBookABI = parsed
		case "docReg":
			c.docRegABI = parsed
		}
	}

	for label, addr := range map[string]common.Address{
		"vault":             c.vaultAddr,
		"order book":        c.orderBookAddr,
		"document registry": c.docRegAddr,
	} {
		if err := c.checkCode(ctx, label, addr); err != nil {
			return nil, err
		}
	}

	logger.Info("Ledger session established",
		zap.String("account", c.account.Hex()),
		zap.Uint64("chain_id", chainID.Uint64()))

	return c, nil
}

// checkCode verifies there is contract bytecode at the address.
func (c *Client) checkCode(ctx context.Context, label string, addr common.Address) error {
	code, err := c.eth.CodeAt(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("failed to read code at %s (%s): %w", label, addr.Hex(), err)
	}
	if len(code) == 0 {
		return fmt.Errorf("no contract code at %s address %s on this network", label, addr.Hex())
	}
	return nil
}

// Account returns the session's signing address.
func (c *Client) Account() common.Address {
	return c.account
}

// OrderBookAddress returns the order book contract address, the spender for
// all order-related approvals.
func (c *Client) OrderBookAddress() common.Address {
	return c.orderBookAddr
}

// VaultAddress returns the vault contract address.
func (c *Client) VaultAddress() common.Address {
	return c.vaultAddr
}

func (c *Client) Close() {
	c.eth.Close()
}

// call packs, issues and unpacks a read-only contract call.
func (c *Client) call(ctx context.Context, to common.Address, contractABI abi.ABI, out interface{}, method string, args ...interface{}) error {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}

	if err := contractABI.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return nil
}

// send signs and submits a state-changing call, returning its pending handle.
func (c *Client) send(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (PendingTx, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.account)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce from blockchain: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price from blockchain: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), DefaultGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s transaction: %w", method, err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send %s transaction: %w", method, err)
	}

	c.logger.Info("Submitted transaction",
		zap.String("method", method),
		zap.String("to", to.Hex()),
		zap.String("tx_hash", signed.Hash().Hex()))

	return &pendingTx{tx: signed, eth: c.eth}, nil
}

// ---- Token service ----

// Decimals returns the token's decimal count, cached per address for the
// session. Falls back to DefaultDecimals when the call cannot be made.
func (c *Client) Decimals(ctx context.Context, token common.Address) int {
	c.mu.RLock()
	d, ok := c.decimals[token]
	c.mu.RUnlock()
	if ok {
		return d
	}

	var raw uint8
	if err := c.call(ctx, token, c.erc20ABI, &raw, "decimals"); err != nil {
		c.logger.Warn("Failed to read token decimals, assuming default",
			zap.String("token", token.Hex()), zap.Error(err))
		return DefaultDecimals
	}

	c.mu.Lock()
	c.decimals[token] = int(raw)
	c.mu.Unlock()
	return int(raw)
}

func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := c.call(ctx, token, c.erc20ABI, &balance, "balanceOf", owner); err != nil {
		return nil, err
	}
	return balance, nil
}

func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var remaining *big.Int
	if err := c.call(ctx, token, c.erc20ABI, &remaining, "allowance", owner, spender); err != nil {
		return nil, err
	}
	return remaining, nil
}

func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (PendingTx, error) {
	return c.send(ctx, token, c.erc20ABI, "approve", spender, amount)
}

// ---- Vault service ----

func (c *Client) VaultToken(ctx context.Context) (common.Address, error) {
	var token common.Address
	if err := c.call(ctx, c.vaultAddr, c.vaultABI, &token, "token"); err != nil {
		return common.Address{}, err
	}
	return token, nil
}

func (c *Client) VaultBalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var shares *big.Int
	if err := c.call(ctx, c.vaultAddr, c.vaultABI, &shares, "balanceOf", owner); err != nil {
		return nil, err
	}
	return shares, nil
}

func (c *Client) Deposit(ctx context.Context, amount *big.Int) (PendingTx, error) {
	return c.send(ctx, c.vaultAddr, c.vaultABI, "deposit", amount)
}

func (c *Client) Withdraw(ctx context.Context, amount *big.Int) (PendingTx, error) {
	return c.send(ctx, c.vaultAddr, c.vaultABI, "withdraw", amount)
}

// ---- Order book service ----

func (c *Client) NextOrderID(ctx context.Context) (uint64, error) {
	var next *big.Int
	if err := c.call(ctx, c.orderBookAddr, c.orderBookABI, &next, "nextOrderId"); err != nil {
		return 0, err
	}
	return next.Uint64(), nil
}

// OrderAt fetches one order slot. ok is false when the slot was never
// written (the contract returns an all-zero tuple).
func (c *Client) OrderAt(ctx context.Context, id uint64) (model.Order, bool, error) {
	var raw struct {
		Buyer       common.Address
		Seller      common.Address
		PayToken    common.Address
		PayAmount   *big.Int
		AssetToken  common.Address
		AssetAmount *big.Int
		Filled      bool
		Canceled    bool
	}
	if err := c.call(ctx, c.orderBookAddr, c.orderBookABI, &raw, "orders", new(big.Int).SetUint64(id)); err != nil {
		return model.Order{}, false, err
	}

	order := model.Order{
		ID:          id,
		Buyer:       raw.Buyer,
		Seller:      raw.Seller,
		PayToken:    raw.PayToken,
		PayAmount:   raw.PayAmount,
		AssetToken:  raw.AssetToken,
		AssetAmount: raw.AssetAmount,
		Filled:      raw.Filled,
		Canceled:    raw.Canceled,
	}
	if order.Absent() {
		return model.Order{}, false, nil
	}
	return order, true, nil
}

func (c *Client) CreateOrder(ctx context.Context, seller, payToken common.Address, payAmount *big.Int, assetToken common.Address, assetAmount *big.Int) (PendingTx, error) {
	return c.send(ctx, c.orderBookAddr, c.orderBookABI, "createOrder", seller, payToken, payAmount, assetToken, assetAmount)
}

func (c *Client) CancelOrder(ctx context.Context, id uint64) (PendingTx, error) {
	return c.send(ctx, c.orderBookAddr, c.orderBookABI, "cancelOrder", new(big.Int).SetUint64(id))
}

func (c *Client) FillOrder(ctx context.Context, id uint64) (PendingTx, error) {
	return c.send(ctx, c.orderBookAddr, c.orderBookABI, "fillOrder", new(big.Int).SetUint64(id))
}

// ---- Document registry service ----

func (c *Client) DocCount(ctx context.Context, orderID uint64) (uint64, error) {
	var count *big.Int
	if err := c.call(ctx, c.docRegAddr, c.docRegABI, &count, "getDocsCount", new(big.Int).SetUint64(orderID)); err != nil {
		return 0, err
	}
	return count.Uint64(), nil
}

func (c *Client) DocAt(ctx context.Context, orderID, index uint64) (model.Document, error) {
	var raw struct {
		DocType    uint8
		Sha256Hash [32]byte
		Uri        string
		Uploader   common.Address
		UploadedAt uint64
		Accepted   bool
		AcceptedBy common.Address
		Rejected   bool
	}
	if err := c.call(ctx, c.docRegAddr, c.docRegABI, &raw, "getDoc",
		new(big.Int).SetUint64(orderID), new(big.Int).SetUint64(index)); err != nil {
		return model.Document{}, err
	}

	return model.Document{
		OrderID:    orderID,
		Index:      index,
		Type:       model.DocType(raw.DocType),
		Hash:       common.Hash(raw.Sha256Hash),
		URI:        raw.Uri,
		Uploader:   raw.Uploader,
		UploadedAt: raw.UploadedAt,
		Accepted:   raw.Accepted,
		AcceptedBy: raw.AcceptedBy,
		Rejected:   raw.Rejected,
	}, nil
}

func (c *Client) IsAccepted(ctx context.Context, orderID uint64, docType model.DocType) (bool, error) {
	var accepted bool
	if err := c.call(ctx, c.docRegAddr, c.docRegABI, &accepted, "isAccepted",
		new(big.Int).SetUint64(orderID), uint8(docType)); err != nil {
		return false, err
	}
	return accepted, nil
}

func (c *Client) RegisterDocument(ctx context.Context, orderID uint64, docType model.DocType, hash common.Hash, uri string) (PendingTx, error) {
	return c.send(ctx, c.docRegAddr, c.docRegABI, "registerDocument",
		new(big.Int).SetUint64(orderID), uint8(docType), [32]byte(hash), uri)
}

func (c *Client) AcceptDocument(ctx context.Context, orderID, index uint64) (PendingTx, error) {
	return c.send(ctx, c.docRegAddr, c.docRegABI, "acceptDocument",
		new(big.Int).SetUint64(orderID), new(big.Int).SetUint64(index))
}

func (c *Client) RejectDocument(ctx context.Context, orderID, index uint64) (PendingTx, error) {
	return c.send(ctx, c.docRegAddr, c.docRegABI, "rejectDocument",
		new(big.Int).SetUint64(orderID), new(big.Int).SetUint64(index))
}
