package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wave-portal/internal/interfaces"
	"wave-portal/internal/metrics"
	"wave-portal/internal/models"
	"wave-portal/internal/validation"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

//go:embed WavePortal.abi
var wavePortalABI string

const newWaveEvent = "NewWave"

var _ interfaces.Ledger = (*Client)(nil)

// Backend is the node connection the client needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client is the typed binding to the WavePortal contract.
type Client struct {
	address      common.Address
	abi          abi.ABI
	contract     *bind.BoundContract
	backend      Backend
	sender       Sender
	pollInterval time.Duration

	// maxBackoff caps the wait between failed resubscription attempts
	maxBackoff time.Duration
	logger     *zerolog.Logger
}

// NewWave is the decoded NewWave event.
type NewWave struct {
	From      common.Address
	Timestamp *big.Int
	Message   string
	Raw       types.Log
}

// ParseABI returns the embedded WavePortal ABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(wavePortalABI))
}

// NewClient binds the contract at address. pollInterval drives receipt
// polling and the log poller used when the backend has no subscriptions.
func NewClient(address common.Address, backend Backend, sender Sender, pollInterval time.Duration, logger *zerolog.Logger) (*Client, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &Client{
		address:      address,
		abi:          parsed,
		contract:     bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:      backend,
		sender:       sender,
		pollInterval: pollInterval,
		maxBackoff:   30 * time.Second,
		logger:       logger,
	}, nil
}

// Address returns the contract address.
func (c *Client) Address() common.Address {
	return c.address
}

// GetTotalCount reads getTotalWaves.
func (c *Client) GetTotalCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getTotalWaves"); err != nil {
		return 0, c.fault("getTotalWaves", err)
	}
	if len(out) == 0 {
		return 0, c.fault("getTotalWaves", errors.New("empty result"))
	}

	total, ok := out[0].(*big.Int)
	if !ok || !total.IsUint64() {
		return 0, c.fault("getTotalWaves", fmt.Errorf("unexpected result %v", out[0]))
	}
	return total.Uint64(), nil
}

// GetAllRecords reads getAllWaves in contract order.
func (c *Client) GetAllRecords(ctx context.Context) ([]models.RawRecord, error) {
	return c.getAllRecords(ctx, nil)
}

// Snapshot reads getAllWaves at the current head and returns that block
// number. Events from later blocks are exactly the ones the snapshot misses.
func (c *Client) Snapshot(ctx context.Context) ([]models.RawRecord, uint64, error) {
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, 0, c.fault("getAllWaves", err)
	}
	records, err := c.getAllRecords(ctx, new(big.Int).SetUint64(head))
	if err != nil {
		return nil, 0, err
	}
	return records, head, nil
}

func (c *Client) getAllRecords(ctx context.Context, block *big.Int) (records []models.RawRecord, err error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx, BlockNumber: block}
	if err := c.contract.Call(opts, &out, "getAllWaves"); err != nil {
		return nil, c.fault("getAllWaves", err)
	}
	if len(out) == 0 {
		return nil, c.fault("getAllWaves", errors.New("empty result"))
	}

	// abi.ConvertType panics on a shape mismatch.
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, c.fault("getAllWaves", fmt.Errorf("unexpected result: %v", r))
		}
	}()
	converted := *abi.ConvertType(out[0], new([]models.RawRecord)).(*[]models.RawRecord)
	return converted, nil
}

// Submit sends wave(message) through the configured sender and returns as
// soon as the transaction is broadcast.
func (c *Client) Submit(ctx context.Context, message string, opts interfaces.SubmitOpts) (interfaces.TransactionHandle, error) {
	if err := validation.ValidateMessage(message); err != nil {
		return nil, c.fault("wave", err)
	}
	if c.sender == nil {
		return nil, c.fault("wave", errors.New("no transaction sender configured"))
	}

	data, err := c.abi.Pack("wave", message)
	if err != nil {
		return nil, c.fault("wave", fmt.Errorf("failed to pack call: %w", err))
	}

	hash, err := c.sender.Send(ctx, c.address, data, opts.GasLimit)
	if err != nil {
		return nil, c.fault("wave", err)
	}

	c.logger.Info().
		Str("txHash", hash.Hex()).
		Uint64("gasLimit", opts.GasLimit).
		Msg("Mining...")

	return &txHandle{
		hash:         hash,
		backend:      c.backend,
		pollInterval: c.pollInterval,
		logger:       c.logger,
	}, nil
}

// ParseNewWave decodes a NewWave log emitted by the contract.
func (c *Client) ParseNewWave(log types.Log) (*NewWave, error) {
	ev := new(NewWave)
	if err := c.contract.UnpackLog(ev, newWaveEvent, log); err != nil {
		return nil, err
	}
	ev.Raw = log
	return ev, nil
}

func (c *Client) fault(op string, err error) error {
	metrics.LedgerFaultsTotal.WithLabelValues(op).Inc()
	return models.NewRemoteCallError(op, err)
}
