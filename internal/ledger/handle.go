package ledger

import (
	"context"
	"errors"
	"time"

	"wave-portal/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// ErrReverted is returned by Wait when the transaction was mined but failed.
var ErrReverted = errors.New("transaction reverted")

type receiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// txHandle tracks a broadcast transaction until its receipt appears.
type txHandle struct {
	hash         common.Hash
	backend      receiptReader
	pollInterval time.Duration
	logger       *zerolog.Logger
}

func (h *txHandle) Hash() common.Hash {
	return h.hash
}

// Wait polls for the receipt. There is no timeout other than ctx.
func (h *txHandle) Wait(ctx context.Context) error {
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := h.backend.TransactionReceipt(ctx, h.hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return models.NewRemoteCallError("wave", ErrReverted)
			}
			h.logger.Info().
				Str("txHash", h.hash.Hex()).
				Uint64("blockNumber", receipt.BlockNumber.Uint64()).
				Msg("Mined")
			return nil
		case errors.Is(err, ethereum.NotFound):
			h.logger.Debug().Str("txHash", h.hash.Hex()).Msg("Transaction not mined yet")
		default:
			return models.NewRemoteCallError("wave", err)
		}

		select {
		case <-ctx.Done():
			return models.NewRemoteCallError("wave", ctx.Err())
		case <-ticker.C:
		}
	}
}
