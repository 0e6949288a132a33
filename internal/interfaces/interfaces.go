package interfaces

import (
	"context"
	"math/big"

	"wave-portal/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// WalletProvider is the host wallet: something that manages the user's
// accounts and signs on their behalf.
type WalletProvider interface {
	// Accounts lists already authorized accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)

	// RequestAccounts prompts the user to authorize account access.
	RequestAccounts(ctx context.Context) ([]string, error)
}

// NewRecordFunc receives a NewWave event payload and the block that emitted
// it. blockNumber is 0 when the source does not know it.
type NewRecordFunc func(sender common.Address, rawTimestamp *big.Int, message string, blockNumber uint64)

// Subscription is a live event registration.
type Subscription interface {
	Unsubscribe()
	Err() <-chan error
}

// TransactionHandle is a submitted, not yet confirmed transaction.
type TransactionHandle interface {
	Hash() common.Hash

	// Wait blocks until the transaction is mined. A reverted transaction is
	// reported as an error.
	Wait(ctx context.Context) error
}

// SubmitOpts carries the fixed client-side transaction bounds.
type SubmitOpts struct {
	GasLimit uint64
}

// Ledger is the typed view of the WavePortal contract.
type Ledger interface {
	GetTotalCount(ctx context.Context) (uint64, error)
	GetAllRecords(ctx context.Context) ([]models.RawRecord, error)

	// Snapshot is GetAllRecords read at a fixed block, which it returns.
	Snapshot(ctx context.Context) ([]models.RawRecord, uint64, error)

	Submit(ctx context.Context, message string, opts SubmitOpts) (TransactionHandle, error)

	// Subscribe delivers NewWave events for the lifetime of ctx. Events come
	// from blocks after the head at the time of the call.
	Subscribe(ctx context.Context, onNewRecord NewRecordFunc) (Subscription, error)
}

// RecordEmitter receives every record appended to the history.
type RecordEmitter interface {
	EmitRecord(ctx context.Context, record models.Record) error
}
