package ledger

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"wave-portal/internal/interfaces"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// endOfBlock as a log index means every log of the block was delivered.
const endOfBlock = ^uint(0)

// Subscribe registers onNewRecord for every NewWave emitted after the current
// head. It uses a push subscription when the backend supports one and polls
// for logs otherwise. A dropped subscription is re-established with backoff
// and the blocks mined meanwhile are backfilled, so each log is delivered
// exactly once for the lifetime of ctx. The callback runs on the
// subscription's goroutine, one event at a time, in log order.
func (c *Client) Subscribe(ctx context.Context, onNewRecord interfaces.NewRecordFunc) (interfaces.Subscription, error) {
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, c.fault("subscribe", err)
	}

	f := &follower{
		client:      c,
		ctx:         ctx,
		onNewRecord: onNewRecord,
		lastBlock:   head,
		lastIndex:   endOfBlock,
	}
	first, err := f.open(ctx, false)
	if err != nil {
		return nil, c.fault("subscribe", err)
	}

	return event.ResubscribeErr(c.maxBackoff, func(attemptCtx context.Context, lastErr error) (event.Subscription, error) {
		if first != nil {
			sub := first
			first = nil
			return sub, nil
		}
		if ctx.Err() != nil {
			return ended(), nil
		}

		c.logger.Warn().
			Err(lastErr).
			Uint64("fromBlock", f.resumeBlock()).
			Msg("Resubscribing to NewWave events")
		sub, err := f.open(attemptCtx, true)
		if err != nil {
			c.logger.Error().Err(c.fault("subscribe", err)).Msg("Failed to resubscribe to NewWave events")
			return nil, err
		}
		return sub, nil
	}), nil
}

// ended is a subscription that is already over.
func ended() event.Subscription {
	return event.NewSubscription(func(<-chan struct{}) error { return nil })
}

// follower delivers NewWave logs in chain order, each at most once, across
// any number of underlying subscriptions. lastBlock/lastIndex is the
// position of the newest delivered log.
type follower struct {
	client      *Client
	ctx         context.Context
	onNewRecord interfaces.NewRecordFunc

	mu        sync.Mutex
	lastBlock uint64
	lastIndex uint
}

// open starts one underlying subscription. The returned subscription ends
// with nil only when the session is over; any other end is an error and
// triggers a resubscription.
func (f *follower) open(ctx context.Context, resumed bool) (event.Subscription, error) {
	c := f.client

	logs, sub, err := c.contract.WatchLogs(&bind.WatchOpts{Context: f.ctx}, newWaveEvent)
	if errors.Is(err, gethrpc.ErrNotificationsUnsupported) {
		c.logger.Info().
			Dur("interval", c.pollInterval).
			Msg("Backend has no subscriptions, polling for NewWave logs")
		return f.poll(), nil
	}
	if err != nil {
		return nil, err
	}

	if resumed {
		// Logs mined while no subscription was live. Logs the new
		// subscription also delivers are skipped by the cursor.
		head, err := c.backend.BlockNumber(ctx)
		if err == nil {
			err = f.scan(ctx, head)
		}
		if err != nil {
			sub.Unsubscribe()
			return nil, err
		}
	}

	c.logger.Info().Str("contract", c.address.Hex()).Msg("Subscribed to NewWave events")

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				f.deliver(log)
			case err := <-sub.Err():
				if err != nil {
					c.logger.Error().Err(err).Msg("NewWave subscription dropped")
				}
				return err
			case <-quit:
				return nil
			case <-f.ctx.Done():
				return nil
			}
		}
	}), nil
}

// poll follows new blocks on a ticker and filters each new range for NewWave
// logs, starting after the last delivered one.
func (f *follower) poll() event.Subscription {
	c := f.client

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-quit:
				return nil
			case <-f.ctx.Done():
				return nil
			case <-ticker.C:
				current, err := c.backend.BlockNumber(f.ctx)
				if err != nil {
					c.logger.Error().Err(err).Msg("Failed to get current block")
					continue
				}
				if err := f.scan(f.ctx, current); err != nil {
					c.logger.Error().
						Err(err).
						Uint64("fromBlock", f.resumeBlock()).
						Uint64("toBlock", current).
						Msg("Failed to filter NewWave logs")
				}
			}
		}
	})
}

// scan delivers the NewWave logs from the resume block through to and marks
// the range as fully delivered.
func (f *follower) scan(ctx context.Context, to uint64) error {
	c := f.client

	from := f.resumeBlock()
	if to < from {
		return nil
	}

	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.address},
		Topics:    [][]common.Hash{{c.abi.Events[newWaveEvent].ID}},
	})
	if err != nil {
		return err
	}

	for _, log := range logs {
		f.deliver(log)
	}

	f.mu.Lock()
	if to >= f.lastBlock {
		f.lastBlock, f.lastIndex = to, endOfBlock
	}
	f.mu.Unlock()
	return nil
}

// resumeBlock is the first block that may hold an undelivered log.
func (f *follower) resumeBlock() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastIndex == endOfBlock {
		return f.lastBlock + 1
	}
	return f.lastBlock
}

// claim moves the cursor to log and reports whether log was not delivered
// before.
func (f *follower) claim(log types.Log) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if log.BlockNumber < f.lastBlock {
		return false
	}
	if log.BlockNumber == f.lastBlock && (f.lastIndex == endOfBlock || log.Index <= f.lastIndex) {
		return false
	}
	f.lastBlock, f.lastIndex = log.BlockNumber, log.Index
	return true
}

func (f *follower) deliver(log types.Log) {
	c := f.client

	if log.Removed {
		// History is append-only; a reorged wave that is re-mined arrives again.
		c.logger.Warn().
			Str("txHash", log.TxHash.Hex()).
			Uint64("blockNumber", log.BlockNumber).
			Msg("Ignoring removed NewWave log")
		return
	}
	if !f.claim(log) {
		c.logger.Debug().
			Uint64("blockNumber", log.BlockNumber).
			Uint("logIndex", log.Index).
			Msg("Skipping NewWave log already delivered")
		return
	}

	ev, err := c.ParseNewWave(log)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("txHash", log.TxHash.Hex()).
			Msg("Failed to decode NewWave log")
		return
	}

	c.logger.Debug().
		Str("from", ev.From.Hex()).
		Str("txHash", log.TxHash.Hex()).
		Msg("NewWave")
	f.onNewRecord(ev.From, ev.Timestamp, ev.Message, log.BlockNumber)
}
