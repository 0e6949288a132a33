package history

import (
	"context"
	"math/big"
	"sync"
	"time"

	"wave-portal/internal/interfaces"
	"wave-portal/internal/metrics"
	"wave-portal/internal/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"
)

// Store is the ordered wave history. It is seeded once by a bulk fetch and
// afterwards only grows through live NewWave events. Once seeded, entries are
// never removed or reordered.
type Store struct {
	ledger  interfaces.Ledger
	emitter interfaces.RecordEmitter
	logger  *zerolog.Logger

	mu      sync.Mutex
	records []models.Record
	seeded  bool
	loading bool
	// seedBlock is the block the seed was read at; events from it or
	// earlier are already in the history.
	seedBlock uint64
	// events that arrive while the bulk fetch is in flight
	buffered []pendingEvent

	// subMu serializes registration without blocking event delivery.
	subMu sync.Mutex
	sub   interfaces.Subscription

	// subCtx outlives the Load call that registered the subscription.
	subCtx             context.Context
	resubscribeBackoff time.Duration
}

type pendingEvent struct {
	record models.Record
	block  uint64
}

// NewStore creates an empty history. emitter may be nil.
func NewStore(ledger interfaces.Ledger, emitter interfaces.RecordEmitter, logger *zerolog.Logger) *Store {
	return &Store{
		ledger:  ledger,
		emitter: emitter,
		logger:  logger,
		subCtx:  context.Background(),

		resubscribeBackoff: 30 * time.Second,
	}
}

// WithSubscriptionContext sets the context that bounds the live
// subscription's lifetime. Load's own context only bounds the bulk fetch.
func (s *Store) WithSubscriptionContext(ctx context.Context) *Store {
	s.subCtx = ctx
	return s
}

// Load registers the live subscription if it does not exist yet and, the
// first time it succeeds, seeds the history from the contract. Later calls do
// not refetch: the subscription already keeps the history current, and a
// refetch would duplicate waves delivered by events. Faults are logged and
// leave the history unchanged.
func (s *Store) Load(ctx context.Context) {
	s.ensureSubscribed()

	s.mu.Lock()
	if s.seeded || s.loading {
		s.mu.Unlock()
		s.logger.Debug().Msg("History already seeded, relying on live events")
		return
	}
	s.loading = true
	s.mu.Unlock()

	raw, block, err := s.ledger.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load wave history")
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return
	}

	seed := make([]models.Record, 0, len(raw))
	for _, r := range raw {
		seed = append(seed, s.newRecord(r.Waver.Hex(), r.Timestamp, r.Message))
	}

	s.mu.Lock()
	pending := dropSeen(seed, block, s.buffered)
	s.records = append(seed, pending...)
	s.buffered = nil
	s.seedBlock = block
	s.seeded = true
	s.loading = false
	size := len(s.records)
	s.mu.Unlock()

	metrics.WavesIngested.WithLabelValues("bulk").Add(float64(len(seed)))
	metrics.WavesIngested.WithLabelValues("event").Add(float64(len(pending)))
	metrics.HistorySize.Set(float64(size))

	for _, r := range seed {
		s.emit(ctx, r)
	}
	for _, r := range pending {
		s.emit(ctx, r)
	}

	s.logger.Info().
		Int("waves", len(seed)).
		Uint64("block", block).
		Int("mergedEvents", len(pending)).
		Msg("Loaded wave history")

	if total, err := s.ledger.GetTotalCount(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to retrieve total wave count")
	} else {
		s.logger.Info().Uint64("total", total).Msg("Retrieved total wave count")
	}
}

// ensureSubscribed registers the NewWave subscription at most once. A failed
// registration leaves the store unsubscribed so a later Load can retry. Once
// registered, a dropped subscription is re-established with backoff.
func (s *Store) ensureSubscribed() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.sub != nil {
		return
	}

	first, err := s.ledger.Subscribe(s.subCtx, s.OnEvent)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to subscribe to NewWave events")
		return
	}

	sub := event.ResubscribeErr(s.resubscribeBackoff, func(_ context.Context, lastErr error) (event.Subscription, error) {
		if first != nil {
			sub := first
			first = nil
			return sub, nil
		}
		if s.subCtx.Err() != nil {
			return event.NewSubscription(func(<-chan struct{}) error { return nil }), nil
		}

		s.logger.Warn().Err(lastErr).Msg("NewWave subscription dropped, resubscribing")
		next, err := s.ledger.Subscribe(s.subCtx, s.OnEvent)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to resubscribe to NewWave events")
			return nil, err
		}
		s.logger.Info().Msg("Resubscribed to NewWave events")
		return next, nil
	})
	s.sub = sub
	go s.watchSubscription(sub)
}

// watchSubscription forgets sub once it has ended for good, so the next Load
// subscribes again.
func (s *Store) watchSubscription(sub interfaces.Subscription) {
	<-sub.Err()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.sub == sub {
		s.sub = nil
		s.logger.Warn().Msg("NewWave subscription ended")
	}
}

// OnEvent appends the wave carried by a NewWave event. Events received before
// the history is seeded are held back and merged in arrival order once the
// seed is in place. Events from blocks the seed already covers are dropped.
// A zero blockNumber means the block is unknown.
func (s *Store) OnEvent(sender common.Address, rawTimestamp *big.Int, message string, blockNumber uint64) {
	s.add(s.newRecord(sender.Hex(), rawTimestamp, message), blockNumber)
}

func (s *Store) add(record models.Record, block uint64) {
	s.mu.Lock()
	if !s.seeded {
		s.buffered = append(s.buffered, pendingEvent{record: record, block: block})
		s.mu.Unlock()
		return
	}
	if coveredBySeed(block, s.seedBlock) {
		seedBlock := s.seedBlock
		s.mu.Unlock()
		s.logger.Debug().
			Uint64("blockNumber", block).
			Uint64("seedBlock", seedBlock).
			Msg("Skipping NewWave already in the history")
		return
	}
	s.records = append(s.records, record)
	size := len(s.records)
	s.mu.Unlock()

	metrics.WavesIngested.WithLabelValues("event").Inc()
	metrics.HistorySize.Set(float64(size))

	s.logger.Info().
		Str("from", record.Sender).
		Time("timestamp", record.Timestamp).
		Str("message", record.Message).
		Msg("NewWave")

	s.emit(s.subCtx, record)
}

func (s *Store) newRecord(sender string, rawTimestamp *big.Int, message string) models.Record {
	if _, err := models.ParseUnixSeconds(rawTimestamp); err != nil {
		s.logger.Warn().Err(err).Str("from", sender).Msg("Wave timestamp does not fit, using the epoch")
	}
	return models.NewRecord(sender, rawTimestamp, message)
}

func (s *Store) emit(ctx context.Context, record models.Record) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitRecord(ctx, record); err != nil {
		s.logger.Error().
			Err(err).
			Str("from", record.Sender).
			Msg("Error emitting wave")
	}
}

// Records returns a copy of the history in arrival order.
func (s *Store) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) Seeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

func (s *Store) Subscribed() bool {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return s.sub != nil
}

// Close ends the live subscription.
func (s *Store) Close() {
	s.subMu.Lock()
	sub := s.sub
	s.sub = nil
	s.subMu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// coveredBySeed reports whether an event from block is part of a seed read at
// seedBlock. Zero means unknown on either side.
func coveredBySeed(block, seedBlock uint64) bool {
	return block != 0 && seedBlock != 0 && block <= seedBlock
}

// dropSeen returns the buffered events that the seed read at seedBlock does
// not already contain, in arrival order. Events with a known block are decided
// by it. The rest are matched by structural identity against the tail of the
// seed, counting multiplicity, so two identical waves in the buffer against
// one in the seed keep one.
func dropSeen(seed []models.Record, seedBlock uint64, buffered []pendingEvent) []models.Record {
	if len(buffered) == 0 {
		return nil
	}
	used := make([]bool, len(seed))
	var out []models.Record
	for _, b := range buffered {
		if b.block != 0 && seedBlock != 0 {
			if !coveredBySeed(b.block, seedBlock) {
				out = append(out, b.record)
			}
			continue
		}
		matched := false
		// Events that raced the fetch can only be at the tail of the seed.
		for i := len(seed) - 1; i >= 0 && i >= len(seed)-len(buffered); i-- {
			if !used[i] && seed[i].Equal(b.record) {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, b.record)
		}
	}
	return out
}
