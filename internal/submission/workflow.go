package submission

import (
	"context"
	"sync"
	"time"

	"wave-portal/internal/interfaces"
	"wave-portal/internal/metrics"
	"wave-portal/internal/models"

	"github.com/rs/zerolog"
)

// Workflow composes, sends and tracks one wave at a time. The confirmed wave
// is not added to the history here; it arrives through the NewWave stream.
type Workflow struct {
	ledger      interfaces.Ledger
	hasProvider func() bool
	gasLimit    uint64
	logger      *zerolog.Logger

	mu      sync.Mutex
	pending models.PendingSubmission
}

// NewWorkflow creates a workflow in the Composing phase with an empty message.
// hasProvider reports whether a wallet able to sign is present.
func NewWorkflow(ledger interfaces.Ledger, hasProvider func() bool, gasLimit uint64, logger *zerolog.Logger) *Workflow {
	return &Workflow{
		ledger:      ledger,
		hasProvider: hasProvider,
		gasLimit:    gasLimit,
		logger:      logger,
	}
}

// SetMessage edits the composed text. It is ignored while a submission is in
// flight.
func (w *Workflow) SetMessage(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.Phase == models.PhaseSubmitted {
		w.logger.Warn().Msg("Ignoring edit while a wave is being mined")
		return
	}
	w.pending = models.PendingSubmission{Message: message, Phase: models.PhaseComposing}
}

// Pending returns a copy of the current submission state.
func (w *Workflow) Pending() models.PendingSubmission {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// SubmitWave sends the composed message and blocks until it is confirmed or
// fails. On success the composed text is cleared; on failure it is kept so
// the user can retry. A call made while another wave is in flight is
// rejected and reports PhaseSubmitted.
func (w *Workflow) SubmitWave(ctx context.Context) models.Phase {
	if w.hasProvider != nil && !w.hasProvider() {
		return w.fail(models.ErrProviderUnavailable, "No wallet provider present, cannot wave")
	}

	w.mu.Lock()
	if w.pending.Phase == models.PhaseSubmitted {
		w.mu.Unlock()
		w.logger.Warn().Err(models.ErrSubmissionInFlight).Msg("Wave not sent")
		return models.PhaseSubmitted
	}
	message := w.pending.Message
	w.pending = models.PendingSubmission{Message: message, Phase: models.PhaseSubmitted}
	w.mu.Unlock()

	w.logTotal(ctx)

	started := time.Now()
	handle, err := w.ledger.Submit(ctx, message, interfaces.SubmitOpts{GasLimit: w.gasLimit})
	if err != nil {
		return w.fail(err, "Failed to send wave")
	}

	txHash := handle.Hash().Hex()
	w.mu.Lock()
	w.pending.TxHash = txHash
	w.mu.Unlock()

	if err := handle.Wait(ctx); err != nil {
		return w.fail(err, "Wave was not confirmed")
	}

	w.mu.Lock()
	w.pending = models.PendingSubmission{Phase: models.PhaseConfirmed, TxHash: txHash}
	w.mu.Unlock()

	metrics.ConfirmationLatency.Observe(time.Since(started).Seconds())
	metrics.SubmissionsTotal.WithLabelValues(models.PhaseConfirmed.String()).Inc()
	w.logger.Info().Str("txHash", txHash).Msg("Mined --")

	w.logTotal(ctx)
	return models.PhaseConfirmed
}

func (w *Workflow) fail(err error, msg string) models.Phase {
	w.mu.Lock()
	w.pending.Phase = models.PhaseFailed
	w.pending.Err = err.Error()
	txHash := w.pending.TxHash
	w.mu.Unlock()

	metrics.SubmissionsTotal.WithLabelValues(models.PhaseFailed.String()).Inc()
	w.logger.Error().Err(err).Str("txHash", txHash).Msg(msg)
	return models.PhaseFailed
}

// logTotal is diagnostic only; a failed read never blocks the submission.
func (w *Workflow) logTotal(ctx context.Context) {
	total, err := w.ledger.GetTotalCount(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to retrieve total wave count")
		return
	}
	w.logger.Info().Uint64("total", total).Msg("Retrieved total wave count")
}
