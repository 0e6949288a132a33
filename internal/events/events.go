package events

import (
	"context"
	"errors"

	"wave-portal/internal/interfaces"
	"wave-portal/internal/models"

	"github.com/rs/zerolog"
)

// LogEmitter logs every wave and forwards it to the wrapped emitter
type LogEmitter struct {
	WrappedEmitter interfaces.RecordEmitter
	Logger         *zerolog.Logger
	// ExplorerBaseURL links the sender's address page when set
	ExplorerBaseURL string
}

// EmitRecord logs the wave and forwards it to the wrapped emitter
func (d *LogEmitter) EmitRecord(ctx context.Context, record models.Record) error {
	entry := d.Logger.Info().
		Str("sender", record.Sender).
		Time("timestamp", record.Timestamp).
		Str("message", record.Message)
	if d.ExplorerBaseURL != "" {
		entry = entry.Str("explorer", d.ExplorerBaseURL+record.Sender)
	}
	entry.Msg("Wave")

	if d.WrappedEmitter != nil {
		return d.WrappedEmitter.EmitRecord(ctx, record)
	}
	return nil
}

// MultiEmitter fans a record out to every emitter. All emitters are tried;
// their errors are joined.
type MultiEmitter []interfaces.RecordEmitter

func (m MultiEmitter) EmitRecord(ctx context.Context, record models.Record) error {
	var errs []error
	for _, e := range m {
		if err := e.EmitRecord(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
