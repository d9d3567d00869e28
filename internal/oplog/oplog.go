// Package oplog writes booking operation outcomes to a zap logger.
package oplog

import (
	"context"
	"errors"

	"github.com/MarkoPoloResearchLab/terramarya/pkg/booking"
	"go.uber.org/zap"
)

const operationMessage = "booking operation"

// Logger implements booking.OperationLogger.
type Logger struct {
	logger *zap.Logger
}

// New returns a Logger. A nil zap logger discards every entry.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

// LogOperation emits Info for successful operations, Warn for recovered
// persistence corruption and Error for everything else.
func (logger *Logger) LogOperation(_ context.Context, entry booking.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.Key != "" {
		fields = append(fields, zap.String("key", string(entry.Key)))
	}
	if entry.VenueID != 0 {
		fields = append(fields, zap.Int("venue_id", entry.VenueID.Int()))
	}
	if entry.ReservationID != "" {
		fields = append(fields, zap.String("reservation_id", entry.ReservationID))
	}
	if !entry.Date.IsZero() {
		fields = append(fields, zap.String("date", entry.Date.String()))
	}
	if !entry.Time.IsZero() {
		fields = append(fields, zap.String("time", entry.Time.String()))
	}
	if entry.Points != 0 {
		fields = append(fields, zap.Int("points", entry.Points))
	}
	switch {
	case entry.Error == nil:
		logger.logger.Info(operationMessage, fields...)
	case errors.Is(entry.Error, booking.ErrPersistenceCorrupt):
		logger.logger.Warn(operationMessage, append(fields, zap.Error(entry.Error))...)
	default:
		logger.logger.Error(operationMessage, append(fields, zap.Error(entry.Error))...)
	}
}
