package booking

import (
	"context"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a booking operation and its outcome.
type OperationLog struct {
	Operation     string
	Key           StorageKey
	VenueID       VenueID
	ReservationID string
	Date          SlotDate
	Time          SlotTime
	Points        int
	Status        string
	Error         error
}

// ReservationPublisher is notified after a reservation has been committed.
type ReservationPublisher interface {
	PublishReservationConfirmed(ctx context.Context, reservation Reservation) error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithReservationPublisher wires a publisher for confirmed reservations.
func WithReservationPublisher(publisher ReservationPublisher) ServiceOption {
	return func(service *Service) {
		service.publisher = publisher
	}
}

// WithIDGenerator replaces the reservation id generator.
func WithIDGenerator(generate func() (string, error)) ServiceOption {
	return func(service *Service) {
		if generate != nil {
			service.newID = generate
		}
	}
}

// WithDefaultProfile sets the profile used when none is persisted.
func WithDefaultProfile(profile LoyaltyProfile) ServiceOption {
	return func(service *Service) {
		service.defaultProfile = profile
	}
}

// WithVenues replaces the venue catalog.
func WithVenues(venues []Venue) ServiceOption {
	return func(service *Service) {
		service.catalog = newCatalog(venues)
	}
}

// WithPublishTimeout bounds how long a publisher may take per reservation.
func WithPublishTimeout(timeout time.Duration) ServiceOption {
	return func(service *Service) {
		if timeout > 0 {
			service.publishTimeout = timeout
		}
	}
}
