package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultPublishTimeout = 5 * time.Second

// Store persists booking state as JSON values under fixed keys.
type Store interface {
	Load(ctx context.Context, key StorageKey) ([]byte, bool, error)
	Save(ctx context.Context, key StorageKey, value []byte) error
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
}

// Service owns venues, reservations and the loyalty profile.
type Service struct {
	store          Store
	nowFn          func() time.Time
	logger         OperationLogger
	publisher      ReservationPublisher
	newID          func() (string, error)
	defaultProfile LoyaltyProfile
	catalog        catalog
	publishTimeout time.Duration

	writeMutex   sync.Mutex
	stateMutex   sync.RWMutex
	reservations []Reservation
	profile      LoyaltyProfile
}

// NewService wires a Service. Call Open before serving reads.
func NewService(store Store, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{
		store:          store,
		nowFn:          now,
		newID:          newReservationID,
		defaultProfile: DefaultLoyaltyProfile(),
		catalog:        newCatalog(DefaultVenues()),
		publishTimeout: defaultPublishTimeout,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	service.profile = service.defaultProfile
	return service, nil
}

// Open loads persisted state, seeding and saving demo data when none is usable.
func (service *Service) Open(ctx context.Context) error {
	return service.load(ctx, operationOpen, true)
}

// Refresh reloads persisted state written by other instances sharing the store.
func (service *Service) Refresh(ctx context.Context) error {
	return service.load(ctx, operationRefresh, false)
}

func (service *Service) load(ctx context.Context, operation string, persistFallback bool) error {
	service.writeMutex.Lock()
	defer service.writeMutex.Unlock()

	var (
		reservations []Reservation
		profile      LoyaltyProfile
	)
	operationError := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		loadedReservations, seeded, err := service.readReservations(ctx, txStore)
		if err != nil {
			return err
		}
		loadedProfile, defaulted, err := service.readProfile(ctx, txStore)
		if err != nil {
			return err
		}
		if persistFallback && seeded {
			if err := saveJSON(ctx, txStore, StorageKeyReservations, loadedReservations); err != nil {
				return err
			}
		}
		if persistFallback && defaulted {
			if err := saveJSON(ctx, txStore, StorageKeyUser, loadedProfile); err != nil {
				return err
			}
		}
		reservations = loadedReservations
		profile = loadedProfile
		return nil
	})
	service.logOperation(ctx, OperationLog{
		Operation: operation,
		Points:    profile.Points,
		Error:     operationError,
	})
	if operationError != nil {
		return operationError
	}
	service.replaceState(reservations, profile)
	return nil
}

// ListVenues returns the venue catalog.
func (service *Service) ListVenues() []Venue {
	return service.catalog.list()
}

// Venue returns a single venue.
func (service *Service) Venue(id VenueID) (Venue, error) {
	venue, found := service.catalog.lookup(id)
	if !found {
		return Venue{}, fmt.Errorf("%w: %d", ErrUnknownVenue, id)
	}
	return venue, nil
}

// CheckAvailability reports whether the slot holds fewer than CapacityPerSlot reservations.
func (service *Service) CheckAvailability(venueID VenueID, date SlotDate, slotTime SlotTime) bool {
	return service.SlotCount(venueID, date, slotTime) < CapacityPerSlot
}

// SlotCount returns how many reservations share the slot.
func (service *Service) SlotCount(venueID VenueID, date SlotDate, slotTime SlotTime) int {
	service.stateMutex.RLock()
	defer service.stateMutex.RUnlock()
	return countSlot(service.reservations, venueID, date, slotTime)
}

// AddReservation admits a reservation if its slot has room and awards PointsPerReservation.
func (service *Service) AddReservation(ctx context.Context, request ReservationRequest) (Reservation, error) {
	created, profile, operationError := service.addReservation(ctx, request)
	service.logOperation(ctx, OperationLog{
		Operation:     operationAddReservation,
		VenueID:       request.VenueID,
		ReservationID: created.ID,
		Date:          request.Date,
		Time:          request.Time,
		Points:        profile.Points,
		Error:         operationError,
	})
	if operationError != nil {
		return Reservation{}, operationError
	}
	service.publish(ctx, created)
	return created, nil
}

func (service *Service) addReservation(ctx context.Context, request ReservationRequest) (Reservation, LoyaltyProfile, error) {
	if err := request.validate(); err != nil {
		return Reservation{}, LoyaltyProfile{}, err
	}
	venue, found := service.catalog.lookup(request.VenueID)
	if !found {
		return Reservation{}, LoyaltyProfile{}, fmt.Errorf("%w: %d", ErrUnknownVenue, request.VenueID)
	}

	service.writeMutex.Lock()
	defer service.writeMutex.Unlock()

	var (
		created      Reservation
		reservations []Reservation
		profile      LoyaltyProfile
	)
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		current, _, err := service.readReservations(ctx, txStore)
		if err != nil {
			return err
		}
		if countSlot(current, request.VenueID, request.Date, request.Time) >= CapacityPerSlot {
			return SlotFullError{VenueID: request.VenueID, Date: request.Date, Time: request.Time}
		}
		reservation, err := service.newReservation(venue, request)
		if err != nil {
			return err
		}
		updated := append(current[:len(current):len(current)], reservation)
		if err := saveJSON(ctx, txStore, StorageKeyReservations, updated); err != nil {
			return err
		}
		currentProfile, _, err := service.readProfile(ctx, txStore)
		if err != nil {
			return err
		}
		currentProfile.Points += PointsPerReservation
		if err := saveJSON(ctx, txStore, StorageKeyUser, currentProfile); err != nil {
			return err
		}
		created = reservation
		reservations = updated
		profile = currentProfile
		return nil
	})
	if err != nil {
		return Reservation{}, LoyaltyProfile{}, err
	}
	service.replaceState(reservations, profile)
	return created, profile, nil
}

// AddPoints credits the loyalty profile and returns it.
func (service *Service) AddPoints(ctx context.Context, amount int) (LoyaltyProfile, error) {
	profile, operationError := service.addPoints(ctx, amount)
	service.logOperation(ctx, OperationLog{
		Operation: operationAddPoints,
		Points:    profile.Points,
		Error:     operationError,
	})
	return profile, operationError
}

func (service *Service) addPoints(ctx context.Context, amount int) (LoyaltyProfile, error) {
	if amount < 0 {
		return LoyaltyProfile{}, fmt.Errorf("%w: amount %d is negative", ErrInvalidPoints, amount)
	}

	service.writeMutex.Lock()
	defer service.writeMutex.Unlock()

	var profile LoyaltyProfile
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		currentProfile, _, err := service.readProfile(ctx, txStore)
		if err != nil {
			return err
		}
		currentProfile.Points += amount
		if err := saveJSON(ctx, txStore, StorageKeyUser, currentProfile); err != nil {
			return err
		}
		profile = currentProfile
		return nil
	})
	if err != nil {
		return LoyaltyProfile{}, err
	}
	service.stateMutex.Lock()
	service.profile = profile
	service.stateMutex.Unlock()
	return profile, nil
}

// Reservations returns every reservation in insertion order.
func (service *Service) Reservations() []Reservation {
	service.stateMutex.RLock()
	defer service.stateMutex.RUnlock()
	return append([]Reservation(nil), service.reservations...)
}

// ReservationsByRestaurant returns the reservations of one venue in insertion order.
func (service *Service) ReservationsByRestaurant(venueID VenueID) []Reservation {
	service.stateMutex.RLock()
	defer service.stateMutex.RUnlock()
	filtered := make([]Reservation, 0)
	for _, reservation := range service.reservations {
		if reservation.VenueID == venueID {
			filtered = append(filtered, reservation)
		}
	}
	return filtered
}

// CurrentProfile returns the loyalty profile.
func (service *Service) CurrentProfile() LoyaltyProfile {
	service.stateMutex.RLock()
	defer service.stateMutex.RUnlock()
	return service.profile
}

func (service *Service) newReservation(venue Venue, request ReservationRequest) (Reservation, error) {
	id, err := service.newID()
	if err != nil {
		return Reservation{}, WrapError(errorOperationService, errorSubjectState, errorCodeIdentifier, err)
	}
	return Reservation{
		ID:        id,
		Timestamp: service.nowFn().UTC(),
		VenueID:   venue.ID,
		VenueName: venue.Name,
		Date:      request.Date,
		Time:      request.Time,
		Pax:       request.Pax,
		Name:      request.Name,
		Phone:     request.Phone,
		Status:    ReservationStatusConfirmed,
	}, nil
}

func (service *Service) readReservations(ctx context.Context, store Store) ([]Reservation, bool, error) {
	raw, found, err := store.Load(ctx, StorageKeyReservations)
	if err != nil {
		return nil, false, err
	}
	if found && !isEmptyValue(raw) {
		var reservations []Reservation
		if decodeErr := json.Unmarshal(raw, &reservations); decodeErr != nil {
			service.reportCorrupt(ctx, StorageKeyReservations, decodeErr)
		} else if len(reservations) > 0 {
			return reservations, false, nil
		}
	}
	return SeedReservations(service.nowFn(), service.catalog.venues), true, nil
}

func (service *Service) readProfile(ctx context.Context, store Store) (LoyaltyProfile, bool, error) {
	raw, found, err := store.Load(ctx, StorageKeyUser)
	if err != nil {
		return LoyaltyProfile{}, false, err
	}
	if !found || isEmptyValue(raw) {
		return service.defaultProfile, true, nil
	}
	var profile LoyaltyProfile
	if decodeErr := json.Unmarshal(raw, &profile); decodeErr != nil {
		service.reportCorrupt(ctx, StorageKeyUser, decodeErr)
		return service.defaultProfile, true, nil
	}
	return profile, false, nil
}

func (service *Service) reportCorrupt(ctx context.Context, key StorageKey, decodeErr error) {
	service.logOperation(ctx, OperationLog{
		Operation: operationLoad,
		Key:       key,
		Error:     PersistenceCorruptError{Key: key, Err: decodeErr},
	})
}

func (service *Service) replaceState(reservations []Reservation, profile LoyaltyProfile) {
	service.stateMutex.Lock()
	defer service.stateMutex.Unlock()
	service.reservations = reservations
	service.profile = profile
}

func (service *Service) publish(ctx context.Context, reservation Reservation) {
	if service.publisher == nil {
		return
	}
	publishContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), service.publishTimeout)
	defer cancel()
	publishError := service.publisher.PublishReservationConfirmed(publishContext, reservation)
	service.logOperation(ctx, OperationLog{
		Operation:     operationPublish,
		VenueID:       reservation.VenueID,
		ReservationID: reservation.ID,
		Date:          reservation.Date,
		Time:          reservation.Time,
		Error:         publishError,
	})
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func countSlot(reservations []Reservation, venueID VenueID, date SlotDate, slotTime SlotTime) int {
	count := 0
	for _, reservation := range reservations {
		if reservation.inSlot(venueID, date, slotTime) {
			count++
		}
	}
	return count
}

func saveJSON(ctx context.Context, store Store, key StorageKey, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return WrapError(errorOperationService, errorSubjectState, errorCodeEncode, err)
	}
	return store.Save(ctx, key, encoded)
}

func isEmptyValue(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func newReservationID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
