package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestNewServiceRejectsMissingDependencies(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name  string
		store Store
		clock func() time.Time
	}{
		{name: "nil store", store: nil, clock: fixedClock},
		{name: "nil clock", store: newStubStore(test), clock: nil},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			_, err := NewService(testCase.store, testCase.clock)
			if !errors.Is(err, ErrInvalidServiceConfig) {
				test.Fatalf("expected ErrInvalidServiceConfig, got %v", err)
			}
		})
	}
}

func TestOpenSeedsTodayWhenStorageIsEmpty(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store)

	reservations := service.Reservations()
	if len(reservations) != len(seedReservations) {
		test.Fatalf("expected %d seeded reservations, got %d", len(seedReservations), len(reservations))
	}
	for _, reservation := range reservations {
		if reservation.Date.String() != "2025-06-01" {
			test.Fatalf("expected seeded date 2025-06-01, got %s", reservation.Date)
		}
		if reservation.Status != ReservationStatusConfirmed {
			test.Fatalf("expected confirmed seed, got %s", reservation.Status)
		}
	}
	if stored := store.mustReservations(test); len(stored) != len(seedReservations) {
		test.Fatalf("expected seed to be persisted, got %d stored", len(stored))
	}
	profile := service.CurrentProfile()
	if profile != DefaultLoyaltyProfile() {
		test.Fatalf("expected default profile, got %+v", profile)
	}
	if profile.Tier() != TierExplorador {
		test.Fatalf("expected Explorador, got %s", profile.Tier())
	}
}

func TestOpenAdoptsPersistedStateVerbatim(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	store.putRaw(StorageKeyReservations, `[{"id":"1719000000000","timestamp":"2025-06-20T01:00:00.000Z","restaurantId":1,"restaurantName":"Terramarya","date":"2025-06-21","time":"19:00","pax":"4","name":"Ana","phone":"6275550000","status":"confirmed"}]`)
	store.putRaw(StorageKeyUser, `{"name":"Ana","points":600,"tier":"Explorador"}`)
	service := mustOpenService(test, store)

	reservations := service.Reservations()
	if len(reservations) != 1 {
		test.Fatalf("expected persisted reservation only, got %d", len(reservations))
	}
	if reservations[0].Pax != 4 || reservations[0].ID != "1719000000000" {
		test.Fatalf("unexpected reservation: %+v", reservations[0])
	}
	profile := service.CurrentProfile()
	if profile.Points != 600 || profile.Tier() != TierGourmet {
		test.Fatalf("expected 600 points in Gourmet, got %d in %s", profile.Points, profile.Tier())
	}
}

func TestOpenFallsBackToSeedOnCorruptState(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `[{"id":`},
		{name: "wrong shape", raw: `{"id":"x"}`},
		{name: "unparseable pax", raw: `[{"id":"x","pax":"many"}]`},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			store := newStubStore(test)
			store.putRaw(StorageKeyReservations, testCase.raw)
			logger := &recorderLogger{}
			service := mustOpenService(test, store, WithOperationLogger(logger))

			if got := len(service.Reservations()); got != len(seedReservations) {
				test.Fatalf("expected seed fallback, got %d reservations", got)
			}
			loads := logger.byOperation(operationLoad)
			if len(loads) != 1 {
				test.Fatalf("expected one corrupt load entry, got %d", len(loads))
			}
			var corruptError PersistenceCorruptError
			if !errors.As(loads[0].Error, &corruptError) || corruptError.Key != StorageKeyReservations {
				test.Fatalf("expected PersistenceCorruptError for reservations, got %v", loads[0].Error)
			}
			if !errors.Is(loads[0].Error, ErrPersistenceCorrupt) || loads[0].Status != operationStatusError {
				test.Fatalf("unexpected corrupt log entry: %+v", loads[0])
			}
		})
	}
}

func TestOpenFallsBackToDefaultProfileOnCorruptUser(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	store.putRaw(StorageKeyUser, `{"name":"Ana","points":-5}`)
	logger := &recorderLogger{}
	service := mustOpenService(test, store, WithOperationLogger(logger))

	if service.CurrentProfile() != DefaultLoyaltyProfile() {
		test.Fatalf("expected default profile, got %+v", service.CurrentProfile())
	}
	loads := logger.byOperation(operationLoad)
	if len(loads) != 1 || loads[0].Key != StorageKeyUser {
		test.Fatalf("expected corrupt user log entry, got %+v", loads)
	}
}

func TestOpenReturnsStorageFailures(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	store.loadErr = errors.New("disk unavailable")
	service := mustNewService(test, store)
	if err := service.Open(context.Background()); !errors.Is(err, store.loadErr) {
		test.Fatalf("expected load failure, got %v", err)
	}
}

func TestAddReservationConfirmsAndAwardsPoints(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store)
	request := mustRequest(test, 2, "2025-07-04", "20:00", 4, "Ana", "6275550000")

	reservation, err := service.AddReservation(context.Background(), request)
	if err != nil {
		test.Fatalf("add reservation: %v", err)
	}
	if reservation.Status != ReservationStatusConfirmed {
		test.Fatalf("expected confirmed, got %s", reservation.Status)
	}
	if reservation.ID != "res-1" {
		test.Fatalf("expected generated id, got %q", reservation.ID)
	}
	if reservation.VenueName != "Café de Villa (SportBar)" {
		test.Fatalf("expected venue name snapshot, got %q", reservation.VenueName)
	}
	if !reservation.Timestamp.Equal(fixedClock()) {
		test.Fatalf("expected timestamp %s, got %s", fixedClock(), reservation.Timestamp)
	}
	profile := service.CurrentProfile()
	if profile.Points != 150 || profile.Tier() != TierExplorador {
		test.Fatalf("expected 150 points in Explorador, got %d in %s", profile.Points, profile.Tier())
	}
	if stored := store.mustProfile(test); stored.Points != 150 {
		test.Fatalf("expected persisted 150 points, got %d", stored.Points)
	}
	stored := store.mustReservations(test)
	if last := stored[len(stored)-1]; last.ID != reservation.ID {
		test.Fatalf("expected appended reservation last, got %+v", last)
	}
}

func TestAddReservationRejectsFullSlot(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store)
	mustFillSlot(test, service, 1, "2025-06-08", "19:00")
	date := mustDate(test, "2025-06-08")
	slotTime := mustTime(test, "19:00")

	if service.CheckAvailability(1, date, slotTime) {
		test.Fatalf("expected slot to be unavailable")
	}
	storedBefore := len(store.mustReservations(test))
	pointsBefore := service.CurrentProfile().Points

	_, err := service.AddReservation(context.Background(), mustRequest(test, 1, "2025-06-08", "19:00", 2, "Late", "627"))
	if !errors.Is(err, ErrSlotFull) {
		test.Fatalf("expected ErrSlotFull, got %v", err)
	}
	var slotFullError SlotFullError
	if !errors.As(err, &slotFullError) || slotFullError.VenueID != 1 || slotFullError.Time != slotTime {
		test.Fatalf("expected SlotFullError for venue 1 at 19:00, got %v", err)
	}
	if got := len(store.mustReservations(test)); got != storedBefore {
		test.Fatalf("expected stored length %d, got %d", storedBefore, got)
	}
	if service.CurrentProfile().Points != pointsBefore {
		test.Fatalf("expected points unchanged at %d, got %d", pointsBefore, service.CurrentProfile().Points)
	}
	if service.SlotCount(1, date, slotTime) != CapacityPerSlot {
		test.Fatalf("expected slot count %d, got %d", CapacityPerSlot, service.SlotCount(1, date, slotTime))
	}
}

func TestAddReservationCountsSeededReservations(test *testing.T) {
	test.Parallel()
	service := mustOpenService(test, newStubStore(test))
	date := mustDate(test, "2025-06-01")
	slotTime := mustTime(test, "20:00")

	seeded := service.SlotCount(1, date, slotTime)
	if seeded != 3 {
		test.Fatalf("expected 3 seeded reservations at 20:00 in venue 1, got %d", seeded)
	}
	for index := seeded; index < CapacityPerSlot; index++ {
		if _, err := service.AddReservation(context.Background(), mustRequest(test, 1, "2025-06-01", "20:00", 2, "Guest", "627")); err != nil {
			test.Fatalf("reservation %d: %v", index, err)
		}
	}
	_, err := service.AddReservation(context.Background(), mustRequest(test, 1, "2025-06-01", "20:00", 2, "Guest", "627"))
	if !errors.Is(err, ErrSlotFull) {
		test.Fatalf("expected ErrSlotFull after %d bookings, got %v", CapacityPerSlot, err)
	}
}

func TestAddReservationValidatesRequest(test *testing.T) {
	test.Parallel()
	service := mustOpenService(test, newStubStore(test))
	valid := mustRequest(test, 1, "2025-06-02", "19:00", 2, "Ana", "627")

	testCases := []struct {
		name     string
		mutate   func(request *ReservationRequest)
		expected error
	}{
		{name: "unknown venue", mutate: func(request *ReservationRequest) { request.VenueID = 9 }, expected: ErrUnknownVenue},
		{name: "zero venue", mutate: func(request *ReservationRequest) { request.VenueID = 0 }, expected: ErrInvalidVenueID},
		{name: "missing date", mutate: func(request *ReservationRequest) { request.Date = SlotDate{} }, expected: ErrInvalidDate},
		{name: "missing time", mutate: func(request *ReservationRequest) { request.Time = SlotTime{} }, expected: ErrInvalidTime},
		{name: "party too large", mutate: func(request *ReservationRequest) { request.Pax = 21 }, expected: ErrInvalidPartySize},
		{name: "missing name", mutate: func(request *ReservationRequest) { request.Name = ContactName{} }, expected: ErrInvalidContactName},
		{name: "missing phone", mutate: func(request *ReservationRequest) { request.Phone = Phone{} }, expected: ErrInvalidPhone},
	}
	for _, testCase := range testCases {
		request := valid
		testCase.mutate(&request)
		_, err := service.AddReservation(context.Background(), request)
		if !errors.Is(err, testCase.expected) {
			test.Fatalf("%s: expected %v, got %v", testCase.name, testCase.expected, err)
		}
	}
	if service.CurrentProfile().Points != 0 {
		test.Fatalf("expected no points for rejected requests, got %d", service.CurrentProfile().Points)
	}
}

func TestAddReservationRollsBackOnSaveFailure(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store)
	before := service.Reservations()
	store.saveErr = errors.New("quota exceeded")

	_, err := service.AddReservation(context.Background(), mustRequest(test, 1, "2025-06-02", "19:00", 2, "Ana", "627"))
	if !errors.Is(err, store.saveErr) {
		test.Fatalf("expected save failure, got %v", err)
	}
	if !reflect.DeepEqual(service.Reservations(), before) {
		test.Fatalf("expected in-memory reservations unchanged")
	}
	if service.CurrentProfile().Points != 0 {
		test.Fatalf("expected points unchanged, got %d", service.CurrentProfile().Points)
	}
}

func TestAddReservationNeverExceedsCapacityUnderConcurrency(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store)
	const attempts = 30

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		accepted  int
		rejected  int
	)
	requests := make([]ReservationRequest, 0, attempts)
	for index := 0; index < attempts; index++ {
		requests = append(requests, mustRequest(test, 3, "2025-06-05", "14:00", 2, fmt.Sprintf("Guest %d", index), "627"))
	}
	for _, request := range requests {
		waitGroup.Add(1)
		go func(request ReservationRequest) {
			defer waitGroup.Done()
			_, err := service.AddReservation(context.Background(), request)
			mutex.Lock()
			defer mutex.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrSlotFull):
				rejected++
			default:
				test.Errorf("unexpected error: %v", err)
			}
		}(request)
	}
	waitGroup.Wait()

	if accepted != CapacityPerSlot || rejected != attempts-CapacityPerSlot {
		test.Fatalf("expected %d accepted and %d rejected, got %d and %d", CapacityPerSlot, attempts-CapacityPerSlot, accepted, rejected)
	}
	if points := service.CurrentProfile().Points; points != CapacityPerSlot*PointsPerReservation {
		test.Fatalf("expected %d points, got %d", CapacityPerSlot*PointsPerReservation, points)
	}
}

func TestAddPointsUpdatesTier(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store)

	profile, err := service.AddPoints(context.Background(), 500)
	if err != nil {
		test.Fatalf("add points: %v", err)
	}
	if profile.Points != 500 || profile.Tier() != TierGourmet {
		test.Fatalf("expected 500 points in Gourmet, got %d in %s", profile.Points, profile.Tier())
	}
	profile, err = service.AddPoints(context.Background(), 1000)
	if err != nil {
		test.Fatalf("add points: %v", err)
	}
	if profile.Tier() != TierElite {
		test.Fatalf("expected Terramarya Elite, got %s", profile.Tier())
	}
	if store.mustProfile(test).Points != 1500 {
		test.Fatalf("expected persisted 1500 points, got %d", store.mustProfile(test).Points)
	}
	if _, err := service.AddPoints(context.Background(), -1); !errors.Is(err, ErrInvalidPoints) {
		test.Fatalf("expected ErrInvalidPoints, got %v", err)
	}
	if _, err := service.AddPoints(context.Background(), 0); err != nil {
		test.Fatalf("expected zero award to be accepted, got %v", err)
	}
}

func TestStateRoundTripsThroughStore(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	first := mustOpenService(test, store)
	for _, slotTime := range []string{"13:00", "14:00", "15:00"} {
		if _, err := first.AddReservation(context.Background(), mustRequest(test, 1, "2025-06-03", slotTime, 3, "Ana", "627")); err != nil {
			test.Fatalf("add reservation: %v", err)
		}
	}

	second := mustOpenService(test, store)
	if !reflect.DeepEqual(first.Reservations(), second.Reservations()) {
		test.Fatalf("expected identical reservations after reload")
	}
	if first.CurrentProfile() != second.CurrentProfile() {
		test.Fatalf("expected identical profile, got %+v and %+v", first.CurrentProfile(), second.CurrentProfile())
	}
}

func TestRefreshPicksUpWritesFromAnotherInstance(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	reader := mustOpenService(test, store)
	writer := mustOpenService(test, store)
	if _, err := writer.AddReservation(context.Background(), mustRequest(test, 2, "2025-06-03", "18:00", 2, "Ana", "627")); err != nil {
		test.Fatalf("add reservation: %v", err)
	}
	if len(reader.Reservations()) != len(seedReservations) {
		test.Fatalf("expected stale reader before refresh")
	}
	if err := reader.Refresh(context.Background()); err != nil {
		test.Fatalf("refresh: %v", err)
	}
	if len(reader.Reservations()) != len(seedReservations)+1 || reader.CurrentProfile().Points != PointsPerReservation {
		test.Fatalf("expected refreshed state, got %d reservations and %d points", len(reader.Reservations()), reader.CurrentProfile().Points)
	}
}

func TestReservationsByRestaurantKeepsInsertionOrder(test *testing.T) {
	test.Parallel()
	service := mustOpenService(test, newStubStore(test))
	created, err := service.AddReservation(context.Background(), mustRequest(test, 3, "2025-06-01", "13:00", 2, "Ana", "627"))
	if err != nil {
		test.Fatalf("add reservation: %v", err)
	}

	byVenue := service.ReservationsByRestaurant(3)
	expectedIDs := []string{"mock-3", "mock-6", "mock-10", "mock-16", "mock-24", created.ID}
	if len(byVenue) != len(expectedIDs) {
		test.Fatalf("expected %d reservations, got %d", len(expectedIDs), len(byVenue))
	}
	for index, reservation := range byVenue {
		if reservation.ID != expectedIDs[index] {
			test.Fatalf("position %d: expected %s, got %s", index, expectedIDs[index], reservation.ID)
		}
	}
	if len(service.ReservationsByRestaurant(42)) != 0 {
		test.Fatalf("expected no reservations for unknown venue")
	}
}

func TestVenueLookup(test *testing.T) {
	test.Parallel()
	service := mustNewService(test, newStubStore(test))
	venues := service.ListVenues()
	if len(venues) != 3 {
		test.Fatalf("expected 3 venues, got %d", len(venues))
	}
	venues[0].Name = "mutated"
	venue, err := service.Venue(1)
	if err != nil {
		test.Fatalf("venue: %v", err)
	}
	if venue.Name != "Terramarya" || len(venue.Menu) != 8 {
		test.Fatalf("unexpected venue: %+v", venue)
	}
	if _, err := service.Venue(4); !errors.Is(err, ErrUnknownVenue) {
		test.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestOpenKeepsStoredNegativeBalance(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	store.putRaw(StorageKeyUser, `{"name":"Ana","points":-40}`)
	logger := &recorderLogger{}
	service := mustOpenService(test, store, WithOperationLogger(logger))

	if profile := service.CurrentProfile(); profile.Name != "Ana" || profile.Points != -40 {
		test.Fatalf("expected stored profile verbatim, got %+v", profile)
	}
	if stored := store.mustProfile(test); stored.Points != -40 {
		test.Fatalf("expected stored profile untouched, got %+v", stored)
	}
	if loads := logger.byOperation(operationLoad); len(loads) != 0 {
		test.Fatalf("expected no corruption report, got %+v", loads)
	}
}

func TestWithDefaultProfileSeedsConfiguredMember(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	service := mustOpenService(test, store, WithDefaultProfile(LoyaltyProfile{Name: "Lucía Ferrer", Points: 200}))

	if profile := service.CurrentProfile(); profile.Name != "Lucía Ferrer" || profile.Points != 200 {
		test.Fatalf("expected configured default profile, got %+v", profile)
	}
	if stored := store.mustProfile(test); stored.Name != "Lucía Ferrer" {
		test.Fatalf("expected configured profile persisted, got %+v", stored)
	}
}

func TestWithVenuesReplacesCatalog(test *testing.T) {
	test.Parallel()
	popUp := Venue{ID: 7, Name: "Terramarya Pop-up", Type: "Temporada"}
	service := mustOpenService(test, newStubStore(test), WithVenues([]Venue{popUp}))

	venues := service.ListVenues()
	if len(venues) != 1 || venues[0].Name != popUp.Name {
		test.Fatalf("expected only the configured venue, got %+v", venues)
	}
	created, err := service.AddReservation(context.Background(), mustRequest(test, 7, "2025-06-05", "20:00", 2, "Ana", "627"))
	if err != nil {
		test.Fatalf("add reservation: %v", err)
	}
	if created.VenueName != popUp.Name {
		test.Fatalf("expected venue name from catalog, got %q", created.VenueName)
	}
	if _, err := service.AddReservation(context.Background(), mustRequest(test, 1, "2025-06-05", "20:00", 2, "Ana", "627")); !errors.Is(err, ErrUnknownVenue) {
		test.Fatalf("expected ErrUnknownVenue for venue outside the catalog, got %v", err)
	}
}
