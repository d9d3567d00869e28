package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var parralZone = time.FixedZone("CST", -6*60*60)

func fixedClock() time.Time {
	return time.Date(2025, time.June, 1, 18, 30, 0, 0, parralZone)
}

type stubStore struct {
	txMutex sync.Mutex
	mutex   sync.Mutex
	values  map[StorageKey][]byte
	loadErr error
	saveErr error
	saves   int
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{values: map[StorageKey][]byte{}}
}

func (store *stubStore) Load(_ context.Context, key StorageKey) ([]byte, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.loadErr != nil {
		return nil, false, store.loadErr
	}
	value, found := store.values[key]
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (store *stubStore) Save(_ context.Context, key StorageKey, value []byte) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.saveErr != nil {
		return store.saveErr
	}
	store.values[key] = append([]byte(nil), value...)
	store.saves++
	return nil
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	store.txMutex.Lock()
	defer store.txMutex.Unlock()
	store.mutex.Lock()
	snapshot := maps.Clone(store.values)
	store.mutex.Unlock()
	if err := fn(ctx, store); err != nil {
		store.mutex.Lock()
		store.values = snapshot
		store.mutex.Unlock()
		return err
	}
	return nil
}

func (store *stubStore) put(test *testing.T, key StorageKey, value any) {
	test.Helper()
	encoded, err := json.Marshal(value)
	if err != nil {
		test.Fatalf("encode %s: %v", key, err)
	}
	store.values[key] = encoded
}

func (store *stubStore) putRaw(key StorageKey, raw string) {
	store.values[key] = []byte(raw)
}

func (store *stubStore) mustReservations(test *testing.T) []Reservation {
	test.Helper()
	store.mutex.Lock()
	raw := store.values[StorageKeyReservations]
	store.mutex.Unlock()
	var reservations []Reservation
	if err := json.Unmarshal(raw, &reservations); err != nil {
		test.Fatalf("decode stored reservations: %v", err)
	}
	return reservations
}

func (store *stubStore) mustProfile(test *testing.T) LoyaltyProfile {
	test.Helper()
	store.mutex.Lock()
	raw := store.values[StorageKeyUser]
	store.mutex.Unlock()
	var profile LoyaltyProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		test.Fatalf("decode stored profile: %v", err)
	}
	return profile
}

type recorderLogger struct {
	mutex   sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.entries = append(logger.entries, entry)
}

func (logger *recorderLogger) byOperation(operation string) []OperationLog {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	matched := []OperationLog{}
	for _, entry := range logger.entries {
		if entry.Operation == operation {
			matched = append(matched, entry)
		}
	}
	return matched
}

func sequentialIDs() func() (string, error) {
	var counter atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("res-%d", counter.Add(1)), nil
	}
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	options = append([]ServiceOption{WithIDGenerator(sequentialIDs())}, options...)
	service, err := NewService(store, fixedClock, options...)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustOpenService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service := mustNewService(test, store, options...)
	if err := service.Open(context.Background()); err != nil {
		test.Fatalf("open service: %v", err)
	}
	return service
}

func mustRequest(test *testing.T, venueID int, date string, slotTime string, pax int, name string, phone string) ReservationRequest {
	test.Helper()
	request, err := NewReservationRequest(venueID, date, slotTime, pax, name, phone)
	if err != nil {
		test.Fatalf("reservation request: %v", err)
	}
	return request
}

func mustDate(test *testing.T, raw string) SlotDate {
	test.Helper()
	date, err := NewSlotDate(raw)
	if err != nil {
		test.Fatalf("date %q: %v", raw, err)
	}
	return date
}

func mustTime(test *testing.T, raw string) SlotTime {
	test.Helper()
	slotTime, err := NewSlotTime(raw)
	if err != nil {
		test.Fatalf("time %q: %v", raw, err)
	}
	return slotTime
}

func mustFillSlot(test *testing.T, service *Service, venueID int, date string, slotTime string) {
	test.Helper()
	for index := 0; index < CapacityPerSlot; index++ {
		request := mustRequest(test, venueID, date, slotTime, 2, fmt.Sprintf("Guest %d", index), "627-555-0000")
		if _, err := service.AddReservation(context.Background(), request); err != nil {
			test.Fatalf("fill slot reservation %d: %v", index, err)
		}
	}
}
