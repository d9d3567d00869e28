package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VenueID identifies a venue in the catalog.
type VenueID int

// SlotDate is a calendar date in YYYY-MM-DD form.
type SlotDate struct {
	value string
}

// SlotTime is an hour-granular time of day in HH:00 form.
type SlotTime struct {
	value string
}

// PartySize is the number of guests on a reservation.
type PartySize int

// ContactName is the name a reservation is held under.
type ContactName struct {
	value string
}

// Phone is the contact phone of a reservation.
type Phone struct {
	value string
}

// StorageKey names a persisted value.
type StorageKey string

const (
	StorageKeyReservations StorageKey = "reservations"
	StorageKeyUser         StorageKey = "user"
)

// StorageKeys lists every key the service persists.
func StorageKeys() []StorageKey {
	return []StorageKey{StorageKeyReservations, StorageKeyUser}
}

// ReservationStatus defines reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmed"
)

// NewVenueID validates a venue id.
func NewVenueID(raw int) (VenueID, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidVenueID)
	}
	return VenueID(raw), nil
}

// ParseVenueID parses a decimal venue id.
func ParseVenueID(raw string) (VenueID, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidVenueID, raw)
	}
	return NewVenueID(parsed)
}

// Int returns the raw id.
func (id VenueID) Int() int {
	return int(id)
}

// NewSlotDate validates and normalizes a calendar date.
func NewSlotDate(raw string) (SlotDate, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SlotDate{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	parsed, err := time.Parse(slotDateLayout, trimmed)
	if err != nil {
		return SlotDate{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, raw)
	}
	return SlotDate{value: parsed.Format(slotDateLayout)}, nil
}

// DateOf returns the calendar date of instant in its own location.
func DateOf(instant time.Time) SlotDate {
	return SlotDate{value: instant.Format(slotDateLayout)}
}

// String returns the normalized date.
func (date SlotDate) String() string {
	return date.value
}

// IsZero reports whether the date was never set.
func (date SlotDate) IsZero() bool {
	return date.value == ""
}

// MarshalText encodes the date.
func (date SlotDate) MarshalText() ([]byte, error) {
	return []byte(date.value), nil
}

// UnmarshalText keeps the stored value as written.
func (date *SlotDate) UnmarshalText(text []byte) error {
	date.value = strings.TrimSpace(string(text))
	return nil
}

// NewSlotTime validates an HH:00 time of day.
func NewSlotTime(raw string) (SlotTime, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SlotTime{}, fmt.Errorf("%w: empty value", ErrInvalidTime)
	}
	hourText, found := strings.CutSuffix(trimmed, slotTimeSuffix)
	if !found || len(hourText) == 0 || len(hourText) > 2 {
		return SlotTime{}, fmt.Errorf("%w: %q is not HH:00", ErrInvalidTime, raw)
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return SlotTime{}, fmt.Errorf("%w: %q is not HH:00", ErrInvalidTime, raw)
	}
	return SlotTimeAt(hour)
}

// SlotTimeAt builds the slot starting at hour.
func SlotTimeAt(hour int) (SlotTime, error) {
	if hour < 0 || hour > 23 {
		return SlotTime{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidTime, hour)
	}
	return SlotTime{value: fmt.Sprintf("%02d%s", hour, slotTimeSuffix)}, nil
}

// String returns the normalized time.
func (slotTime SlotTime) String() string {
	return slotTime.value
}

// IsZero reports whether the time was never set.
func (slotTime SlotTime) IsZero() bool {
	return slotTime.value == ""
}

// Hour returns the leading hour of the stored value, or -1 when it has none.
func (slotTime SlotTime) Hour() int {
	hourText, _, _ := strings.Cut(slotTime.value, ":")
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return -1
	}
	return hour
}

// MarshalText encodes the time.
func (slotTime SlotTime) MarshalText() ([]byte, error) {
	return []byte(slotTime.value), nil
}

// UnmarshalText keeps the stored value as written.
func (slotTime *SlotTime) UnmarshalText(text []byte) error {
	slotTime.value = strings.TrimSpace(string(text))
	return nil
}

// NewPartySize validates a party size.
func NewPartySize(raw int) (PartySize, error) {
	if raw < MinPartySize || raw > MaxPartySize {
		return 0, fmt.Errorf("%w: must be between %d and %d", ErrInvalidPartySize, MinPartySize, MaxPartySize)
	}
	return PartySize(raw), nil
}

// Int returns the raw size.
func (size PartySize) Int() int {
	return int(size)
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (size *PartySize) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidPartySize, text)
		}
		*size = PartySize(parsed)
		return nil
	}
	var parsed int
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPartySize, err)
	}
	*size = PartySize(parsed)
	return nil
}

// NewContactName validates and normalizes a contact name.
func NewContactName(raw string) (ContactName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ContactName{}, fmt.Errorf("%w: empty value", ErrInvalidContactName)
	}
	return ContactName{value: trimmed}, nil
}

// String returns the normalized name.
func (name ContactName) String() string {
	return name.value
}

// MarshalText encodes the name.
func (name ContactName) MarshalText() ([]byte, error) {
	return []byte(name.value), nil
}

// UnmarshalText keeps the stored value as written.
func (name *ContactName) UnmarshalText(text []byte) error {
	name.value = string(text)
	return nil
}

// NewPhone validates and normalizes a phone.
func NewPhone(raw string) (Phone, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Phone{}, fmt.Errorf("%w: empty value", ErrInvalidPhone)
	}
	return Phone{value: trimmed}, nil
}

// String returns the normalized phone.
func (phone Phone) String() string {
	return phone.value
}

// MarshalText encodes the phone.
func (phone Phone) MarshalText() ([]byte, error) {
	return []byte(phone.value), nil
}

// UnmarshalText keeps the stored value as written.
func (phone *Phone) UnmarshalText(text []byte) error {
	phone.value = string(text)
	return nil
}

// MenuItem is a dish shown on a venue page.
type MenuItem struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// Venue is a bookable restaurant.
type Venue struct {
	ID          VenueID    `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Gallery     []string   `json:"gallery"`
	Menu        []MenuItem `json:"menu"`
}

func (venue Venue) clone() Venue {
	cloned := venue
	cloned.Gallery = append([]string(nil), venue.Gallery...)
	cloned.Menu = append([]MenuItem(nil), venue.Menu...)
	return cloned
}

// Reservation is a confirmed table booking.
type Reservation struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp,omitzero"`
	VenueID   VenueID           `json:"restaurantId"`
	VenueName string            `json:"restaurantName"`
	Date      SlotDate          `json:"date"`
	Time      SlotTime          `json:"time"`
	Pax       PartySize         `json:"pax"`
	Name      ContactName       `json:"name"`
	Phone     Phone             `json:"phone"`
	Status    ReservationStatus `json:"status"`
}

func (reservation Reservation) inSlot(venueID VenueID, date SlotDate, slotTime SlotTime) bool {
	return reservation.VenueID == venueID && reservation.Date == date && reservation.Time == slotTime
}

// ReservationRequest carries the caller-supplied fields of a new reservation.
type ReservationRequest struct {
	VenueID VenueID
	Date    SlotDate
	Time    SlotTime
	Pax     PartySize
	Name    ContactName
	Phone   Phone
}

// NewReservationRequest validates raw reservation input.
func NewReservationRequest(venueID int, date string, slotTime string, pax int, name string, phone string) (ReservationRequest, error) {
	parsedVenueID, err := NewVenueID(venueID)
	if err != nil {
		return ReservationRequest{}, err
	}
	parsedDate, err := NewSlotDate(date)
	if err != nil {
		return ReservationRequest{}, err
	}
	parsedTime, err := NewSlotTime(slotTime)
	if err != nil {
		return ReservationRequest{}, err
	}
	parsedPax, err := NewPartySize(pax)
	if err != nil {
		return ReservationRequest{}, err
	}
	parsedName, err := NewContactName(name)
	if err != nil {
		return ReservationRequest{}, err
	}
	parsedPhone, err := NewPhone(phone)
	if err != nil {
		return ReservationRequest{}, err
	}
	return ReservationRequest{
		VenueID: parsedVenueID,
		Date:    parsedDate,
		Time:    parsedTime,
		Pax:     parsedPax,
		Name:    parsedName,
		Phone:   parsedPhone,
	}, nil
}

func (request ReservationRequest) validate() error {
	if request.VenueID <= 0 {
		return fmt.Errorf("%w: must be positive", ErrInvalidVenueID)
	}
	if request.Date.IsZero() {
		return fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	if request.Time.IsZero() {
		return fmt.Errorf("%w: empty value", ErrInvalidTime)
	}
	if request.Pax < MinPartySize || request.Pax > MaxPartySize {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidPartySize, MinPartySize, MaxPartySize)
	}
	if request.Name.String() == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidContactName)
	}
	if request.Phone.String() == "" {
		return fmt.Errorf("%w: empty value", ErrInvalidPhone)
	}
	return nil
}

// LoyaltyProfile is the point balance of the single loyalty member.
type LoyaltyProfile struct {
	Name   string
	Points int
}

// DefaultLoyaltyProfile returns the profile used before anything is persisted.
func DefaultLoyaltyProfile() LoyaltyProfile {
	return LoyaltyProfile{Name: "Alejandro Baca", Points: 0}
}

// Tier derives the loyalty tier from the point balance.
func (profile LoyaltyProfile) Tier() Tier {
	return TierForPoints(profile.Points)
}

// Status describes progress toward the next tier.
func (profile LoyaltyProfile) Status() LoyaltyStatus {
	return StatusForPoints(profile.Points)
}

type loyaltyProfileJSON struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Tier   Tier   `json:"tier,omitempty"`
}

// MarshalJSON writes the derived tier alongside the stored fields.
func (profile LoyaltyProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(loyaltyProfileJSON{Name: profile.Name, Points: profile.Points, Tier: profile.Tier()})
}

// UnmarshalJSON reads name and points as stored; any stored tier is ignored.
func (profile *LoyaltyProfile) UnmarshalJSON(data []byte) error {
	var decoded loyaltyProfileJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	profile.Name = decoded.Name
	profile.Points = decoded.Points
	return nil
}
