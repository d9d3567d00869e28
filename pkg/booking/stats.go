package booking

import (
	"fmt"
	"sort"
)

// AllVenues selects every venue in DailySummary.
const AllVenues VenueID = 0

// VenueLoad aggregates one venue's bookings for a day.
type VenueLoad struct {
	VenueID      VenueID `json:"restaurantId"`
	Name         string  `json:"name"`
	Reservations int     `json:"reservations"`
	Pax          int     `json:"pax"`
}

// HourLoad aggregates bookings per hour for a day. Hour 24 is shown as 00:00.
type HourLoad struct {
	Hour         string `json:"hour"`
	Reservations int    `json:"reservations"`
	Pax          int    `json:"pax"`
}

// DashboardSummary is the admin view of one day.
type DashboardSummary struct {
	Date             SlotDate      `json:"date"`
	VenueFilter      VenueID       `json:"venueFilter"`
	ReservationCount int           `json:"reservationCount"`
	TotalPax         int           `json:"totalPax"`
	EstimatedRevenue int           `json:"estimatedRevenue"`
	OccupancyPercent float64       `json:"occupancyPercent"`
	ByVenue          []VenueLoad   `json:"byVenue"`
	ByHour           []HourLoad    `json:"byHour"`
	Reservations     []Reservation `json:"reservations"`
}

// SlotAvailability describes one bookable hour of a venue.
type SlotAvailability struct {
	Time      SlotTime `json:"time"`
	Booked    int      `json:"booked"`
	Remaining int      `json:"remaining"`
	Available bool     `json:"available"`
}

// DailySummary aggregates reservations on date, optionally for a single venue.
func (service *Service) DailySummary(date SlotDate, venueFilter VenueID) DashboardSummary {
	reservations := service.Reservations()
	summary := DashboardSummary{
		Date:         date,
		VenueFilter:  venueFilter,
		Reservations: make([]Reservation, 0),
	}

	venueLoads := make(map[VenueID]*VenueLoad, len(service.catalog.venues))
	summary.ByVenue = make([]VenueLoad, 0, len(service.catalog.venues))
	for _, venue := range service.catalog.venues {
		summary.ByVenue = append(summary.ByVenue, VenueLoad{VenueID: venue.ID, Name: venue.Name})
	}
	for index := range summary.ByVenue {
		venueLoads[summary.ByVenue[index].VenueID] = &summary.ByVenue[index]
	}

	hourLoads := make(map[int]*HourLoad, lastDashboardHour-firstDashboardHour+1)
	summary.ByHour = make([]HourLoad, 0, lastDashboardHour-firstDashboardHour+1)
	for hour := firstDashboardHour; hour <= lastDashboardHour; hour++ {
		summary.ByHour = append(summary.ByHour, HourLoad{Hour: hourLabel(hour)})
	}
	for index := range summary.ByHour {
		hourLoads[(firstDashboardHour+index)%24] = &summary.ByHour[index]
	}

	for _, reservation := range reservations {
		if reservation.Date != date {
			continue
		}
		if venueFilter != AllVenues && reservation.VenueID != venueFilter {
			continue
		}
		pax := reservation.Pax.Int()
		summary.Reservations = append(summary.Reservations, reservation)
		summary.ReservationCount++
		summary.TotalPax += pax
		if load, found := venueLoads[reservation.VenueID]; found {
			load.Reservations++
			load.Pax += pax
		}
		if load, found := hourLoads[reservation.Time.Hour()%24]; found {
			load.Reservations++
			load.Pax += pax
		}
	}

	sort.SliceStable(summary.Reservations, func(left, right int) bool {
		return summary.Reservations[left].Time.String() < summary.Reservations[right].Time.String()
	})
	summary.EstimatedRevenue = summary.TotalPax * estimatedSpendPerGuest
	dailyCapacity := CapacityPerSlot * len(BookingHours()) * dashboardVenueCount
	summary.OccupancyPercent = float64(summary.ReservationCount) / float64(dailyCapacity) * 100
	return summary
}

// AvailableSlots lists every booking hour of a venue on date with its remaining capacity.
func (service *Service) AvailableSlots(venueID VenueID, date SlotDate) ([]SlotAvailability, error) {
	if _, err := service.Venue(venueID); err != nil {
		return nil, err
	}
	service.stateMutex.RLock()
	defer service.stateMutex.RUnlock()
	hours := BookingHours()
	slots := make([]SlotAvailability, 0, len(hours))
	for _, slotTime := range hours {
		booked := countSlot(service.reservations, venueID, date, slotTime)
		remaining := CapacityPerSlot - booked
		if remaining < 0 {
			remaining = 0
		}
		slots = append(slots, SlotAvailability{
			Time:      slotTime,
			Booked:    booked,
			Remaining: remaining,
			Available: booked < CapacityPerSlot,
		})
	}
	return slots, nil
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour%24)
}
