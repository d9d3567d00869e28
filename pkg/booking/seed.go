package booking

import "time"

type seedReservation struct {
	id      string
	time    string
	pax     int
	name    string
	phone   string
	venueID VenueID
}

var seedReservations = []seedReservation{
	{id: "mock-1", time: "13:00", pax: 4, name: "Roberto Sanchez", phone: "627-555-0101", venueID: 1},
	{id: "mock-2", time: "13:00", pax: 2, name: "Ana Garcia", phone: "627-555-0102", venueID: 1},
	{id: "mock-3", time: "13:00", pax: 6, name: "Familia Lopez", phone: "627-555-0103", venueID: 3},
	{id: "mock-4", time: "14:00", pax: 4, name: "Lic. Martinez", phone: "627-555-0110", venueID: 1},
	{id: "mock-5", time: "14:00", pax: 8, name: "Grupo Empresarial", phone: "627-555-0111", venueID: 1},
	{id: "mock-6", time: "14:00", pax: 2, name: "Carlos Ruiz", phone: "627-555-0104", venueID: 3},
	{id: "mock-7", time: "15:00", pax: 4, name: "Amigos Futbol", phone: "627-555-0112", venueID: 2},
	{id: "mock-8", time: "15:00", pax: 2, name: "Pareja Joven", phone: "627-555-0113", venueID: 1},
	{id: "mock-9", time: "15:00", pax: 5, name: "Reunión Trabajo", phone: "627-555-0114", venueID: 2},
	{id: "mock-10", time: "16:00", pax: 3, name: "Tardía Comida", phone: "627-555-0115", venueID: 3},
	{id: "mock-11", time: "17:00", pax: 2, name: "Cerveza Tarde", phone: "627-555-0116", venueID: 2},
	{id: "mock-12", time: "18:00", pax: 4, name: "Precopeo", phone: "627-555-0117", venueID: 2},
	{id: "mock-13", time: "18:00", pax: 2, name: "Cita Temprana", phone: "627-555-0118", venueID: 1},
	{id: "mock-14", time: "19:00", pax: 4, name: "Maria Rodriguez", phone: "627-555-0105", venueID: 1},
	{id: "mock-15", time: "19:00", pax: 2, name: "Cena Romántica", phone: "627-555-0120", venueID: 1},
	{id: "mock-16", time: "19:00", pax: 6, name: "Familia Grande", phone: "627-555-0124", venueID: 3},
	{id: "mock-17", time: "20:00", pax: 8, name: "Cumpleaños Jorge", phone: "627-555-0107", venueID: 1},
	{id: "mock-18", time: "20:00", pax: 2, name: "Juan Perez", phone: "627-555-0106", venueID: 1},
	{id: "mock-19", time: "20:00", pax: 6, name: "Reunión Ex-Alumnos", phone: "627-555-0121", venueID: 2},
	{id: "mock-20", time: "20:00", pax: 4, name: "Cena Negocios", phone: "627-555-0125", venueID: 1},
	{id: "mock-21", time: "21:00", pax: 3, name: "Luis Torres", phone: "627-555-0108", venueID: 2},
	{id: "mock-22", time: "21:00", pax: 4, name: "Visitantes Chihuahua", phone: "627-555-0122", venueID: 1},
	{id: "mock-23", time: "21:00", pax: 2, name: "Cena Tardia", phone: "627-555-0126", venueID: 1},
	{id: "mock-24", time: "21:00", pax: 5, name: "Amigos Cena", phone: "627-555-0127", venueID: 3},
	{id: "mock-25", time: "22:00", pax: 2, name: "Cierre Negocios", phone: "627-555-0123", venueID: 1},
	{id: "mock-26", time: "22:00", pax: 4, name: "Copas Finales", phone: "627-555-0128", venueID: 2},
	{id: "mock-27", time: "23:00", pax: 2, name: "Última Llamada", phone: "627-555-0129", venueID: 2},
}

// SeedReservations builds the demo reservations, all dated to the calendar day of today.
func SeedReservations(today time.Time, venues []Venue) []Reservation {
	names := make(map[VenueID]string, len(venues))
	for _, venue := range venues {
		names[venue.ID] = venue.Name
	}
	date := DateOf(today)
	reservations := make([]Reservation, 0, len(seedReservations))
	for _, seed := range seedReservations {
		reservations = append(reservations, Reservation{
			ID:        seed.id,
			VenueID:   seed.venueID,
			VenueName: names[seed.venueID],
			Date:      date,
			Time:      SlotTime{value: seed.time},
			Pax:       PartySize(seed.pax),
			Name:      ContactName{value: seed.name},
			Phone:     Phone{value: seed.phone},
			Status:    ReservationStatusConfirmed,
		})
	}
	return reservations
}
