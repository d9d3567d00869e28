package booking

// DefaultVenues returns the venue catalog served by the application.
func DefaultVenues() []Venue {
	return []Venue{
		{
			ID:          1,
			Name:        "Terramarya",
			Type:        "Cortes y Mariscos",
			Image:       "https://images.unsplash.com/photo-1514362545857-3bc16549766b?q=80&w=2070",
			Description: "La joya de la corona. Experiencia gastronómica premium donde los cortes de carne añejados y los mariscos más frescos se encuentran en el corazón de Parral.",
			Gallery: []string{
				"https://images.unsplash.com/photo-1514362545857-3bc16549766b?q=80&w=2070",
				"https://images.unsplash.com/photo-1595295333158-4742f28fbd85?q=80&w=2000",
				"https://images.unsplash.com/photo-1559339352-11d035aa65de?q=80&w=1974",
				"https://images.unsplash.com/photo-1414235077428-338989a2e8c0?q=80&w=2070",
				"https://images.unsplash.com/photo-1600891964092-4316c288032e?q=80&w=2070",
			},
			Menu: []MenuItem{
				{Name: "Tomahawk Gold", Price: "$1,800", Description: "Corte premium de 1.2kg bañado en oro de 24k."},
				{Name: "Langosta Thermidor", Price: "$1,200", Description: "Clásica preparación francesa con salsa cremosa de mostaza y queso gratinado."},
				{Name: "Rib Eye Añejo", Price: "$950", Description: "45 días de maduración en seco."},
				{Name: "Ostiones Rockefeller", Price: "$450", Description: "Docena de ostiones frescos con espinacas y salsa holandesa."},
				{Name: "Pulpo a las Brasas", Price: "$580", Description: "Adobado con chiles secos y papas cambray."},
				{Name: "Salmón en Costra", Price: "$490", Description: "En costra de pistache con reducción de balsámico."},
				{Name: "Carpaccio de Res", Price: "$320", Description: "Con alcaparras, parmesano y aceite de trufa."},
				{Name: "Crema de Almeja", Price: "$220", Description: "Servida en pan de masa madre."},
			},
		},
		{
			ID:          2,
			Name:        "Café de Villa (SportBar)",
			Type:        "SportBar",
			Image:       "https://images.unsplash.com/photo-1572116469696-31de0f17cc34?q=80&w=1974",
			Description: "El mejor ambiente para disfrutar de tus deportes favoritos con snacks de alta cocina y mixología de autor.",
			Gallery: []string{
				"https://images.unsplash.com/photo-1517248135467-4c7edcad34c4?q=80&w=2070",
				"https://images.unsplash.com/photo-1572116469696-31de0f17cc34?q=80&w=1974",
				"https://images.unsplash.com/photo-1563806951-e4070a72ad4e?q=80&w=2000",
			},
			Menu: []MenuItem{
				{Name: "Hamburguesa Trufada", Price: "$350", Description: "Carne wagyu, queso brie y aceite de trufa."},
				{Name: "Alitas Bourbon", Price: "$220", Description: "Bañadas en salsa BBQ casera con un toque de whisky."},
				{Name: "Nachos Villa", Price: "$280", Description: "Con arrachera, guacamole rústico y queso fundido."},
			},
		},
		{
			ID:          3,
			Name:        "Café de Villa (Restaurant)",
			Type:        "Restaurante Familiar",
			Image:       "https://images.unsplash.com/photo-1559339352-11d035aa65de?q=80&w=1974",
			Description: "Cocina reconfortante en un ambiente relajado, ideal para desayunos y comidas familiares inolvidables.",
			Gallery: []string{
				"https://images.unsplash.com/photo-1554118811-1e0d58224f24?q=80&w=2047",
				"https://images.unsplash.com/photo-1559339352-11d035aa65de?q=80&w=1974",
				"https://images.unsplash.com/photo-1466978913421-dad938661248?q=80&w=1950",
			},
			Menu: []MenuItem{
				{Name: "Chilaquiles Divorciados", Price: "$180", Description: "Con salsa roja y verde, crema de rancho y queso fresco."},
				{Name: "Ensalada César", Price: "$160", Description: "Preparada en tu mesa con la receta original."},
				{Name: "Club Sandwich Villa", Price: "$210", Description: "Tres pisos de sabor con pollo, tocino y aguacate."},
			},
		},
	}
}

// BookingHours lists the hourly slots offered by every venue.
func BookingHours() []SlotTime {
	hours := make([]SlotTime, 0, lastBookingHour-firstBookingHour+1)
	for hour := firstBookingHour; hour <= lastBookingHour; hour++ {
		slotTime, _ := SlotTimeAt(hour)
		hours = append(hours, slotTime)
	}
	return hours
}

type catalog struct {
	venues []Venue
	byID   map[VenueID]Venue
}

func newCatalog(venues []Venue) catalog {
	indexed := catalog{
		venues: make([]Venue, 0, len(venues)),
		byID:   make(map[VenueID]Venue, len(venues)),
	}
	for _, venue := range venues {
		cloned := venue.clone()
		indexed.venues = append(indexed.venues, cloned)
		indexed.byID[cloned.ID] = cloned
	}
	return indexed
}

func (indexed catalog) list() []Venue {
	venues := make([]Venue, 0, len(indexed.venues))
	for _, venue := range indexed.venues {
		venues = append(venues, venue.clone())
	}
	return venues
}

func (indexed catalog) lookup(id VenueID) (Venue, bool) {
	venue, found := indexed.byID[id]
	if !found {
		return Venue{}, false
	}
	return venue.clone(), true
}
