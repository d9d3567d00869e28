package booking

const (
	// CapacityPerSlot is the number of reservations a venue accepts per date and hour.
	CapacityPerSlot = 12
	// PointsPerReservation is awarded to the loyalty profile for every confirmed reservation.
	PointsPerReservation = 150

	MinPartySize = 1
	MaxPartySize = 20

	firstBookingHour = 13
	lastBookingHour  = 22

	firstDashboardHour = 12
	lastDashboardHour  = 24

	estimatedSpendPerGuest = 850
	dashboardVenueCount    = 3

	slotDateLayout = "2006-01-02"
	slotTimeSuffix = ":00"

	operationOpen           = "open"
	operationLoad           = "load"
	operationRefresh        = "refresh"
	operationAddReservation = "add_reservation"
	operationAddPoints      = "add_points"
	operationPublish        = "publish"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	errorOperationService = "service"
	errorSubjectState     = "state"
	errorCodeEncode       = "encode"
	errorCodeIdentifier   = "identifier"
)
