package handlers

// HandlerBundle collects every route handler so route registration stays in
// one place.
type HandlerBundle struct {
	Booking *BookingHandler
	Chat    *ChatHandler
	Gateway *ChatGateway
}
