package models

type CreatePaymentRequest struct {
	BookingID string `json:"bookingId"`
}

type CreatePaymentResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

type VerifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

type VerifyPaymentResponse struct {
	BookingID     string        `json:"booking_id"`
	PaymentStatus string        `json:"payment_status"`
	BookingStatus BookingStatus `json:"booking_status"`
	SessionStatus string        `json:"session_status"`
}
