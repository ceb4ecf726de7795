package request

type VerifyTicketRequest struct {
	Code string `json:"code" validate:"required"`
}

type CheckInTicketRequest struct {
	Code string `json:"code" validate:"required"`
}
