package request

type VerifyPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,max=50"`
}
