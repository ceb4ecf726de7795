package request

type OrderItem struct {
	EventID  string `json:"event_id"`
	Quantity int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items     []OrderItem `json:"items" validate:"required,min=1"`
	ReturnURL string      `json:"return_url" validate:"required,url"`
}

type CartValidationRequest struct {
	EventIDs []string `json:"event_ids" validate:"required,min=1"`
}
