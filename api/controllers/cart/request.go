package cart

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	// defaults to 1 when omitted
	Quantity *int   `json:"quantity"`
	Size     string `json:"size"`
	Color    string `json:"color"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type promotionRequest struct {
	Code string `json:"code" validate:"required"`
}
