package dto

// swagger:model
type ErrorResponse struct {
	Error   string `json:"error" example:"insufficient_funds"`
	Message string `json:"message" example:"not enough coins"`
}
