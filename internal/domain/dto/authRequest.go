package dto

// swagger:model
type AuthRequest struct {
	UserID     string `json:"user_id" binding:"required,max=64" example:"208463571839041536"`
	GatewayKey string `json:"gateway_key" binding:"required" example:"secret"`
}

// swagger:model
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// swagger:model
type AuthResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Time         string `json:"time"`
}
