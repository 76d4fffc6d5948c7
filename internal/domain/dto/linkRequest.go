package dto

// swagger:model
type LinkRequest struct {
	// Bare handle or instagram profile URL.
	Handle string `json:"handle" binding:"required" example:"https://www.instagram.com/gcoin.official/"`
}

// swagger:model
type LinkResponse struct {
	Handle string `json:"handle" example:"gcoin.official"`
}
