package dto

// swagger:model
type AddItemRequest struct {
	Name     string  `json:"name" example:"Sword"`
	Price    int     `json:"price" example:"100"`
	Stock    int     `json:"stock" example:"3"`
	ImageURL *string `json:"image_url,omitempty" example:"https://i.imgur.com/eyvdfEw.png"`
}

// swagger:model
type AdjustBalanceRequest struct {
	Delta int `json:"delta" binding:"required,ne=0,min=-2147483647,max=2147483647" example:"-50"`
}
