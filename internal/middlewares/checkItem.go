package middlewares

import (
	"fmt"
	"gcoin-shop/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"strings"
)

var validate = validator.New()

func CheckItem(name string, price, stock int, imageURL *string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}

	if price <= 0 || price > models.MaxAmount {
		return fmt.Errorf("%w: price must be between 1 and %d", ErrInvalidItem, models.MaxAmount)
	}

	if stock <= 0 || stock > models.MaxAmount {
		return fmt.Errorf("%w: stock must be between 1 and %d", ErrInvalidItem, models.MaxAmount)
	}

	if imageURL != nil {
		if err := validate.Var(*imageURL, "required,http_url"); err != nil {
			return fmt.Errorf("%w: image url must be an http(s) url", ErrInvalidItem)
		}
	}

	return nil
}
