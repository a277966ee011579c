package catalog

import "github.com/shopspring/decimal"

// Product is the read-only catalog entry served by the product API.
type Product struct {
	ID                 int             `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	Rating             float64         `json:"rating"`
	Stock              int             `json:"stock"`
	Brand              string          `json:"brand"`
	Category           string          `json:"category"`
	Thumbnail          string          `json:"thumbnail"`
	Images             []string        `json:"images"`
}

// Page is one response of the paged product listing.
type Page struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}
