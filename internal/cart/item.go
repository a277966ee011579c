package cart

import (
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is one product in the cart. The price and display fields are the values
// captured when the product was first added.
type LineItem struct {
	ProductID          int             `json:"id"`
	Title              string          `json:"title"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage,omitempty"`
	Thumbnail          string          `json:"thumbnail,omitempty"`
	Brand              string          `json:"brand,omitempty"`
	Category           string          `json:"category,omitempty"`
	Quantity           int             `json:"quantity"`
}

func newLineItem(p catalog.Product) LineItem {
	return LineItem{
		ProductID:          p.ID,
		Title:              p.Title,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		Thumbnail:          p.Thumbnail,
		Brand:              p.Brand,
		Category:           p.Category,
		Quantity:           1,
	}
}

// Subtotal is price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Snapshot is a point-in-time read model of the cart.
type Snapshot struct {
	Items         []LineItem      `json:"items"`
	Count         int             `json:"count"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

func snapshotOf(items []LineItem) Snapshot {
	snap := Snapshot{
		Items:      cloneItems(items),
		Count:      len(items),
		TotalPrice: decimal.Zero,
	}
	for _, item := range items {
		snap.TotalQuantity += item.Quantity
		snap.TotalPrice = snap.TotalPrice.Add(item.Subtotal())
	}
	return snap
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
