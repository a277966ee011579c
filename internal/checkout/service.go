package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the slice of the cart store checkout reads and empties.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context)
}

type SummaryLine struct {
	ProductID int             `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Summary struct {
	Lines         []SummaryLine   `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	Total         decimal.Decimal `json:"total"`
}

// Confirmation describes a placed order. Nothing is charged or stored.
type Confirmation struct {
	OrderID    uuid.UUID `json:"order_id"`
	PlacedAt   time.Time `json:"placed_at"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Address    string    `json:"address"`
	CardType   CardType  `json:"card_type"`
	MaskedCard string    `json:"masked_card"`
	Summary    Summary   `json:"summary"`
}

type Service struct {
	cart     Cart
	validate *validator.Validate
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(c Cart, logg *logger.Logger) (*Service, error) {
	if c == nil {
		return nil, fmt.Errorf("cart required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		cart:     c,
		validate: newValidator(),
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Summary lists the cart lines with their totals.
func (s *Service) Summary(ctx context.Context) Summary {
	return summarize(s.cart.Snapshot())
}

func summarize(snap cart.Snapshot) Summary {
	out := Summary{
		Lines:         make([]SummaryLine, 0, len(snap.Items)),
		TotalQuantity: snap.TotalQuantity,
		Total:         snap.TotalPrice,
	}
	for _, item := range snap.Items {
		out.Lines = append(out.Lines, SummaryLine{
			ProductID: item.ProductID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			LineTotal: item.Subtotal(),
		})
	}
	return out
}

// PlaceOrder validates the form, confirms the order and empties the cart.
func (s *Service) PlaceOrder(ctx context.Context, form Form) (*Confirmation, error) {
	form = form.Normalize()
	if err := Validate(s.validate, form); err != nil {
		return nil, err
	}

	snap := s.cart.Snapshot()
	if snap.Count == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	confirmation := &Confirmation{
		OrderID:    uuid.New(),
		PlacedAt:   s.now().UTC(),
		Name:       form.Name,
		Email:      form.Email,
		Address:    form.Address,
		CardType:   DetectCardType(form.CardNumber),
		MaskedCard: MaskCardNumber(form.CardNumber),
		Summary:    summarize(snap),
	}
	s.cart.Clear(ctx)

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":   confirmation.OrderID.String(),
		"line_items": len(confirmation.Summary.Lines),
		"total":      confirmation.Summary.Total.StringFixed(2),
		"card_type":  string(confirmation.CardType),
	}), "checkout.order_placed")
	return confirmation, nil
}
