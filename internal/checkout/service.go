package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type profileLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type cartStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ClearVersion(ctx context.Context, userID uuid.UUID, version int64) (bool, error)
}

type feeProvider interface {
	DeliveryFee(ctx context.Context) (int64, error)
}

// Service turns a cart into a pending order.
type Service interface {
	Preview(ctx context.Context, userID uuid.UUID) (*Totals, error)
	Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error)
}

// CheckoutInput carries the payment method and the totals the client
// displayed. Claimed totals are optional; when present they must match.
type CheckoutInput struct {
	PaymentMethod        enums.PaymentMethod
	ClaimedSubtotalCents *int64
	ClaimedDeliveryCents *int64
	ClaimedTotalCents    *int64
}

// Totals are the server-side amounts for a cart.
type Totals struct {
	ItemCount        int   `json:"item_count"`
	SubtotalCents    int64 `json:"subtotal_cents"`
	DeliveryFeeCents int64 `json:"delivery_fee_cents"`
	TotalCents       int64 `json:"total_cents"`
}

type service struct {
	tx      txRunner
	orders  orders.Repository
	carts   cartStore
	users   profileLoader
	fees    feeProvider
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.Storefront
}

// NewService builds the checkout service. m may be nil.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	carts cartStore,
	users profileLoader,
	fees feeProvider,
	publisher outboxPublisher,
	logg *logger.Logger,
	m *metrics.Storefront,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if users == nil {
		return nil, fmt.Errorf("profile loader required")
	}
	if fees == nil {
		return nil, fmt.Errorf("fee provider required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:      tx,
		orders:  ordersRepo,
		carts:   carts,
		users:   users,
		fees:    fees,
		outbox:  publisher,
		logg:    logg,
		metrics: m,
	}, nil
}

// Preview prices the current cart without creating anything.
func (s *service) Preview(ctx context.Context, userID uuid.UUID) (*Totals, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := snapshot(c.Items)
	if err != nil {
		return nil, err
	}
	fee, err := s.fees.DeliveryFee(ctx)
	if err != nil {
		return nil, err
	}
	totals := computeTotals(items, fee)
	return &totals, nil
}

// Execute validates the cart and profile, inserts the order together with
// its order_created event, and clears the cart once the insert has committed.
// The clear only applies to the cart version that was ordered; lines added
// while checkout ran are kept.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, error) {
	order, version, err := s.execute(ctx, userID, input)
	s.metrics.Checkout(err)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), order.ID.String())
	cleared, err := s.carts.ClearVersion(ctx, userID, version)
	switch {
	case err != nil:
		s.logg.Error(logCtx, "cart clear after checkout failed", err)
	case !cleared:
		s.logg.Warn(s.logg.WithField(logCtx, "cart_version", version), "cart changed during checkout, kept")
	}
	s.logg.Info(s.logg.WithField(logCtx, "total_cents", order.TotalCents), "order placed")
	return order, nil
}

// execute returns the committed order and the cart version it was built from.
func (s *service) execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*models.Order, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be online or cod")
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(c.Items) == 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if missing := user.MissingProfileFields(); len(missing) > 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeProfileIncomplete, "complete your profile before checking out").
			WithDetails(map[string]any{"missing_fields": missing})
	}

	items, err := snapshot(c.Items)
	if err != nil {
		return nil, 0, err
	}
	fee, err := s.fees.DeliveryFee(ctx)
	if err != nil {
		return nil, 0, err
	}
	totals := computeTotals(items, fee)
	if err := checkClaims(input, totals); err != nil {
		return nil, 0, err
	}

	order := &models.Order{
		UserID:           user.ID,
		CustomerName:     user.Name,
		CustomerEmail:    user.Email,
		CustomerPhone:    user.Phone,
		ShippingAddress:  *user.Address,
		Country:          *user.Country,
		Governorate:      *user.Governorate,
		Items:            items,
		SubtotalCents:    totals.SubtotalCents,
		DeliveryFeeCents: totals.DeliveryFeeCents,
		TotalCents:       totals.TotalCents,
		PaymentMethod:    input.PaymentMethod,
		Status:           enums.OrderStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: string(user.Role)},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        user.ID,
				ItemCount:     totals.ItemCount,
				TotalCents:    order.TotalCents,
				PaymentMethod: order.PaymentMethod,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}
		return nil, 0, err
	}
	return order, c.Version, nil
}

// snapshot copies cart lines into order items, rejecting lines whose stored
// totals do not match their price, discount and quantity.
func snapshot(lines []models.CartLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil || line.Quantity < 1 || line.UnitPriceCents < 0 || !cart.ValidDiscount(line.DiscountPercent) {
			return nil, malformed(fmt.Sprintf("line %d is invalid", i))
		}
		if want := cart.LineTotal(line.UnitPriceCents, line.DiscountPercent, line.Quantity); want != line.LineTotalCents {
			return nil, malformed(fmt.Sprintf("line %d total %d does not match %d", i, line.LineTotalCents, want))
		}
		items = append(items, models.OrderItem{
			ProductID:       line.ProductID,
			Name:            line.Name,
			Image:           line.Image,
			Quantity:        line.Quantity,
			Size:            line.Size,
			Color:           line.Color,
			UnitPriceCents:  line.UnitPriceCents,
			DiscountPercent: line.DiscountPercent,
			LineTotalCents:  line.LineTotalCents,
		})
	}
	return items, nil
}

func computeTotals(items []models.OrderItem, fee int64) Totals {
	t := Totals{DeliveryFeeCents: fee}
	for _, item := range items {
		t.ItemCount += item.Quantity
		t.SubtotalCents += item.LineTotalCents
	}
	t.TotalCents = t.SubtotalCents + fee
	return t
}

func checkClaims(input CheckoutInput, totals Totals) error {
	mismatch := map[string]any{}
	if input.ClaimedSubtotalCents != nil && *input.ClaimedSubtotalCents != totals.SubtotalCents {
		mismatch["subtotal_cents"] = totals.SubtotalCents
	}
	if input.ClaimedDeliveryCents != nil && *input.ClaimedDeliveryCents != totals.DeliveryFeeCents {
		mismatch["delivery_fee_cents"] = totals.DeliveryFeeCents
	}
	if input.ClaimedTotalCents != nil && *input.ClaimedTotalCents != totals.TotalCents {
		mismatch["total_cents"] = totals.TotalCents
	}
	if len(mismatch) > 0 {
		return malformed("totals do not match").WithDetails(map[string]any{"expected": mismatch})
	}
	return nil
}

func malformed(reason string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "malformed order: "+reason)
}
