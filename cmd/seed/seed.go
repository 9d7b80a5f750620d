package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// sessionOpener registers a token id so the session check accepts it.
type sessionOpener interface {
	Open(ctx context.Context, accessID, userID string, ttl time.Duration) error
}

type seedOptions struct {
	ProductName     string
	PriceCents      int64
	DiscountPercent decimal.Decimal
	Sizes           []string
	Colors          []string
	Stock           int
}

type seededUser struct {
	ID    uuid.UUID      `json:"id"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
	Token string         `json:"token"`
}

type seedResult struct {
	ProductID uuid.UUID    `json:"product_id"`
	Stock     int          `json:"stock"`
	Users     []seededUser `json:"users"`
}

type seeder struct {
	db       *gorm.DB
	products *catalog.Repository
	ledger   *inventory.Ledger
	jwt      config.JWTConfig
	sessions sessionOpener
	now      func() time.Time
}

func newSeeder(db *gorm.DB, jwt config.JWTConfig, sessions sessionOpener) *seeder {
	return &seeder{
		db:       db,
		products: catalog.NewRepository(db),
		ledger:   inventory.NewLedger(db),
		jwt:      jwt,
		sessions: sessions,
		now:      time.Now,
	}
}

// Run creates one stocked product plus a customer and an admin with complete
// profiles, and mints a token for each. Users are matched by email so reruns
// reuse them.
func (s *seeder) Run(ctx context.Context, opts seedOptions) (*seedResult, error) {
	if strings.TrimSpace(opts.ProductName) == "" {
		return nil, errors.New("product name is required")
	}
	if opts.PriceCents <= 0 {
		return nil, errors.New("price must be positive")
	}

	product := &models.Product{
		Name:            opts.ProductName,
		PriceCents:      opts.PriceCents,
		DiscountPercent: opts.DiscountPercent,
		Sizes:           opts.Sizes,
		Colors:          opts.Colors,
		IsActive:        true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	result := &seedResult{ProductID: product.ID}
	var actor uuid.UUID
	for _, spec := range []struct {
		email string
		name  string
		role  enums.UserRole
	}{
		{email: "admin@storefront.local", name: "Store Admin", role: enums.UserRoleAdmin},
		{email: "customer@storefront.local", name: "Demo Customer", role: enums.UserRoleUser},
	} {
		user, err := s.ensureUser(ctx, spec.email, spec.name, spec.role)
		if err != nil {
			return nil, err
		}
		if spec.role == enums.UserRoleAdmin {
			actor = user.ID
		}
		token, err := s.mint(ctx, user)
		if err != nil {
			return nil, err
		}
		result.Users = append(result.Users, seededUser{ID: user.ID, Email: user.Email, Role: user.Role, Token: token})
	}

	if opts.Stock > 0 {
		item, err := s.ledger.Restock(ctx, product.ID, actor, opts.Stock)
		if err != nil {
			return nil, fmt.Errorf("restock: %w", err)
		}
		result.Stock = item.StockQty
	}
	return result, nil
}

func (s *seeder) ensureUser(ctx context.Context, email, name string, role enums.UserRole) (*models.User, error) {
	address, country, governorate := "1 Demo Street", "EG", "Cairo"
	user := models.User{
		Name:        name,
		Email:       email,
		Address:     &address,
		Country:     &country,
		Governorate: &governorate,
		Role:        role,
		IsActive:    true,
	}
	err := s.db.WithContext(ctx).
		Where(models.User{Email: email}).
		FirstOrCreate(&user).Error
	if pkgdb.IsUniqueViolation(err, "") {
		// another seed run inserted the same email first
		user = models.User{}
		err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	}
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", email, err)
	}
	return &user, nil
}

func (s *seeder) mint(ctx context.Context, user *models.User) (string, error) {
	jti := uuid.NewString()
	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    jti,
	})
	if err != nil {
		return "", fmt.Errorf("mint token for %s: %w", user.Email, err)
	}
	if s.sessions != nil {
		if err := s.sessions.Open(ctx, jti, user.ID.String(), s.jwt.Expiration()); err != nil {
			return "", fmt.Errorf("open session for %s: %w", user.Email, err)
		}
	}
	return token, nil
}
