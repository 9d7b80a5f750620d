package settings

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service reads and writes store_settings. The delivery fee falls back to
// the configured default when the row is absent or unreadable.
type Service struct {
	db         *gorm.DB
	defaultFee int64
	logg       *logger.Logger
}

func NewService(db *gorm.DB, defaultFeeCents int64, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db required")
	}
	if defaultFeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default delivery fee must be non-negative")
	}
	return &Service{db: db, defaultFee: defaultFeeCents, logg: logg}, nil
}

// DeliveryFee returns the current fee in cents.
func (s *Service) DeliveryFee(ctx context.Context) (int64, error) {
	var row models.StoreSetting
	err := s.db.WithContext(ctx).Where("key = ?", models.SettingDeliveryFeeCents).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaultFee, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fee")
	}
	fee, err := strconv.ParseInt(row.Value, 10, 64)
	if err != nil || fee < 0 {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "value", row.Value), "invalid stored delivery fee, using default")
		}
		return s.defaultFee, nil
	}
	return fee, nil
}

// SetDeliveryFee upserts the fee.
func (s *Service) SetDeliveryFee(ctx context.Context, cents int64) error {
	if cents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must be non-negative")
	}
	row := models.StoreSetting{Key: models.SettingDeliveryFeeCents, Value: strconv.FormatInt(cents, 10)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save delivery fee")
	}
	return nil
}
