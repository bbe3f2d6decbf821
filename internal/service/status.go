package service

import (
	"context"
	"storefront/internal/config"
	"storefront/internal/dto"

	"gorm.io/gorm"
)

type StatusService interface {
	Check(ctx context.Context) *dto.StatusResponse
}

type statusServiceImpl struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewStatusService(db *gorm.DB, cfg *config.Config) StatusService {
	return &statusServiceImpl{
		db:  db,
		cfg: cfg,
	}
}

// Check reports presence of secrets, never their values.
func (s *statusServiceImpl) Check(ctx context.Context) *dto.StatusResponse {
	resp := &dto.StatusResponse{
		Database:          "ok",
		StripeSecretKey:   s.cfg.Stripe.SecretKey != "",
		WebhookSecret:     s.cfg.Stripe.WebhookSecret != "",
		BaseURL:           s.cfg.BaseURL,
		PromoCodesEnabled: s.cfg.Checkout.EnablePromoCodes,
	}

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		resp.Database = "unreachable"
	}

	return resp
}
