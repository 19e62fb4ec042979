package pricing

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/logger"
	"github.com/boletera/admin-gateway/pkg/redis"
)

// Service validates calculator input locally and delegates the arithmetic
// to the remote pricing authority. Remote failures surface as retryable
// dependency errors; the caller keeps the entered amount and decides when
// to retry.
type Service struct {
	remote RemoteCalculator
	cache  redis.ConstantsCache
	cfg    config.PricingConfig
	logg   *logger.Logger
}

func NewService(remote RemoteCalculator, cache redis.ConstantsCache, cfg config.PricingConfig, logg *logger.Logger) *Service {
	return &Service{
		remote: remote,
		cache:  cache,
		cfg:    cfg,
		logg:   logg,
	}
}

// FinalPrice computes what the buyer pays so the organizer nets the given
// amount. Non-positive input is rejected before any network round-trip.
func (s *Service) FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error) {
	if !organizerAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer amount must be greater than zero")
	}
	calc, err := s.remote.FinalPrice(ctx, organizerAmount)
	if err != nil {
		return nil, err
	}
	return calc, nil
}

// OrganizerAmount computes the organizer payout for a given buyer-facing
// final price. Inverse of FinalPrice, same contracts.
func (s *Service) OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error) {
	if !finalPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "final price must be greater than zero")
	}
	calc, err := s.remote.OrganizerAmount(ctx, finalPrice)
	if err != nil {
		return nil, err
	}
	return calc, nil
}

// Constants returns the fee-schedule constants used for the calculator's
// explanatory copy. Values are display data only, so a short-TTL cache is
// acceptable here (unlike calculations) and cache failures never block the
// remote read.
func (s *Service) Constants(ctx context.Context) (Constants, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, s.cache.PricingConstantsKey())
		if err == nil {
			var constants Constants
			if err := json.Unmarshal([]byte(cached), &constants); err == nil {
				return constants, nil
			}
			if s.logg != nil {
				s.logg.Warn(ctx, "pricing constants cache entry is corrupt, refetching")
			}
		} else if err != redis.Nil && s.logg != nil {
			s.logg.Warn(ctx, "pricing constants cache read failed")
		}
	}

	constants, err := s.remote.Constants(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(constants); err == nil {
			if err := s.cache.Set(ctx, s.cache.PricingConstantsKey(), string(encoded), s.cfg.ConstantsTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "pricing constants cache write failed")
			}
		}
	}
	return constants, nil
}
