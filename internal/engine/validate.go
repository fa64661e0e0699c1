package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"coreforge/internal/api"
	"coreforge/internal/common"
)

// validate enforces the required-field combinations spec.md §4.2 lists per
// order type, plus the precision limits cfg.Limits names for every price
// and quantity field actually present. Errors are wrapped in ErrValidation
// so callers can distinguish rejection from other failure.
func validate(req api.OrderRequest, cfg Config) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if !req.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if err := cfg.Limits.Validate("quantity", req.Quantity); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	switch req.Type {
	case common.Market:
		if req.Price != nil {
			return fmt.Errorf("%w: market orders must not set price", ErrValidation)
		}
		if req.StopPrice != nil || req.TakeProfitPrice != nil {
			return fmt.Errorf("%w: market orders must not set a trigger price", ErrValidation)
		}

	case common.Limit, common.IOC, common.FOK:
		if req.Price == nil {
			return fmt.Errorf("%w: %s orders require price", ErrValidation, req.Type)
		}
		if err := validatePositivePrice(cfg, "price", req.Price); err != nil {
			return err
		}

	case common.Stop:
		if req.StopPrice == nil {
			return fmt.Errorf("%w: stop orders require stop_price", ErrValidation)
		}
		if req.Price != nil {
			return fmt.Errorf("%w: stop orders must not set price", ErrValidation)
		}
		if err := validatePositivePrice(cfg, "stop_price", req.StopPrice); err != nil {
			return err
		}

	case common.StopLimit:
		if req.StopPrice == nil || req.Price == nil {
			return fmt.Errorf("%w: stop_limit orders require both stop_price and price", ErrValidation)
		}
		if err := validatePositivePrice(cfg, "stop_price", req.StopPrice); err != nil {
			return err
		}
		if err := validatePositivePrice(cfg, "price", req.Price); err != nil {
			return err
		}

	case common.TakeProfit:
		if req.TakeProfitPrice == nil {
			return fmt.Errorf("%w: take_profit orders require take_profit_price", ErrValidation)
		}
		if req.Price != nil {
			return fmt.Errorf("%w: take_profit orders must not set price", ErrValidation)
		}
		if err := validatePositivePrice(cfg, "take_profit_price", req.TakeProfitPrice); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%w: unknown order type %v", ErrValidation, req.Type)
	}

	return nil
}

func validatePositivePrice(cfg Config, field string, p *decimal.Decimal) error {
	if !p.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrValidation, field)
	}
	if err := cfg.Limits.Validate(field, *p); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return nil
}
