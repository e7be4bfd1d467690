package checkout

import "github.com/hannalund/shop-backend/internal/domain"

// ShippingOptions returns the two delivery choices offered at checkout:
// free pickup, and standard delivery which is free once the subtotal
// reaches the configured threshold. Pure function of its inputs.
func ShippingOptions(subtotal int64, currency string, cfg Config) []domain.ShippingOption {
	standard := cfg.ShippingFee
	if subtotal >= cfg.FreeShippingThreshold {
		standard = 0
	}

	return []domain.ShippingOption{
		{
			Label:      "Free pickup",
			Amount:     0,
			Currency:   currency,
			EtaMinDays: 0,
			EtaMaxDays: 1,
		},
		{
			Label:      "Standard delivery",
			Amount:     standard,
			Currency:   currency,
			EtaMinDays: 2,
			EtaMaxDays: 5,
		},
	}
}
