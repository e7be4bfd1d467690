package domain

// CartItem is the raw, untrusted shape of one cart entry as posted by the
// storefront. Qty arrives as a JSON number and is floored to an int of at
// least 1 during assembly; Amount is in minor units, Price in major units.
type CartItem struct {
	Slug     string   `json:"slug"`
	Qty      float64  `json:"qty"`
	Size     string   `json:"size,omitempty"`
	Color    string   `json:"color,omitempty"`
	PriceID  string   `json:"priceId,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// LineItem is one priced, quantified entry of a checkout session request.
// Either PriceID is set and the remaining price fields are zero, or
// UnitAmount/Currency/Name carry an inline price.
type LineItem struct {
	Quantity   int    `json:"quantity"`
	PriceID    string `json:"price_id,omitempty"`
	UnitAmount int64  `json:"unit_amount,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Name       string `json:"name,omitempty"`
	Image      string `json:"image,omitempty"`
	Slug       string `json:"slug,omitempty"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
}

// ShippingOption is one delivery choice offered at checkout, priced in
// minor units with a business-day delivery estimate.
type ShippingOption struct {
	Label      string `json:"label"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	EtaMinDays int64  `json:"eta_min_days"`
	EtaMaxDays int64  `json:"eta_max_days"`
}
