package orders

// Pricing computes an order line total from the quantity requested.
type Pricing interface {
	Kind() PricingKind
	Total(quantity float64) float64
}

// UnitPricing charges a flat price per unit sold. Used for dishes and
// for bar items sold by the container.
type UnitPricing struct {
	UnitPrice float64
}

func (p UnitPricing) Kind() PricingKind { return PricingUnit }

func (p UnitPricing) Total(quantity float64) float64 {
	return p.UnitPrice * quantity
}

// ShotPricing charges per shot poured. The batch price is interpreted
// as the price of one shot, and each container yields a fixed number
// of shots, so a quantity of containers prices as
// shot price x shots per container x containers.
type ShotPricing struct {
	ShotPrice         float64
	ShotsPerContainer float64
}

func (p ShotPricing) Kind() PricingKind { return PricingShot }

func (p ShotPricing) Total(quantity float64) float64 {
	return p.ShotPrice * p.ShotsPerContainer * quantity
}

func pricingFor(line LineInput, price float64) Pricing {
	if line.ShotsPerContainer > 0 {
		return ShotPricing{ShotPrice: price, ShotsPerContainer: line.ShotsPerContainer}
	}
	return UnitPricing{UnitPrice: price}
}
