package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnitPricingTotal(t *testing.T) {
	p := UnitPricing{UnitPrice: 350}
	require.Equal(t, PricingUnit, p.Kind())
	require.InDelta(t, 1050, p.Total(3), 1e-9)
}

func TestShotPricingTotal(t *testing.T) {
	// one bottle poured as 16 shots at 50 each
	p := ShotPricing{ShotPrice: 50, ShotsPerContainer: 16}
	require.Equal(t, PricingShot, p.Kind())
	require.InDelta(t, 800, p.Total(1), 1e-9)
	require.InDelta(t, 1600, p.Total(2), 1e-9)
}

func TestPricingForSelectsStrategy(t *testing.T) {
	byContainer := pricingFor(LineInput{ItemID: 1, Quantity: 2}, 1200)
	require.Equal(t, PricingUnit, byContainer.Kind())
	require.InDelta(t, 2400, byContainer.Total(2), 1e-9)

	byShot := pricingFor(LineInput{ItemID: 1, Quantity: 2, ShotsPerContainer: 10}, 60)
	require.Equal(t, PricingShot, byShot.Kind())
	require.InDelta(t, 1200, byShot.Total(2), 1e-9)
}
