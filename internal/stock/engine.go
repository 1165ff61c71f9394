package stock

import "fmt"

// qtyEpsilon guards float comparisons on quantities.
const qtyEpsilon = 1e-9

// PlanDepletion selects batches to satisfy a requested quantity. Batches must
// be passed in insertion (purchase) order; consumption walks them in reverse,
// most-recently-added first, draining each batch fully before carrying the
// remainder backwards. The aggregate pre-check runs before anything else so a
// short trunk never yields a partial plan.
func PlanDepletion(batches []Batch, quantity float64) ([]Consumption, error) {
	if quantity <= qtyEpsilon {
		return nil, ErrInvalidQuantity
	}

	var available float64
	for _, b := range batches {
		if b.Status == StatusAvailable {
			available += b.AvailableQuantity
		}
	}
	if available+qtyEpsilon < quantity {
		shortfall := quantity - available
		return nil, fmt.Errorf("%w: requested %g, available %g (short %g)", ErrInsufficientStock, quantity, available, shortfall)
	}

	var plan []Consumption
	remaining := quantity
	for i := len(batches) - 1; i >= 0 && remaining > qtyEpsilon; i-- {
		b := batches[i]
		if b.Status != StatusAvailable || b.AvailableQuantity <= qtyEpsilon {
			continue
		}
		take := remaining
		drained := false
		if b.AvailableQuantity <= remaining+qtyEpsilon {
			take = b.AvailableQuantity
			drained = true
		}
		plan = append(plan, Consumption{BatchID: b.ID, Quantity: take, Drained: drained})
		remaining -= take
	}
	return plan, nil
}
