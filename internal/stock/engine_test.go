package stock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func batchFixture(id int64, available float64) Batch {
	return Batch{ID: id, ItemID: 1, TotalQuantity: available, AvailableQuantity: available, Status: StatusAvailable}
}

func TestPlanDepletionRejectsZeroQuantity(t *testing.T) {
	_, err := PlanDepletion([]Batch{batchFixture(1, 10)}, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = PlanDepletion([]Batch{batchFixture(1, 10)}, -3)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlanDepletionSingleBatch(t *testing.T) {
	plan, err := PlanDepletion([]Batch{batchFixture(1, 10)}, 4)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.Equal(t, int64(1), plan[0].BatchID)
	require.InDelta(t, 4, plan[0].Quantity, 1e-9)
	require.False(t, plan[0].Drained)
}

func TestPlanDepletionExactDrainMarksBatch(t *testing.T) {
	plan, err := PlanDepletion([]Batch{batchFixture(1, 4)}, 4)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	require.True(t, plan[0].Drained)
}

func TestPlanDepletionNewestFirst(t *testing.T) {
	// Batch 1 added first with 10, batch 2 added second with 5.
	batches := []Batch{batchFixture(1, 10), batchFixture(2, 5)}

	plan, err := PlanDepletion(batches, 8)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	// Newest batch drains fully, remainder carries to the older one.
	require.Equal(t, int64(2), plan[0].BatchID)
	require.InDelta(t, 5, plan[0].Quantity, 1e-9)
	require.True(t, plan[0].Drained)

	require.Equal(t, int64(1), plan[1].BatchID)
	require.InDelta(t, 3, plan[1].Quantity, 1e-9)
	require.False(t, plan[1].Drained)

	var total float64
	for _, c := range plan {
		total += c.Quantity
	}
	require.InDelta(t, 8, total, 1e-9)
}

func TestPlanDepletionInsufficientFailsWithoutPlan(t *testing.T) {
	batches := []Batch{batchFixture(1, 3), batchFixture(2, 2)}
	plan, err := PlanDepletion(batches, 6)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Nil(t, plan)
}

func TestPlanDepletionSkipsUnavailableBatches(t *testing.T) {
	perished := batchFixture(2, 0)
	perished.Status = StatusUnavailable
	batches := []Batch{batchFixture(1, 10), perished, batchFixture(3, 2)}

	plan, err := PlanDepletion(batches, 5)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.Equal(t, int64(3), plan[0].BatchID)
	require.Equal(t, int64(1), plan[1].BatchID)
	require.InDelta(t, 3, plan[1].Quantity, 1e-9)
}
