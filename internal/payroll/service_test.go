package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tavern-pos/tavern/internal/shared"
)

type memoryRepo struct {
	entries      []Entry
	expenditures []Expenditure
	nextID       int64
}

func (r *memoryRepo) InsertEntry(ctx context.Context, e *Entry) error {
	r.nextID++
	e.ID = r.nextID
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memoryRepo) GetEntry(ctx context.Context, id int64) (Entry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (r *memoryRepo) ListEntries(ctx context.Context, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if !e.PaidAt.Before(from) && e.PaidAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) InsertExpenditure(ctx context.Context, e *Expenditure) error {
	r.nextID++
	e.ID = r.nextID
	r.expenditures = append(r.expenditures, *e)
	return nil
}

func (r *memoryRepo) GetExpenditure(ctx context.Context, id int64) (Expenditure, error) {
	for _, e := range r.expenditures {
		if e.ID == id {
			return e, nil
		}
	}
	return Expenditure{}, ErrExpenditureNotFound
}

func (r *memoryRepo) ListExpenditures(ctx context.Context, from, to time.Time) ([]Expenditure, error) {
	var out []Expenditure
	for _, e := range r.expenditures {
		if !e.SpentAt.Before(from) && e.SpentAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestRecordEntry(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC) }
	ctx := shared.ContextWithActor(context.Background(), shared.Actor{Name: "wanjiru"})

	entry, err := svc.RecordEntry(ctx, NewEntryInput{EmployeeName: " Otieno ", Role: "barman", Amount: 18000})
	require.NoError(t, err)
	require.Equal(t, "Otieno", entry.EmployeeName)
	require.Equal(t, "wanjiru", entry.RecordedBy)
	require.Equal(t, svc.now(), entry.PaidAt)

	_, err = svc.RecordEntry(ctx, NewEntryInput{EmployeeName: "", Amount: 100})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.RecordEntry(ctx, NewEntryInput{EmployeeName: "Otieno", Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRecordExpenditure(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)

	exp, err := svc.RecordExpenditure(context.Background(), NewExpenditureInput{
		Description: "gas refill", Category: "kitchen", Amount: 3200,
	})
	require.NoError(t, err)
	require.NotZero(t, exp.ID)
	require.False(t, exp.SpentAt.IsZero())

	_, err = svc.RecordExpenditure(context.Background(), NewExpenditureInput{Description: " ", Amount: 10})
	require.ErrorIs(t, err, ErrDescriptionRequired)

	_, err = svc.RecordExpenditure(context.Background(), NewExpenditureInput{Description: "repairs", Amount: -4})
	require.ErrorIs(t, err, ErrInvalidAmount)
}
