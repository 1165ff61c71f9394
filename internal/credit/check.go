package credit

// CheckAdvance validates a requested advance against the customer's
// flat limit and against the headroom left after the credit already
// committed in the same day window. Both checks run before any write
// so a rejected advance leaves no trace.
func CheckAdvance(limit, committedToday, advance float64) error {
	if advance <= 0 {
		return ErrInvalidAmount
	}
	if advance > limit {
		return ErrLimitExceeded
	}
	if advance > limit-committedToday {
		return ErrDailyLimitReached
	}
	return nil
}
