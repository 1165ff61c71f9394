package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// TaskLowStockScan triggers the nightly sweep for batches at or
	// below their threshold.
	TaskLowStockScan = "stock:lowstock-scan"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask constructs the nightly scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanner sweeps the batch table and fans alert SMS out to the
// configured recipients. The sweep complements the per-mutation alerts:
// it catches trunks that dropped below threshold while notifications
// were failing.
type LowStockScanner struct {
	logger     *slog.Logger
	pool       *pgxpool.Pool
	client     *Client
	recipients []string
}

// NewLowStockScanner constructs the scanner.
func NewLowStockScanner(logger *slog.Logger, pool *pgxpool.Pool, client *Client, recipients []string) *LowStockScanner {
	return &LowStockScanner{logger: logger, pool: pool, client: client, recipients: recipients}
}

type lowTrunk struct {
	itemName  string
	available float64
	threshold float64
}

// HandleScan processes TaskLowStockScan tasks.
func (s *LowStockScanner) HandleScan(ctx context.Context, t *asynq.Task) error {
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(s.recipients) == 0 {
		return nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT i.name,
		       COALESCE(SUM(b.available_quantity) FILTER (WHERE b.stock_status = 'AVAILABLE'), 0) AS available,
		       MAX(b.threshold) AS threshold
		FROM items i
		JOIN stock_batches b ON b.item_id = i.id
		GROUP BY i.id, i.name
		HAVING COALESCE(SUM(b.available_quantity) FILTER (WHERE b.stock_status = 'AVAILABLE'), 0) <= MAX(b.threshold)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var low []lowTrunk
	for rows.Next() {
		var lt lowTrunk
		if err := rows.Scan(&lt.itemName, &lt.available, &lt.threshold); err != nil {
			return err
		}
		low = append(low, lt)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(low) == 0 {
		s.logger.Info("low stock scan clean")
		return nil
	}

	for _, lt := range low {
		msg := lowStockScanMessage(lt)
		if _, err := s.client.EnqueueSMS(ctx, SMSPayload{Message: msg, Recipients: s.recipients}); err != nil {
			s.logger.Warn("low stock alert enqueue failed",
				slog.String("item", lt.itemName), slog.Any("error", err))
		}
	}
	s.logger.Info("low stock scan complete", slog.Int("items", len(low)))
	return nil
}
