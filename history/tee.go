package history

import (
	"context"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/date"
	"go.uber.org/zap"
)

// Tee records into a primary recorder and mirrors the same entry into
// secondary ones. Only the primary error is returned; mirror failures are
// logged.
type Tee struct {
	Primary stockbook.DailyRecorder
	Mirrors []stockbook.DailyRecorder
	Log     *zap.SugaredLogger
}

func (t *Tee) RecordDaily(ctx context.Context, on date.Date, s stockbook.DailySnapshot) error {
	err := t.Primary.RecordDaily(ctx, on, s)
	for _, m := range t.Mirrors {
		if merr := m.RecordDaily(ctx, on, s); merr != nil && t.Log != nil {
			t.Log.Warnw("history mirror failed", "date", on, "error", merr)
		}
	}
	return err
}
