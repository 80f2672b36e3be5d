package renderer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/date"
	"github.com/etnz/stockbook/storage"
)

const testSnapshot = `{
  "stocks": [
    {"symbol": "AAPL", "quantity": 10, "cost_basis": 150, "last_price": 180, "dividend_yield": 0.5},
    {"symbol": "KO", "quantity": 5, "cost_basis": 60, "last_price": 57}
  ],
  "cash": 1000,
  "transactions": [
    {"timestamp": "2025-03-01T10:00:00Z", "symbol": "AAPL", "side": "buy", "quantity": 10, "unit_price": 150, "gross_amount": 1500, "commission": 1.5, "net_amount": 1501.5},
    {"timestamp": "2025-03-02T10:00:00Z", "symbol": "KO", "side": "buy", "quantity": 5, "unit_price": 60, "gross_amount": 300, "commission": 0.3, "net_amount": 300.3},
    {"timestamp": "2025-03-03T10:00:00Z", "symbol": "MSFT", "side": "sell", "quantity": 5, "unit_price": 330, "gross_amount": 1650, "commission": 1.65, "net_amount": 1648.35}
  ],
  "realized_pnl": [
    {"timestamp": "2025-03-03T10:00:00Z", "symbol": "MSFT", "quantity": 5, "buy_price": 300, "sell_price": 330, "realized_profit": 148.35, "realized_pct": 10, "commission": 1.65}
  ],
  "stock_memos": {"AAPL": [{"timestamp": "2025-03-01T10:00:00Z", "side": "buy", "text": "long term"}]},
  "target_settings": {"AAPL_take": 15, "KO_stop": 5},
  "total_commission": 3.45,
  "cash_flows": [
    {"timestamp": "2025-02-28T10:00:00Z", "amount": 2000, "memo": "salary"},
    {"timestamp": "2025-03-05T10:00:00Z", "amount": -200}
  ],
  "currency": "USD"
}`

func testLedger(t *testing.T) *stockbook.Ledger {
	t.Helper()
	l, err := stockbook.UnmarshalLedger([]byte(testSnapshot))
	if err != nil {
		t.Fatalf("UnmarshalLedger() failed: %v", err)
	}
	return l
}

// assertContains checks that every want is in got.
func assertContains(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestHoldingMarkdown(t *testing.T) {
	got := HoldingMarkdown(testLedger(t))
	assertContains(t, got,
		"# Holding",
		"Amounts in USD.",
		"| AAPL | 10 | $150.00 | $180.00 | $1,800.00 | +300.00 | +20.00% | 0.50% | long term |",
		"| KO | 5 | $60.00 | $57.00 | $285.00 | -15.00 | -5.00% | - |  |",
		"| Invested | $1,800.00 |",
		"| Unrealized | +285.00 |",
		"| Return | +15.83% |",
		"| Cash | $1,000.00 |",
		"| **Total Assets** | **$3,085.00** |",
		"| Commission Paid | $3.45 |",
		"## Alerts",
		"- AAPL is up +20.00%, take profit at 15.00%",
		"- KO fell to -5.00%, stop loss at -5.00%",
	)
	if strings.Contains(got, "error ") {
		t.Errorf("template error in:\n%s", got)
	}
}

func TestHoldingMarkdownEmpty(t *testing.T) {
	got := HoldingMarkdown(stockbook.NewLedger("EUR"))
	assertContains(t, got, "Amounts in EUR.", "No open position.")
	if strings.Contains(got, "## Alerts") {
		t.Errorf("unexpected alerts section in:\n%s", got)
	}
}

func TestTransactionsMarkdown(t *testing.T) {
	l := testLedger(t)
	got := TransactionsMarkdown(l, "")
	assertContains(t, got, "| buy | AAPL | 10 | 150.00 | 1,500.00 | 1.50 | 1,501.50 |", "| sell | MSFT | 5 |")

	got = TransactionsMarkdown(l, "KO")
	assertContains(t, got, "# Transactions of KO", "| buy | KO | 5 |")
	if strings.Contains(got, "AAPL") {
		t.Errorf("AAPL listed in KO transactions:\n%s", got)
	}

	got = TransactionsMarkdown(l, "TSLA")
	assertContains(t, got, "No transaction.")
	if strings.Contains(got, "| Date |") {
		t.Errorf("empty table printed:\n%s", got)
	}
}

func TestTransaction(t *testing.T) {
	tx := stockbook.Transaction{
		Symbol: "AAPL", Side: stockbook.Sell, Quantity: 3,
		UnitPrice: stockbook.M(200), Commission: stockbook.M(0.6), Net: stockbook.M(599.4),
	}
	if got, want := Transaction(tx), "Sold 3 AAPL at 200.00 for 599.40 (commission 0.60)"; got != want {
		t.Errorf("Transaction() = %q, want %q", got, want)
	}
}

func TestReceipt(t *testing.T) {
	flow := stockbook.CashFlow{Amount: stockbook.M(-50)}
	got := Receipt(stockbook.Receipt{CashFlow: &flow, SaveErr: errors.New("backup1: disk full")})
	assertContains(t, got, "Withdrew 50.00.", "**Warning:** backup1: disk full")

	realized := stockbook.RealizedTrade{Profit: stockbook.M(148.35), Pct: stockbook.M(10).Decimal()}
	got = Receipt(stockbook.Receipt{
		Transaction: stockbook.Transaction{Symbol: "MSFT", Side: stockbook.Sell, Quantity: 5, UnitPrice: stockbook.M(330)},
		Realized:    &realized,
	})
	assertContains(t, got, "Sold 5 MSFT at 330.00", "Realized +148.35 (+10.00%).")
}

func TestGainsMarkdown(t *testing.T) {
	got := GainsMarkdown(testLedger(t))
	assertContains(t, got,
		"| MSFT | 5 | 300.00 | 330.00 | +148.35 | +10.00% |",
		"| **Total** | | | | | **+148.35** | |",
		"Best trade: MSFT on 2025-03-03, +10.00% (+148.35)",
		"Worst trade: MSFT on 2025-03-03",
		"Commission paid on sells: 1.65, on all trades: 3.45",
	)

	got = GainsMarkdown(stockbook.NewLedger("USD"))
	assertContains(t, got, "No realized trade.")
	if strings.Contains(got, "Best trade") {
		t.Errorf("unexpected best trade in:\n%s", got)
	}
}

func TestCashFlowsMarkdown(t *testing.T) {
	got := CashFlowsMarkdown(testLedger(t))
	assertContains(t, got, "| +2,000.00 | salary |", "| -200.00 |  |", "Deposited 2,000.00, withdrew 200.00, cash is 1,000.00.")
	assertContains(t, CashFlowsMarkdown(stockbook.NewLedger("USD")), "No deposit or withdrawal.")
}

func TestMemosMarkdown(t *testing.T) {
	l := testLedger(t)
	assertContains(t, MemosMarkdown(l, ""), "## AAPL", "(buy): long term")
	assertContains(t, MemosMarkdown(l, "KO"), "No memo.")
}

func TestHistoryMarkdown(t *testing.T) {
	var h date.History[stockbook.DailySnapshot]
	h.Append(date.New(2025, time.March, 13), stockbook.DailySnapshot{TotalAssets: stockbook.M(3000), Cash: stockbook.M(1000), StockCount: 2})
	h.Append(date.New(2025, time.March, 14), stockbook.DailySnapshot{TotalAssets: stockbook.M(3085), Cash: stockbook.M(1000), StockCount: 2})
	h.Append(date.New(2025, time.April, 1), stockbook.DailySnapshot{TotalAssets: stockbook.M(3100), StockCount: 2})

	got := HistoryMarkdown(&h, date.Range{})
	assertContains(t, got, "# History\n", "| 2025-03-13 |", "| 3,085.00 | +85.00 | 2 |", "| 2025-04-01 |")

	got = HistoryMarkdown(&h, date.NewRange(date.New(2025, time.March, 14), date.Monthly))
	assertContains(t, got, "# History from 2025-03-01 to 2025-03-31", "| 2025-03-14 |")
	if strings.Contains(got, "2025-04-01") {
		t.Errorf("day out of range listed:\n%s", got)
	}

	var empty date.History[stockbook.DailySnapshot]
	assertContains(t, HistoryMarkdown(&empty, date.Range{}), "No recorded day.")
}

func TestSummaryMarkdown(t *testing.T) {
	var h date.History[stockbook.DailySnapshot]
	h.Append(date.New(2025, time.March, 13), stockbook.DailySnapshot{TotalAssets: stockbook.M(3000)})

	got := SummaryMarkdown(testLedger(t), &h, date.New(2025, time.March, 14))
	assertContains(t, got,
		"# Summary on 2025-03-14",
		"Total assets are $3,085.00 USD (+85.00 since the previous record).",
		"Today's total profit is +433.35: +285.00 unrealized (+15.83%) and +148.35 realized.",
		"2 positions, $1,000.00 in cash.",
		"2 alerts:",
	)
}

func TestRefreshMarkdown(t *testing.T) {
	got := RefreshMarkdown(stockbook.Refresh{
		Updates: []stockbook.PriceUpdate{
			{Symbol: "AAPL", OldPrice: stockbook.M(180), NewPrice: stockbook.M(185)},
			{Symbol: "KO", OldPrice: stockbook.M(57), NewPrice: stockbook.M(57), Err: errors.New("timeout")},
		},
		Snapshot:  stockbook.DailySnapshot{TotalAssets: stockbook.M(3135)},
		RecordErr: errors.New("read-only"),
	})
	assertContains(t, got,
		"| AAPL | 180.00 | 185.00 | +5.00 | ok |",
		"| KO | 57.00 | 57.00 | - | failed: timeout |",
		"1 of 2 prices could not be refreshed.",
		"Total assets: 3,135.00",
		"daily history not recorded: read-only",
	)
}

func TestRecoveryMarkdown(t *testing.T) {
	tests := []struct {
		name string
		r    storage.Recovery
		want string
	}{
		{"primary", storage.Recovery{Source: "ledger.json"}, "Ledger loaded from ledger.json."},
		{"degraded", storage.Recovery{Source: "backup1", Degraded: true, Skipped: []storage.Skipped{{Location: "ledger.json", Err: stockbook.ErrStorageIntegrity}}}, "**Recovered** the ledger from backup1."},
		{"failed", storage.Recovery{Failed: true}, "**Recovery failed:**"},
		{"fresh", storage.Recovery{Failed: true, Fresh: true}, "No ledger found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertContains(t, RecoveryMarkdown(tt.r), tt.want)
		})
	}
	got := RecoveryMarkdown(tests[1].r)
	assertContains(t, got, "- skipped ledger.json:")
}

func TestStatusMarkdown(t *testing.T) {
	got := StatusMarkdown([]storage.Status{
		{Location: "ledger.json", Positions: 2, Cash: stockbook.M(1000)},
		{Location: "backup1", Err: storage.ErrNotFound},
		{Location: "backup2", Err: stockbook.ErrStorageIntegrity},
	})
	assertContains(t, got, "| ledger.json | ok |", "| 2 | 1,000.00 |", "| backup1 | missing |", "| backup2 | invalid:")
}

func TestArchivesMarkdown(t *testing.T) {
	assertContains(t, ArchivesMarkdown(nil), "No archive.")
	got := ArchivesMarkdown([]storage.Archive{{Name: "ledger-20250314T163000.json", Time: time.Now(), Size: 512}})
	assertContains(t, got, "| ledger-20250314T163000.json |", "| 512 |")
}

func TestHTML(t *testing.T) {
	got, err := HTML(HoldingMarkdown(testLedger(t)))
	if err != nil {
		t.Fatalf("HTML() failed: %v", err)
	}
	assertContains(t, got, "<h1>Holding</h1>", "<table>", "AAPL</td>")
}

func TestConditionalBlock(t *testing.T) {
	var b strings.Builder
	ConditionalBlock(&b, func(w io.Writer) bool { w.Write([]byte("dropped")); return false })
	ConditionalBlock(&b, func(w io.Writer) bool { w.Write([]byte("kept")); return true })
	if got := b.String(); got != "kept" {
		t.Errorf("ConditionalBlock() wrote %q, want %q", got, "kept")
	}
}

func TestThresholdsMarkdown(t *testing.T) {
	got := ThresholdsMarkdown(testLedger(t))
	assertContains(t, got, "| AAPL | - | - | 15.00% |", "| KO | - | 5.00% | - |")
	assertContains(t, ThresholdsMarkdown(stockbook.NewLedger("USD")), "No threshold set.")
}
