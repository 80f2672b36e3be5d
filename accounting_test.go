package stockbook

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/etnz/stockbook/date"
	"github.com/shopspring/decimal"
)

func TestBuy(t *testing.T) {
	ctx := context.Background()
	as, _, p := newTestSystem(t, 10000, map[string]float64{"AAPL": 105})

	r, err := as.Buy(ctx, " aapl ", 10, M(100), "first entry")
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if r.SaveErr != nil {
		t.Errorf("Buy().SaveErr = %v, want nil", r.SaveErr)
	}

	tx := r.Transaction
	if tx.Symbol != "AAPL" || tx.Side != Buy || tx.Quantity != 10 {
		t.Errorf("Buy() transaction = %+v, want AAPL buy 10", tx)
	}
	assertMoney(t, "Gross", tx.Gross, 1000)
	assertMoney(t, "Commission", tx.Commission, 1)
	assertMoney(t, "Net", tx.Net, 1001)

	l := as.Ledger
	assertMoney(t, "Cash()", l.Cash(), 8999)
	assertMoney(t, "TotalCommission()", l.TotalCommission(), 1)

	pos, ok := l.Position("AAPL")
	if !ok {
		t.Fatalf("Position(AAPL) not found after Buy")
	}
	assertMoney(t, "CostBasis", pos.CostBasis, 100)
	assertMoney(t, "LastPrice", pos.LastPrice, 105)
	assertMoney(t, "UnrealizedPnL", pos.UnrealizedPnL, 50)
	if want := decimal.NewFromInt(5); !pos.UnrealizedPct.Equal(want) {
		t.Errorf("UnrealizedPct = %v, want %v", pos.UnrealizedPct, want)
	}

	memos := l.Memos("AAPL")
	if len(memos) != 1 || memos[0].Side != Buy || memos[0].Text != "first entry" {
		t.Errorf("Memos(AAPL) = %+v, want one buy memo", memos)
	}
	// one save for the deposit, one for the buy.
	if p.saves != 2 {
		t.Errorf("saves = %d, want 2", p.saves)
	}
}

func TestBuyMergesWeightedAverage(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newTestSystem(t, 100000, map[string]float64{"MSFT": 150})

	if _, err := as.Buy(ctx, "MSFT", 10, M(100), ""); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if _, err := as.Buy(ctx, "MSFT", 10, M(200), ""); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	pos, _ := as.Ledger.Position("MSFT")
	if pos.Quantity != 20 {
		t.Errorf("Quantity = %v, want 20", pos.Quantity)
	}
	assertMoney(t, "CostBasis", pos.CostBasis, 150)
	if as.Ledger.Len() != 1 {
		t.Errorf("Len() = %d, want a single merged position", as.Ledger.Len())
	}
}

func TestBuyRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient cash", func(t *testing.T) {
		as, g, p := newTestSystem(t, 500, map[string]float64{"AAPL": 100})
		if _, err := as.Buy(ctx, "AAPL", 2, M(100), "starter"); err != nil {
			t.Fatalf("Buy() error = %v", err)
		}
		before, err := MarshalLedger(as.Ledger)
		if err != nil {
			t.Fatalf("MarshalLedger() error = %v", err)
		}
		calls, saves := g.calls, p.saves

		_, err = as.Buy(ctx, "AAPL", 3, M(100), "too much")
		if !errors.Is(err, ErrInsufficientCash) {
			t.Fatalf("Buy() error = %v, want ErrInsufficientCash", err)
		}
		if !strings.Contains(err.Error(), "300.30") || !strings.Contains(err.Error(), "299.80") {
			t.Errorf("Buy() error = %q, want required and available amounts", err)
		}
		if g.calls != calls {
			t.Errorf("gateway called %d times, want 0", g.calls-calls)
		}
		if p.saves != saves {
			t.Errorf("ledger saved after a rejected buy")
		}
		after, err := MarshalLedger(as.Ledger)
		if err != nil {
			t.Fatalf("MarshalLedger() error = %v", err)
		}
		if !bytes.Equal(before, after) {
			t.Errorf("rejected buy changed the ledger:\n%s\nwant:\n%s", after, before)
		}
	})

	t.Run("price unavailable", func(t *testing.T) {
		as, _, p := newTestSystem(t, 5000, map[string]float64{})
		saves := p.saves
		_, err := as.Buy(ctx, "ZZZZ", 1, M(10), "")
		if !errors.Is(err, ErrPriceUnavailable) {
			t.Fatalf("Buy() error = %v, want ErrPriceUnavailable", err)
		}
		assertMoney(t, "Cash()", as.Ledger.Cash(), 5000)
		if n := len(as.Ledger.transactions); n != 0 {
			t.Errorf("transactions = %d, want 0", n)
		}
		if p.saves != saves {
			t.Errorf("ledger saved after a rejected buy")
		}
	})

	t.Run("invalid order", func(t *testing.T) {
		as, _, _ := newTestSystem(t, 5000, map[string]float64{"AAPL": 100})
		testCases := []struct {
			symbol string
			qty    Quantity
			price  float64
		}{
			{"AAPL", 0, 100},
			{"AAPL", -1, 100},
			{"AAPL", 1, 0},
			{"AAPL", 1, 0.004},
			{"", 1, 100},
			{"AA PL", 1, 100},
		}
		for _, tc := range testCases {
			if _, err := as.Buy(ctx, tc.symbol, tc.qty, M(tc.price), ""); !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("Buy(%q, %v, %v) error = %v, want ErrInvalidOrder", tc.symbol, tc.qty, tc.price, err)
			}
		}
	})
}

func TestTradesAreBookedInCents(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newTestSystem(t, 10000, map[string]float64{"AAA": 10.1234})

	r, err := as.Buy(ctx, "AAA", 3, M(10.125), "")
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	assertMoney(t, "UnitPrice", r.Transaction.UnitPrice, 10.13)
	assertMoney(t, "Gross", r.Transaction.Gross, 30.39)
	assertMoney(t, "Commission", r.Transaction.Commission, 0.03)
	assertMoney(t, "Net", r.Transaction.Net, 30.42)
	if _, err := as.Sell(ctx, "AAA", 1, M(11.0049), ""); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}

	data, err := MarshalLedger(as.Ledger)
	if err != nil {
		t.Fatalf("MarshalLedger() error = %v", err)
	}
	got, err := UnmarshalLedger(data)
	if err != nil {
		t.Fatalf("UnmarshalLedger() error = %v", err)
	}

	want := slices.Collect(as.Ledger.Transactions())
	for i, tx := range slices.Collect(got.Transactions()) {
		if !equalTransaction(tx, want[i]) {
			t.Errorf("reloaded transaction %d = %+v, want %+v", i, tx, want[i])
		}
	}
	sell, _ := got.Best()
	assertMoney(t, "SellPrice", sell.SellPrice, 11)

	cash := got.Cash()
	for tx := range got.Transactions() {
		if tx.Side == Buy {
			cash = cash.Add(tx.Net)
		} else {
			cash = cash.Sub(tx.Net)
		}
	}
	assertMoney(t, "reloaded cash before the trades", cash, 10000)
}

func TestSell(t *testing.T) {
	ctx := context.Background()

	t.Run("partial", func(t *testing.T) {
		as, g, _ := newTestSystem(t, 10000, map[string]float64{"AAPL": 100})
		if _, err := as.Buy(ctx, "AAPL", 10, M(100), ""); err != nil {
			t.Fatalf("Buy() error = %v", err)
		}
		cashBefore := as.Ledger.Cash()
		g.prices["AAPL"] = 130

		r, err := as.Sell(ctx, "AAPL", 4, M(120), "trim")
		if err != nil {
			t.Fatalf("Sell() error = %v", err)
		}
		// gross 480, commission 0.48, net 479.52
		assertMoney(t, "Net", r.Transaction.Net, 479.52)
		if !as.Ledger.Cash().Equal(cashBefore.Add(r.Transaction.Net)) {
			t.Errorf("Cash() = %v, want %v + %v", as.Ledger.Cash(), cashBefore, r.Transaction.Net)
		}

		pos, ok := as.Ledger.Position("AAPL")
		if !ok || pos.Quantity != 6 {
			t.Fatalf("Position(AAPL) = %+v, %v, want 6 shares", pos, ok)
		}
		assertMoney(t, "CostBasis", pos.CostBasis, 100)
		assertMoney(t, "LastPrice", pos.LastPrice, 130)

		if r.Realized == nil {
			t.Fatalf("Sell() realized = nil")
		}
		assertMoney(t, "BuyPrice", r.Realized.BuyPrice, 100)
		assertMoney(t, "Profit", r.Realized.Profit, 79.52)
		if want := decimal.NewFromInt(20); !r.Realized.Pct.Equal(want) {
			t.Errorf("Pct = %v, want %v", r.Realized.Pct, want)
		}
		assertMoney(t, "TotalCommission()", as.Ledger.TotalCommission(), 1.48)
	})

	t.Run("full", func(t *testing.T) {
		as, _, _ := newTestSystem(t, 10000, map[string]float64{"AAPL": 100, "MSFT": 50})
		as.Buy(ctx, "AAPL", 10, M(100), "")
		as.Buy(ctx, "MSFT", 10, M(50), "")

		if _, err := as.Sell(ctx, "AAPL", 10, M(90), ""); err != nil {
			t.Fatalf("Sell() error = %v", err)
		}
		if _, ok := as.Ledger.Position("AAPL"); ok {
			t.Errorf("Position(AAPL) still held after full sell")
		}
		if got := as.Ledger.Symbols(); len(got) != 1 || got[0] != "MSFT" {
			t.Errorf("Symbols() = %v, want [MSFT]", got)
		}
		best, _ := as.Ledger.Best()
		if want := decimal.NewFromInt(-10); !best.Pct.Equal(want) {
			t.Errorf("Best().Pct = %v, want %v", best.Pct, want)
		}
	})

	t.Run("full sell works when the gateway is down", func(t *testing.T) {
		as, g, _ := newTestSystem(t, 10000, map[string]float64{"AAPL": 100})
		as.Buy(ctx, "AAPL", 10, M(100), "")
		delete(g.prices, "AAPL")
		if _, err := as.Sell(ctx, "AAPL", 10, M(110), ""); err != nil {
			t.Fatalf("Sell() error = %v", err)
		}
	})

	t.Run("insufficient shares", func(t *testing.T) {
		as, _, _ := newTestSystem(t, 10000, map[string]float64{"AAPL": 100})
		as.Buy(ctx, "AAPL", 5, M(100), "")
		cash := as.Ledger.Cash()

		_, err := as.Sell(ctx, "AAPL", 6, M(100), "")
		if !errors.Is(err, ErrInsufficientShares) {
			t.Fatalf("Sell() error = %v, want ErrInsufficientShares", err)
		}
		if !strings.Contains(err.Error(), "held 5") || !strings.Contains(err.Error(), "requested 6") {
			t.Errorf("Sell() error = %q, want held and requested quantities", err)
		}
		if !as.Ledger.Cash().Equal(cash) {
			t.Errorf("Cash() changed after a rejected sell")
		}
		if _, err := as.Sell(ctx, "TSLA", 1, M(100), ""); !errors.Is(err, ErrInsufficientShares) {
			t.Errorf("Sell(TSLA) error = %v, want ErrInsufficientShares", err)
		}
	})
}

func TestBestWorstTies(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newTestSystem(t, 100000, map[string]float64{"A": 10, "B": 10, "C": 10})
	for _, s := range []string{"A", "B", "C"} {
		as.Buy(ctx, s, 10, M(10), "")
	}
	as.Sell(ctx, "A", 1, M(11), "") // +10%
	as.Sell(ctx, "B", 1, M(11), "") // +10%, tie
	as.Sell(ctx, "C", 1, M(9), "")  // -10%

	best, _ := as.Ledger.Best()
	worst, _ := as.Ledger.Worst()
	if best.Symbol != "A" {
		t.Errorf("Best().Symbol = %q, want the first trade seen %q", best.Symbol, "A")
	}
	if worst.Symbol != "C" {
		t.Errorf("Worst().Symbol = %q, want %q", worst.Symbol, "C")
	}
}

func TestCashConservation(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newTestSystem(t, 0, map[string]float64{"AAPL": 101.37, "KO": 61.2})
	as.Deposit(ctx, M(25000), "")
	as.Buy(ctx, "AAPL", 37, M(101.37), "")
	as.Buy(ctx, "KO", 113, M(61.2), "")
	as.Sell(ctx, "AAPL", 12, M(104.11), "")
	as.Withdraw(ctx, M(1500), "")
	as.Sell(ctx, "KO", 113, M(59.87), "")

	want := decimal.Zero
	for f := range as.Ledger.CashFlows() {
		want = want.Add(f.Amount.Decimal())
	}
	for tx := range as.Ledger.Transactions() {
		if tx.Side == Buy {
			want = want.Sub(tx.Net.Decimal())
		} else {
			want = want.Add(tx.Net.Decimal())
		}
	}
	if !as.Ledger.Cash().Decimal().Equal(want) {
		t.Errorf("Cash() = %v, want %v", as.Ledger.Cash().Decimal(), want)
	}
}

func TestDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newTestSystem(t, 0, nil)

	if _, err := as.Deposit(ctx, M(0), ""); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Deposit(0) error = %v, want ErrInvalidOrder", err)
	}
	if _, err := as.Deposit(ctx, M(1000), "salary"); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	if _, err := as.Withdraw(ctx, M(1000.01), ""); !errors.Is(err, ErrInsufficientCash) {
		t.Errorf("Withdraw(1000.01) error = %v, want ErrInsufficientCash", err)
	}
	r, err := as.Withdraw(ctx, M(400), "rent")
	if err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}
	assertMoney(t, "CashFlow.Amount", r.CashFlow.Amount, -400)
	assertMoney(t, "Cash()", as.Ledger.Cash(), 600)
}

func TestRefreshPrices(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{prices: map[string]float64{"AAPL": 100, "MSFT": 200}}
	rec := &memRecorder{}
	as, err := NewAccountingSystem(NewLedger(""), g, WithRecorder(rec), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewAccountingSystem() error = %v", err)
	}
	as.Deposit(ctx, M(10000), "")
	as.Buy(ctx, "AAPL", 10, M(100), "")
	as.Buy(ctx, "MSFT", 5, M(200), "")

	g.prices["AAPL"] = 110
	delete(g.prices, "MSFT")

	res := as.RefreshPrices(ctx)
	if len(res.Updates) != 2 {
		t.Fatalf("RefreshPrices() updates = %d, want 2", len(res.Updates))
	}
	if res.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", res.Failed())
	}
	aapl, msft := res.Updates[0], res.Updates[1]
	if aapl.Err != nil || !aapl.NewPrice.Equal(M(110)) || !aapl.OldPrice.Equal(M(100)) {
		t.Errorf("AAPL update = %+v, want 100 -> 110", aapl)
	}
	if !errors.Is(msft.Err, ErrPriceUnavailable) || !msft.NewPrice.Equal(M(200)) {
		t.Errorf("MSFT update = %+v, want unchanged with ErrPriceUnavailable", msft)
	}

	pos, _ := as.Ledger.Position("AAPL")
	assertMoney(t, "AAPL UnrealizedPnL", pos.UnrealizedPnL, 100)

	snap, ok := rec.history.Get(date.Of(testNow))
	if !ok {
		t.Fatalf("no daily snapshot recorded for %v", date.Of(testNow))
	}
	assertMoney(t, "TotalInvestment", snap.TotalInvestment, 2000)
	assertMoney(t, "TotalValue", snap.TotalValue, 2100)
	assertMoney(t, "TotalProfit", snap.TotalProfit, 100)
	if snap.StockCount != 2 {
		t.Errorf("StockCount = %d, want 2", snap.StockCount)
	}
	if want := decimal.NewFromInt(5); !snap.TotalReturnRate.Equal(want) {
		t.Errorf("TotalReturnRate = %v, want %v", snap.TotalReturnRate, want)
	}
}

func TestSaveFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	as, _, p := newTestSystem(t, 1000, map[string]float64{"AAPL": 10})
	p.err = ErrStorageWrite

	r, err := as.Buy(ctx, "AAPL", 1, M(10), "")
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if !errors.Is(r.SaveErr, ErrStorageWrite) {
		t.Errorf("Buy().SaveErr = %v, want ErrStorageWrite", r.SaveErr)
	}
	if _, ok := as.Ledger.Position("AAPL"); !ok {
		t.Errorf("Position(AAPL) missing after a failed save")
	}

	testCases := []struct {
		name string
		op   func() (Receipt, error)
	}{
		{"memo", func() (Receipt, error) { return as.AddMemo(ctx, "AAPL", "hold") }},
		{"thresholds", func() (Receipt, error) {
			return as.SetThresholds(ctx, "AAPL", Thresholds{StopLoss: decimal.NewFromInt(5)})
		}},
		{"deposit", func() (Receipt, error) { return as.Deposit(ctx, M(10), "") }},
		{"clear thresholds", func() (Receipt, error) { return as.ClearThresholds(ctx, "AAPL") }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := tc.op()
			if err != nil {
				t.Fatalf("%s error = %v, want the save failure in the receipt", tc.name, err)
			}
			if !errors.Is(r.SaveErr, ErrStorageWrite) {
				t.Errorf("%s SaveErr = %v, want ErrStorageWrite", tc.name, r.SaveErr)
			}
		})
	}
	if memos := as.Ledger.Memos("AAPL"); len(memos) != 1 || memos[0].Text != "hold" {
		t.Errorf("Memos(AAPL) = %+v, want the note kept after a failed save", memos)
	}
}

func TestThresholdsAndAlerts(t *testing.T) {
	ctx := context.Background()
	as, g, _ := newTestSystem(t, 10000, map[string]float64{"AAPL": 100, "KO": 50})
	as.Buy(ctx, "AAPL", 10, M(100), "")
	as.Buy(ctx, "KO", 10, M(50), "")

	if _, err := as.SetThresholds(ctx, "aapl", Thresholds{TargetReturn: decimal.NewFromInt(15), TakeProfit: decimal.NewFromInt(20)}); err != nil {
		t.Fatalf("SetThresholds() error = %v", err)
	}
	as.SetThresholds(ctx, "KO", Thresholds{StopLoss: decimal.NewFromInt(5)})

	g.prices["AAPL"] = 116
	g.prices["KO"] = 47
	as.RefreshPrices(ctx)

	alerts := as.Ledger.Alerts()
	got := map[string]AlertKind{}
	for _, a := range alerts {
		got[a.Symbol+string(a.Kind)] = a.Kind
	}
	if len(alerts) != 2 || got["AAPLtarget"] != TargetReached || got["KOstop"] != StopLossHit {
		t.Errorf("Alerts() = %+v, want AAPL target and KO stop", alerts)
	}

	as.SetThresholds(ctx, "KO", Thresholds{})
	if _, ok := as.Ledger.Thresholds("KO"); ok {
		t.Errorf("Thresholds(KO) still set after clearing")
	}
}

func TestAddMemo(t *testing.T) {
	ctx := context.Background()
	as, _, _ := newTestSystem(t, 0, nil)
	r, err := as.AddMemo(ctx, "nvda", "watch earnings")
	if err != nil || r.SaveErr != nil {
		t.Fatalf("AddMemo() error = %v, save error = %v", err, r.SaveErr)
	}
	if r.Memo == nil || r.Memo.Text != "watch earnings" {
		t.Errorf("AddMemo().Memo = %+v", r.Memo)
	}
	if _, err := as.AddMemo(ctx, "NVDA", ""); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("AddMemo(empty) error = %v, want ErrInvalidOrder", err)
	}
	if got := as.Ledger.Memos("NVDA"); len(got) != 1 || got[0].Side != Note {
		t.Errorf("Memos(NVDA) = %+v, want one note", got)
	}
}
