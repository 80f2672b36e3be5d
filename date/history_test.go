package date

import (
	"testing"
	"time"
)

func TestAppend(t *testing.T) {
	h := new(History[string])
	d1, v1 := New(2025, 07, 01), "25 Jul 1"
	d2, v2 := New(2024, 07, 01), "24 Jul 1"

	// Values are appended in reverse order and must come back sorted.

	if h.Len() != 0 {
		t.Errorf("History.Len() = %v want 0", h.Len())
	}

	h.Append(d1, v1)
	if h.Len() != 1 {
		t.Errorf("Append(d1, v1).Len() = %v want 1", h.Len())
	}

	h.Append(d2, v2)
	if h.Len() != 2 {
		t.Errorf("Append(d2, v2).Len() = %v want 2", h.Len())
	}

	if h.days[0] != d2 || h.days[1] != d1 {
		t.Errorf("history days = %v want [%v %v]", h.days, d2, d1)
	}
	if h.values[0] != v2 || h.values[1] != v1 {
		t.Errorf("history values = %v want [%v %v]", h.values, v2, v1)
	}
}

func TestAppendOverwrites(t *testing.T) {
	h := new(History[int])
	on := New(2025, time.March, 3)
	h.Append(on, 1).Append(on, 2)

	if h.Len() != 1 {
		t.Fatalf("Len() = %d want 1", h.Len())
	}
	if got, _ := h.Get(on); got != 2 {
		t.Errorf("Get(%v) = %d want 2", on, got)
	}
}

func TestValueAsOf(t *testing.T) {
	h := new(History[int])
	h.Append(New(2025, time.March, 3), 3)
	h.Append(New(2025, time.March, 1), 1)

	testCases := []struct {
		on     Date
		want   int
		wantOK bool
	}{
		{New(2025, time.February, 28), 0, false},
		{New(2025, time.March, 1), 1, true},
		{New(2025, time.March, 2), 1, true},
		{New(2025, time.March, 9), 3, true},
	}
	for _, tc := range testCases {
		got, ok := h.ValueAsOf(tc.on)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ValueAsOf(%v) = %d, %v want %d, %v", tc.on, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestWithin(t *testing.T) {
	h := new(History[int])
	for i := 1; i <= 10; i++ {
		h.Append(New(2025, time.August, 25+i), i)
	}
	var got []int
	for _, v := range h.Within(NewRange(New(2025, time.September, 3), Monthly)) {
		got = append(got, v)
	}
	// August 26..31 are outside September.
	if len(got) != 4 || got[0] != 7 {
		t.Errorf("Within(September) = %v want [7 8 9 10]", got)
	}
}
