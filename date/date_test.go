package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-07-01", New(2025, time.July, 1), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{"2025/07/01", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestOf(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)
	got := Of(time.Date(2025, time.January, 2, 1, 0, 0, 0, loc))
	if want := New(2025, time.January, 2); got != want {
		t.Errorf("Of() = %v, want %v", got, want)
	}
}

func TestDateAsMapKey(t *testing.T) {
	in := map[Date]int{New(2025, time.July, 1): 1, New(2025, time.June, 30): 2}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if want := `{"2025-06-30":2,"2025-07-01":1}`; string(b) != want {
		t.Errorf("json.Marshal() = %s, want %s", b, want)
	}
	var out map[Date]int
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if out[New(2025, time.July, 1)] != 1 {
		t.Errorf("json.Unmarshal() = %v, want %v", out, in)
	}
}
