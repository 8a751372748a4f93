package filter

import (
	"strings"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func date(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (Filters, error)
		wantErr string
	}{
		{
			name: "date range inverted",
			build: func() (Filters, error) {
				return New("", "", "", date("2024-06-01"), date("2023-01-01"), nil, nil, nil)
			},
			wantErr: "precedes date_from",
		},
		{
			name: "sentiment out of range",
			build: func() (Filters, error) {
				return New("", "", "", nil, nil, ptr(1.5), nil, nil)
			},
			wantErr: "between -1 and 1",
		},
		{
			name: "sentiment bounds inverted",
			build: func() (Filters, error) {
				return New("", "", "", nil, nil, ptr(0.5), ptr(-0.5), nil)
			},
			wantErr: "precedes sentiment_min",
		},
		{
			name: "similarity out of range",
			build: func() (Filters, error) {
				return New("", "", "", nil, nil, nil, nil, ptr(2))
			},
			wantErr: "between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_NormalizesSpeaker(t *testing.T) {
	f, err := New("  Biden ", "Economy", "", nil, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Speaker() != "biden" {
		t.Errorf("Speaker() = %q, want %q", f.Speaker(), "biden")
	}
	if f.Topic() != "economy" {
		t.Errorf("Topic() = %q, want %q", f.Topic(), "economy")
	}
}

func TestIsEmpty(t *testing.T) {
	var zero Filters
	if !zero.IsEmpty() {
		t.Error("zero filters should be empty")
	}
	f, _ := New("biden", "", "", nil, nil, nil, nil, nil)
	if f.IsEmpty() {
		t.Error("speaker filter should not be empty")
	}
}

func TestKey_Deterministic(t *testing.T) {
	a, _ := New("biden", "economy", "hearings", date("2023-01-01"), date("2023-12-31"), nil, ptr(-0.1), nil)
	b, _ := New("biden", "economy", "hearings", date("2023-01-01"), date("2023-12-31"), nil, ptr(-0.1), nil)
	if a.Key() != b.Key() {
		t.Errorf("identical filters produced different keys: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == "" {
		t.Error("non-empty filters should produce a non-empty key")
	}

	c, _ := New("biden", "economy", "hearings", date("2023-01-01"), date("2023-12-31"), nil, ptr(-0.2), nil)
	if a.Key() == c.Key() {
		t.Error("different filters should produce different keys")
	}

	var zero Filters
	if zero.Key() != "" {
		t.Errorf("empty filters key = %q, want empty", zero.Key())
	}
}
