package filter

import (
	"strings"
	"testing"
	"time"
)

func f(v float64) *float64 { return &v }

func TestNewRangeFilter(t *testing.T) {
	tests := []struct {
		name             string
		gt, gte, lt, lte *float64
		wantErr          string
	}{
		{name: "min price", gte: f(1500000)},
		{name: "max area", lte: f(120)},
		{name: "after watermark", gt: f(1760000000000)},
		{name: "closed interval", gte: f(50), lte: f(120)},
		{name: "half open", gt: f(0), lte: f(10)},
		{name: "degenerate interval", gte: f(3), lte: f(3)},
		{name: "no bounds", wantErr: "at least one"},
		{name: "gt and gte", gt: f(1), gte: f(1), wantErr: "both gt and gte"},
		{name: "lt and lte", lt: f(9), lte: f(9), wantErr: "both lt and lte"},
		{name: "inverted", gte: f(4000000), lte: f(1000000), wantErr: "exceeds upper bound"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRangeFilter(tc.gt, tc.gte, tc.lt, tc.lte)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("err = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRangeFilter: %v", err)
			}
			if r.GT() != tc.gt || r.GTE() != tc.gte || r.LT() != tc.lt || r.LTE() != tc.lte {
				t.Errorf("bounds not kept: %+v", r)
			}
		})
	}
}

func TestConditions(t *testing.T) {
	m, err := NewMatchAny("type", "villa", "townhouse")
	if err != nil {
		t.Fatalf("NewMatchAny: %v", err)
	}
	if !m.IsMatch() || m.IsRange() || m.Key() != "type" || len(m.Values()) != 2 {
		t.Errorf("unexpected match condition %+v", m)
	}

	r, _ := NewRangeFilter(nil, f(3), nil, nil)
	rc, err := NewRange("rooms", r)
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	if rc.IsMatch() || !rc.IsRange() || *rc.Range().GTE() != 3 {
		t.Errorf("unexpected range condition %+v", rc)
	}

	for name, fn := range map[string]func() error{
		"match without key":   func() error { _, err := NewMatch("", "aarhus"); return err },
		"match empty value":   func() error { _, err := NewMatch("city", ""); return err },
		"match no values":     func() error { _, err := NewMatchAny("city"); return err },
		"range without key":   func() error { _, err := NewRange("", r); return err },
		"one of values empty": func() error { _, err := NewMatchAny("type", "villa", ""); return err },
	} {
		if fn() == nil {
			t.Errorf("%s: want error", name)
		}
	}
}

func TestNewExpressionLimit(t *testing.T) {
	c, _ := NewMatch("sections", "premium")
	conds := make([]Condition, MaxConditions)
	for i := range conds {
		conds[i] = c
	}
	if _, err := NewExpression(conds, nil); err != nil {
		t.Fatalf("%d conditions should be accepted: %v", MaxConditions, err)
	}
	if _, err := NewExpression(conds, []Condition{c}); err == nil {
		t.Fatal("more than MaxConditions must be rejected")
	}
	if !(Expression{}).IsEmpty() {
		t.Error("zero expression should be empty")
	}
}

func TestBuilderSkipsUnsetCriteria(t *testing.T) {
	expr, err := NewBuilder().
		Match("sections", "marketplace").
		Match("city", "").
		Between("price", nil, nil).
		AtLeast("rooms", nil).
		After("updated_at", time.Time{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(expr.Must()) != 1 || len(expr.MustNot()) != 0 {
		t.Fatalf("want only the section condition, got %d/%d", len(expr.Must()), len(expr.MustNot()))
	}
}

func TestBuilderFullQuery(t *testing.T) {
	rooms := 3
	wm := time.UnixMilli(1760000000123)

	expr, err := NewBuilder().
		Match("sections", "premium").
		Match("city", "aarhus").
		Between("price", f(1e6), nil).
		AtLeast("rooms", &rooms).
		After("updated_at", wm).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	must := expr.Must()
	keys := make([]string, len(must))
	for i, c := range must {
		keys[i] = c.Key()
	}
	if got := strings.Join(keys, ","); got != "sections,city,price,rooms,updated_at" {
		t.Errorf("keys = %s", got)
	}
	if lo := must[2].Range().GTE(); lo == nil || *lo != 1e6 || must[2].Range().LTE() != nil {
		t.Errorf("price range = %+v", must[2].Range())
	}
	if lo := must[3].Range().GTE(); lo == nil || *lo != 3 {
		t.Errorf("rooms range = %+v", must[3].Range())
	}
	if gt := must[4].Range().GT(); gt == nil || *gt != 1760000000123 {
		t.Errorf("watermark bound = %v", gt)
	}
	if len(expr.MustNot()) != 0 {
		t.Errorf("must not = %+v", expr.MustNot())
	}
}

func TestBuilderKeepsFirstError(t *testing.T) {
	_, err := NewBuilder().
		Between("price", f(5), f(1)).
		Between("area", f(9), f(2)).
		Build()
	if err == nil {
		t.Fatal("inverted range must fail")
	}
	if !strings.HasPrefix(err.Error(), "price:") {
		t.Errorf("err = %v, want the price error", err)
	}
}
