package models

import "testing"

func TestFormatSequenceValue(t *testing.T) {
	cases := []struct {
		value int64
		width int
		want  string
	}{
		{1000, 6, "001000"},
		{1005, 6, "001005"},
		{999999, 6, "999999"},
		{1000000, 6, "1000000"},
		{50000000, 9, "050000000"},
		{1, 6, "000001"},
	}
	for _, c := range cases {
		if got := FormatSequenceValue(c.value, c.width); got != c.want {
			t.Errorf("FormatSequenceValue(%d, %d) = %q, want %q", c.value, c.width, got, c.want)
		}
	}
}

func TestSequenceNamespaceDefaults(t *testing.T) {
	cases := []struct {
		namespace string
		start     int64
		width     int
	}{
		{"customers", 50000000, 9},
		{"suppliers", 50000000, 9},
		{"sales", 1000, 6},
		{"purchases", 1000, 6},
		{"customer_payments", 1000, 6},
		{"supplier_payments", 1000, 6},
		{"sales_returns", 1000, 6},
		{"purchase_returns", 1000, 6},
		{"customer_notes", 1000, 6},
		{"supplier_notes", 1000, 6},
	}
	for _, c := range cases {
		cfg := getSequenceConfig(c.namespace)
		if cfg.Start != c.start || cfg.Width != c.width {
			t.Errorf("namespace %s: got start=%d width=%d, want start=%d width=%d",
				c.namespace, cfg.Start, cfg.Width, c.start, c.width)
		}
	}

	cfg := getSequenceConfig("unknown_namespace")
	if cfg.Start != 1 || cfg.Width != 6 {
		t.Errorf("unknown namespace: got start=%d width=%d, want start=1 width=6", cfg.Start, cfg.Width)
	}
}

func TestFirstCustomerCodeMatchesConfiguredStart(t *testing.T) {
	cfg := getSequenceConfig("customers")
	if got := FormatSequenceValue(cfg.Start, cfg.Width); got != "050000000" {
		t.Fatalf("first customer code = %q, want %q", got, "050000000")
	}
}
