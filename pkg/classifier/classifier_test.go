package classifier

import (
	"testing"
)

func TestClassifyLine(t *testing.T) {
	c := NewLineClassifier()

	t.Run("drops empty lines", func(t *testing.T) {
		if _, ok := c.ClassifyLine("   ", 0, 0.9); ok {
			t.Error("expected empty line to be dropped")
		}
	})

	t.Run("drops purely numeric lines", func(t *testing.T) {
		if _, ok := c.ClassifyLine("1234 5.99", 2, 0.9); ok {
			t.Error("expected purely numeric line to be dropped")
		}
	})

	t.Run("classifies a plain product line", func(t *testing.T) {
		result, ok := c.ClassifyLine("ORGN FUJI APPLE 4.99", 3, 0.92)
		if !ok {
			t.Fatal("expected line to be kept")
		}
		if result.Kind != KindProduct {
			t.Errorf("Kind = %v, want product", result.Kind)
		}
		if result.RawName != "ORGN FUJI APPLE" {
			t.Errorf("RawName = %q, want %q", result.RawName, "ORGN FUJI APPLE")
		}
		if result.Amount != 4.99 {
			t.Errorf("Amount = %v, want 4.99", result.Amount)
		}
		if result.LineNumber != 3 {
			t.Errorf("LineNumber = %v, want 3", result.LineNumber)
		}
		if result.Confidence != 0.92 {
			t.Errorf("Confidence = %v, want 0.92", result.Confidence)
		}
	})

	t.Run("extracts a leading item code", func(t *testing.T) {
		result, ok := c.ClassifyLine("1628802 KS ORGANIC PB 9.99", 1, 0.9)
		if !ok {
			t.Fatal("expected line to be kept")
		}
		if result.ItemCode != "1628802" {
			t.Errorf("ItemCode = %q, want 1628802", result.ItemCode)
		}
		if result.RawName != "KS ORGANIC PB" {
			t.Errorf("RawName = %q, want %q", result.RawName, "KS ORGANIC PB")
		}
	})

	t.Run("labels discount with keyword and negative amount", func(t *testing.T) {
		result, ok := c.ClassifyLine("MEMBER SAVINGS -2.50", 5, 0.9)
		if !ok {
			t.Fatal("expected line to be kept")
		}
		if result.Kind != KindDiscount {
			t.Errorf("Kind = %v, want discount", result.Kind)
		}
		if result.Amount != -2.50 {
			t.Errorf("Amount = %v, want -2.50", result.Amount)
		}
	})

	t.Run("handles trailing minus convention", func(t *testing.T) {
		result, ok := c.ClassifyLine("TPD COUPON 1.50-", 6, 0.9)
		if !ok {
			t.Fatal("expected line to be kept")
		}
		if result.Amount != -1.50 {
			t.Errorf("Amount = %v, want -1.50", result.Amount)
		}
		if result.Kind != KindDiscount {
			t.Errorf("Kind = %v, want discount", result.Kind)
		}
	})

	t.Run("labels adjustment lines", func(t *testing.T) {
		result, ok := c.ClassifyLine("BOTTLE DEPOSIT 0.10", 7, 0.9)
		if !ok {
			t.Fatal("expected line to be kept")
		}
		if result.Kind != KindAdjustment {
			t.Errorf("Kind = %v, want adjustment", result.Kind)
		}
	})

	t.Run("ambiguous line defaults to product with lowered confidence", func(t *testing.T) {
		// Discount keyword without any negative amount.
		result, ok := c.ClassifyLine("SAVE ON FOODS BREAD 3.49", 8, 0.9)
		if !ok {
			t.Fatal("expected line to be kept")
		}
		if result.Kind != KindProduct {
			t.Errorf("Kind = %v, want product", result.Kind)
		}
		if !result.Ambiguous {
			t.Error("expected line to be marked ambiguous")
		}
		if result.Confidence >= 0.9 {
			t.Errorf("Confidence = %v, want lowered below 0.9", result.Confidence)
		}
	})
}

func TestClassifyLines(t *testing.T) {
	c := NewLineClassifier()

	t.Run("preserves input order and drops empty lines", func(t *testing.T) {
		lines := []string{"MILK 2L 4.49", "", "EGGS DOZEN 5.29", "12345"}
		results := c.ClassifyLines(lines, []float64{0.9, 0.9, 0.8, 0.9})

		if len(results) != 2 {
			t.Fatalf("len(results) = %d, want 2", len(results))
		}
		if results[0].LineNumber != 0 || results[1].LineNumber != 2 {
			t.Errorf("line numbers = %d, %d, want 0, 2", results[0].LineNumber, results[1].LineNumber)
		}
	})
}

func TestNormalizeName(t *testing.T) {
	c := NewLineClassifier()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"expands abbreviations", "ORG WHL MILK", "organic whole milk"},
		{"strips punctuation", "KS* P/BUTTER!", "ks p butter"},
		{"collapses whitespace", "  FUJI   APPLE ", "fuji apple"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
