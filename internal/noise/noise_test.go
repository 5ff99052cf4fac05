package noise

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"golang-matchgen/internal/builder"
	"golang-matchgen/internal/models"
	"golang-matchgen/internal/rng"
)

// scriptedSource returns pre-canned draws so individual noise branches can be
// pinned. Exhausted scripts repeat the last value.
type scriptedSource struct {
	floats []float64
	ints   []int
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scriptedSource) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

func TestVendorNoise(t *testing.T) {
	tests := []struct {
		name     string
		vendor   string
		src      rng.Source
		expected string
	}{
		{
			name:     "legal form stripped regardless of draw",
			vendor:   "Nordwind Logistik GmbH",
			src:      &scriptedSource{floats: []float64{0.9}},
			expected: "Nordwind Logistik",
		},
		{
			name:     "legal form stripped case-insensitively",
			vendor:   "Baustoffe Kramer GMBH",
			src:      &scriptedSource{floats: []float64{0.1}},
			expected: "Baustoffe Kramer",
		},
		{
			name:     "heads upper-cases",
			vendor:   "Schreinerei Brandt",
			src:      &scriptedSource{floats: []float64{0.1}},
			expected: "SCHREINEREI BRANDT",
		},
		{
			name:     "tails deletes first vowel",
			vendor:   "Schreinerei Brandt",
			src:      &scriptedSource{floats: []float64{0.9}},
			expected: "Schrinerei Brandt",
		},
		{
			name:     "no vowel leaves string untouched",
			vendor:   "Xyz",
			src:      &scriptedSource{floats: []float64{0.9}},
			expected: "Xyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VendorNoise(tt.vendor, tt.src); got != tt.expected {
				t.Errorf("VendorNoise(%q) = %q, want %q", tt.vendor, got, tt.expected)
			}
		})
	}
}

func TestNoisyInvoiceNumber(t *testing.T) {
	const invoiceNo = "RE-1234.5678"

	tests := []struct {
		name     string
		variant  int
		expected string
	}{
		{"period to slash", 0, "RE-1234/5678"},
		{"period to dash", 1, "RE-1234-5678"},
		{"label prefix", 2, "Beleg RE-1234.5678"},
		{"spaced characters", 3, "R E - 1 2 3 4 . 5 6 7 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{ints: []int{tt.variant}}
			if got := NoisyInvoiceNumber(invoiceNo, src); got != tt.expected {
				t.Errorf("variant %d = %q, want %q", tt.variant, got, tt.expected)
			}
		})
	}
}

func TestInjectKeywordIdempotent(t *testing.T) {
	src := rng.New(1)
	tx := builder.Transaction(builder.TransactionInput{
		ID:        "tx-001",
		Reference: "Rechnung RE-1234.5678",
	}, src)

	InjectKeyword(&tx, models.PartialPaymentKeyword)
	once := tx.TextRaw
	if !strings.Contains(once, models.PartialPaymentKeyword) {
		t.Fatalf("keyword not injected: %q", once)
	}

	InjectKeyword(&tx, models.PartialPaymentKeyword)
	if tx.TextRaw != once {
		t.Errorf("second injection changed text: %q vs %q", tx.TextRaw, once)
	}
	if strings.Count(tx.TextRaw, models.PartialPaymentKeyword) != 1 {
		t.Errorf("keyword duplicated: %q", tx.TextRaw)
	}
}

func TestStripKeywords(t *testing.T) {
	src := rng.New(1)
	tx := builder.Transaction(builder.TransactionInput{
		ID:   "tx-001",
		Text: "Rechnung Teilzahlung RE-1 Sammelzahlung offen",
	}, src)

	StripKeywords(&tx)

	if strings.Contains(tx.TextRaw, models.PartialPaymentKeyword) ||
		strings.Contains(tx.TextRaw, models.BatchPaymentKeyword) {
		t.Fatalf("keywords survived: %q", tx.TextRaw)
	}
	if tx.TextRaw != "Rechnung RE-1 offen" {
		t.Errorf("stripped text = %q, want single-spaced remainder", tx.TextRaw)
	}
	if tx.TextNorm != "rechnung re 1 offen" {
		t.Errorf("norm not recomputed: %q", tx.TextNorm)
	}
}

func TestApplyTransactionIbanSuppression(t *testing.T) {
	src := rng.New(1)
	iban := "DE0011112222333344"
	toggles := models.ToggleConfig{TxIbanMissing: true}

	tx := builder.Transaction(builder.TransactionInput{ID: "tx-001", IBAN: &iban}, src)
	ApplyTransaction(&tx, toggles, false, src)
	if tx.IBAN != nil {
		t.Error("txIbanMissing should clear the IBAN")
	}

	tx = builder.Transaction(builder.TransactionInput{ID: "tx-002", IBAN: &iban}, src)
	ApplyTransaction(&tx, toggles, true, src)
	if tx.IBAN == nil {
		t.Error("IBAN-dependent scenario must keep the IBAN despite the toggle")
	}
}

func TestApplyDocumentDateEdge(t *testing.T) {
	src := rng.New(1)
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	toggles := models.ToggleConfig{DateEdge: true}

	doc := builder.Document(builder.DocumentInput{ID: "doc-001", InvoiceDate: base}, src)
	ApplyDocument(&doc, toggles, &scriptedSource{floats: []float64{0.1}})
	if !doc.InvoiceDate.Equal(base.AddDate(0, 0, 14)) {
		t.Errorf("heads should shift +14d, got %s", doc.InvoiceDate)
	}

	doc = builder.Document(builder.DocumentInput{ID: "doc-002", InvoiceDate: base}, src)
	ApplyDocument(&doc, toggles, &scriptedSource{floats: []float64{0.9}})
	if !doc.InvoiceDate.Equal(base.AddDate(0, 0, -14)) {
		t.Errorf("tails should shift -14d, got %s", doc.InvoiceDate)
	}
}

func TestApplyDocumentDueDateShift(t *testing.T) {
	src := rng.New(1)
	invoiceDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	doc := builder.Document(builder.DocumentInput{ID: "doc-001", InvoiceDate: invoiceDate}, src)
	ApplyDocument(&doc, models.ToggleConfig{DueDateShift: true}, src)

	if !doc.DueDate.Equal(invoiceDate.AddDate(0, 0, 14)) {
		t.Errorf("due date = %s, want invoice date +14d", doc.DueDate)
	}
}

func TestApplyAmountEdge(t *testing.T) {
	src := rng.New(1)
	amount := decimal.NewFromFloat(100.00)
	toggles := models.ToggleConfig{AmountEdge: true}

	doc := builder.Document(builder.DocumentInput{ID: "doc-001", Amount: amount}, src)
	ApplyDocument(&doc, toggles, &scriptedSource{floats: []float64{0.1}})
	if !doc.Amount.Equal(decimal.NewFromFloat(100.01)) {
		t.Errorf("heads should add a cent, got %s", doc.Amount)
	}

	doc = builder.Document(builder.DocumentInput{ID: "doc-002", Amount: amount}, src)
	ApplyDocument(&doc, toggles, &scriptedSource{floats: []float64{0.9}})
	if !doc.Amount.Equal(decimal.NewFromFloat(99.99)) {
		t.Errorf("tails should subtract a cent, got %s", doc.Amount)
	}
}

func TestApplyTransactionKeywordToggles(t *testing.T) {
	src := rng.New(1)
	tx := builder.Transaction(builder.TransactionInput{ID: "tx-001", Reference: "Zahlung"}, src)

	ApplyTransaction(&tx, models.ToggleConfig{PartialKeyword: true, BatchKeyword: true}, false, src)

	if !strings.Contains(tx.TextRaw, models.PartialPaymentKeyword) {
		t.Errorf("partial keyword missing: %q", tx.TextRaw)
	}
	if !strings.Contains(tx.TextRaw, models.BatchPaymentKeyword) {
		t.Errorf("batch keyword missing: %q", tx.TextRaw)
	}
}

func TestApplyInvoiceMismatch(t *testing.T) {
	src := rng.New(3)
	invoiceNo := "RE-1234.5678"

	c := models.Case{
		ID:        "C001",
		Documents: []models.Document{builder.Document(builder.DocumentInput{ID: "doc-001", InvoiceNo: invoiceNo}, src)},
		Transactions: []models.Transaction{
			builder.Transaction(builder.TransactionInput{ID: "tx-001", Reference: "Rechnung " + invoiceNo}, src),
			builder.Transaction(builder.TransactionInput{ID: "tx-002", Reference: "unrelated"}, src),
		},
	}

	ApplyInvoiceMismatch(&c, src)

	if strings.Contains(c.Transactions[0].Reference, invoiceNo) {
		t.Errorf("mismatch left original invoice number in reference: %q", c.Transactions[0].Reference)
	}
	if !strings.HasPrefix(c.Transactions[0].Reference, "Rechnung RE-") {
		t.Errorf("replacement should still look like an invoice reference: %q", c.Transactions[0].Reference)
	}
	if !strings.Contains(c.Transactions[0].TextRaw, c.Transactions[0].Reference) {
		t.Errorf("text not resynthesized after mismatch: %q", c.Transactions[0].TextRaw)
	}
	if c.Transactions[1].Reference != "unrelated" {
		t.Errorf("unrelated reference touched: %q", c.Transactions[1].Reference)
	}
}

func TestApplyResidualInvoiceNoise(t *testing.T) {
	invoiceNo := "RE-1234.5678"
	src := rng.New(3)

	c := models.Case{
		ID:        "C001",
		Documents: []models.Document{builder.Document(builder.DocumentInput{ID: "doc-001", InvoiceNo: invoiceNo}, src)},
		Transactions: []models.Transaction{
			builder.Transaction(builder.TransactionInput{ID: "tx-001", Reference: "Rechnung " + invoiceNo}, src),
		},
	}

	// Pin the period-to-slash variant so the corruption is observable.
	ApplyResidualInvoiceNoise(&c, &scriptedSource{ints: []int{0}})

	if got := c.Transactions[0].Reference; got != "Rechnung RE-1234/5678" {
		t.Errorf("reference = %q, want slash variant", got)
	}
}
