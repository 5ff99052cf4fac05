// Package builder constructs fully-populated canonical entities from partial
// inputs, filling defaults and derived fields. It is also the only sanctioned
// way (outside the noise engine) to mutate raw text fields, because every
// mutation must recompute the paired normalized field.
package builder

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"golang-matchgen/internal/models"
	"golang-matchgen/internal/normalize"
	"golang-matchgen/internal/rng"
)

const (
	defaultVendor       = "Musterfirma GmbH"
	defaultCounterparty = "Musterfirma GmbH"

	ibanCountryCode = "DE"
)

// DocumentInput is a partial document. Zero values are filled with defaults;
// IBAN is generated unless OmitIBAN is set or an explicit value is given.
type DocumentInput struct {
	ID          string
	TenantID    string
	Amount      decimal.Decimal
	State       models.LifecycleState
	InvoiceDate time.Time
	DueDate     time.Time
	InvoiceNo   string
	IBAN        *string
	OmitIBAN    bool
	EndToEndID  string
	Vendor      string
	Text        string
	Extra       map[string]any
}

// TransactionInput is a partial transaction. Zero values are filled with
// defaults; free text is synthesized from the reference-ish fields unless an
// explicit Text is given.
type TransactionInput struct {
	ID           string
	TenantID     string
	Amount       decimal.Decimal
	Direction    models.Direction
	BookingDate  time.Time
	State        models.LifecycleState
	IBAN         *string
	Reference    string
	Description  string
	Counterparty string
	EndToEndID   string
	Vendor       string
	Text         string
}

// Document builds a canonical document from the partial input.
func Document(in DocumentInput, src rng.Source) models.Document {
	doc := models.Document{
		ID:         in.ID,
		TenantID:   in.TenantID,
		Amount:     in.Amount.Round(2),
		Currency:   models.Currency,
		State:      in.State,
		InvoiceNo:  in.InvoiceNo,
		EndToEndID: in.EndToEndID,
		Extra:      in.Extra,
	}
	if doc.State == "" {
		doc.State = models.StateUnlinked
	}

	doc.InvoiceDate = in.InvoiceDate
	if doc.InvoiceDate.IsZero() {
		doc.InvoiceDate = TodayUTC()
	}
	doc.DueDate = in.DueDate
	if doc.DueDate.IsZero() {
		doc.DueDate = doc.InvoiceDate
	}

	switch {
	case in.OmitIBAN:
		doc.IBAN = nil
	case in.IBAN != nil:
		iban := *in.IBAN
		doc.IBAN = &iban
	default:
		iban := SyntheticIBAN(src)
		doc.IBAN = &iban
	}

	vendor := in.Vendor
	if vendor == "" {
		vendor = defaultVendor
	}
	doc.VendorRaw = vendor
	doc.VendorNorm = normalize.Text(vendor)

	text := in.Text
	if text == "" {
		text = strings.TrimSpace(vendor + " " + doc.InvoiceNo)
	}
	doc.TextRaw = text
	doc.TextNorm = normalize.Text(text)

	return doc
}

// Transaction builds a canonical transaction from the partial input.
func Transaction(in TransactionInput, src rng.Source) models.Transaction {
	tx := models.Transaction{
		ID:          in.ID,
		TenantID:    in.TenantID,
		Amount:      in.Amount.Round(2),
		Direction:   in.Direction,
		Currency:    models.Currency,
		State:       in.State,
		Reference:   in.Reference,
		Purpose:     in.Reference,
		Description: in.Description,
		EndToEndID:  in.EndToEndID,
	}
	if tx.Direction == "" {
		tx.Direction = models.DirectionOut
	}
	if tx.State == "" {
		tx.State = models.StateUnlinked
	}

	tx.BookingDate = in.BookingDate
	if tx.BookingDate.IsZero() {
		tx.BookingDate = TodayUTC()
	}

	if in.IBAN != nil {
		iban := *in.IBAN
		tx.IBAN = &iban
	}

	counterparty := in.Counterparty
	if counterparty == "" {
		counterparty = defaultCounterparty
	}
	tx.Counterparty = counterparty

	vendor := in.Vendor
	if vendor == "" {
		vendor = counterparty
	}
	tx.VendorRaw = vendor
	tx.VendorNorm = normalize.Text(vendor)

	if in.Text != "" {
		tx.TextRaw = in.Text
		tx.TextNorm = normalize.Text(in.Text)
	} else {
		SynthesizeTransactionText(&tx)
	}

	return tx
}

// SynthesizeTransactionText rebuilds the transaction's free text by joining
// the non-empty parts of (reference, description, counterparty, end-to-end
// id) with single spaces, and recomputes the normalized field.
func SynthesizeTransactionText(tx *models.Transaction) {
	parts := make([]string, 0, 4)
	for _, p := range []string{tx.Reference, tx.Description, tx.Counterparty, tx.EndToEndID} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	tx.TextRaw = strings.Join(parts, " ")
	tx.TextNorm = normalize.Text(tx.TextRaw)
}

// ApplyDocumentVendor sets the document's raw vendor and recomputes the
// normalized pair.
func ApplyDocumentVendor(doc *models.Document, vendor string) {
	doc.VendorRaw = vendor
	doc.VendorNorm = normalize.Text(vendor)
}

// ApplyDocumentText sets the document's raw free text and recomputes the
// normalized pair.
func ApplyDocumentText(doc *models.Document, text string) {
	doc.TextRaw = text
	doc.TextNorm = normalize.Text(text)
}

// ApplyTransactionVendor sets the transaction's raw vendor and recomputes
// the normalized pair.
func ApplyTransactionVendor(tx *models.Transaction, vendor string) {
	tx.VendorRaw = vendor
	tx.VendorNorm = normalize.Text(vendor)
}

// ApplyTransactionText sets the transaction's raw free text directly,
// bypassing synthesis, and recomputes the normalized pair.
func ApplyTransactionText(tx *models.Transaction, text string) {
	tx.TextRaw = text
	tx.TextNorm = normalize.Text(text)
}

// ApplyTransactionReference sets the reference, keeps the legacy purpose
// alias in sync, and resynthesizes the free text.
func ApplyTransactionReference(tx *models.Transaction, reference string) {
	tx.Reference = reference
	tx.Purpose = reference
	SynthesizeTransactionText(tx)
}

// ApplyTransactionDescription sets the description and resynthesizes the
// free text.
func ApplyTransactionDescription(tx *models.Transaction, description string) {
	tx.Description = description
	SynthesizeTransactionText(tx)
}

// ApplyTransactionCounterparty sets the counterparty and resynthesizes the
// free text.
func ApplyTransactionCounterparty(tx *models.Transaction, counterparty string) {
	tx.Counterparty = counterparty
	SynthesizeTransactionText(tx)
}

// ApplyTransactionEndToEnd sets the end-to-end id and resynthesizes the free
// text.
func ApplyTransactionEndToEnd(tx *models.Transaction, endToEnd string) {
	tx.EndToEndID = endToEnd
	SynthesizeTransactionText(tx)
}

// SyntheticIBAN produces a plausible-looking, never real, IBAN: fixed
// two-letter country code, two check digits, sixteen further digits.
func SyntheticIBAN(src rng.Source) string {
	return ibanCountryCode + rng.Digits(src, 2) + rng.Digits(src, 16)
}

// NewInvoiceNumber mints a synthetic invoice number. The period in the
// middle is load-bearing: the invoice-number noise variants replace it.
func NewInvoiceNumber(src rng.Source) string {
	return "RE-" + rng.Digits(src, 4) + "." + rng.Digits(src, 4)
}

// NewEndToEndID mints a synthetic SEPA end-to-end identifier.
func NewEndToEndID() string {
	return "E2E-" + uuid.NewString()
}

// TodayUTC returns today's date at midnight UTC.
func TodayUTC() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
