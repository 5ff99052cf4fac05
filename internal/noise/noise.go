// Package noise implements the toggle-gated perturbations applied to
// generated entities. Each transformation is independent and gated by one
// boolean in models.ToggleConfig; the per-entity application order is fixed.
//
// The random transformations are not idempotent: reapplying may choose a
// different branch. Keyword injection is idempotent (checks presence first).
package noise

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"golang-matchgen/internal/builder"
	"golang-matchgen/internal/models"
	"golang-matchgen/internal/rng"
)

const (
	dateEdgeDays      = 14
	dueDateShiftDays  = 14
	invoiceNoisePrefix = "Beleg "
)

var amountEdgeStep = decimal.New(1, -2) // 0.01

// ApplyDocument applies the document-side toggles in the fixed order
// vendor -> date -> due-date -> amount.
func ApplyDocument(doc *models.Document, toggles models.ToggleConfig, src rng.Source) {
	if toggles.VendorNoise {
		builder.ApplyDocumentVendor(doc, VendorNoise(doc.VendorRaw, src))
	}
	if toggles.DateEdge {
		doc.InvoiceDate = shiftDateEdge(doc.InvoiceDate, src)
	}
	if toggles.DueDateShift {
		base := doc.DueDate
		if base.IsZero() {
			base = doc.InvoiceDate
		}
		doc.DueDate = base.AddDate(0, 0, dueDateShiftDays)
	}
	if toggles.AmountEdge {
		doc.Amount = shiftAmountEdge(doc.Amount, src)
	}
}

// ApplyTransaction applies the transaction-side toggles in the fixed order
// IBAN-suppression -> vendor -> date -> amount -> partial-keyword ->
// batch-keyword. IBAN suppression is skipped when the owning template
// requires IBAN-based matching.
func ApplyTransaction(tx *models.Transaction, toggles models.ToggleConfig, requiresIBAN bool, src rng.Source) {
	if toggles.TxIbanMissing && !requiresIBAN {
		tx.IBAN = nil
	}
	if toggles.VendorNoise {
		builder.ApplyTransactionVendor(tx, VendorNoise(tx.VendorRaw, src))
	}
	if toggles.DateEdge {
		tx.BookingDate = shiftDateEdge(tx.BookingDate, src)
	}
	if toggles.AmountEdge {
		tx.Amount = shiftAmountEdge(tx.Amount, src)
	}
	if toggles.PartialKeyword {
		InjectKeyword(tx, models.PartialPaymentKeyword)
	}
	if toggles.BatchKeyword {
		InjectKeyword(tx, models.BatchPaymentKeyword)
	}
}

// VendorNoise corrupts a vendor string. Stripping the legal-form token takes
// priority when applicable; otherwise a coin flip picks between upper-casing
// the whole string and deleting the first vowel.
func VendorNoise(vendor string, src rng.Source) string {
	if hasLegalForm(vendor) {
		return stripLegalForm(vendor)
	}
	if rng.CoinFlip(src) {
		return strings.ToUpper(vendor)
	}
	return deleteFirstVowel(vendor)
}

// NoisyInvoiceNumber corrupts an invoice number with one of four variants,
// chosen uniformly at random: period to slash, period to dash, fixed label
// prefix, or spaces between every character.
func NoisyInvoiceNumber(invoiceNo string, src rng.Source) string {
	switch src.Intn(4) {
	case 0:
		return strings.Replace(invoiceNo, ".", "/", 1)
	case 1:
		return strings.Replace(invoiceNo, ".", "-", 1)
	case 2:
		return invoiceNoisePrefix + invoiceNo
	default:
		runes := []rune(invoiceNo)
		parts := make([]string, len(runes))
		for i, r := range runes {
			parts[i] = string(r)
		}
		return strings.Join(parts, " ")
	}
}

// InjectKeyword appends the keyword to the transaction's free text if not
// already present, then recomputes the normalized field.
func InjectKeyword(tx *models.Transaction, keyword string) {
	if strings.Contains(tx.TextRaw, keyword) {
		return
	}
	text := strings.TrimSpace(tx.TextRaw + " " + keyword)
	builder.ApplyTransactionText(tx, text)
}

// StripKeywords removes the partial- and batch-payment keywords from the
// transaction's free text. Batch templates run this to undo keywords a
// toggle may have injected into synthesized text.
func StripKeywords(tx *models.Transaction) {
	text := tx.TextRaw
	text = strings.ReplaceAll(text, models.PartialPaymentKeyword, "")
	text = strings.ReplaceAll(text, models.BatchPaymentKeyword, "")
	text = strings.Join(strings.Fields(text), " ")
	builder.ApplyTransactionText(tx, text)
}

// ApplyInvoiceMismatch replaces, for every transaction whose reference
// contains a known invoice number from the case's documents, that invoice
// number with a freshly generated unrelated one, deliberately breaking the
// reference match. Free text is resynthesized.
func ApplyInvoiceMismatch(c *models.Case, src rng.Source) {
	for i := range c.Transactions {
		tx := &c.Transactions[i]
		for j := range c.Documents {
			no := c.Documents[j].InvoiceNo
			if no == "" || !strings.Contains(tx.Reference, no) {
				continue
			}
			replacement := builder.NewInvoiceNumber(src)
			builder.ApplyTransactionReference(tx, strings.ReplaceAll(tx.Reference, no, replacement))
		}
	}
}

// ApplyResidualInvoiceNoise corrupts every known invoice number occurring in
// a transaction reference. Templates whose primary scenario is already about
// invoice-number noise skip this pass.
func ApplyResidualInvoiceNoise(c *models.Case, src rng.Source) {
	for i := range c.Transactions {
		tx := &c.Transactions[i]
		for j := range c.Documents {
			no := c.Documents[j].InvoiceNo
			if no == "" || !strings.Contains(tx.Reference, no) {
				continue
			}
			builder.ApplyTransactionReference(tx, strings.ReplaceAll(tx.Reference, no, NoisyInvoiceNumber(no, src)))
		}
	}
}

func shiftDateEdge(t time.Time, src rng.Source) time.Time {
	if rng.CoinFlip(src) {
		return t.AddDate(0, 0, dateEdgeDays)
	}
	return t.AddDate(0, 0, -dateEdgeDays)
}

func shiftAmountEdge(amount decimal.Decimal, src rng.Source) decimal.Decimal {
	if rng.CoinFlip(src) {
		return amount.Add(amountEdgeStep).Round(2)
	}
	return amount.Sub(amountEdgeStep).Round(2)
}

func hasLegalForm(vendor string) bool {
	for _, token := range strings.Fields(vendor) {
		if strings.EqualFold(token, "gmbh") {
			return true
		}
	}
	return false
}

func stripLegalForm(vendor string) string {
	kept := make([]string, 0, 4)
	for _, token := range strings.Fields(vendor) {
		if strings.EqualFold(token, "gmbh") {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

func deleteFirstVowel(vendor string) string {
	for i, r := range vendor {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			return vendor[:i] + vendor[i+len(string(r)):]
		}
	}
	return vendor
}
