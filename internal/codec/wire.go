package codec

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"golang-matchgen/internal/builder"
	"golang-matchgen/internal/models"
	"golang-matchgen/internal/normalize"
)

// Wire date layouts. Export always writes RFC3339; import additionally
// accepts bare dates from hand-edited fixtures.
var wireDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// WireMeta is the top-level metadata object of the interchange format.
type WireMeta struct {
	Name          string `json:"name"`
	TenantID      string `json:"tenant_id"`
	SchemaVersion string `json:"schemaVersion"`
	NowISO        string `json:"nowISO,omitempty"`
}

// WireDocument is a canonical document on the wire. The camelCase fields are
// aliases for the matching engine's older schema: export fills them for the
// date fields, import accepts them for dates, vendor, and text.
type WireDocument struct {
	ID       string      `json:"id"`
	TenantID string      `json:"tenant_id,omitempty"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	State    string      `json:"state"`

	InvoiceDate      string `json:"invoice_date,omitempty"`
	InvoiceDateAlias string `json:"invoiceDate,omitempty"`
	DueDate          string `json:"due_date,omitempty"`
	DueDateAlias     string `json:"dueDate,omitempty"`

	InvoiceNo  string  `json:"invoice_no,omitempty"`
	IBAN       *string `json:"iban"`
	EndToEndID string  `json:"end_to_end_id,omitempty"`

	VendorRaw      string `json:"vendor_raw,omitempty"`
	VendorRawAlias string `json:"vendorRaw,omitempty"`
	VendorNorm     string `json:"vendor_norm,omitempty"`
	TextRaw        string `json:"text_raw,omitempty"`
	TextRawAlias   string `json:"textRaw,omitempty"`
	TextNorm       string `json:"text_norm,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// WireTransaction is a canonical transaction on the wire.
type WireTransaction struct {
	ID        string      `json:"id"`
	TenantID  string      `json:"tenant_id,omitempty"`
	Amount    json.Number `json:"amount"`
	Direction string      `json:"direction"`
	Currency  string      `json:"currency"`
	State     string      `json:"state"`

	BookingDate      string `json:"booking_date,omitempty"`
	BookingDateAlias string `json:"bookingDate,omitempty"`

	IBAN         *string `json:"iban"`
	Reference    string  `json:"reference,omitempty"`
	Purpose      string  `json:"purpose,omitempty"`
	Description  string  `json:"description,omitempty"`
	Counterparty string  `json:"counterparty,omitempty"`
	EndToEndID   string  `json:"end_to_end_id,omitempty"`

	VendorRaw      string `json:"vendor_raw,omitempty"`
	VendorRawAlias string `json:"vendorRaw,omitempty"`
	VendorNorm     string `json:"vendor_norm,omitempty"`
	TextRaw        string `json:"text_raw,omitempty"`
	TextRawAlias   string `json:"textRaw,omitempty"`
	TextNorm       string `json:"text_norm,omitempty"`
}

// CaseSpec is a wire-level case: it references documents and transactions by
// id only.
type CaseSpec struct {
	ID              string               `json:"id"`
	Description     string               `json:"description"`
	ExpectedState   string               `json:"expected_state"`
	ExpectedRelType string               `json:"expected_relation_type"`
	DocIDs          []string             `json:"doc_ids"`
	TxIDs           []string             `json:"tx_ids"`
	MustReasonCodes []string             `json:"must_reason_codes,omitempty"`
	Toggles         *models.ToggleConfig `json:"toggles,omitempty"`
}

// WireCases groups case specs by case type. The doc and tx collections are
// reserved for future standalone document/transaction case types and are
// currently always empty on export.
type WireCases struct {
	Matching []CaseSpec `json:"matching"`
	Doc      []any      `json:"doc"`
	Tx       []any      `json:"tx"`
}

// WireFile is the complete interchange document.
type WireFile struct {
	Meta  *WireMeta         `json:"meta"`
	Docs  []WireDocument    `json:"docs"`
	Txs   []WireTransaction `json:"txs"`
	Cases *WireCases        `json:"cases"`
}

func encodeDocument(doc *models.Document) WireDocument {
	invoiceDate := doc.InvoiceDate.UTC().Format(time.RFC3339)
	dueDate := doc.DueDate.UTC().Format(time.RFC3339)
	return WireDocument{
		ID:               doc.ID,
		TenantID:         doc.TenantID,
		Amount:           json.Number(doc.Amount.StringFixed(2)),
		Currency:         doc.Currency,
		State:            string(doc.State),
		InvoiceDate:      invoiceDate,
		InvoiceDateAlias: invoiceDate,
		DueDate:          dueDate,
		DueDateAlias:     dueDate,
		InvoiceNo:        doc.InvoiceNo,
		IBAN:             doc.IBAN,
		EndToEndID:       doc.EndToEndID,
		VendorRaw:        doc.VendorRaw,
		VendorNorm:       doc.VendorNorm,
		TextRaw:          doc.TextRaw,
		TextNorm:         doc.TextNorm,
		Extra:            doc.Extra,
	}
}

func encodeTransaction(tx *models.Transaction) WireTransaction {
	bookingDate := tx.BookingDate.UTC().Format(time.RFC3339)
	return WireTransaction{
		ID:               tx.ID,
		TenantID:         tx.TenantID,
		Amount:           json.Number(tx.Amount.StringFixed(2)),
		Direction:        string(tx.Direction),
		Currency:         tx.Currency,
		State:            string(tx.State),
		BookingDate:      bookingDate,
		BookingDateAlias: bookingDate,
		IBAN:             tx.IBAN,
		Reference:        tx.Reference,
		Purpose:          tx.Purpose,
		Description:      tx.Description,
		Counterparty:     tx.Counterparty,
		EndToEndID:       tx.EndToEndID,
		VendorRaw:        tx.VendorRaw,
		VendorNorm:       tx.VendorNorm,
		TextRaw:          tx.TextRaw,
		TextNorm:         tx.TextNorm,
	}
}

func decodeDocument(w *WireDocument, now time.Time) models.Document {
	invoiceDate := parseWireDate(pick(w.InvoiceDate, w.InvoiceDateAlias), now)
	dueDate := parseWireDate(pick(w.DueDate, w.DueDateAlias), invoiceDate)

	doc := models.Document{
		ID:          w.ID,
		TenantID:    w.TenantID,
		Amount:      parseWireAmount(w.Amount),
		Currency:    pick(w.Currency, models.Currency),
		State:       decodeLifecycleState(w.State),
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		InvoiceNo:   w.InvoiceNo,
		IBAN:        w.IBAN,
		EndToEndID:  w.EndToEndID,
		Extra:       w.Extra,
	}
	doc.VendorRaw = pick(w.VendorRaw, w.VendorRawAlias)
	doc.VendorNorm = normalize.Text(doc.VendorRaw)
	doc.TextRaw = pick(w.TextRaw, w.TextRawAlias)
	doc.TextNorm = normalize.Text(doc.TextRaw)
	return doc
}

func decodeTransaction(w *WireTransaction, now time.Time) models.Transaction {
	tx := models.Transaction{
		ID:           w.ID,
		TenantID:     w.TenantID,
		Amount:       parseWireAmount(w.Amount),
		Direction:    decodeDirection(w.Direction),
		Currency:     pick(w.Currency, models.Currency),
		State:        decodeLifecycleState(w.State),
		BookingDate:  parseWireDate(pick(w.BookingDate, w.BookingDateAlias), now),
		IBAN:         w.IBAN,
		Reference:    pick(w.Reference, w.Purpose),
		Description:  w.Description,
		Counterparty: w.Counterparty,
		EndToEndID:   w.EndToEndID,
	}
	tx.Purpose = tx.Reference

	tx.VendorRaw = pick(w.VendorRaw, w.VendorRawAlias)
	tx.VendorNorm = normalize.Text(tx.VendorRaw)

	if raw := pick(w.TextRaw, w.TextRawAlias); raw != "" {
		tx.TextRaw = raw
		tx.TextNorm = normalize.Text(raw)
	} else {
		builder.SynthesizeTransactionText(&tx)
	}
	return tx
}

func decodeLifecycleState(raw string) models.LifecycleState {
	state := models.LifecycleState(strings.TrimSpace(raw))
	if !state.IsValid() {
		return models.StateUnlinked
	}
	return state
}

func decodeDirection(raw string) models.Direction {
	dir := models.Direction(strings.TrimSpace(raw))
	if !dir.IsValid() {
		return models.DirectionOut
	}
	return dir
}

func parseWireAmount(n json.Number) decimal.Decimal {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

func parseWireDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range wireDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

func pick(primary, fallback string) string {
	if strings.TrimSpace(primary) != "" {
		return primary
	}
	return fallback
}
