package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the single supported currency code. All generated amounts are
// two-decimal values in this currency.
const Currency = "EUR"

// Identifier prefixes. Documents and transactions use a prefix-dash-number
// convention, cases use a bare prefix.
const (
	DocumentIDPrefix    = "doc-"
	TransactionIDPrefix = "tx-"
	CaseIDPrefix        = "C"
)

// Domain keywords recognized by the matching engine in booking free text.
const (
	PartialPaymentKeyword = "Teilzahlung"
	BatchPaymentKeyword   = "Sammelzahlung"
)

// DefaultSchemaVersion is stamped on newly created datasets.
const DefaultSchemaVersion = "2"

// LifecycleState represents the linking state of a document or transaction.
type LifecycleState string

const (
	StateUnlinked  LifecycleState = "unlinked"
	StateSuggested LifecycleState = "suggested"
)

// IsValid checks if the lifecycle state is one of the known values.
func (s LifecycleState) IsValid() bool {
	return s == StateUnlinked || s == StateSuggested
}

// Direction represents the direction of a bank booking.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// IsValid checks if the direction is one of the known values.
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// MatchState is the outcome label the matching engine is expected to produce
// for a case.
type MatchState string

const (
	MatchFinal     MatchState = "FINAL_MATCH"
	MatchSuggested MatchState = "SUGGESTED_MATCH"
	MatchNone      MatchState = "NO_MATCH"
	MatchAmbiguous MatchState = "AMBIGUOUS"
	MatchPartial   MatchState = "PARTIAL_MATCH"

	// legacySuggested appears in fixtures exported before the state was
	// renamed; it is rewritten on load.
	legacySuggested = "SUGGESTED"
)

// IsValid checks if the match state is one of the known values.
func (m MatchState) IsValid() bool {
	switch m {
	case MatchFinal, MatchSuggested, MatchNone, MatchAmbiguous, MatchPartial:
		return true
	}
	return false
}

// NormalizeMatchState rewrites the legacy SUGGESTED value to SUGGESTED_MATCH
// and defaults empty input to SUGGESTED_MATCH. Any other value passes
// through unchanged.
func NormalizeMatchState(raw string) MatchState {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == legacySuggested {
		return MatchSuggested
	}
	return MatchState(trimmed)
}

// RelationKind is the document-to-transaction cardinality a case exercises.
type RelationKind string

const (
	RelationOneToOne   RelationKind = "one_to_one"
	RelationOneToMany  RelationKind = "one_to_many"
	RelationManyToOne  RelationKind = "many_to_one"
	RelationManyToMany RelationKind = "many_to_many"
	RelationNone       RelationKind = "none"
)

// IsValid checks if the relation kind is one of the known values.
func (r RelationKind) IsValid() bool {
	switch r {
	case RelationOneToOne, RelationOneToMany, RelationManyToOne, RelationManyToMany, RelationNone:
		return true
	}
	return false
}

// ToggleConfig selects the optional noise behaviors applied after a template
// body has produced its entities. Field names on the wire match the toggle
// names the editing UI uses.
type ToggleConfig struct {
	TxIbanMissing     bool `json:"txIbanMissing,omitempty"`
	VendorNoise       bool `json:"vendorNoise,omitempty"`
	InvoiceNoNoise    bool `json:"invoiceNoNoise,omitempty"`
	InvoiceNoMismatch bool `json:"invoiceNoMismatch,omitempty"`
	DateEdge          bool `json:"dateEdge,omitempty"`
	DueDateShift      bool `json:"dueDateShift,omitempty"`
	AmountEdge        bool `json:"amountEdge,omitempty"`
	PartialKeyword    bool `json:"partialKeyword,omitempty"`
	BatchKeyword      bool `json:"batchKeyword,omitempty"`
}

// Any reports whether at least one toggle is enabled.
func (t ToggleConfig) Any() bool {
	return t != ToggleConfig{}
}

// Document represents a canonical invoice/receipt record. The *Norm fields
// are always the normalizer's output of the corresponding *Raw field; callers
// mutate the raw fields only through the builder's apply helpers.
type Document struct {
	ID          string
	TenantID    string
	Amount      decimal.Decimal
	Currency    string
	State       LifecycleState
	InvoiceDate time.Time
	DueDate     time.Time
	InvoiceNo   string
	IBAN        *string
	EndToEndID  string
	VendorRaw   string
	VendorNorm  string
	TextRaw     string
	TextNorm    string
	Extra       map[string]any
}

// Validate performs basic validation on the Document.
func (d *Document) Validate() error {
	if !strings.HasPrefix(d.ID, DocumentIDPrefix) {
		return fmt.Errorf("document id %q must carry prefix %q", d.ID, DocumentIDPrefix)
	}
	if d.Currency != Currency {
		return fmt.Errorf("unsupported currency %q", d.Currency)
	}
	if !d.State.IsValid() {
		return fmt.Errorf("invalid document state: %s", d.State)
	}
	if d.InvoiceDate.IsZero() {
		return fmt.Errorf("document invoice date cannot be zero")
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() Document {
	out := *d
	if d.IBAN != nil {
		iban := *d.IBAN
		out.IBAN = &iban
	}
	if d.Extra != nil {
		out.Extra = make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Transaction represents a canonical bank booking record.
type Transaction struct {
	ID           string
	TenantID     string
	Amount       decimal.Decimal
	Direction    Direction
	Currency     string
	BookingDate  time.Time
	State        LifecycleState
	IBAN         *string
	Reference    string
	Purpose      string // legacy alias of Reference, kept in sync
	Description  string
	Counterparty string
	EndToEndID   string
	VendorRaw    string
	VendorNorm   string
	TextRaw      string
	TextNorm     string
}

// Validate performs basic validation on the Transaction.
func (t *Transaction) Validate() error {
	if !strings.HasPrefix(t.ID, TransactionIDPrefix) {
		return fmt.Errorf("transaction id %q must carry prefix %q", t.ID, TransactionIDPrefix)
	}
	if t.Currency != Currency {
		return fmt.Errorf("unsupported currency %q", t.Currency)
	}
	if !t.Direction.IsValid() {
		return fmt.Errorf("invalid transaction direction: %s", t.Direction)
	}
	if !t.State.IsValid() {
		return fmt.Errorf("invalid transaction state: %s", t.State)
	}
	if t.BookingDate.IsZero() {
		return fmt.Errorf("transaction booking date cannot be zero")
	}
	return nil
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() Transaction {
	out := *t
	if t.IBAN != nil {
		iban := *t.IBAN
		out.IBAN = &iban
	}
	return out
}

// Case is a named test scenario: the entities it owns (by value) plus the
// outcome labels the matching engine is expected to produce for them.
type Case struct {
	ID               string
	Description      string
	ExpectedState    MatchState
	ExpectedRelation RelationKind
	MustReasonCodes  []string
	Toggles          *ToggleConfig
	Documents        []Document
	Transactions     []Transaction
}

// Number returns the numeric part of the case id, or 0 if it cannot be
// parsed. "C007" yields 7.
func (c *Case) Number() int {
	return NumericSuffix(c.ID, CaseIDPrefix)
}

// Validate performs basic validation on the Case and its entities.
func (c *Case) Validate() error {
	if !strings.HasPrefix(c.ID, CaseIDPrefix) {
		return fmt.Errorf("case id %q must carry prefix %q", c.ID, CaseIDPrefix)
	}
	if !c.ExpectedState.IsValid() {
		return fmt.Errorf("case %s: invalid expected state %q", c.ID, c.ExpectedState)
	}
	if !c.ExpectedRelation.IsValid() {
		return fmt.Errorf("case %s: invalid expected relation %q", c.ID, c.ExpectedRelation)
	}
	for i := range c.Documents {
		if err := c.Documents[i].Validate(); err != nil {
			return fmt.Errorf("case %s: %w", c.ID, err)
		}
	}
	for i := range c.Transactions {
		if err := c.Transactions[i].Validate(); err != nil {
			return fmt.Errorf("case %s: %w", c.ID, err)
		}
	}
	return nil
}

// Dataset is a named, tenant-scoped collection of cases.
type Dataset struct {
	Name          string
	TenantID      string
	SchemaVersion string
	Cases         []Case
}

// DocumentPool flattens all cases' documents into an id-keyed map. When an
// id appears in more than one case the last write wins.
func (ds *Dataset) DocumentPool() map[string]Document {
	pool := make(map[string]Document)
	for i := range ds.Cases {
		for j := range ds.Cases[i].Documents {
			doc := ds.Cases[i].Documents[j]
			pool[doc.ID] = doc
		}
	}
	return pool
}

// TransactionPool flattens all cases' transactions into an id-keyed map with
// last-write-wins semantics, mirroring DocumentPool.
func (ds *Dataset) TransactionPool() map[string]Transaction {
	pool := make(map[string]Transaction)
	for i := range ds.Cases {
		for j := range ds.Cases[i].Transactions {
			tx := ds.Cases[i].Transactions[j]
			pool[tx.ID] = tx
		}
	}
	return pool
}

// NumericSuffix extracts the numeric suffix of an identifier under the given
// prefix. Returns 0 when the id does not carry the prefix or the remainder
// is not a plain decimal number.
func NumericSuffix(id, prefix string) int {
	if !strings.HasPrefix(id, prefix) {
		return 0
	}
	rest := strings.TrimPrefix(id, prefix)
	if rest == "" {
		return 0
	}
	n := 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
