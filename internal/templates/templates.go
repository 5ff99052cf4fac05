// Package templates holds the scenario catalog and the case generator. Each
// template is a pure function from (toggle configuration, id allocator,
// random source) to a complete case honoring template-specific numeric
// invariants.
package templates

import (
	"github.com/shopspring/decimal"

	"golang-matchgen/internal/builder"
	"golang-matchgen/internal/idgen"
	"golang-matchgen/internal/models"
	"golang-matchgen/internal/noise"
	"golang-matchgen/internal/rng"
	"golang-matchgen/pkg/logger"
)

// Kind tags a template with the relationship cardinality it targets. It is
// the selector the editing UI filters the catalog by; doc-only and tx-only
// templates produce cases whose expected relation collapses to none.
type Kind string

const (
	KindDocOnly    Kind = "doc_only"
	KindTxOnly     Kind = "tx_only"
	KindOneToOne   Kind = "one_to_one"
	KindOneToMany  Kind = "one_to_many"
	KindManyToOne  Kind = "many_to_one"
	KindManyToMany Kind = "many_to_many"
)

// Template is one named scenario in the catalog.
type Template struct {
	ID          string
	Kind        Kind
	Description string

	// RequiresIBAN marks templates whose scenario depends on IBAN-based
	// matching; the txIbanMissing toggle is ignored for them.
	RequiresIBAN bool
	// SuppressKeywords marks templates that strip accidental partial/batch
	// keywords from synthesized transaction text after noise runs.
	SuppressKeywords bool
	// PrimaryInvoiceNoise marks the template whose scenario is already
	// about invoice-number noise; the residual noise pass skips it.
	PrimaryInvoiceNoise bool

	build func(b *caseBuilder)
	post  func(b *caseBuilder)
}

// Params carries everything GenerateCase needs.
type Params struct {
	TemplateID string
	Toggles    models.ToggleConfig
	IDs        *idgen.Generator
	Rand       rng.Source
	TenantID   string

	// When re-rolling an existing case, the previously allocated ids are
	// reused in positional order instead of minting new ones, so other code
	// referencing the case keeps valid ids.
	ExistingCaseID         string
	ExistingDocumentIDs    []string
	ExistingTransactionIDs []string
}

// ByKind returns the templates tagged with the given kind, in catalog order.
func ByKind(kind Kind) []Template {
	var out []Template
	for _, tpl := range catalog {
		if tpl.Kind == kind {
			out = append(out, tpl)
		}
	}
	return out
}

// All returns the full catalog in declaration order.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// Find looks a template up by id.
func Find(id string) (Template, bool) {
	for _, tpl := range catalog {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return Template{}, false
}

// GenerateCase runs one template and the post-processing pipeline over its
// output. An unrecognized template id degrades to a case with the allocated
// id and empty entity sets rather than an error.
//
// Noise is re-rolled from the supplied source on every call; regenerating a
// case bit-for-bit requires passing an identically seeded source, not just
// the existing ids.
func GenerateCase(p Params) models.Case {
	caseID := p.ExistingCaseID
	if caseID == "" {
		caseID = p.IDs.NextCaseID()
	}

	c := models.Case{
		ID:               caseID,
		ExpectedState:    models.MatchNone,
		ExpectedRelation: models.RelationNone,
	}
	if p.Toggles.Any() {
		toggles := p.Toggles
		c.Toggles = &toggles
	}

	tpl, ok := Find(p.TemplateID)
	if !ok {
		logger.WithComponent("templates").
			WithField("template", p.TemplateID).
			Warn("unknown template id, generating empty case")
		c.Description = "unknown template: " + p.TemplateID
		return c
	}
	c.Description = tpl.Description

	b := &caseBuilder{
		params:  p,
		tpl:     tpl,
		c:       &c,
		offset:  caseOffset(&c),
		docIDs:  p.ExistingDocumentIDs,
		txIDs:   p.ExistingTransactionIDs,
	}
	tpl.build(b)

	if tpl.post != nil {
		tpl.post(b)
	}

	for i := range c.Documents {
		noise.ApplyDocument(&c.Documents[i], p.Toggles, p.Rand)
	}
	for i := range c.Transactions {
		noise.ApplyTransaction(&c.Transactions[i], p.Toggles, tpl.RequiresIBAN, p.Rand)
	}

	if tpl.SuppressKeywords {
		for i := range c.Transactions {
			noise.StripKeywords(&c.Transactions[i])
		}
	}
	if p.Toggles.InvoiceNoMismatch {
		noise.ApplyInvoiceMismatch(&c, p.Rand)
	}
	if p.Toggles.InvoiceNoNoise && !tpl.PrimaryInvoiceNoise {
		noise.ApplyResidualInvoiceNoise(&c, p.Rand)
	}

	return c
}

// caseOffset derives the per-case amount offset, max(1, case number) * 1000,
// used to keep amounts from colliding with sibling cases in one dataset.
func caseOffset(c *models.Case) decimal.Decimal {
	num := c.Number()
	if num < 1 {
		num = 1
	}
	return decimal.NewFromInt(int64(num) * 1000)
}

// caseBuilder is the per-invocation context template bodies build into.
type caseBuilder struct {
	params Params
	tpl    Template
	c      *models.Case
	offset decimal.Decimal
	docIDs []string
	txIDs  []string
}

func (b *caseBuilder) nextDocID() string {
	if len(b.docIDs) > 0 {
		id := b.docIDs[0]
		b.docIDs = b.docIDs[1:]
		return id
	}
	return b.params.IDs.NextDocumentID()
}

func (b *caseBuilder) nextTxID() string {
	if len(b.txIDs) > 0 {
		id := b.txIDs[0]
		b.txIDs = b.txIDs[1:]
		return id
	}
	return b.params.IDs.NextTransactionID()
}

// amount converts base cents to a decimal amount and adds the case offset.
// Working in cents keeps every template sum exact.
func (b *caseBuilder) amount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2).Add(b.offset)
}

func (b *caseBuilder) addDoc(in builder.DocumentInput) *models.Document {
	in.ID = b.nextDocID()
	in.TenantID = b.params.TenantID
	doc := builder.Document(in, b.params.Rand)
	b.c.Documents = append(b.c.Documents, doc)
	return &b.c.Documents[len(b.c.Documents)-1]
}

func (b *caseBuilder) addTx(in builder.TransactionInput) *models.Transaction {
	in.ID = b.nextTxID()
	in.TenantID = b.params.TenantID
	tx := builder.Transaction(in, b.params.Rand)
	b.c.Transactions = append(b.c.Transactions, tx)
	return &b.c.Transactions[len(b.c.Transactions)-1]
}

func (b *caseBuilder) expect(state models.MatchState, relation models.RelationKind, reasons ...string) {
	b.c.ExpectedState = state
	b.c.ExpectedRelation = relation
	b.c.MustReasonCodes = reasons
}
