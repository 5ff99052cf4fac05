// Package idgen allocates collision-free identifiers for documents,
// transactions, and cases. A Generator is seeded from whatever dataset is
// currently loaded, so re-importing a dataset and continuing to generate new
// entities never reuses an id.
package idgen

import (
	"fmt"

	"golang-matchgen/internal/models"
)

// Generator holds three independent monotonic counters. It is owned by one
// editing session and must not be shared across goroutines.
type Generator struct {
	docCounter  int
	txCounter   int
	caseCounter int
}

// New builds a Generator from the full current pool of documents,
// transactions, and cases. Each counter starts at the maximum numeric suffix
// observed under the matching prefix, or zero if none. Document and
// transaction counters share the same starting maximum so that neither can
// collide with ids already present under the other's prefix; after
// construction they advance independently.
func New(docs []models.Document, txs []models.Transaction, cases []models.Case) *Generator {
	maxEntity := 0
	for i := range docs {
		if n := models.NumericSuffix(docs[i].ID, models.DocumentIDPrefix); n > maxEntity {
			maxEntity = n
		}
	}
	for i := range txs {
		if n := models.NumericSuffix(txs[i].ID, models.TransactionIDPrefix); n > maxEntity {
			maxEntity = n
		}
	}

	maxCase := 0
	for i := range cases {
		if n := models.NumericSuffix(cases[i].ID, models.CaseIDPrefix); n > maxCase {
			maxCase = n
		}
	}

	return &Generator{
		docCounter:  maxEntity,
		txCounter:   maxEntity,
		caseCounter: maxCase,
	}
}

// FromDataset builds a Generator seeded from every entity in the dataset.
func FromDataset(ds *models.Dataset) *Generator {
	if ds == nil {
		return New(nil, nil, nil)
	}
	var docs []models.Document
	var txs []models.Transaction
	for _, doc := range ds.DocumentPool() {
		docs = append(docs, doc)
	}
	for _, tx := range ds.TransactionPool() {
		txs = append(txs, tx)
	}
	return New(docs, txs, ds.Cases)
}

// NextDocumentID mints a fresh document identifier, e.g. "doc-008".
func (g *Generator) NextDocumentID() string {
	g.docCounter++
	return fmt.Sprintf("%s%03d", models.DocumentIDPrefix, g.docCounter)
}

// NextTransactionID mints a fresh transaction identifier, e.g. "tx-008".
func (g *Generator) NextTransactionID() string {
	g.txCounter++
	return fmt.Sprintf("%s%03d", models.TransactionIDPrefix, g.txCounter)
}

// NextCaseID mints a fresh case identifier, e.g. "C004".
func (g *Generator) NextCaseID() string {
	g.caseCounter++
	return fmt.Sprintf("%s%03d", models.CaseIDPrefix, g.caseCounter)
}
