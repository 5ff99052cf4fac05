// Package codec maps between the internal dataset model and the interchange
// format consumed by the matching engine and by previously exported dataset
// files. Aliasing between the canonical snake_case schema and the engine's
// older camelCase schema is handled entirely at this boundary; the internal
// model carries exactly one canonical field set.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang-matchgen/internal/models"
	perrors "golang-matchgen/pkg/errors"
	"golang-matchgen/pkg/logger"
)

// ImportResult is the outcome of a successful (possibly partial) import.
type ImportResult struct {
	Dataset  *models.Dataset
	Warnings []string
}

// BuildExport flattens a dataset into the wire format: id-keyed entity
// collections (last write wins for duplicated ids), case specs referencing
// entities by id only, and a current-time metadata stamp.
func BuildExport(ds *models.Dataset) *WireFile {
	file := &WireFile{
		Meta: &WireMeta{
			Name:          ds.Name,
			TenantID:      ds.TenantID,
			SchemaVersion: ds.SchemaVersion,
			NowISO:        time.Now().UTC().Format(time.RFC3339),
		},
		Docs: []WireDocument{},
		Txs:  []WireTransaction{},
		Cases: &WireCases{
			Matching: []CaseSpec{},
			Doc:      []any{},
			Tx:       []any{},
		},
	}

	// Preserve first-seen order while letting later writes win, so exports
	// are stable across runs.
	docOrder := make([]string, 0)
	docByID := make(map[string]WireDocument)
	txOrder := make([]string, 0)
	txByID := make(map[string]WireTransaction)

	for i := range ds.Cases {
		c := &ds.Cases[i]
		spec := CaseSpec{
			ID:              c.ID,
			Description:     c.Description,
			ExpectedState:   string(c.ExpectedState),
			ExpectedRelType: string(c.ExpectedRelation),
			DocIDs:          []string{},
			TxIDs:           []string{},
			Toggles:         c.Toggles,
		}
		if len(c.MustReasonCodes) > 0 {
			spec.MustReasonCodes = c.MustReasonCodes
		}

		for j := range c.Documents {
			doc := &c.Documents[j]
			if _, seen := docByID[doc.ID]; !seen {
				docOrder = append(docOrder, doc.ID)
			}
			docByID[doc.ID] = encodeDocument(doc)
			spec.DocIDs = append(spec.DocIDs, doc.ID)
		}
		for j := range c.Transactions {
			tx := &c.Transactions[j]
			if _, seen := txByID[tx.ID]; !seen {
				txOrder = append(txOrder, tx.ID)
			}
			txByID[tx.ID] = encodeTransaction(tx)
			spec.TxIDs = append(spec.TxIDs, tx.ID)
		}

		file.Cases.Matching = append(file.Cases.Matching, spec)
	}

	for _, id := range docOrder {
		file.Docs = append(file.Docs, docByID[id])
	}
	for _, id := range txOrder {
		file.Txs = append(file.Txs, txByID[id])
	}

	return file
}

// ExportJSON renders the dataset's wire document as indented JSON.
func ExportJSON(ds *models.Dataset) ([]byte, error) {
	data, err := json.MarshalIndent(BuildExport(ds), "", "  ")
	if err != nil {
		return nil, perrors.Wrap(err, perrors.CategoryCodec, perrors.CodeInvalidData, "failed to encode wire document")
	}
	return data, nil
}

// importEnvelope tolerates the shape variations the importer accepts: this
// tool's export shape, a bare case-spec array under cases, and the matching
// engine's native fixture shape with cases under a top-level matching key.
type importEnvelope struct {
	Meta     *WireMeta       `json:"meta"`
	Docs     json.RawMessage `json:"docs"`
	Txs      json.RawMessage `json:"txs"`
	Cases    json.RawMessage `json:"cases"`
	Matching json.RawMessage `json:"matching"`
}

// ParseImport parses interchange text. Unresolvable entity references inside
// a well-formed file are downgraded to warnings (one line per affected case)
// and the case keeps only its resolvable entities. An unrecognizable
// top-level shape or malformed JSON returns a codec error and no result.
func ParseImport(data []byte) (*ImportResult, error) {
	var env importEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, perrors.CodecError(perrors.CodeInvalidFormat, "not valid JSON", err)
	}
	if env.Meta == nil {
		return nil, perrors.CodecError(perrors.CodeUnrecognizedShape, "missing meta object", nil)
	}

	wireDocs, err := decodeEntityArray[WireDocument](env.Docs, "docs")
	if err != nil {
		return nil, err
	}
	wireTxs, err := decodeEntityArray[WireTransaction](env.Txs, "txs")
	if err != nil {
		return nil, err
	}

	specs, err := decodeCaseSpecs(env.Cases, env.Matching)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)

	docPool := make(map[string]models.Document, len(wireDocs))
	for i := range wireDocs {
		doc := decodeDocument(&wireDocs[i], now)
		docPool[doc.ID] = doc
	}
	txPool := make(map[string]models.Transaction, len(wireTxs))
	for i := range wireTxs {
		tx := decodeTransaction(&wireTxs[i], now)
		txPool[tx.ID] = tx
	}

	ds := &models.Dataset{
		Name:          env.Meta.Name,
		TenantID:      env.Meta.TenantID,
		SchemaVersion: env.Meta.SchemaVersion,
	}
	if ds.SchemaVersion == "" {
		ds.SchemaVersion = models.DefaultSchemaVersion
	}

	var warnings []string
	for i := range specs {
		c, missing := resolveCase(&specs[i], docPool, txPool)
		if len(missing) > 0 {
			warning := fmt.Sprintf("case %s: dropped unresolvable references: %s", c.ID, strings.Join(missing, ", "))
			warnings = append(warnings, warning)
			logger.WithComponent("codec").WithField("case", c.ID).Warn(warning)
		}
		ds.Cases = append(ds.Cases, c)
	}

	return &ImportResult{Dataset: ds, Warnings: warnings}, nil
}

func decodeEntityArray[T any](raw json.RawMessage, field string) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, perrors.CodecError(perrors.CodeUnrecognizedShape, field+" is not an array", err)
	}
	return out, nil
}

func decodeCaseSpecs(casesRaw, matchingRaw json.RawMessage) ([]CaseSpec, error) {
	raw := casesRaw
	if len(raw) == 0 || string(raw) == "null" {
		raw = matchingRaw
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	// Current export shape: an object with a matching collection.
	var grouped WireCases
	if err := json.Unmarshal(raw, &grouped); err == nil {
		return grouped.Matching, nil
	}

	// Older export shape: a bare array of case specs.
	var flat []CaseSpec
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	return nil, perrors.CodecError(perrors.CodeUnrecognizedShape, "cases is neither an object nor an array", nil)
}

func resolveCase(spec *CaseSpec, docPool map[string]models.Document, txPool map[string]models.Transaction) (models.Case, []string) {
	c := models.Case{
		ID:               spec.ID,
		Description:      spec.Description,
		ExpectedState:    models.NormalizeMatchState(spec.ExpectedState),
		ExpectedRelation: decodeRelation(spec.ExpectedRelType),
		MustReasonCodes:  spec.MustReasonCodes,
		Toggles:          spec.Toggles,
	}

	var missing []string
	for _, id := range spec.DocIDs {
		doc, ok := docPool[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		c.Documents = append(c.Documents, doc.Clone())
	}
	for _, id := range spec.TxIDs {
		tx, ok := txPool[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		c.Transactions = append(c.Transactions, tx.Clone())
	}

	return c, missing
}

func decodeRelation(raw string) models.RelationKind {
	relation := models.RelationKind(strings.TrimSpace(raw))
	if !relation.IsValid() {
		return models.RelationNone
	}
	return relation
}
