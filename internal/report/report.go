// Package report summarizes a dataset for humans: counts by expected state
// and relation kind, entity totals, and any import warnings.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"golang-matchgen/internal/models"
)

// Format selects the rendering of a summary.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Summary aggregates a dataset's shape.
type Summary struct {
	Name          string         `json:"name"`
	TenantID      string         `json:"tenant_id"`
	SchemaVersion string         `json:"schema_version"`
	Cases         int            `json:"cases"`
	Documents     int            `json:"documents"`
	Transactions  int            `json:"transactions"`
	ByState       map[string]int `json:"by_state"`
	ByRelation    map[string]int `json:"by_relation"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// Summarize computes the summary of a dataset plus optional import warnings.
func Summarize(ds *models.Dataset, warnings []string) *Summary {
	s := &Summary{
		Name:          ds.Name,
		TenantID:      ds.TenantID,
		SchemaVersion: ds.SchemaVersion,
		Cases:         len(ds.Cases),
		Documents:     len(ds.DocumentPool()),
		Transactions:  len(ds.TransactionPool()),
		ByState:       make(map[string]int),
		ByRelation:    make(map[string]int),
		Warnings:      warnings,
	}
	for i := range ds.Cases {
		s.ByState[string(ds.Cases[i].ExpectedState)]++
		s.ByRelation[string(ds.Cases[i].ExpectedRelation)]++
	}
	return s
}

// Render writes the summary to w in the requested format.
func (s *Summary) Render(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return s.renderConsole(w)
	}
}

func (s *Summary) renderConsole(w io.Writer) error {
	fmt.Fprintf(w, "Dataset: %s (tenant %s, schema %s)\n", s.Name, s.TenantID, s.SchemaVersion)
	fmt.Fprintf(w, "Cases: %d  Documents: %d  Transactions: %d\n", s.Cases, s.Documents, s.Transactions)

	fmt.Fprintln(w, "Expected states:")
	for _, key := range sortedKeys(s.ByState) {
		fmt.Fprintf(w, "  %-16s %d\n", key, s.ByState[key])
	}
	fmt.Fprintln(w, "Relation kinds:")
	for _, key := range sortedKeys(s.ByRelation) {
		fmt.Fprintf(w, "  %-16s %d\n", key, s.ByRelation[key])
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintf(w, "Warnings (%d):\n", len(s.Warnings))
		for _, warning := range s.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
