// Package config builds generator configuration from CLI inputs.
package config

import (
	"fmt"
	"time"

	"golang-matchgen/internal/models"
	"golang-matchgen/internal/rng"
)

// Known toggle names accepted by --toggle, in the order the noise engine
// documents them.
var toggleNames = []string{
	"txIbanMissing",
	"vendorNoise",
	"invoiceNoNoise",
	"invoiceNoMismatch",
	"dateEdge",
	"dueDateShift",
	"amountEdge",
	"partialKeyword",
	"batchKeyword",
}

// ToggleNames returns the accepted toggle names for help output.
func ToggleNames() []string {
	out := make([]string, len(toggleNames))
	copy(out, toggleNames)
	return out
}

// ParseToggles builds a ToggleConfig from repeated --toggle values.
func ParseToggles(names []string) (models.ToggleConfig, error) {
	var toggles models.ToggleConfig
	for _, name := range names {
		switch name {
		case "txIbanMissing":
			toggles.TxIbanMissing = true
		case "vendorNoise":
			toggles.VendorNoise = true
		case "invoiceNoNoise":
			toggles.InvoiceNoNoise = true
		case "invoiceNoMismatch":
			toggles.InvoiceNoMismatch = true
		case "dateEdge":
			toggles.DateEdge = true
		case "dueDateShift":
			toggles.DueDateShift = true
		case "amountEdge":
			toggles.AmountEdge = true
		case "partialKeyword":
			toggles.PartialKeyword = true
		case "batchKeyword":
			toggles.BatchKeyword = true
		default:
			return models.ToggleConfig{}, fmt.Errorf("unknown toggle %q (valid: %v)", name, toggleNames)
		}
	}
	return toggles, nil
}

// NewRandSource returns a seeded random source. Seed 0 means "not pinned"
// and falls back to the current time.
func NewRandSource(seed int64) rng.Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rng.New(seed)
}

// NewDataset creates an empty dataset with defaulted metadata.
func NewDataset(name, tenantID string) *models.Dataset {
	if name == "" {
		name = "matchgen dataset"
	}
	if tenantID == "" {
		tenantID = "tenant-demo"
	}
	return &models.Dataset{
		Name:          name,
		TenantID:      tenantID,
		SchemaVersion: models.DefaultSchemaVersion,
	}
}
