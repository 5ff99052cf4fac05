package config

import (
	"strings"
	"testing"

	"golang-matchgen/internal/models"
)

func TestParseToggles(t *testing.T) {
	toggles, err := ParseToggles(nil)
	if err != nil {
		t.Fatalf("empty input should parse: %v", err)
	}
	if toggles.Any() {
		t.Error("empty input should enable nothing")
	}

	toggles, err = ParseToggles([]string{"vendorNoise", "amountEdge", "batchKeyword"})
	if err != nil {
		t.Fatalf("valid toggles rejected: %v", err)
	}
	want := models.ToggleConfig{VendorNoise: true, AmountEdge: true, BatchKeyword: true}
	if toggles != want {
		t.Errorf("parsed = %+v, want %+v", toggles, want)
	}

	_, err = ParseToggles([]string{"vendorNoise", "nope"})
	if err == nil {
		t.Fatal("unknown toggle accepted")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("error %q should name the bad toggle", err)
	}
}

func TestParseTogglesCoversEveryName(t *testing.T) {
	toggles, err := ParseToggles(ToggleNames())
	if err != nil {
		t.Fatalf("advertised names rejected: %v", err)
	}
	all := models.ToggleConfig{
		TxIbanMissing:     true,
		VendorNoise:       true,
		InvoiceNoNoise:    true,
		InvoiceNoMismatch: true,
		DateEdge:          true,
		DueDateShift:      true,
		AmountEdge:        true,
		PartialKeyword:    true,
		BatchKeyword:      true,
	}
	if toggles != all {
		t.Errorf("every advertised name should map to a field: %+v", toggles)
	}
}

func TestNewDatasetDefaults(t *testing.T) {
	ds := NewDataset("", "")
	if ds.Name == "" || ds.TenantID == "" {
		t.Errorf("defaults not filled: %+v", ds)
	}
	if ds.SchemaVersion != models.DefaultSchemaVersion {
		t.Errorf("schema version = %q", ds.SchemaVersion)
	}

	ds = NewDataset("golden", "tenant-42")
	if ds.Name != "golden" || ds.TenantID != "tenant-42" {
		t.Errorf("explicit values not kept: %+v", ds)
	}
}

func TestNewRandSourceIsSeedable(t *testing.T) {
	a := NewRandSource(42)
	b := NewRandSource(42)
	for i := 0; i < 10; i++ {
		if a.Intn(1000) != b.Intn(1000) {
			t.Fatal("same seed should produce the same sequence")
		}
	}
}
