package templates

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"golang-matchgen/internal/idgen"
	"golang-matchgen/internal/models"
	"golang-matchgen/internal/rng"
)

func generate(t *testing.T, templateID string, toggles models.ToggleConfig, seed int64) models.Case {
	t.Helper()
	c := GenerateCase(Params{
		TemplateID: templateID,
		Toggles:    toggles,
		IDs:        idgen.New(nil, nil, nil),
		Rand:       rng.New(seed),
		TenantID:   "tenant-test",
	})
	if err := c.Validate(); err != nil {
		t.Fatalf("generated case invalid: %v", err)
	}
	return c
}

func TestCatalogIsComplete(t *testing.T) {
	all := All()
	if len(all) != 16 {
		t.Fatalf("catalog has %d templates, want 16", len(all))
	}

	seen := make(map[string]bool)
	for _, tpl := range all {
		if tpl.ID == "" || tpl.Description == "" {
			t.Errorf("template %+v missing id or description", tpl)
		}
		if seen[tpl.ID] {
			t.Errorf("duplicate template id %q", tpl.ID)
		}
		seen[tpl.ID] = true
		if tpl.build == nil {
			t.Errorf("template %q has no build function", tpl.ID)
		}
	}

	kinds := map[Kind]int{}
	for _, tpl := range all {
		kinds[tpl.Kind]++
	}
	for _, kind := range []Kind{KindDocOnly, KindTxOnly, KindOneToOne, KindOneToMany, KindManyToOne, KindManyToMany} {
		if kinds[kind] == 0 {
			t.Errorf("no template covers kind %q", kind)
		}
	}
}

func TestByKindAndFind(t *testing.T) {
	oneToOne := ByKind(KindOneToOne)
	if len(oneToOne) == 0 {
		t.Fatal("no one_to_one templates")
	}
	for _, tpl := range oneToOne {
		if tpl.Kind != KindOneToOne {
			t.Errorf("ByKind returned %q with kind %q", tpl.ID, tpl.Kind)
		}
	}

	if _, ok := Find("invoice_no_exact_final"); !ok {
		t.Error("known template not found")
	}
	if _, ok := Find("does_not_exist"); ok {
		t.Error("unknown template reported as found")
	}
}

func TestInvoiceNoExactFinal(t *testing.T) {
	c := generate(t, "invoice_no_exact_final", models.ToggleConfig{}, 42)

	if c.ID != "C001" {
		t.Errorf("case id = %q, want C001", c.ID)
	}
	if len(c.Documents) != 1 || len(c.Transactions) != 1 {
		t.Fatalf("entity counts = %d/%d, want 1/1", len(c.Documents), len(c.Transactions))
	}
	if c.ExpectedState != models.MatchFinal || c.ExpectedRelation != models.RelationOneToOne {
		t.Errorf("labels = %s/%s, want FINAL_MATCH/one_to_one", c.ExpectedState, c.ExpectedRelation)
	}

	doc, tx := c.Documents[0], c.Transactions[0]
	if doc.ID != "doc-001" || tx.ID != "tx-001" {
		t.Errorf("entity ids = %s/%s", doc.ID, tx.ID)
	}
	if !doc.Amount.Equal(tx.Amount) {
		t.Errorf("amounts differ: %s vs %s", doc.Amount, tx.Amount)
	}
	if !strings.Contains(tx.Reference, doc.InvoiceNo) {
		t.Errorf("reference %q does not contain invoice number %q", tx.Reference, doc.InvoiceNo)
	}
	if doc.TenantID != "tenant-test" || tx.TenantID != "tenant-test" {
		t.Errorf("tenant not propagated: %q/%q", doc.TenantID, tx.TenantID)
	}
	if c.Toggles != nil {
		t.Error("case should not carry a toggle config when none are enabled")
	}
}

func TestCaseOffsetSeparatesAmounts(t *testing.T) {
	// Case number 1 shifts amounts by 1000; base 119.00 becomes 1119.00.
	c := generate(t, "invoice_no_exact_final", models.ToggleConfig{}, 42)
	if !c.Documents[0].Amount.Equal(decimal.NewFromFloat(1119.00)) {
		t.Errorf("offset amount = %s, want 1119.00", c.Documents[0].Amount)
	}

	// Re-rolling under case number 7 shifts by 7000 instead.
	c7 := GenerateCase(Params{
		TemplateID:     "invoice_no_exact_final",
		IDs:            idgen.New(nil, nil, nil),
		Rand:           rng.New(42),
		ExistingCaseID: "C007",
	})
	if !c7.Documents[0].Amount.Equal(decimal.NewFromFloat(7119.00)) {
		t.Errorf("offset amount for C007 = %s, want 7119.00", c7.Documents[0].Amount)
	}
}

func TestIbanAmountFinal(t *testing.T) {
	c := generate(t, "iban_amount_final", models.ToggleConfig{}, 42)

	doc, tx := c.Documents[0], c.Transactions[0]
	if doc.IBAN == nil || tx.IBAN == nil {
		t.Fatal("both entities must carry an IBAN")
	}
	if *doc.IBAN != *tx.IBAN {
		t.Errorf("IBANs differ: %s vs %s", *doc.IBAN, *tx.IBAN)
	}
	if !doc.Amount.Equal(tx.Amount) {
		t.Errorf("amounts differ: %s vs %s", doc.Amount, tx.Amount)
	}

	// The scenario depends on the IBAN, so the suppression toggle must not
	// clear it.
	c = generate(t, "iban_amount_final", models.ToggleConfig{TxIbanMissing: true}, 42)
	if c.Transactions[0].IBAN == nil {
		t.Error("txIbanMissing cleared the IBAN of an IBAN-dependent scenario")
	}
}

func TestTxIbanMissingClearsNonDependentScenarios(t *testing.T) {
	c := generate(t, "invoice_no_exact_final", models.ToggleConfig{TxIbanMissing: true}, 42)
	if c.Transactions[0].IBAN != nil {
		t.Error("txIbanMissing should clear the transaction IBAN")
	}
	if c.Toggles == nil || !c.Toggles.TxIbanMissing {
		t.Error("case should record the enabled toggles")
	}
}

func TestEndToEndAmountFinal(t *testing.T) {
	c := generate(t, "e2e_amount_final", models.ToggleConfig{}, 42)

	doc, tx := c.Documents[0], c.Transactions[0]
	if doc.EndToEndID == "" || doc.EndToEndID != tx.EndToEndID {
		t.Errorf("end-to-end ids differ: %q vs %q", doc.EndToEndID, tx.EndToEndID)
	}
	if !doc.Amount.Equal(tx.Amount) {
		t.Errorf("amounts differ: %s vs %s", doc.Amount, tx.Amount)
	}
}

func TestAmountDateVendorFinal(t *testing.T) {
	c := generate(t, "amount_date_vendor_final", models.ToggleConfig{}, 42)

	doc, tx := c.Documents[0], c.Transactions[0]
	if !tx.BookingDate.Equal(doc.InvoiceDate) {
		t.Errorf("booking date %s != invoice date %s", tx.BookingDate, doc.InvoiceDate)
	}
	if tx.VendorNorm != doc.VendorNorm {
		t.Errorf("vendor norms differ: %q vs %q", tx.VendorNorm, doc.VendorNorm)
	}
	if strings.Contains(tx.Reference, doc.InvoiceNo) && doc.InvoiceNo != "" {
		t.Error("scenario must not leak an invoice number into the reference")
	}
}

func TestPartialKeywordBlocker(t *testing.T) {
	c := generate(t, "partial_keyword_blocker", models.ToggleConfig{}, 42)

	if c.ExpectedState != models.MatchNone {
		t.Errorf("expected state = %s, want NO_MATCH", c.ExpectedState)
	}
	if len(c.MustReasonCodes) != 1 || c.MustReasonCodes[0] != ReasonPartialKeyword {
		t.Errorf("reason codes = %v", c.MustReasonCodes)
	}

	doc, tx := c.Documents[0], c.Transactions[0]
	if !strings.Contains(tx.TextRaw, models.PartialPaymentKeyword) {
		t.Errorf("keyword missing from text: %q", tx.TextRaw)
	}
	if !tx.Amount.Equal(doc.Amount.Div(decimal.NewFromInt(2)).Round(2)) {
		t.Errorf("booking should pay half: %s of %s", tx.Amount, doc.Amount)
	}
}

func TestAmbiguousCases(t *testing.T) {
	c := generate(t, "ambiguous_one_doc_two_tx", models.ToggleConfig{}, 42)
	if len(c.Documents) != 1 || len(c.Transactions) != 2 {
		t.Fatalf("entity counts = %d/%d, want 1/2", len(c.Documents), len(c.Transactions))
	}
	if c.ExpectedState != models.MatchAmbiguous {
		t.Errorf("expected state = %s, want AMBIGUOUS", c.ExpectedState)
	}
	if !c.Transactions[0].Amount.Equal(c.Transactions[1].Amount) {
		t.Error("competing bookings must carry equal amounts")
	}

	c = generate(t, "ambiguous_two_docs_one_tx", models.ToggleConfig{}, 42)
	if len(c.Documents) != 2 || len(c.Transactions) != 1 {
		t.Fatalf("entity counts = %d/%d, want 2/1", len(c.Documents), len(c.Transactions))
	}
	if !c.Documents[0].Amount.Equal(c.Documents[1].Amount) {
		t.Error("competing documents must carry equal amounts")
	}
	if c.Documents[0].InvoiceNo == c.Documents[1].InvoiceNo {
		t.Error("competing documents must still be distinct records")
	}
}

func TestPartialPaymentSums(t *testing.T) {
	c := generate(t, "partial_payment_sum_final", models.ToggleConfig{}, 42)
	total := c.Documents[0].Amount
	sum := c.Transactions[0].Amount.Add(c.Transactions[1].Amount)
	if !sum.Equal(total) {
		t.Errorf("partial payments sum to %s, want %s", sum, total)
	}
	for _, tx := range c.Transactions {
		if !strings.Contains(tx.TextRaw, models.PartialPaymentKeyword) {
			t.Errorf("partial keyword missing from %q", tx.TextRaw)
		}
	}

	c = generate(t, "partial_payment_wrong_sum", models.ToggleConfig{}, 42)
	total = c.Documents[0].Amount
	sum = c.Transactions[0].Amount.Add(c.Transactions[1].Amount)
	if !total.Sub(sum).Equal(decimal.NewFromFloat(0.50)) {
		t.Errorf("wrong-sum shortfall = %s, want 0.50", total.Sub(sum))
	}
	if c.ExpectedState != models.MatchNone {
		t.Errorf("expected state = %s, want NO_MATCH", c.ExpectedState)
	}
}

func TestBatchPaymentSumFinal(t *testing.T) {
	c := generate(t, "batch_payment_sum_final", models.ToggleConfig{}, 42)

	if len(c.Documents) != 2 || len(c.Transactions) != 1 {
		t.Fatalf("entity counts = %d/%d, want 2/1", len(c.Documents), len(c.Transactions))
	}
	sum := c.Documents[0].Amount.Add(c.Documents[1].Amount)
	if !c.Transactions[0].Amount.Equal(sum) {
		t.Errorf("booking amount %s != document sum %s", c.Transactions[0].Amount, sum)
	}
	for _, doc := range c.Documents {
		if !strings.Contains(c.Transactions[0].Reference, doc.InvoiceNo) {
			t.Errorf("reference %q missing invoice number %q", c.Transactions[0].Reference, doc.InvoiceNo)
		}
	}
}

func TestBatchTemplatesSuppressKeywords(t *testing.T) {
	toggles := models.ToggleConfig{PartialKeyword: true, BatchKeyword: true}
	for _, id := range []string{"batch_payment_sum_final", "batch_payment_ambiguous"} {
		c := generate(t, id, toggles, 42)
		for _, tx := range c.Transactions {
			if strings.Contains(tx.TextRaw, models.PartialPaymentKeyword) ||
				strings.Contains(tx.TextRaw, models.BatchPaymentKeyword) {
				t.Errorf("%s: keyword survived suppression: %q", id, tx.TextRaw)
			}
		}
	}
}

func TestBatchPaymentAmbiguousSubsets(t *testing.T) {
	c := generate(t, "batch_payment_ambiguous", models.ToggleConfig{}, 42)

	if len(c.Documents) != 4 || len(c.Transactions) != 1 {
		t.Fatalf("entity counts = %d/%d, want 4/1", len(c.Documents), len(c.Transactions))
	}
	firstPair := c.Documents[0].Amount.Add(c.Documents[1].Amount)
	secondPair := c.Documents[2].Amount.Add(c.Documents[3].Amount)
	if !firstPair.Equal(secondPair) {
		t.Errorf("subset sums differ: %s vs %s", firstPair, secondPair)
	}
	if !c.Transactions[0].Amount.Equal(firstPair) {
		t.Errorf("booking amount %s != subset sum %s", c.Transactions[0].Amount, firstPair)
	}
	if c.ExpectedState != models.MatchAmbiguous {
		t.Errorf("expected state = %s, want AMBIGUOUS", c.ExpectedState)
	}
}

func TestSplitMergeFinal(t *testing.T) {
	c := generate(t, "split_merge_final", models.ToggleConfig{}, 42)

	if len(c.Documents) != 3 || len(c.Transactions) != 2 {
		t.Fatalf("entity counts = %d/%d, want 3/2", len(c.Documents), len(c.Transactions))
	}

	docSum := decimal.Zero
	for _, doc := range c.Documents {
		docSum = docSum.Add(doc.Amount)
	}
	txSum := c.Transactions[0].Amount.Add(c.Transactions[1].Amount)
	if !docSum.Equal(txSum) {
		t.Errorf("document sum %s != booking sum %s", docSum, txSum)
	}

	iban := c.Documents[0].IBAN
	if iban == nil {
		t.Fatal("IBAN missing")
	}
	for _, doc := range c.Documents[1:] {
		if doc.IBAN == nil || *doc.IBAN != *iban {
			t.Error("all documents must share the IBAN")
		}
	}
	for _, tx := range c.Transactions {
		if tx.IBAN == nil || *tx.IBAN != *iban {
			t.Error("all bookings must share the IBAN")
		}
	}
}

func TestCrossedReferencesFinal(t *testing.T) {
	c := generate(t, "crossed_references_final", models.ToggleConfig{}, 42)

	if len(c.MustReasonCodes) != 1 || c.MustReasonCodes[0] != ReasonAmountPriority {
		t.Errorf("reason codes = %v, want [%s]", c.MustReasonCodes, ReasonAmountPriority)
	}

	// Amounts pair straight, references pair crossed.
	if !c.Transactions[0].Amount.Equal(c.Documents[0].Amount) {
		t.Error("first booking amount should match first document")
	}
	if !strings.Contains(c.Transactions[0].Reference, c.Documents[1].InvoiceNo) {
		t.Errorf("first booking reference %q should name the second document's invoice", c.Transactions[0].Reference)
	}
	if !strings.Contains(c.Transactions[1].Reference, c.Documents[0].InvoiceNo) {
		t.Errorf("second booking reference %q should name the first document's invoice", c.Transactions[1].Reference)
	}
}

func TestUnpairedTemplates(t *testing.T) {
	c := generate(t, "doc_only_no_tx", models.ToggleConfig{}, 42)
	if len(c.Documents) != 1 || len(c.Transactions) != 0 {
		t.Fatalf("doc_only counts = %d/%d, want 1/0", len(c.Documents), len(c.Transactions))
	}
	if c.ExpectedState != models.MatchNone || c.ExpectedRelation != models.RelationNone {
		t.Errorf("doc_only labels = %s/%s", c.ExpectedState, c.ExpectedRelation)
	}

	c = generate(t, "tx_only_no_doc", models.ToggleConfig{}, 42)
	if len(c.Documents) != 0 || len(c.Transactions) != 1 {
		t.Fatalf("tx_only counts = %d/%d, want 0/1", len(c.Documents), len(c.Transactions))
	}
}

func TestNoisyInvoiceTemplateCorruptsReference(t *testing.T) {
	toggles := models.ToggleConfig{InvoiceNoNoise: true}
	c := generate(t, "invoice_no_noisy_final", toggles, 42)

	doc, tx := c.Documents[0], c.Transactions[0]
	if strings.Contains(tx.Reference, doc.InvoiceNo) && !strings.HasPrefix(tx.Reference, "Rechnung Beleg ") {
		t.Errorf("reference %q still carries the clean invoice number %q", tx.Reference, doc.InvoiceNo)
	}
	if tx.Reference == "Rechnung "+doc.InvoiceNo {
		t.Errorf("reference %q is unchanged", tx.Reference)
	}
	if c.ExpectedState != models.MatchFinal {
		t.Errorf("expected state = %s, want FINAL_MATCH", c.ExpectedState)
	}
}

func TestInvoiceMismatchToggle(t *testing.T) {
	toggles := models.ToggleConfig{InvoiceNoMismatch: true}
	c := generate(t, "invoice_no_exact_final", toggles, 42)

	doc, tx := c.Documents[0], c.Transactions[0]
	if strings.Contains(tx.Reference, doc.InvoiceNo) {
		t.Errorf("mismatch toggle left invoice number %q in reference %q", doc.InvoiceNo, tx.Reference)
	}
}

func TestExistingIDsAreReused(t *testing.T) {
	c := GenerateCase(Params{
		TemplateID:             "partial_payment_sum_final",
		IDs:                    idgen.New(nil, nil, nil),
		Rand:                   rng.New(42),
		ExistingCaseID:         "C009",
		ExistingDocumentIDs:    []string{"doc-020"},
		ExistingTransactionIDs: []string{"tx-021", "tx-022"},
	})

	if c.ID != "C009" {
		t.Errorf("case id = %q, want C009", c.ID)
	}
	if c.Documents[0].ID != "doc-020" {
		t.Errorf("document id = %q, want doc-020", c.Documents[0].ID)
	}
	if c.Transactions[0].ID != "tx-021" || c.Transactions[1].ID != "tx-022" {
		t.Errorf("transaction ids = %q/%q", c.Transactions[0].ID, c.Transactions[1].ID)
	}
}

func TestUnknownTemplateDegradesToEmptyCase(t *testing.T) {
	ids := idgen.New(nil, nil, nil)
	c := GenerateCase(Params{
		TemplateID: "nope",
		IDs:        ids,
		Rand:       rng.New(1),
	})

	if c.ID != "C001" {
		t.Errorf("case id = %q, want C001", c.ID)
	}
	if len(c.Documents) != 0 || len(c.Transactions) != 0 {
		t.Error("unknown template should produce no entities")
	}
	if c.ExpectedState != models.MatchNone || c.ExpectedRelation != models.RelationNone {
		t.Errorf("labels = %s/%s, want NO_MATCH/none", c.ExpectedState, c.ExpectedRelation)
	}
	if !strings.Contains(c.Description, "nope") {
		t.Errorf("description %q should name the unknown id", c.Description)
	}
}

func TestSameSeedReproducesCase(t *testing.T) {
	a := generate(t, "invoice_no_noisy_final", models.ToggleConfig{InvoiceNoNoise: true, VendorNoise: true}, 99)
	b := generate(t, "invoice_no_noisy_final", models.ToggleConfig{InvoiceNoNoise: true, VendorNoise: true}, 99)

	if a.Documents[0].InvoiceNo != b.Documents[0].InvoiceNo {
		t.Error("same seed produced different invoice numbers")
	}
	if a.Transactions[0].Reference != b.Transactions[0].Reference {
		t.Error("same seed produced different references")
	}
	if a.Documents[0].VendorRaw != b.Documents[0].VendorRaw {
		t.Error("same seed produced different vendor noise")
	}
}

func TestBatchSumsStayExactUnderRandomSeeds(t *testing.T) {
	for seed := int64(0); seed < 1000; seed++ {
		c := GenerateCase(Params{
			TemplateID: "batch_payment_sum_final",
			IDs:        idgen.New(nil, nil, nil),
			Rand:       rng.New(seed),
		})
		sum := c.Documents[0].Amount.Add(c.Documents[1].Amount)
		if !c.Transactions[0].Amount.Equal(sum) {
			t.Fatalf("seed %d: booking %s != sum %s", seed, c.Transactions[0].Amount, sum)
		}

		c = GenerateCase(Params{
			TemplateID: "partial_payment_sum_final",
			IDs:        idgen.New(nil, nil, nil),
			Rand:       rng.New(seed),
		})
		parts := c.Transactions[0].Amount.Add(c.Transactions[1].Amount)
		if !parts.Equal(c.Documents[0].Amount) {
			t.Fatalf("seed %d: partials %s != total %s", seed, parts, c.Documents[0].Amount)
		}
	}
}

func TestAllTemplatesValidateUnderAllToggles(t *testing.T) {
	toggles := models.ToggleConfig{
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

	ids := idgen.New(nil, nil, nil)
	src := rng.New(7)
	for _, tpl := range All() {
		c := GenerateCase(Params{
			TemplateID: tpl.ID,
			Toggles:    toggles,
			IDs:        ids,
			Rand:       src,
			TenantID:   "tenant-test",
		})
		if err := c.Validate(); err != nil {
			t.Errorf("%s: %v", tpl.ID, err)
		}
	}
}
