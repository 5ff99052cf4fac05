package templates

import (
	"fmt"

	"github.com/shopspring/decimal"

	"golang-matchgen/internal/builder"
	"golang-matchgen/internal/models"
	"golang-matchgen/internal/noise"
)

// Reason codes a case may require the matching engine to report.
const (
	ReasonPartialPayment = "PARTIAL_PAYMENT"
	ReasonBatchPayment   = "BATCH_PAYMENT"
	ReasonPartialKeyword = "PARTIAL_KEYWORD"
	ReasonAmountPriority = "AMOUNT_PRIORITY"
)

const (
	vendorLogistics   = "Nordwind Logistik GmbH"
	vendorWorkshop    = "Schreinerei Brandt"
	vendorWholesale   = "Baustoffe Kramer GmbH"
	vendorIT          = "Datenwerk IT GmbH"
	genericReference  = "Zahlung Dauerauftrag"
)

var catalog = []Template{
	{
		ID:          "invoice_no_exact_final",
		Kind:        KindOneToOne,
		Description: "1:1 final match via exact invoice number in the booking reference",
		build:       buildInvoiceNoExact,
	},
	{
		ID:                  "invoice_no_noisy_final",
		Kind:                KindOneToOne,
		Description:         "1:1 final match via invoice number surviving reference noise",
		PrimaryInvoiceNoise: true,
		build:               buildInvoiceNoExact,
		post:                postNoisyInvoiceNo,
	},
	{
		ID:           "iban_amount_final",
		Kind:         KindOneToOne,
		Description:  "1:1 final match via shared IBAN and equal amount",
		RequiresIBAN: true,
		build:        buildIbanAmount,
	},
	{
		ID:          "e2e_amount_final",
		Kind:        KindOneToOne,
		Description: "1:1 final match via shared end-to-end id and equal amount",
		build:       buildEndToEndAmount,
	},
	{
		ID:          "amount_date_vendor_final",
		Kind:        KindOneToOne,
		Description: "1:1 final match via amount, booking date, and vendor only",
		build:       buildAmountDateVendor,
	},
	{
		ID:          "partial_keyword_blocker",
		Kind:        KindOneToOne,
		Description: "1:1 blocked: partial-payment keyword with an underpaying booking",
		build:       buildPartialKeywordBlocker,
	},
	{
		ID:          "ambiguous_one_doc_two_tx",
		Kind:        KindOneToOne,
		Description: "ambiguous: two near-identical bookings compete for one document",
		build:       buildAmbiguousTwoTx,
	},
	{
		ID:          "ambiguous_two_docs_one_tx",
		Kind:        KindOneToOne,
		Description: "ambiguous: two near-identical documents compete for one booking",
		build:       buildAmbiguousTwoDocs,
	},
	{
		ID:          "partial_payment_sum_final",
		Kind:        KindOneToMany,
		Description: "1:n final match: two partial payments sum to the invoice total",
		build:       buildPartialPaymentSum,
	},
	{
		ID:          "partial_payment_wrong_sum",
		Kind:        KindOneToMany,
		Description: "1:n no match: partial payments fall 0.50 short of the total",
		build:       buildPartialPaymentWrongSum,
	},
	{
		ID:               "batch_payment_sum_final",
		Kind:             KindManyToOne,
		Description:      "n:1 final match: one booking settles two invoices exactly",
		SuppressKeywords: true,
		build:            buildBatchPaymentSum,
	},
	{
		ID:               "batch_payment_ambiguous",
		Kind:             KindManyToOne,
		Description:      "n:1 ambiguous: two disjoint invoice subsets sum to the booking amount",
		SuppressKeywords: true,
		build:            buildBatchPaymentAmbiguous,
	},
	{
		ID:           "split_merge_final",
		Kind:         KindManyToMany,
		Description:  "n:m final match: three invoices settled by two bookings",
		RequiresIBAN: true,
		build:        buildSplitMerge,
	},
	{
		ID:          "crossed_references_final",
		Kind:        KindManyToMany,
		Description: "n:m final match by amount with deliberately crossed references",
		build:       buildCrossedReferences,
	},
	{
		ID:          "doc_only_no_tx",
		Kind:        KindDocOnly,
		Description: "document without any booking",
		build:       buildDocOnly,
	},
	{
		ID:          "tx_only_no_doc",
		Kind:        KindTxOnly,
		Description: "booking without any document",
		build:       buildTxOnly,
	},
}

func buildInvoiceNoExact(b *caseBuilder) {
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)
	amount := b.amount(11900)

	doc := b.addDoc(builder.DocumentInput{
		Amount:    amount,
		InvoiceNo: invoiceNo,
		Vendor:    vendorLogistics,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount,
		Reference:    "Rechnung " + invoiceNo,
		Counterparty: doc.VendorRaw,
		IBAN:         cloneIBAN(doc.IBAN),
	})

	b.expect(models.MatchFinal, models.RelationOneToOne)
}

// postNoisyInvoiceNo corrupts the invoice number in the first transaction's
// reference when the invoice-number noise toggle is active, then the apply
// helper resynthesizes its free text.
func postNoisyInvoiceNo(b *caseBuilder) {
	if !b.params.Toggles.InvoiceNoNoise || len(b.c.Transactions) == 0 || len(b.c.Documents) == 0 {
		return
	}
	tx := &b.c.Transactions[0]
	invoiceNo := b.c.Documents[0].InvoiceNo
	noisy := noise.NoisyInvoiceNumber(invoiceNo, b.params.Rand)
	builder.ApplyTransactionReference(tx, "Rechnung "+noisy)
}

func buildIbanAmount(b *caseBuilder) {
	iban := builder.SyntheticIBAN(b.params.Rand)
	amount := b.amount(48250)

	doc := b.addDoc(builder.DocumentInput{
		Amount:    amount,
		InvoiceNo: builder.NewInvoiceNumber(b.params.Rand),
		IBAN:      &iban,
		Vendor:    vendorWholesale,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount,
		Reference:    genericReference,
		Counterparty: doc.VendorRaw,
		IBAN:         &iban,
	})

	b.expect(models.MatchFinal, models.RelationOneToOne)
}

func buildEndToEndAmount(b *caseBuilder) {
	endToEnd := builder.NewEndToEndID()
	amount := b.amount(20975)

	doc := b.addDoc(builder.DocumentInput{
		Amount:     amount,
		InvoiceNo:  builder.NewInvoiceNumber(b.params.Rand),
		EndToEndID: endToEnd,
		Vendor:     vendorIT,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount,
		Reference:    genericReference,
		Counterparty: doc.VendorRaw,
		EndToEndID:   endToEnd,
	})

	b.expect(models.MatchFinal, models.RelationOneToOne)
}

func buildAmountDateVendor(b *caseBuilder) {
	amount := b.amount(7340)

	doc := b.addDoc(builder.DocumentInput{
		Amount: amount,
		Vendor: vendorWorkshop,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount,
		BookingDate:  doc.InvoiceDate,
		Reference:    genericReference,
		Counterparty: doc.VendorRaw,
	})

	b.expect(models.MatchFinal, models.RelationOneToOne)
}

func buildPartialKeywordBlocker(b *caseBuilder) {
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)
	total := b.amount(64000)

	doc := b.addDoc(builder.DocumentInput{
		Amount:    total,
		InvoiceNo: invoiceNo,
		Vendor:    vendorLogistics,
	})
	b.addTx(builder.TransactionInput{
		Amount:       total.Div(two).Round(2),
		Reference:    "Rechnung " + invoiceNo,
		Description:  models.PartialPaymentKeyword,
		Counterparty: doc.VendorRaw,
	})

	b.expect(models.MatchNone, models.RelationOneToOne, ReasonPartialKeyword)
}

func buildAmbiguousTwoTx(b *caseBuilder) {
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)
	amount := b.amount(15800)

	doc := b.addDoc(builder.DocumentInput{
		Amount:    amount,
		InvoiceNo: invoiceNo,
		Vendor:    vendorWholesale,
	})
	for i := 0; i < 2; i++ {
		b.addTx(builder.TransactionInput{
			Amount:       amount,
			Reference:    "Rechnung " + invoiceNo,
			Counterparty: doc.VendorRaw,
		})
	}

	b.expect(models.MatchAmbiguous, models.RelationOneToOne)
}

func buildAmbiguousTwoDocs(b *caseBuilder) {
	amount := b.amount(26450)
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)

	b.addDoc(builder.DocumentInput{
		Amount:    amount,
		InvoiceNo: invoiceNo,
		Vendor:    vendorIT,
	})
	b.addDoc(builder.DocumentInput{
		Amount:    amount,
		InvoiceNo: siblingInvoiceNumber(invoiceNo),
		Vendor:    vendorIT,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount,
		Reference:    genericReference,
		Counterparty: vendorIT,
	})

	b.expect(models.MatchAmbiguous, models.RelationOneToOne)
}

func buildPartialPaymentSum(b *caseBuilder) {
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)
	total := b.amount(84600)
	part1 := total.Mul(partialSplit).Round(2)
	part2 := total.Sub(part1)

	doc := b.addDoc(builder.DocumentInput{
		Amount:    total,
		InvoiceNo: invoiceNo,
		Vendor:    vendorWorkshop,
	})
	b.addTx(builder.TransactionInput{
		Amount:       part1,
		Reference:    fmt.Sprintf("Rechnung %s %s 1/2", invoiceNo, models.PartialPaymentKeyword),
		Counterparty: doc.VendorRaw,
	})
	b.addTx(builder.TransactionInput{
		Amount:       part2,
		Reference:    fmt.Sprintf("Rechnung %s %s 2/2", invoiceNo, models.PartialPaymentKeyword),
		Counterparty: doc.VendorRaw,
	})

	b.expect(models.MatchFinal, models.RelationOneToMany, ReasonPartialPayment)
}

func buildPartialPaymentWrongSum(b *caseBuilder) {
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)
	total := b.amount(84600)
	part1 := total.Mul(partialSplit).Round(2)
	part2 := total.Sub(part1).Sub(wrongSumShortfall)

	doc := b.addDoc(builder.DocumentInput{
		Amount:    total,
		InvoiceNo: invoiceNo,
		Vendor:    vendorWorkshop,
	})
	b.addTx(builder.TransactionInput{
		Amount:       part1,
		Reference:    fmt.Sprintf("Rechnung %s %s 1/2", invoiceNo, models.PartialPaymentKeyword),
		Counterparty: doc.VendorRaw,
	})
	b.addTx(builder.TransactionInput{
		Amount:       part2,
		Reference:    fmt.Sprintf("Rechnung %s %s 2/2", invoiceNo, models.PartialPaymentKeyword),
		Counterparty: doc.VendorRaw,
	})

	b.expect(models.MatchNone, models.RelationOneToMany, ReasonPartialPayment)
}

func buildBatchPaymentSum(b *caseBuilder) {
	invoiceNo1 := builder.NewInvoiceNumber(b.params.Rand)
	invoiceNo2 := builder.NewInvoiceNumber(b.params.Rand)
	amount1 := b.amount(21040)
	amount2 := b.amount(13370)

	doc1 := b.addDoc(builder.DocumentInput{
		Amount:    amount1,
		InvoiceNo: invoiceNo1,
		Vendor:    vendorWholesale,
	})
	b.addDoc(builder.DocumentInput{
		Amount:    amount2,
		InvoiceNo: invoiceNo2,
		Vendor:    vendorWholesale,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount1.Add(amount2),
		Reference:    fmt.Sprintf("Rechnungen %s %s", invoiceNo1, invoiceNo2),
		Counterparty: doc1.VendorRaw,
	})

	b.expect(models.MatchFinal, models.RelationManyToOne, ReasonBatchPayment)
}

func buildBatchPaymentAmbiguous(b *caseBuilder) {
	// Two disjoint document subsets with the same sum: {100, 200} and
	// {150, 150}, each shifted by the case offset.
	cents := []int64{10000, 20000, 15000, 15000}
	for _, c := range cents {
		b.addDoc(builder.DocumentInput{
			Amount:    b.amount(c),
			InvoiceNo: builder.NewInvoiceNumber(b.params.Rand),
			Vendor:    vendorLogistics,
		})
	}
	docs := b.c.Documents
	b.addTx(builder.TransactionInput{
		Amount:       docs[0].Amount.Add(docs[1].Amount),
		Reference:    genericReference,
		Counterparty: vendorLogistics,
	})

	b.expect(models.MatchAmbiguous, models.RelationManyToOne, ReasonBatchPayment)
}

func buildSplitMerge(b *caseBuilder) {
	invoiceNo := builder.NewInvoiceNumber(b.params.Rand)
	iban := builder.SyntheticIBAN(b.params.Rand)
	amounts := []int64{30000, 20000, 12550}

	for _, cents := range amounts {
		b.addDoc(builder.DocumentInput{
			Amount:    b.amount(cents),
			InvoiceNo: invoiceNo,
			IBAN:      &iban,
			Vendor:    vendorIT,
		})
	}
	docs := b.c.Documents
	b.addTx(builder.TransactionInput{
		Amount:       docs[0].Amount.Add(docs[1].Amount),
		Reference:    "Rechnung " + invoiceNo,
		Counterparty: vendorIT,
		IBAN:         &iban,
	})
	b.addTx(builder.TransactionInput{
		Amount:       docs[2].Amount,
		Reference:    "Rechnung " + invoiceNo,
		Counterparty: vendorIT,
		IBAN:         &iban,
	})

	b.expect(models.MatchFinal, models.RelationManyToMany)
}

func buildCrossedReferences(b *caseBuilder) {
	invoiceNo1 := builder.NewInvoiceNumber(b.params.Rand)
	invoiceNo2 := builder.NewInvoiceNumber(b.params.Rand)
	amount1 := b.amount(17800)
	amount2 := b.amount(9925)

	b.addDoc(builder.DocumentInput{
		Amount:    amount1,
		InvoiceNo: invoiceNo1,
		Vendor:    vendorWorkshop,
	})
	b.addDoc(builder.DocumentInput{
		Amount:    amount2,
		InvoiceNo: invoiceNo2,
		Vendor:    vendorWorkshop,
	})
	// References deliberately point at the other document; only the amounts
	// line up. Exercises the engine's reference/amount conflict resolution.
	b.addTx(builder.TransactionInput{
		Amount:       amount1,
		Reference:    "Rechnung " + invoiceNo2,
		Counterparty: vendorWorkshop,
	})
	b.addTx(builder.TransactionInput{
		Amount:       amount2,
		Reference:    "Rechnung " + invoiceNo1,
		Counterparty: vendorWorkshop,
	})

	b.expect(models.MatchFinal, models.RelationManyToMany, ReasonAmountPriority)
}

func buildDocOnly(b *caseBuilder) {
	b.addDoc(builder.DocumentInput{
		Amount:    b.amount(5600),
		InvoiceNo: builder.NewInvoiceNumber(b.params.Rand),
		Vendor:    vendorLogistics,
	})
	b.expect(models.MatchNone, models.RelationNone)
}

func buildTxOnly(b *caseBuilder) {
	b.addTx(builder.TransactionInput{
		Amount:       b.amount(5600),
		Reference:    genericReference,
		Counterparty: vendorLogistics,
	})
	b.expect(models.MatchNone, models.RelationNone)
}

var (
	two               = decimal.NewFromInt(2)
	partialSplit      = decimal.NewFromFloat(0.36)
	wrongSumShortfall = decimal.NewFromFloat(0.50)
)

func cloneIBAN(iban *string) *string {
	if iban == nil {
		return nil
	}
	v := *iban
	return &v
}

// siblingInvoiceNumber derives a near-identical invoice number by bumping
// the last digit, keeping ambiguity cases visually plausible.
func siblingInvoiceNumber(invoiceNo string) string {
	if invoiceNo == "" {
		return invoiceNo
	}
	last := invoiceNo[len(invoiceNo)-1]
	if last >= '0' && last <= '9' {
		bumped := byte('0') + (last-'0'+1)%10
		return invoiceNo[:len(invoiceNo)-1] + string(bumped)
	}
	return invoiceNo + "1"
}
