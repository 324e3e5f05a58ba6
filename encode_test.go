package loan

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEncodeScheduleLines(t *testing.T) {
	model, err := Generate(twelveMonthLoan(), nil, plainCalendar())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var buf bytes.Buffer
	if err := model.EncodeSchedule(&buf); err != nil {
		t.Fatalf("EncodeSchedule: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// 1 disbursement + 12 repayments + totals
	if len(lines) != 14 {
		t.Fatalf("got %d lines, want 14", len(lines))
	}
	if !strings.HasPrefix(lines[0], `{"type":"disbursement"`) {
		t.Errorf("first line = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], `{"type":"repayment","number":1`) {
		t.Errorf("second line = %s", lines[1])
	}
	if !strings.HasPrefix(lines[13], `{"type":"totals"`) {
		t.Errorf("last line = %s", lines[13])
	}
}

func TestDecodeTerms(t *testing.T) {
	input := `{
		"context": {"currency": "EUR", "scale": 2},
		"principal": {"currency": "EUR", "amount": "12000"},
		"numberOfRepayments": 12,
		"repayment": {"unit": "MONTHS", "every": 1},
		"annualInterestRate": "12",
		"interestMethod": "DECLINING_BALANCE",
		"amortization": "EQUAL_INSTALLMENT",
		"expectedDisbursement": "2026-01-01",
		"rescheduleStrategy": "RESCHEDULE_NEXT_REPAYMENTS"
	}`
	terms, err := DecodeTerms(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeTerms: %v", err)
	}
	if !terms.Principal.Equal(M(12000, "EUR")) {
		t.Errorf("principal = %v", terms.Principal)
	}
	if terms.Repayment.Unit != Monthly || terms.Repayment.Every != 1 {
		t.Errorf("repayment = %v", terms.Repayment)
	}
	if terms.RescheduleStrategy != RescheduleNextRepayments {
		t.Errorf("strategy = %v", terms.RescheduleStrategy)
	}
	if err := terms.Validate(); err != nil {
		t.Errorf("decoded terms should validate: %v", err)
	}
}

func TestDecodeTermsRequiresCurrency(t *testing.T) {
	if _, err := DecodeTerms(strings.NewReader(`{"numberOfRepayments": 12}`)); err == nil {
		t.Errorf("terms without a currency context should be rejected")
	}
}

func TestDecodeCharges(t *testing.T) {
	input := `{"name":"processing","time":"DISBURSEMENT","calculation":"FLAT","amount":"25"}
{"name":"late","time":"OVERDUE_INSTALLMENT","calculation":"PERCENT_OF_AMOUNT","amount":"3","penalty":true}
`
	charges, err := DecodeCharges(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeCharges: %v", err)
	}
	if len(charges) != 2 {
		t.Fatalf("got %d charges, want 2", len(charges))
	}
	if charges[0].Time != DisbursementCharge || !charges[0].Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("first charge = %+v", charges[0])
	}
	if !charges[1].Penalty || charges[1].Calculation != PercentOfAmount {
		t.Errorf("second charge = %+v", charges[1])
	}

	if _, err := DecodeCharges(strings.NewReader(`{"time":"NO_SUCH_TIME"}`)); err == nil {
		t.Errorf("unknown charge time should be rejected")
	}
}

func TestDecodeTransactions(t *testing.T) {
	input := `{"date":"2026-02-01","amount":{"currency":"EUR","amount":"212"}}
{"id":"7d444840-9dc0-11d1-b245-5ffdce74fad2","date":"2026-03-01","amount":{"currency":"EUR","amount":"100"}}
`
	txs, err := DecodeTransactions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	// a line without an id gets a fresh one
	if txs[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Errorf("missing id should be generated")
	}
	if txs[1].ID.String() != "7d444840-9dc0-11d1-b245-5ffdce74fad2" {
		t.Errorf("explicit id = %s", txs[1].ID)
	}
	if txs[0].Date != NewDate(2026, time.February, 1) || !txs[0].Amount.Equal(M(212, "EUR")) {
		t.Errorf("first transaction = %+v", txs[0])
	}
}

func TestEncodeQuote(t *testing.T) {
	q := &Quote{
		Date:      NewDate(2026, time.January, 16),
		Principal: M(12000, "EUR"),
		Interest:  M(58.06, "EUR"),
		Fee:       M(0, "EUR"),
		Penalty:   M(0, "EUR"),
	}
	var buf bytes.Buffer
	if err := EncodeQuote(&buf, q); err != nil {
		t.Fatalf("EncodeQuote: %v", err)
	}
	line := buf.String()
	if !strings.HasPrefix(line, `{"date":"2026-01-16"`) {
		t.Errorf("quote line = %s", line)
	}
	if !strings.Contains(line, `"total"`) {
		t.Errorf("quote line should carry the total: %s", line)
	}
}
