package loan

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// This file persists loan inputs and generated schedules in human-readable,
// git-friendly streams: the terms are one JSON document, charges and
// repayments are JSONL (one object per line), and a schedule encodes as one
// line per period plus a trailing totals line.

const attrType = "type"

const (
	lineDisbursement = "disbursement"
	lineRepayment    = "repayment"
	lineTotals       = "totals"
)

// MarshalJSON writes the disbursement line with a type discriminator.
func (p *DisbursementPeriod) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append(attrType, lineDisbursement)
	w.Append("date", p.Date)
	w.Append("amount", p.Amount)
	if p.ChargesDue.IsPositive() {
		w.Append("chargesDue", p.ChargesDue)
	}
	return w.MarshalJSON()
}

// MarshalJSON writes the repayment line with a type discriminator.
func (p *RepaymentPeriod) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append(attrType, lineRepayment)
	w.Append("number", p.Number)
	w.Append("start", p.Start)
	w.Append("due", p.Due)
	w.Append("principal", p.Principal)
	w.Append("interest", p.Interest)
	w.Append("fee", p.Fee)
	w.Append("penalty", p.Penalty)
	w.Append("outstanding", p.OutstandingAfter)
	if p.Recalculated {
		w.Append("recalculated", true)
	}
	return w.MarshalJSON()
}

// EncodeSchedule writes the schedule as JSONL: one line per period, then a
// totals line.
func (m *ScheduleModel) EncodeSchedule(w io.Writer) error {
	for _, p := range m.Periods {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("cannot marshal schedule period on %s: %w", p.When(), err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write schedule period: %w", err)
		}
	}
	tw := &jsonObjectWriter{}
	tw.Append(attrType, lineTotals)
	tw.Append("currency", m.Currency)
	tw.Append("termInDays", m.TermInDays)
	tw.Append("principal", m.TotalPrincipal)
	tw.Append("interest", m.TotalInterest)
	tw.Append("fees", m.TotalFees)
	tw.Append("penalties", m.TotalPenalties)
	tw.Append("totalRepayment", m.TotalRepayment)
	data, err := tw.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot marshal schedule totals: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write schedule totals: %w", err)
	}
	return nil
}

// DecodeTerms reads a single JSON document with the loan terms.
func DecodeTerms(r io.Reader) (*Terms, error) {
	var t Terms
	dec := json.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("cannot decode loan terms: %w", err)
	}
	if t.Context.Currency == "" {
		return nil, fmt.Errorf("loan terms are missing the currency context")
	}
	return &t, nil
}

// DecodeCharges reads charges from a JSONL stream, one charge per line.
func DecodeCharges(r io.Reader) ([]Charge, error) {
	var charges []Charge
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var c Charge
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("cannot decode charge on line %d: %w", line, err)
		}
		charges = append(charges, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading charges: %w", err)
	}
	return charges, nil
}

// DecodeTransactions reads repayments from a JSONL stream, one per line.
// Lines without an id get a fresh one.
func DecodeTransactions(r io.Reader) ([]*Transaction, error) {
	var txs []*Transaction
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var tx Transaction
		if err := json.Unmarshal(b, &tx); err != nil {
			return nil, fmt.Errorf("cannot decode repayment on line %d: %w", line, err)
		}
		if tx.ID == uuid.Nil {
			fresh := NewTransaction(tx.Date, tx.Amount)
			tx.ID = fresh.ID
		}
		txs = append(txs, &tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading repayments: %w", err)
	}
	return txs, nil
}

// EncodeQuote writes a prepayment quote as a single JSON line.
func EncodeQuote(w io.Writer, q *Quote) error {
	jw := &jsonObjectWriter{}
	jw.Append("date", q.Date)
	jw.Append("principal", q.Principal)
	jw.Append("interest", q.Interest)
	jw.Append("fee", q.Fee)
	jw.Append("penalty", q.Penalty)
	jw.Append("total", q.Total())
	data, err := jw.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot marshal quote: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write quote: %w", err)
	}
	return nil
}
