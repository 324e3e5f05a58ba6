// Package loan generates loan repayment schedules: given the loan terms,
// the attached charges and a calendar, it lays out disbursements and
// installments with their principal, interest, fee and penalty breakdowns.
//
// The core functionalities include:
//   - Schedule Generation: Laying out the full repayment plan for
//     declining-balance or flat-interest loans, amortized as equal
//     installments or equal principal, with grace periods, multi-tranche
//     disbursements, term variations and non-working-day adjustments.
//   - Interest Recalculation: Replaying the repayments actually received to
//     rebuild the schedule around early, late and partial payments, with
//     configurable rest and compounding schedules and early-payment
//     strategies.
//   - Restructuring: Manually rescheduling a running loan from a chosen
//     installment with new grace, extra term, a new rate or moved due dates.
//   - Pre-closure Quoting: Computing the exact amount that settles a loan on
//     a given date, per the loan's pre-closure interest rule.
//   - Data Persistence: Encoding and decoding terms, charges, repayments and
//     generated schedules to and from human-readable JSONL streams.
//
// All monetary arithmetic is exact decimal; rounding happens once per period
// when amounts are fixed into the schedule. This package serves as the
// foundational logic for the `loansched` command-line tool.
package loan
