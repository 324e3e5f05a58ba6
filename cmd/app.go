// Package cmd implements the CLI application to generate and inspect loan
// repayment schedules.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/genticani/loan"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package calls Register() to declare the subcommands, and Execute()
// on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&generateCmd{}, "schedule")
	c.Register(&prepayCmd{}, "schedule")
	c.Register(&rescheduleCmd{}, "schedule")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var termsFile = flag.String("terms", "terms.json", "Path to the loan terms file (JSON)")
var chargesFile = flag.String("charges", "", "Path to the charges file (JSONL format), optional")
var transactionsFile = flag.String("transactions", "", "Path to the received repayments file (JSONL format), optional")
var weekend = flag.Bool("weekend", false, "Treat Saturday and Sunday as non-working days")

// LoadTerms decodes the loan terms from the app terms file.
func LoadTerms() (*loan.Terms, error) {
	f, err := os.Open(*termsFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open terms file %q: %w", *termsFile, err)
	}
	defer f.Close()
	return loan.DecodeTerms(f)
}

// LoadCharges decodes the charges from the app charges file, when one is set.
func LoadCharges() ([]loan.Charge, error) {
	if *chargesFile == "" {
		return nil, nil
	}
	f, err := os.Open(*chargesFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open charges file %q: %w", *chargesFile, err)
	}
	defer f.Close()
	return loan.DecodeCharges(f)
}

// LoadTransactions decodes the received repayments from the app transactions
// file, when one is set.
func LoadTransactions() ([]*loan.Transaction, error) {
	if *transactionsFile == "" {
		return nil, nil
	}
	f, err := os.Open(*transactionsFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open repayments file %q: %w", *transactionsFile, err)
	}
	defer f.Close()
	return loan.DecodeTransactions(f)
}

// Calendar builds the calendar the app flags describe.
func Calendar() loan.Calendar {
	if *weekend {
		return loan.WeekendCalendar()
	}
	return &loan.DefaultCalendar{Policy: loan.KeepScheduledDate}
}
