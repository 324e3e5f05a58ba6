package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/genticani/loan"
	"github.com/genticani/loan/renderer"
	"github.com/google/subcommands"
)

type prepayCmd struct {
	on   string
	json bool
}

func (*prepayCmd) Name() string     { return "prepay" }
func (*prepayCmd) Synopsis() string { return "quote the amount that settles the loan on a date" }
func (*prepayCmd) Usage() string {
	return `loansched [-terms <file>] [-charges <file>] [-transactions <file>] prepay -on <date> [-json]

  Quotes the exact amount settling the loan on a date, per the loan's
  pre-closure interest rule. Quoting never alters the schedule.

Usage Examples:
# Quote closing the loan on a date.
$ loansched -transactions repayments.jsonl prepay -on 2026-03-15

`
}

func (c *prepayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.on, "on", "", "Settlement date (YYYY-MM-DD), defaults to today")
	f.BoolVar(&c.json, "json", false, "Write the quote as JSON instead of a report")
}

func (c *prepayCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	terms, err := LoadTerms()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	charges, err := LoadCharges()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	txs, err := LoadTransactions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	on := loan.Today()
	if c.on != "" {
		on, err = loan.ParseDate(c.on)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -on date: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	quote, err := loan.PrepaymentAmount(terms, charges, Calendar(), nil, txs, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot quote prepayment: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		if err := loan.EncodeQuote(os.Stdout, quote); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.QuoteMarkdown(quote))
	return subcommands.ExitSuccess
}
