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

type generateCmd struct {
	till string
	json bool
}

func (*generateCmd) Name() string     { return "generate" }
func (*generateCmd) Synopsis() string { return "generate the repayment schedule" }
func (*generateCmd) Usage() string {
	return `loansched [-terms <file>] [-charges <file>] [-transactions <file>] generate [-till <date>] [-json]

  Generates the repayment schedule from the loan terms. When a repayments
  file is given, the received repayments replay against the schedule and
  reshape it per the loan's recalculation settings.

Usage Examples:
# Render the schedule of terms.json as a report.
$ loansched generate

# Machine-readable schedule, cut at a date.
$ loansched -transactions repayments.jsonl generate -till 2026-06-01 -json

`
}

func (c *generateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.till, "till", "", "Truncate the schedule at this date (YYYY-MM-DD)")
	f.BoolVar(&c.json, "json", false, "Write the schedule as JSONL instead of a report")
}

func (c *generateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	cal := Calendar()
	var model *loan.ScheduleModel
	if len(txs) > 0 || c.till != "" {
		rs := &loan.ResumeState{Transactions: txs}
		if c.till != "" {
			till, err := loan.ParseDate(c.till)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid -till date: %v\n", err)
				return subcommands.ExitFailure
			}
			rs.ScheduleTill = till
		}
		model, err = loan.GenerateFrom(terms, charges, cal, rs)
	} else {
		model, err = loan.Generate(terms, charges, cal)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot generate schedule: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		if err := model.EncodeSchedule(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ScheduleMarkdown(model))
	return subcommands.ExitSuccess
}
