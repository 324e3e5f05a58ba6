package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/genticani/loan"
	"github.com/genticani/loan/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type rescheduleCmd struct {
	from            int
	gracePrincipal  int
	graceInterest   int
	extraTerms      int
	rate            string
	adjustedDueDate string
	recalcInterest  bool
	json            bool
}

func (*rescheduleCmd) Name() string     { return "reschedule" }
func (*rescheduleCmd) Synopsis() string { return "restructure the loan from an installment onward" }
func (*rescheduleCmd) Usage() string {
	return `loansched [-terms <file>] [-charges <file>] [-transactions <file>] reschedule -from <n> [options] [-json]

  Rebuilds the schedule from installment n onward: new grace, extra terms, a
  new rate or a moved first due date. The installments before n stand as
  booked; the outstanding principal respreads over the rebuilt term.

Usage Examples:
# Push the remaining term out by 6 installments, starting at installment 7.
$ loansched -transactions repayments.jsonl reschedule -from 7 -extra-terms 6

`
}

func (c *rescheduleCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.from, "from", 1, "First installment number to rebuild")
	f.IntVar(&c.gracePrincipal, "grace-principal", 0, "Grace on principal for the rebuilt stretch")
	f.IntVar(&c.graceInterest, "grace-interest", 0, "Grace on interest for the rebuilt stretch")
	f.IntVar(&c.extraTerms, "extra-terms", 0, "Repayment periods appended to the remaining term")
	f.StringVar(&c.rate, "rate", "", "New nominal annual rate in percent, e.g. 11.5")
	f.StringVar(&c.adjustedDueDate, "adjusted-due-date", "", "First rebuilt due date (YYYY-MM-DD)")
	f.BoolVar(&c.recalcInterest, "recalculate-interest", false, "Recompute flat interest over the new term")
	f.BoolVar(&c.json, "json", false, "Write the schedule as JSONL instead of a report")
}

func (c *rescheduleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	req := &loan.RescheduleRequest{
		FromInstallment:     c.from,
		GraceOnPrincipal:    c.gracePrincipal,
		GraceOnInterest:     c.graceInterest,
		ExtraTerms:          c.extraTerms,
		RecalculateInterest: c.recalcInterest,
	}
	if c.rate != "" {
		rate, err := decimal.NewFromString(c.rate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -rate: %v\n", err)
			return subcommands.ExitFailure
		}
		req.NewInterestRate = rate
	}
	if c.adjustedDueDate != "" {
		adjusted, err := loan.ParseDate(c.adjustedDueDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -adjusted-due-date: %v\n", err)
			return subcommands.ExitFailure
		}
		req.AdjustedDueDate = adjusted
	}

	// book the current schedule and replay the received repayments, so the
	// reschedule sees what is actually outstanding
	cal := Calendar()
	model, err := loan.Generate(terms, charges, cal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot generate current schedule: %v\n", err)
		return subcommands.ExitFailure
	}
	installments := model.Installments()
	alloc := loan.StandardAllocator{}
	for _, tx := range txs {
		alloc.Apply(tx, installments)
	}

	rescheduled, err := loan.Reschedule(terms, req, installments, charges, cal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reschedule: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.json {
		if err := rescheduled.EncodeSchedule(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ScheduleMarkdown(rescheduled))
	return subcommands.ExitSuccess
}
