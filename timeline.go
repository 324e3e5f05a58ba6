package loan

import "sort"

// Timeline is a date-indexed accumulator of amounts. Adding to a date the
// timeline already holds accumulates, never overwrites; generation relies on
// that when several flows land on one rest date.
type Timeline struct {
	amounts map[Date]Money
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{amounts: make(map[Date]Money)}
}

// Add accumulates amount on the given date.
func (tl *Timeline) Add(on Date, amount Money) {
	if prev, ok := tl.amounts[on]; ok {
		tl.amounts[on] = prev.Add(amount)
		return
	}
	tl.amounts[on] = amount
}

// At returns the amount recorded on a date (zero Money when absent).
func (tl *Timeline) At(on Date) (Money, bool) {
	m, ok := tl.amounts[on]
	return m, ok
}

// IsEmpty reports whether the timeline holds no entries.
func (tl *Timeline) IsEmpty() bool { return len(tl.amounts) == 0 }

// Len returns the number of dated entries.
func (tl *Timeline) Len() int { return len(tl.amounts) }

// Dates returns the entry dates in ascending order.
func (tl *Timeline) Dates() []Date {
	dates := make([]Date, 0, len(tl.amounts))
	for d := range tl.amounts {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Total sums every entry.
func (tl *Timeline) Total() Money {
	var sum Money
	for _, m := range tl.amounts {
		sum = sum.Add(m)
	}
	return sum
}

// TotalBefore sums the entries dated strictly before cutoff.
func (tl *Timeline) TotalBefore(cutoff Date) Money {
	var sum Money
	for d, m := range tl.amounts {
		if d.Before(cutoff) {
			sum = sum.Add(m)
		}
	}
	return sum
}

// ReduceThrough consumes every entry dated on or before through, removing it
// and folding it into balance: subtracted when add is false (principal
// repayments), added when add is true (disbursements).
func (tl *Timeline) ReduceThrough(through Date, balance Money, add bool) Money {
	for _, d := range tl.Dates() {
		if d.After(through) {
			break
		}
		if add {
			balance = balance.Add(tl.amounts[d])
		} else {
			balance = balance.Sub(tl.amounts[d])
		}
		delete(tl.amounts, d)
	}
	return balance
}

// Clear drops every entry.
func (tl *Timeline) Clear() {
	tl.amounts = make(map[Date]Money)
}

// Clone returns an independent copy.
func (tl *Timeline) Clone() *Timeline {
	c := NewTimeline()
	for d, m := range tl.amounts {
		c.amounts[d] = m
	}
	return c
}

// TimelineEvent is one dated balance change in a merged view.
type TimelineEvent struct {
	Date   Date
	Amount Money
}

// MergedTimeline is the read-only, date-sorted union of the balance-changing
// flows an interest strategy slices a period by.
type MergedTimeline struct {
	events []TimelineEvent
}

// MergeTimelines folds the four generation maps into one sorted view:
// principal entries flip sign (they shrink the balance), late-payment,
// pending-disbursement and compounded-arrears entries stay positive, and
// every compounding date is present even when it holds nothing so a strategy
// always breaks the accrual there.
func MergeTimelines(principal, late, disbursements, compounding *Timeline) *MergedTimeline {
	merged := make(map[Date]Money)
	if principal != nil {
		for _, d := range principal.Dates() {
			m, _ := principal.At(d)
			merged[d] = merged[d].Sub(m)
		}
	}
	if late != nil {
		for _, d := range late.Dates() {
			m, _ := late.At(d)
			merged[d] = merged[d].Add(m)
		}
	}
	if disbursements != nil {
		for _, d := range disbursements.Dates() {
			m, _ := disbursements.At(d)
			merged[d] = merged[d].Add(m)
		}
	}
	if compounding != nil {
		for _, d := range compounding.Dates() {
			m, _ := compounding.At(d)
			merged[d] = merged[d].Add(m)
		}
	}
	dates := make([]Date, 0, len(merged))
	for d := range merged {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	events := make([]TimelineEvent, 0, len(dates))
	for _, d := range dates {
		events = append(events, TimelineEvent{Date: d, Amount: merged[d]})
	}
	return &MergedTimeline{events: events}
}

// Events returns the dated changes in ascending date order.
func (m *MergedTimeline) Events() []TimelineEvent { return m.events }

// IsEmpty reports whether the merged view has no events.
func (m *MergedTimeline) IsEmpty() bool { return len(m.events) == 0 }
