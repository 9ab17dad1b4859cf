package famfolio

import (
	"sort"

	"github.com/linsean/famfolio/date"
)

// Position is one owner's cumulative open quantity of a security at the
// end of a calendar month. It is derived from the record stream, never
// mutated on its own: rebuilding from scratch reproduces it exactly.
type Position struct {
	Owner    Owner
	Security string
	Month    date.Month
	Quantity Quantity
}

// PositionTable holds monthly positions for every (owner, security) pair
// the ledger has ever seen, over a gapless month range. Months without
// transactions carry the prior month's quantity forward (a step function).
type PositionTable struct {
	months  []date.Month // gapless, ascending
	holders []Holder     // sorted
	cells   map[Holder]map[date.Month]Quantity
}

// Months returns the table's gapless month range, ascending.
func (t *PositionTable) Months() []date.Month { return t.months }

// Holders returns every (owner, security) pair in the table, sorted.
func (t *PositionTable) Holders() []Holder { return t.holders }

// Quantity returns the cumulative open quantity for a cell. Cells outside
// the table are zero.
func (t *PositionTable) Quantity(owner Owner, security string, m date.Month) Quantity {
	return t.cells[Holder{Owner: owner, Security: security}][m]
}

// Rows returns every cell as a flat, deterministically ordered slice:
// month-major, then owner, then security.
func (t *PositionTable) Rows() []Position {
	rows := make([]Position, 0, len(t.months)*len(t.holders))
	for _, m := range t.months {
		for _, h := range t.holders {
			rows = append(rows, Position{
				Owner:    h.Owner,
				Security: h.Security,
				Month:    m,
				Quantity: t.cells[h][m],
			})
		}
	}
	return rows
}

// SnapshotPositions replays the owner-attributed records chronologically
// and materializes the cumulative open quantity per (owner, security) at
// the end of every month from the first transaction through 'through'.
// When 'through' is before the last transaction's month, the later month
// is used so no record is dropped.
//
// Records must be sorted by date; Normalize returns them that way.
func SnapshotPositions(records []Record, through date.Month) (*PositionTable, error) {
	if len(records) == 0 {
		return nil, ErrEmptyLedger
	}

	first := records[0].Date.Month()
	last := through
	if end := records[len(records)-1].Date.Month(); end.After(last) || last.IsZero() {
		last = end
	}

	// Collect the full holder set up front so every month reports every
	// pair, including months before a pair's first trade.
	holderSet := make(map[Holder]bool)
	for _, r := range records {
		holderSet[Holder{Owner: r.Owner, Security: r.Security}] = true
	}
	holders := make([]Holder, 0, len(holderSet))
	for h := range holderSet {
		holders = append(holders, h)
	}
	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Owner != holders[j].Owner {
			return holders[i].Owner < holders[j].Owner
		}
		return holders[i].Security < holders[j].Security
	})

	table := &PositionTable{
		holders: holders,
		cells:   make(map[Holder]map[date.Month]Quantity, len(holders)),
	}
	for _, h := range holders {
		table.cells[h] = make(map[date.Month]Quantity)
	}

	// Single chronological replay with running state: apply the records of
	// each month, then snapshot the running quantity of every holder.
	running := make(map[Holder]Quantity, len(holders))
	next := 0
	for m := range date.Months(first, last) {
		for next < len(records) && m.Contains(records[next].Date) {
			r := records[next]
			h := Holder{Owner: r.Owner, Security: r.Security}
			running[h] = running[h].Add(r.Quantity)
			next++
		}
		for _, h := range holders {
			table.cells[h][m] = running[h]
		}
		table.months = append(table.months, m)
	}

	return table, nil
}
