package famfolio

import (
	"fmt"
	"slices"
	"sort"

	"github.com/linsean/famfolio/date"
)

// Lot is a still-open acquisition of a security by one owner. Quantity
// decreases as later sells consume the lot FIFO; it never goes negative.
// Fee and Tax are the full amounts paid at acquisition; disposals carry
// away their share in proportion to consumed/Original.
type Lot struct {
	Owner    Owner
	Security string
	Quantity Quantity // remaining open quantity
	Original Quantity // quantity at acquisition, fixed
	UnitCost Money    // per-share cost, in the acquisition currency
	Fee      Money
	Tax      Money
	Acquired date.Date
}

// CostBasis returns the remaining cost tied up in the lot: open quantity
// at unit cost plus the unconsumed share of acquisition fee and tax.
func (l Lot) CostBasis() Money {
	frac := l.Quantity.Div(l.Original)
	return l.UnitCost.Mul(l.Quantity).Add(l.Fee.Mul(frac)).Add(l.Tax.Mul(frac))
}

// RealizedGain is the outcome of one (sell record, consumed lot) pairing.
// A single sell that closes several lots emits several events, each with a
// proportional share of the sell's fee and tax. Amounts are in the
// transaction currency; conversion to the reporting currency happens later,
// at the sell date's rate.
type RealizedGain struct {
	Owner     Owner
	Security  string
	SellDate  date.Date
	Acquired  date.Date
	Quantity  Quantity // quantity closed from this lot
	CostBasis Money
	Proceeds  Money
}

// Gain returns proceeds minus cost basis, in the transaction currency.
func (g RealizedGain) Gain() Money { return g.Proceeds.Sub(g.CostBasis) }

// OversellError reports a disposal that exceeds the open quantity for an
// (owner, security) pair. It signals an upstream data error: a sell whose
// buy was never attributed to that owner.
type OversellError struct {
	Owner    Owner
	Security string
	Date     date.Date
	Residual Quantity // unclosed quantity
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("oversell: %s/%s on %s exceeds open quantity by %s",
		e.Owner, e.Security, e.Date, e.Residual)
}

// ledgerKey identifies one lot queue. Each (owner, security) pair owns its
// queue exclusively, so independent pairs can never alias each other's lots.
type ledgerKey struct {
	owner    Owner
	security string
}

// LotLedger performs chronological FIFO cost-basis bookkeeping per
// (owner, security). Records must be applied in chronological order;
// Normalize returns them presorted.
type LotLedger struct {
	queues   map[ledgerKey][]*Lot
	gains    []RealizedGain
	shorts   map[ledgerKey]Quantity // tolerated oversell residuals
	faults   []*OversellError       // only populated in tolerant mode
	tolerant bool
}

// NewLotLedger creates an empty lot ledger. In tolerant mode an oversell
// does not fail the replay: the residual is booked as a zero-cost short
// position and reported through Faults.
func NewLotLedger(tolerant bool) *LotLedger {
	return &LotLedger{
		queues:   make(map[ledgerKey][]*Lot),
		shorts:   make(map[ledgerKey]Quantity),
		tolerant: tolerant,
	}
}

// Replay applies every record in order. On the first oversell in strict
// mode, the error is returned and the replay stops.
func (l *LotLedger) Replay(records []Record) error {
	for _, r := range records {
		if err := l.Apply(r); err != nil {
			return err
		}
	}
	return nil
}

// Apply books one owner-attributed record: buys push a new lot on the back
// of the queue, sells consume lots from the front (oldest first).
func (l *LotLedger) Apply(r Record) error {
	switch {
	case r.Quantity.IsPositive():
		l.acquire(r)
		return nil
	case r.Quantity.IsNegative():
		return l.dispose(r)
	default:
		return nil
	}
}

func (l *LotLedger) acquire(r Record) {
	k := ledgerKey{owner: r.Owner, security: r.Security}

	// A buy first covers any tolerated short before opening a new lot.
	// The covering part closes the earlier zero-cost residual: its cost,
	// shares at the buy price plus the covered share of the buy's fee and
	// tax, is booked as a realized event with no proceeds. The remaining
	// fee and tax stay with the new lot.
	quantity := r.Quantity
	fee, tax := r.Fee, r.Tax
	if short, ok := l.shorts[k]; ok && short.IsPositive() {
		covered := short.Min(quantity)
		short = short.Sub(covered)
		quantity = quantity.Sub(covered)
		if short.IsZero() {
			delete(l.shorts, k)
		} else {
			l.shorts[k] = short
		}

		coverFrac := covered.Div(r.Quantity)
		l.gains = append(l.gains, RealizedGain{
			Owner:     r.Owner,
			Security:  r.Security,
			SellDate:  r.Date,
			Acquired:  r.Date,
			Quantity:  covered,
			CostBasis: r.Price.Mul(covered).Add(r.Fee.Mul(coverFrac)).Add(r.Tax.Mul(coverFrac)),
			Proceeds:  M(0, r.Currency()),
		})
		fee = fee.Sub(r.Fee.Mul(coverFrac))
		tax = tax.Sub(r.Tax.Mul(coverFrac))

		if quantity.IsZero() {
			return
		}
	}

	l.queues[k] = append(l.queues[k], &Lot{
		Owner:    r.Owner,
		Security: r.Security,
		Quantity: quantity,
		Original: quantity,
		UnitCost: r.Price,
		Fee:      fee,
		Tax:      tax,
		Acquired: r.Date,
	})
}

func (l *LotLedger) dispose(r Record) error {
	k := ledgerKey{owner: r.Owner, security: r.Security}
	queue := l.queues[k]

	sellQty := r.Quantity.Neg() // total quantity this record disposes of
	remaining := sellQty

	for len(queue) > 0 && remaining.IsPositive() {
		lot := queue[0]
		consumed := lot.Quantity.Min(remaining)

		// Cost side: consumed shares at the lot's unit cost, plus the
		// consumed share of the lot's acquisition fee and tax.
		lotFrac := consumed.Div(lot.Original)
		cost := lot.UnitCost.Mul(consumed).
			Add(lot.Fee.Mul(lotFrac)).
			Add(lot.Tax.Mul(lotFrac))

		// Proceeds side: consumed shares at the sell price, minus the
		// consumed share of the sell's fee and tax.
		sellFrac := consumed.Div(sellQty)
		proceeds := r.Price.Mul(consumed).
			Sub(r.Fee.Mul(sellFrac)).
			Sub(r.Tax.Mul(sellFrac))

		l.gains = append(l.gains, RealizedGain{
			Owner:     r.Owner,
			Security:  r.Security,
			SellDate:  r.Date,
			Acquired:  lot.Acquired,
			Quantity:  consumed,
			CostBasis: cost,
			Proceeds:  proceeds,
		})

		lot.Quantity = lot.Quantity.Sub(consumed)
		remaining = remaining.Sub(consumed)
		if lot.Quantity.IsZero() {
			queue = queue[1:]
		}
	}
	l.queues[k] = queue

	if remaining.IsPositive() {
		fault := &OversellError{Owner: r.Owner, Security: r.Security, Date: r.Date, Residual: remaining}
		if !l.tolerant {
			return fault
		}
		// Tolerant mode: book the residual as a zero-cost short and keep
		// going. The proceeds for the unexplained part still carry their
		// share of the sell's fee and tax.
		sellFrac := remaining.Div(sellQty)
		l.gains = append(l.gains, RealizedGain{
			Owner:     r.Owner,
			Security:  r.Security,
			SellDate:  r.Date,
			Quantity:  remaining,
			CostBasis: M(0, r.Currency()),
			Proceeds:  r.Price.Mul(remaining).Sub(r.Fee.Mul(sellFrac)).Sub(r.Tax.Mul(sellFrac)),
		})
		l.shorts[k] = l.shorts[k].Add(remaining)
		l.faults = append(l.faults, fault)
	}
	return nil
}

// OpenLots returns a copy of the current FIFO queue for one
// (owner, security) pair, oldest lot first.
func (l *LotLedger) OpenLots(owner Owner, security string) []Lot {
	queue := l.queues[ledgerKey{owner: owner, security: security}]
	out := make([]Lot, len(queue))
	for i, lot := range queue {
		out[i] = *lot
	}
	return out
}

// OpenQuantity returns the net open quantity for one (owner, security)
// pair: the sum of open lots minus any tolerated short residual.
func (l *LotLedger) OpenQuantity(owner Owner, security string) Quantity {
	k := ledgerKey{owner: owner, security: security}
	var total Quantity
	for _, lot := range l.queues[k] {
		total = total.Add(lot.Quantity)
	}
	return total.Sub(l.shorts[k])
}

// Gains returns every realized-gain event emitted so far, in replay order.
func (l *LotLedger) Gains() []RealizedGain { return slices.Clone(l.gains) }

// Faults returns the oversells tolerated so far. Empty in strict mode,
// since the first oversell aborts the replay.
func (l *LotLedger) Faults() []*OversellError { return slices.Clone(l.faults) }

// Holder is an (owner, security) pair.
type Holder struct {
	Owner    Owner
	Security string
}

// Holders returns every (owner, security) pair that currently has open
// lots or a tolerated short, sorted for deterministic iteration.
func (l *LotLedger) Holders() []Holder {
	seen := make(map[ledgerKey]bool)
	for k, queue := range l.queues {
		if len(queue) > 0 {
			seen[k] = true
		}
	}
	for k, short := range l.shorts {
		if !short.IsZero() {
			seen[k] = true
		}
	}
	keys := make([]ledgerKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].owner != keys[j].owner {
			return keys[i].owner < keys[j].owner
		}
		return keys[i].security < keys[j].security
	})
	out := make([]Holder, len(keys))
	for i, k := range keys {
		out[i] = Holder{Owner: k.owner, Security: k.security}
	}
	return out
}
