package tokens

// Budget is a running token total checked against a fixed limit.
// The selector and the renderer both charge against a Budget so they agree
// on what "fits" means.
type Budget struct {
	limit int
	used  int
}

// NewBudget returns an empty Budget with the given limit.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// Limit returns the configured limit.
func (b *Budget) Limit() int { return b.limit }

// Used returns the tokens charged so far.
func (b *Budget) Used() int { return b.used }

// Remaining returns the tokens left before the limit. It is negative when
// fixed overhead alone already exceeds the limit.
func (b *Budget) Remaining() int { return b.limit - b.used }

// Fits reports whether n more tokens can be charged without exceeding the limit.
func (b *Budget) Fits(n int) bool { return b.used+n <= b.limit }

// Exhausted reports whether nothing more can be charged.
func (b *Budget) Exhausted() bool { return b.used >= b.limit }

// Charge adds n tokens unconditionally. Callers check Fits first for
// optional content; fixed overhead is charged without a check.
func (b *Budget) Charge(n int) { b.used += n }

// TryCharge charges n tokens if they fit and reports whether it did.
func (b *Budget) TryCharge(n int) bool {
	if !b.Fits(n) {
		return false
	}
	b.used += n
	return true
}

// ChargeText charges the token count of each string using c.
func (b *Budget) ChargeText(c Counter, texts ...string) {
	for _, s := range texts {
		b.used += c.Count(s)
	}
}
