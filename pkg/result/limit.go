package result

// InitialRowLimit is the row limit applied to a fresh result.
const InitialRowLimit = 100

// NextRowLimit returns the row limit that follows cur. Starting from zero
// the sequence is 100, 500, 1000, 2000, ..., 10000, 20000, 30000, ...
func NextRowLimit(cur int) int {
	switch {
	case cur < 100:
		return 100
	case cur < 500:
		return 500
	case cur < 1000:
		return 1000
	case cur < 10000:
		return cur + 1000
	default:
		return cur + 10000
	}
}

// Pager pairs the current result with its disclosure limit. The zero value
// holds no result.
type Pager struct {
	table Table
	limit int
}

// Reset installs a new result and restarts the limit at InitialRowLimit.
// A nil table clears the pager.
func (p *Pager) Reset(t Table) {
	p.table = t
	p.limit = InitialRowLimit
	if t == nil {
		p.limit = 0
	}
}

// More advances the limit by one growth step and returns it. Every call
// advances, regardless of how many rows are still withheld.
func (p *Pager) More() int {
	p.limit = NextRowLimit(p.limit)
	return p.limit
}

// Limit returns the current row limit.
func (p *Pager) Limit() int { return p.limit }

// Table returns the current result, or nil.
func (p *Pager) Table() Table { return p.table }

// Grid materializes the current result. ok is false when there is none.
func (p *Pager) Grid() (g Grid, ok bool) {
	if p.table == nil {
		return Grid{}, false
	}
	return Materialize(p.table, p.limit), true
}
