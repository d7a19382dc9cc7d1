package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows a query can request when no explicit ceiling is configured.
	MaxLimit = 200
)

// Params holds limit/offset inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Page describes the window returned to clients.
type Page struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NormalizeLimit enforces the default and the provided maximum.
// A non-positive max falls back to MaxLimit.
func NormalizeLimit(limit, max int) int {
	if max <= 0 {
		max = MaxLimit
	}
	if limit <= 0 {
		if DefaultLimit > max {
			return max
		}
		return DefaultLimit
	}
	if limit > max {
		return max
	}
	return limit
}

// Normalize clamps both fields.
func (p Params) Normalize(max int) Params {
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: NormalizeLimit(p.Limit, max), Offset: offset}
}

// Window returns the [start, end) bounds of the page over total items.
func (p Params) Window(total int) (int, int) {
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// PageFor builds the page metadata for a window over total items.
func (p Params) PageFor(total int) Page {
	_, end := p.Window(total)
	return Page{
		Limit:   p.Limit,
		Offset:  p.Offset,
		Total:   total,
		HasMore: end < total,
	}
}
