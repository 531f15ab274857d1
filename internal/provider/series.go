package provider

// Series is a time-ordered chart series for one (symbol, range) request.
// Points are sorted ascending by Begin; duplicate timestamps keep their
// source order. Prev and Current are the two summary scalars (first open and
// latest close) change figures derive from.
type Series struct {
	Symbol  string   `json:"symbol"`
	Range   Range    `json:"range"`
	Points  []Candle `json:"points"`
	Prev    float64  `json:"prev"`
	Current float64  `json:"current"`
}

// Stats are derived chart figures. They are computed on demand rather than
// stored on the series, so they cannot go stale relative to the points.
type Stats struct {
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	IsUp          bool    `json:"is_up"`
	IsDown        bool    `json:"is_down"`
}

// Stats derives change and percent change from the series summary scalars.
// Returns ErrInsufficientData for an empty series.
func (s Series) Stats() (Stats, error) {
	if len(s.Points) == 0 {
		return Stats{}, ErrInsufficientData
	}
	change := s.Current - s.Prev
	var pct float64
	if s.Prev != 0 {
		pct = change / s.Prev * 100
	}
	return Stats{
		Change:        change,
		ChangePercent: pct,
		IsUp:          change > 0,
		IsDown:        change < 0,
	}, nil
}
