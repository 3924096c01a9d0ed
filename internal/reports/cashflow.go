package reports

// CashflowPoint captures cash inflow and outflow for one month.
type CashflowPoint struct {
	Month string  `json:"month"`
	In    float64 `json:"in"`
	Out   float64 `json:"out"`
	Net   float64 `json:"net"`
}

// BuildCashflow fills the net column of monthly cash movement rows.
func BuildCashflow(points []CashflowPoint) []CashflowPoint {
	out := make([]CashflowPoint, 0, len(points))
	for _, p := range points {
		p.Net = p.In - p.Out
		out = append(out, p)
	}
	return out
}
