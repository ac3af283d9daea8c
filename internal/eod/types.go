package eod

// tradeLine is the subset of the journal's trade record the summary needs.
// Field tags match what the tradelog package writes.
type tradeLine struct {
	Symbol     string  `json:"symbol"`
	Strategy   string  `json:"strategy"`
	Direction  string  `json:"direction"`
	Qty        int     `json:"qty"`
	ExitReason string  `json:"exit_reason"`
	PnL        float64 `json:"pnl"`
}

// aggRow accumulates per-symbol statistics across the day's closed trades.
type aggRow struct {
	Symbol      string
	Trades      int
	Wins        int
	Losses      int
	Qty         int
	GrossProfit float64 // sum of winning trades' PnL
	GrossLoss   float64 // absolute sum of losing trades' PnL
	NetPnL      float64
	StopHits    int
}
