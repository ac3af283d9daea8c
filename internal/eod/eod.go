package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// eodSummarizer reads the day's trade journal (JSON lines written by the
// tradelog package) and writes a per-symbol CSV under logs/eod/.
type eodSummarizer struct{}

func (es *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := tradeFilePath(t)
	if _, err := os.Stat(inPath); err != nil {
		// No journal means no trades that day.
		return "", nil
	}

	f, err := os.Open(inPath)
	if err != nil {
		return "", fmt.Errorf("opening trade journal: %w", err)
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var tl tradeLine
		if err := json.Unmarshal(sc.Bytes(), &tl); err != nil {
			// Skip malformed lines rather than abort the whole summary.
			continue
		}
		if tl.Symbol == "" || tl.Qty <= 0 {
			continue
		}
		row := aggs[tl.Symbol]
		if row == nil {
			row = &aggRow{Symbol: tl.Symbol}
			aggs[tl.Symbol] = row
		}
		row.Trades++
		row.Qty += tl.Qty
		row.NetPnL += tl.PnL
		switch {
		case tl.PnL > 0:
			row.Wins++
			row.GrossProfit += tl.PnL
		case tl.PnL < 0:
			row.Losses++
			row.GrossLoss += -tl.PnL
		}
		if tl.ExitReason == "STOP_HIT" {
			row.StopHits++
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading trade journal: %w", err)
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()

	headers := []string{"symbol", "trades", "wins", "losses", "stop_hits", "total_qty", "gross_profit", "gross_loss", "net_pnl"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	total := aggRow{Symbol: "TOTAL"}
	for _, k := range keys {
		r := aggs[k]
		if err := w.Write(csvRecord(r)); err != nil {
			return "", err
		}
		total.Trades += r.Trades
		total.Wins += r.Wins
		total.Losses += r.Losses
		total.StopHits += r.StopHits
		total.Qty += r.Qty
		total.GrossProfit += r.GrossProfit
		total.GrossLoss += r.GrossLoss
		total.NetPnL += r.NetPnL
	}
	if err := w.Write(csvRecord(&total)); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func csvRecord(r *aggRow) []string {
	return []string{
		r.Symbol,
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.StopHits),
		strconv.Itoa(r.Qty),
		fmt.Sprintf("%.2f", r.GrossProfit),
		fmt.Sprintf("%.2f", r.GrossLoss),
		fmt.Sprintf("%.2f", r.NetPnL),
	}
}

func (es *eodSummarizer) SummarizeToday() (string, error) {
	return es.SummarizeDay(istNow())
}

func (es *eodSummarizer) ShouldRunNow() (bool, string) {
	now := istNow()
	outPath := eodCSVPath(now)
	if now.After(summaryDueTime(now)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
