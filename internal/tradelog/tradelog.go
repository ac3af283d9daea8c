package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"intraday-trader/internal/types"
)

var mu sync.Mutex

// TradeEntry is the durable per-trade record.
type TradeEntry struct {
	Time       string           `json:"time"`
	Symbol     string           `json:"symbol"`
	Strategy   string           `json:"strategy"`
	Direction  types.Direction  `json:"direction"`
	Qty        int              `json:"qty"`
	EntryPrice float64          `json:"entry_price"`
	EntryTime  string           `json:"entry_time"`
	ExitPrice  float64          `json:"exit_price"`
	ExitTime   string           `json:"exit_time"`
	ExitReason types.ExitReason `json:"exit_reason"`
	PnL        float64          `json:"pnl"`
}

// RejectionEntry records a rejected or superseded instruction.
type RejectionEntry struct {
	Time     string `json:"time"`
	Symbol   string `json:"symbol"`
	Strategy string `json:"strategy"`
	Signal   string `json:"signal"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// SessionEntry is the durable per-session record.
type SessionEntry struct {
	Date             string  `json:"date"`
	DailyPnL         float64 `json:"daily_pnl"`
	Trades           int     `json:"trades"`
	LosingTrades     int     `json:"losing_trades"`
	KillSwitch       bool    `json:"kill_switch"`
	KillSwitchReason string  `json:"kill_switch_reason,omitempty"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func ist() *time.Location { return time.FixedZone("IST", 19800) }

func dailyFilepath(t time.Time, sub string) string {
	d := t.In(ist()).Format("2006-01-02")
	if sub == "" {
		return filepath.Join(logDir(), d+".txt")
	}
	return filepath.Join(logDir(), sub, d+".txt")
}

func appendLine(path string, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func AppendTrade(tr types.Trade) error {
	now := time.Now().In(ist())
	e := TradeEntry{
		Time:       now.Format("2006-01-02 15:04:05"),
		Symbol:     tr.Symbol,
		Strategy:   tr.Strategy,
		Direction:  tr.Direction,
		Qty:        tr.Quantity,
		EntryPrice: tr.EntryPrice,
		EntryTime:  tr.EntryTime.In(ist()).Format("2006-01-02 15:04:05"),
		ExitPrice:  tr.ExitPrice,
		ExitTime:   tr.ExitTime.In(ist()).Format("2006-01-02 15:04:05"),
		ExitReason: tr.ExitReason,
		PnL:        tr.PnL,
	}
	return appendLine(dailyFilepath(now, ""), e)
}

func AppendRejection(symbol, strategy, signal, reason, detail string) error {
	now := time.Now().In(ist())
	e := RejectionEntry{
		Time:     now.Format("2006-01-02 15:04:05"),
		Symbol:   symbol,
		Strategy: strategy,
		Signal:   signal,
		Reason:   reason,
		Detail:   detail,
	}
	return appendLine(dailyFilepath(now, "rejections"), e)
}

func AppendSession(snap types.PortfolioSnapshot) error {
	now := time.Now().In(ist())
	e := SessionEntry{
		Date:             now.Format("2006-01-02"),
		DailyPnL:         snap.DailyPnL,
		Trades:           snap.DailyTrades,
		LosingTrades:     snap.DailyLosing,
		KillSwitch:       snap.KillSwitch,
		KillSwitchReason: snap.KillSwitchReason,
	}
	return appendLine(filepath.Join(logDir(), "sessions.txt"), e)
}

// CompressOlder gzips journal files older than retentionDays.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
