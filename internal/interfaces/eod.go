package interfaces

import "time"

// EodSummarizer turns a day's trade journal into a CSV report.
type EodSummarizer interface {
	// SummarizeDay aggregates the journal for the given IST date and writes
	// the CSV. Returns the CSV path, or "" when the day has no trades.
	SummarizeDay(t time.Time) (csvPath string, err error)

	// SummarizeToday is SummarizeDay for the current IST date.
	SummarizeToday() (csvPath string, err error)

	// ShouldRunNow reports whether the session has closed and today's
	// summary has not been written yet.
	ShouldRunNow() (shouldRun bool, csvPath string)
}
