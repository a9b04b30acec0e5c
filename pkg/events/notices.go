package events

import "fmt"

// NoticeCode labels a class of non-fatal diagnostic.
type NoticeCode string

const (
	// NoticeEmptySide is raised when one side of a merge has no events.
	NoticeEmptySide NoticeCode = "empty_side"
	// NoticeBinWidth is raised when merged streams disagree on bin
	// width and the coarser one wins.
	NoticeBinWidth NoticeCode = "bin_width_coarsened"
	// NoticeZeroFilled is raised when a column missing on one side of a
	// merge is padded with zero values.
	NoticeZeroFilled NoticeCode = "column_zero_filled"
	// NoticeEpochShifted is raised when merged streams disagree on
	// reference epoch and one is shifted to match the other.
	NoticeEpochShifted NoticeCode = "epoch_reconciled"
	// NoticeGTIAppended is raised when merged valid-time windows do not
	// overlap anywhere and are concatenated instead of intersected.
	NoticeGTIAppended NoticeCode = "gti_appended"
	// NoticeGTIOneSided is raised when only one side of a merge carries
	// valid-time windows.
	NoticeGTIOneSided NoticeCode = "gti_one_sided"
	// NoticeUnknownKey is raised when a metadata keyword is not
	// recognized and gets discarded.
	NoticeUnknownKey NoticeCode = "unknown_keyword"
	// NoticeNoCounts is raised when a simulation is asked to fill a
	// stream that has neither timestamps nor a template count.
	NoticeNoCounts NoticeCode = "no_counts"
)

// Notice is a single non-fatal diagnostic from an operation that
// degraded gracefully instead of failing.
type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
}

// Notices collects the diagnostics of one operation. Callers may
// inspect, log, or ignore them; the primary result is always complete.
type Notices []Notice

// Addf appends a formatted notice.
func (n *Notices) Addf(code NoticeCode, format string, args ...any) {
	*n = append(*n, Notice{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether any notice carries the given code.
func (n Notices) Has(code NoticeCode) bool {
	for _, notice := range n {
		if notice.Code == code {
			return true
		}
	}
	return false
}

// Messages returns the human-readable notice texts in order.
func (n Notices) Messages() []string {
	out := make([]string, len(n))
	for i, notice := range n {
		out[i] = notice.Message
	}
	return out
}
