package alerts

import "time"

// Type classifies an alert. The set is open: sources may produce types
// beyond the ones declared here.
type Type string

const (
	TypeDelay   Type = "delay"
	TypeInfo    Type = "info"
	TypeClosing Type = "closing"
)

// Alert is a single status notice. Alerts are immutable once admitted except
// for Read, which only ever moves from false to true.
type Alert struct {
	ID        int64
	Title     string
	Message   string
	Type      Type
	Timestamp time.Time
	Read      bool
}

// Template is the catalog entry a source stamps into a fresh Alert.
type Template struct {
	Title   string
	Message string
	Type    Type
}

// DefaultCatalog returns the notices the random source picks from.
func DefaultCatalog() []Template {
	return []Template{
		{
			Title:   "School Delay - 2 Hours",
			Message: "Due to inclement weather, all HCPSS schools will open 2 hours late today.",
			Type:    TypeDelay,
		},
		{
			Title:   "Early Dismissal",
			Message: "Schools will dismiss 3 hours early today for professional development.",
			Type:    TypeInfo,
		},
		{
			Title:   "School Closing",
			Message: "All HCPSS schools are closed today due to severe weather conditions.",
			Type:    TypeClosing,
		},
	}
}

// Unread returns the number of alerts not yet marked read.
func Unread(alerts []Alert) int {
	n := 0
	for _, a := range alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

// Recent returns at most n alerts from the front (newest end) of the collection.
func Recent(alerts []Alert, n int) []Alert {
	if n < 0 {
		n = 0
	}
	if len(alerts) <= n {
		return alerts
	}
	return alerts[:n]
}
