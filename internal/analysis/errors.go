package analysis

import "fmt"

// ErrorKind tags the failure mode of one unit of analysis work.
type ErrorKind string

const (
	// NoData: the dataset had nothing to analyze for this unit.
	NoData ErrorKind = "no_data"
	// CallFailed: the LLM call itself failed (network, quota, timeout).
	CallFailed ErrorKind = "call_failed"
	// ParseFailed: the reply came back but was not valid JSON for the
	// expected shape, even after fence stripping.
	ParseFailed ErrorKind = "parse_failed"
)

// UnitError is the tagged error for one unit of work (one post, or one
// global call). The orchestration loop and the module envelope both consume
// these; they never propagate as panics or abort sibling units.
type UnitError struct {
	Kind   ErrorKind
	Unit   string // post_url or "global"
	Reason string
	Raw    string // offending reply excerpt, ParseFailed only
}

func (e *UnitError) Error() string {
	if e.Unit != "" && e.Unit != "global" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Unit, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func noDataErr(unit, reason string) *UnitError {
	return &UnitError{Kind: NoData, Unit: unit, Reason: reason}
}

func callErr(unit string, err error) *UnitError {
	return &UnitError{Kind: CallFailed, Unit: unit, Reason: err.Error()}
}

func parseErr(unit string, err error, raw string) *UnitError {
	const maxRaw = 300
	if len(raw) > maxRaw {
		raw = raw[:maxRaw]
	}
	return &UnitError{Kind: ParseFailed, Unit: unit, Reason: err.Error(), Raw: raw}
}
