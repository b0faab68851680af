package entry

import "fmt"

// FilterResult is the outcome reported by a Filter.
type FilterResult int

const (
	// FilterNone means the line is not a command; normal validation proceeds.
	FilterNone FilterResult = iota
	FilterQuit
	FilterReboot
	FilterShutdown
	FilterSignOff
)

func (r FilterResult) String() string {
	switch r {
	case FilterNone:
		return "none"
	case FilterQuit:
		return "quit"
	case FilterReboot:
		return "reboot"
	case FilterShutdown:
		return "shutdown"
	case FilterSignOff:
		return "signoff"
	default:
		return fmt.Sprintf("filter(%d)", int(r))
	}
}

// Filter intercepts reserved commands typed or scanned in place of data.
// It receives a copy of the session and must not block.
type Filter interface {
	FilterInput(s Session, entry string, allowSignOff bool) FilterResult
}

// FilterFunc adapts an ordinary function to the Filter interface.
type FilterFunc func(s Session, entry string, allowSignOff bool) FilterResult

// FilterInput implements Filter.
func (f FilterFunc) FilterInput(s Session, entry string, allowSignOff bool) FilterResult {
	return f(s, entry, allowSignOff)
}
