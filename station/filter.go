package station

import (
	"fmt"
	"strings"

	"gostation/entry"
	"gostation/metrics"
)

// FilterConfig names the command tokens. An empty token keeps the default.
type FilterConfig struct {
	Quit     string `yaml:"quit"`
	Reboot   string `yaml:"reboot"`
	Shutdown string `yaml:"shutdown"`
	SignOff  string `yaml:"signoff"`
}

var filterMessages = map[entry.FilterResult]string{
	entry.FilterQuit:     "  Quitting...",
	entry.FilterReboot:   "  Rebooting...",
	entry.FilterShutdown: "  Shutting down...",
	entry.FilterSignOff:  "  Signing off...",
}

// CommandFilter intercepts the reserved command words at any prompt. Tokens
// match case-insensitively after trimming surrounding whitespace.
type CommandFilter struct {
	tokens  map[string]entry.FilterResult
	out     entry.Logger
	history entry.Logger
}

// NewCommandFilter creates the station's command filter. Messages go to out
// and to history. Two commands configured with the same token are an error.
func NewCommandFilter(cfg FilterConfig, out, history entry.Logger) (*CommandFilter, error) {
	if out == nil {
		out = entry.Discard
	}
	if history == nil {
		history = entry.Discard
	}
	f := &CommandFilter{
		tokens:  map[string]entry.FilterResult{},
		out:     out,
		history: history,
	}

	for _, c := range []struct {
		token, def string
		res        entry.FilterResult
	}{
		{cfg.Quit, "quit", entry.FilterQuit},
		{cfg.Reboot, "reboot", entry.FilterReboot},
		{cfg.Shutdown, "shutdown", entry.FilterShutdown},
		{cfg.SignOff, "signoff", entry.FilterSignOff},
	} {
		token := strings.ToLower(strings.TrimSpace(c.token))
		if token == "" {
			token = c.def
		}
		if prev, ok := f.tokens[token]; ok {
			return nil, fmt.Errorf("station commands: %q is configured for both %s and %s", token, prev, c.res)
		}
		f.tokens[token] = c.res
	}
	return f, nil
}

// FilterInput implements entry.Filter. The sign-off token is plain data
// where sign-off is not allowed.
func (f *CommandFilter) FilterInput(s entry.Session, line string, allowSignOff bool) entry.FilterResult {
	res, ok := f.tokens[strings.ToLower(strings.TrimSpace(line))]
	if !ok || (res == entry.FilterSignOff && !allowSignOff) {
		return entry.FilterNone
	}

	f.out.Debug(fmt.Sprintf("command %s from operator %q", res, s.OperatorID))
	msg := filterMessages[res]
	f.out.Print(msg)
	f.history.Print(msg)
	metrics.FilterInterceptionsTotal.WithLabelValues(res.String()).Inc()
	return res
}
