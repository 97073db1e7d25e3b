package linkverify

import (
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Event describes one link integrity finding. It is published for downstream
// consumers such as issue trackers or dashboards.
type Event struct {
	BatchID   string    `json:"batch_id"`
	Page      string    `json:"page,omitempty"`
	Source    string    `json:"source"`
	Line      int       `json:"line,omitempty"`
	Anchor    string    `json:"anchor,omitempty"`
	Href      string    `json:"href,omitempty"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// EventFromError converts a link integrity error into an Event. It reports
// false for errors of any other category.
func EventFromError(batchID string, err error) (*Event, bool) {
	ce, ok := errors.AsClassified(err)
	if !ok || ce.Category() != errors.CategoryLinkIntegrity {
		return nil, false
	}
	ctx := ce.Context()
	ev := &Event{
		BatchID:  batchID,
		Message:  ce.Message(),
		Severity: string(ce.Severity()),
	}
	ev.Page, _ = ctx.GetString(KeyPage)
	ev.Source, _ = ctx.GetString(errors.KeyFile)
	ev.Line, _ = ctx.GetInt(errors.KeyLine)
	ev.Anchor, _ = ctx.GetString(errors.KeyAnchor)
	ev.Href, _ = ctx.GetString(KeyHref)
	return ev, true
}

// GroupByPage converts errs to events keyed by page, or by source when the
// finding is not tied to a page.
func GroupByPage(batchID string, errs []error) map[string][]*Event {
	out := make(map[string][]*Event)
	for _, err := range errs {
		ev, ok := EventFromError(batchID, err)
		if !ok {
			continue
		}
		key := ev.Page
		if key == "" {
			key = ev.Source
		}
		out[key] = append(out[key], ev)
	}
	return out
}
