package build

import (
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Summary renders the one-line batch summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("pages=%d rendered=%d unchanged=%d failed=%d assets=%d errors=%d warnings=%d duration=%s outcome=%s",
		r.Pages, r.Rendered, r.Unchanged, r.Failed, r.Assets,
		len(r.Errors)-len(r.Warnings()), len(r.Warnings()),
		r.Duration.Truncate(time.Millisecond), r.Status)
}

// Report writes every collected error, one per line and ordered by location,
// followed by the summary. It is the single place a batch reports its errors.
func Report(w io.Writer, r *Result, verbose bool) error {
	if r == nil {
		return nil
	}
	adapter := errors.NewCLIErrorAdapter(verbose, nil)
	for _, err := range r.Errors {
		if _, werr := fmt.Fprintln(w, adapter.FormatError(err)); werr != nil {
			return werr
		}
	}
	_, err := fmt.Fprintln(w, r.Summary())
	return err
}
