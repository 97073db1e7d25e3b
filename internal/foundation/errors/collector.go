package errors

import (
	stderrors "errors"
	"slices"
	"strings"
	"sync"
)

// Collector accumulates errors from concurrently built pages.
//
// Nothing added to a Collector is dropped; a batch reports its contents once all
// pages have finished.
type Collector struct {
	mu   sync.Mutex
	errs []error
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records err. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// AddAll records every non-nil error in errs.
func (c *Collector) AddAll(errs []error) {
	for _, err := range errs {
		c.Add(err)
	}
}

// Len returns the number of collected errors.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Errors returns the collected errors ordered by location, then message.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	out := slices.Clone(c.errs)
	c.mu.Unlock()

	slices.SortStableFunc(out, func(a, b error) int {
		if d := strings.Compare(locationOf(a), locationOf(b)); d != 0 {
			return d
		}
		return strings.Compare(a.Error(), b.Error())
	})
	return out
}

// ByCategory returns the collected errors of one category.
func (c *Collector) ByCategory(category ErrorCategory) []error {
	var out []error
	for _, err := range c.Errors() {
		if HasCategory(err, category) {
			out = append(out, err)
		}
	}
	return out
}

// HasFatal reports whether any collected error is fatal.
func (c *Collector) HasFatal() bool {
	for _, err := range c.Errors() {
		if GetSeverity(err) == SeverityFatal {
			return true
		}
	}
	return false
}

// Err joins the collected errors, or returns nil when there are none.
func (c *Collector) Err() error {
	return stderrors.Join(c.Errors()...)
}

func locationOf(err error) string {
	if classified, ok := AsClassified(err); ok {
		file, _ := classified.Context().GetString(KeyFile)
		line, _ := classified.Context().GetInt(KeyLine)
		// Zero-padded so lexical order matches numeric order within a file.
		return file + "\x00" + padLine(line)
	}
	return "\xff"
}

func padLine(line int) string {
	const width = 8
	digits := []byte("00000000")
	for i := width - 1; i >= 0 && line > 0; i-- {
		digits[i] = byte('0' + line%10)
		line /= 10
	}
	return string(digits)
}
