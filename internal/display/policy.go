// Package display decides which counts are worth showing and how a count is
// rendered against its denominator.
package display

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
)

// Policy is the display decision consulted by the table builders and the
// entry formatter.
type Policy interface {
	// Visible reports whether count is worth showing against total.
	Visible(count, total uint64) bool
	// Format renders count against total, e.g. "12.5%".
	Format(count, total uint64) string
}

// Decide combines Visible and Format: it returns the rendered count and
// true, or "" and false when the count is hidden.
func Decide(p Policy, count, total uint64) (string, bool) {
	if !p.Visible(count, total) {
		return "", false
	}
	return p.Format(count, total), true
}

// Mode selects how counts are rendered.
type Mode string

const (
	// ModePercent renders the share of the total, e.g. "4.76%".
	ModePercent Mode = "percent"
	// ModeCount renders the raw count with digit grouping, e.g. "1,234".
	ModeCount Mode = "count"
	// ModeBoth renders "1,234 (4.76%)".
	ModeBoth Mode = "both"
)

// ParseMode parses a mode name; the empty string selects ModePercent.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePercent:
		return ModePercent, nil
	case ModeCount:
		return ModeCount, nil
	case ModeBoth:
		return ModeBoth, nil
	default:
		return "", fmt.Errorf("unknown display mode %q (valid: percent, count, both)", s)
	}
}

const (
	// DefaultMinPercent hides entries under 1% of the denominator.
	DefaultMinPercent = 1.0

	percentDigits = 2
)

// ThresholdPolicy shows counts whose share of the total reaches MinPercent.
type ThresholdPolicy struct {
	MinPercent float64
	Mode       Mode
}

// Option configures a ThresholdPolicy.
type Option func(*ThresholdPolicy)

// WithMinPercent sets the visibility threshold in percent of the total.
func WithMinPercent(pct float64) Option {
	return func(p *ThresholdPolicy) {
		p.MinPercent = pct
	}
}

// WithMode sets the rendering mode.
func WithMode(m Mode) Option {
	return func(p *ThresholdPolicy) {
		p.Mode = m
	}
}

// NewThresholdPolicy creates a policy with a 1% threshold rendering percentages.
func NewThresholdPolicy(opts ...Option) *ThresholdPolicy {
	p := &ThresholdPolicy{
		MinPercent: DefaultMinPercent,
		Mode:       ModePercent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Visible implements Policy. Zero counts and zero totals are never visible.
func (p *ThresholdPolicy) Visible(count, total uint64) bool {
	if count == 0 || total == 0 {
		return false
	}
	return Percent(count, total) >= p.MinPercent
}

// Format implements Policy.
func (p *ThresholdPolicy) Format(count, total uint64) string {
	switch p.Mode {
	case ModeCount:
		return formatCount(count)
	case ModeBoth:
		return fmt.Sprintf("%s (%s)", formatCount(count), formatPercent(count, total))
	default:
		return formatPercent(count, total)
	}
}

// Percent returns count as a percentage of total, or 0 for a zero total.
func Percent(count, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// formatCount groups the digits of count. Counts beyond int64 go through
// big.Int so they never wrap negative.
func formatCount(count uint64) string {
	if count > math.MaxInt64 {
		return humanize.BigComma(new(big.Int).SetUint64(count))
	}
	return humanize.Comma(int64(count))
}

func formatPercent(count, total uint64) string {
	return humanize.FtoaWithDigits(Percent(count, total), percentDigits) + "%"
}

// ShowAll is a policy that hides nothing but zero counts.
type ShowAll struct {
	Mode Mode
}

// Visible implements Policy.
func (s ShowAll) Visible(count, _ uint64) bool {
	return count > 0
}

// Format implements Policy.
func (s ShowAll) Format(count, total uint64) string {
	return (&ThresholdPolicy{Mode: s.Mode}).Format(count, total)
}
