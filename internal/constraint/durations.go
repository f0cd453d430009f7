package constraint

import (
	"time"

	"github.com/hako/durafmt"
)

// Well-known option ids for the non-numeric menu entries.
const (
	IndefiniteOptionID = "indefinite"
	CustomOptionID     = "custom"
)

// DurationOption is one entry in the fixed access-duration menu. Seconds is
// zero for the non-numeric entries (indefinite, custom).
type DurationOption struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Seconds int64  `json:"seconds,omitempty"`
}

// defaultOptions is the fixed menu offered when no constraint applies.
// Ordering is part of the contract: numeric options ascend, custom is last.
var defaultOptions = []DurationOption{
	{ID: "43200", Label: "12 hours", Seconds: 43200},
	{ID: "432000", Label: "5 days", Seconds: 432000},
	{ID: "1209600", Label: "2 weeks", Seconds: 1209600},
	{ID: "2592000", Label: "30 days", Seconds: 2592000},
	{ID: "7776000", Label: "90 days", Seconds: 7776000},
	{ID: IndefiniteOptionID, Label: "Indefinite"},
	{ID: CustomOptionID, Label: "Custom end date"},
}

// DefaultDurations returns a copy of the fixed duration menu.
func DefaultDurations() []DurationOption {
	out := make([]DurationOption, len(defaultOptions))
	copy(out, defaultOptions)
	return out
}

// FilterDurations filters the duration menu down to choices permitted under
// the given limit and returns the id to preselect alongside the surviving
// options.
//
// A nil limit leaves the menu unchanged with the indefinite default. With a
// limit, only numeric options not exceeding the limit survive, in their
// original order, and a custom option is appended unconditionally (the custom
// end date is bounded by now + limit at submission time). The preselected id
// is the largest surviving numeric option, falling back to custom when none
// survive, and is always present in the returned list.
func FilterDurations(limit *int64, options []DurationOption) (string, []DurationOption) {
	if limit == nil {
		return IndefiniteOptionID, options
	}

	out := make([]DurationOption, 0, len(options))
	custom := DurationOption{ID: CustomOptionID, Label: "Custom end date"}
	defaultID := CustomOptionID
	var best int64 = -1

	for _, opt := range options {
		if opt.ID == CustomOptionID {
			custom = opt
			continue
		}
		if opt.Seconds <= 0 || opt.Seconds > *limit {
			continue
		}
		out = append(out, opt)
		if opt.Seconds > best {
			best = opt.Seconds
			defaultID = opt.ID
		}
	}

	out = append(out, custom)
	return defaultID, out
}

// LimitMessage renders a human-readable note for a resolved limit, e.g.
// "access limited to 5 days". An empty string means no limit applies.
func LimitMessage(limit *int64) string {
	if limit == nil {
		return ""
	}
	if *limit == 0 {
		return "access limited to 0 seconds"
	}
	d := durafmt.Parse(time.Duration(*limit) * time.Second).LimitFirstN(1)
	return "access limited to " + d.String()
}
