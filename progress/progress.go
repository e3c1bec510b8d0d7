// Package progress translates raw refresh updates into display-ready
// reports for UI sinks.
package progress

import "math"

// Update is a raw progress event from a refresh run.
type Update struct {
	Message     string
	CurrentStep int
	TotalSteps  int
	// Percent is an explicit completion percentage when the producer has
	// one; zero, negative, or NaN means "derive it from the steps".
	Percent  float64
	Canceled bool
}

// Report is a display-ready progress snapshot. Consumers apply
// last-write-wins, so delivery order does not matter.
type Report struct {
	Message     string
	CurrentStep int
	TotalSteps  int
	Percent     float64
	Canceled    bool
}

// Final reports whether this snapshot terminates the stream.
func (r Report) Final() bool {
	if r.Canceled {
		return true
	}
	if r.TotalSteps > 0 && r.CurrentStep >= r.TotalSteps {
		return true
	}
	return r.Percent >= 100
}

// Mapper converts updates to reports, suppressing snapshots identical to the
// last one emitted so the UI is not churned for nothing.
type Mapper struct {
	last    Report
	hasLast bool
}

// Map converts an update. The second return value is false when the report
// matches the previously emitted one and should be skipped.
func (m *Mapper) Map(u Update) (Report, bool) {
	r := Report{
		Message:     u.Message,
		CurrentStep: u.CurrentStep,
		TotalSteps:  u.TotalSteps,
		Percent:     derivePercent(u),
		Canceled:    u.Canceled,
	}

	if m.hasLast && r == m.last {
		return r, false
	}
	m.last = r
	m.hasLast = true
	return r, true
}

// Last returns the most recently emitted report.
func (m *Mapper) Last() (Report, bool) {
	return m.last, m.hasLast
}

// derivePercent prefers an explicit usable percent, falls back to the step
// ratio, clamps to [0,100], and maps NaN to 0.
func derivePercent(u Update) float64 {
	p := u.Percent
	if math.IsNaN(p) || p <= 0 {
		if u.TotalSteps > 0 {
			p = float64(u.CurrentStep) / float64(u.TotalSteps) * 100
		} else {
			p = 0
		}
	}
	if math.IsNaN(p) {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
