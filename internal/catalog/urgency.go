package catalog

import "time"

// Tier is the display urgency of an exam.
type Tier string

const (
	TierUrgent Tier = "urgent"
	TierSoon   Tier = "soon"
	TierLater  Tier = "later"
)

// UrgencyTier classifies an exam month against the current month. Months
// are compared within one calendar year, so any exam month earlier than now
// counts as urgent whether it has passed or falls in the next year.
func UrgencyTier(exam, now time.Month) Tier {
	switch {
	case exam <= now+2:
		return TierUrgent
	case exam <= now+5:
		return TierSoon
	default:
		return TierLater
	}
}

// ExamStatus is an exam with its urgency relative to a point in time.
type ExamStatus struct {
	Exam
	Month time.Month `json:"month"`
	Tier  Tier       `json:"tier"`
}

// ExamCalendar returns the exams in declared order with their urgency tier
// as of now.
func (c *Catalog) ExamCalendar(now time.Time) []ExamStatus {
	out := make([]ExamStatus, 0, len(c.exams))
	for _, e := range c.exams {
		m, _ := e.Month() // checked at load
		out = append(out, ExamStatus{Exam: e, Month: m, Tier: UrgencyTier(m, now.Month())})
	}
	return out
}
