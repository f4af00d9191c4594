package domain

import "strings"

// Status is the lifecycle stage of an application.
type Status string

const (
	StatusLiked              Status = "liked"
	StatusApplied            Status = "applied"
	StatusPending            Status = "pending"
	StatusInterviewRequested Status = "interview_requested"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusInterviewCompleted Status = "interview_completed"
	StatusOfferReceived      Status = "offer_received"
	StatusOfferAccepted      Status = "offer_accepted"
	StatusHired              Status = "hired"
	StatusRejected           Status = "rejected"
)

var allStatuses = []Status{
	StatusLiked,
	StatusApplied,
	StatusPending,
	StatusInterviewRequested,
	StatusInterviewScheduled,
	StatusInterviewCompleted,
	StatusOfferReceived,
	StatusOfferAccepted,
	StatusHired,
	StatusRejected,
}

// ClassifierLabels are the statuses an inbound email can be labelled with.
var ClassifierLabels = []Status{
	StatusPending,
	StatusRejected,
	StatusInterviewRequested,
	StatusInterviewScheduled,
	StatusInterviewCompleted,
	StatusOfferReceived,
	StatusOfferAccepted,
	StatusHired,
}

// InboxCountLabels are the buckets the inbox reports counts for.
var InboxCountLabels = []Status{
	StatusInterviewRequested,
	StatusInterviewScheduled,
	StatusOfferReceived,
	StatusRejected,
}

// AllStatuses returns a copy of the closed status set.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s Status) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusRejected
}

// Positive reports whether the status reflects an employer showing interest.
func (s Status) Positive() bool {
	switch s {
	case StatusInterviewRequested, StatusInterviewScheduled, StatusInterviewCompleted,
		StatusOfferReceived, StatusOfferAccepted, StatusHired:
		return true
	}
	return false
}

// NormalizeLabel trims and lowercases a free-form status label.
// The result may still fall outside the closed set.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.Trim(label, "\"'`.")
	return strings.ToLower(strings.TrimSpace(label))
}

// ParseStatus returns the status for a label if it belongs to the closed set.
func ParseStatus(label string) (Status, bool) {
	s := Status(NormalizeLabel(label))
	return s, s.Valid()
}
