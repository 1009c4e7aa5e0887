package valueobjects

type AnchorStatus string

const (
	AnchorPending   AnchorStatus = "pending"
	AnchorSubmitted AnchorStatus = "submitted"
	AnchorConfirmed AnchorStatus = "confirmed"
	AnchorFailed    AnchorStatus = "failed"
	AnchorTimedOut  AnchorStatus = "timed_out"
	AnchorOrphaned  AnchorStatus = "orphaned"
)

var anchorTransitions = map[AnchorStatus][]AnchorStatus{
	AnchorPending:   {AnchorSubmitted, AnchorFailed, AnchorTimedOut},
	AnchorSubmitted: {AnchorConfirmed, AnchorFailed, AnchorTimedOut},
	AnchorTimedOut:  {AnchorConfirmed, AnchorFailed, AnchorTimedOut, AnchorOrphaned, AnchorSubmitted},
	AnchorFailed:    {AnchorPending, AnchorSubmitted},
	AnchorConfirmed: {AnchorOrphaned},
	AnchorOrphaned:  {},
}

func (s AnchorStatus) String() string {
	return string(s)
}

func (s AnchorStatus) IsValid() bool {
	_, ok := anchorTransitions[s]
	return ok
}

func (s AnchorStatus) CanTransitionTo(target AnchorStatus) bool {
	for _, allowed := range anchorTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsFinal reports whether the reconciler has nothing left to do.
func (s AnchorStatus) IsFinal() bool {
	return s == AnchorConfirmed || s == AnchorOrphaned
}

// AwaitsReceipt reports whether a transaction was sent and its outcome is
// still unknown.
func (s AnchorStatus) AwaitsReceipt() bool {
	return s == AnchorSubmitted || s == AnchorTimedOut
}
