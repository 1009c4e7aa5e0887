package valueobjects

import "fmt"

type EventType string

const (
	EventSubmission           EventType = "SUBMISSION"
	EventAcceptance           EventType = "ACCEPTANCE"
	EventRejection            EventType = "REJECTION"
	EventReviewerAssigned     EventType = "REVIEWER_ASSIGNED"
	EventReviewSubmitted      EventType = "REVIEW_SUBMITTED"
	EventCorrectionsSubmitted EventType = "CORRECTIONS_SUBMITTED"
	EventCopyeditingStarted   EventType = "COPYEDITING_STARTED"
	EventPublished            EventType = "PUBLISHED"
)

// Metadata keys carried by events.
const (
	MetaReviewerID         = "reviewer_id"
	MetaReviewerName       = "reviewer_name"
	MetaReviewerEmail      = "reviewer_email"
	MetaComments           = "comments"
	MetaRecommendation     = "recommendation"
	MetaAuthorID           = "author_id"
	MetaChangesDescription = "changes_description"
	MetaAssignmentID       = "assignment_id"
	MetaPreviousStatus     = "previous_status"
)

var eventTypeLabels = map[EventType]string{
	EventSubmission:           "Manuscript Submitted",
	EventAcceptance:           "Manuscript Accepted",
	EventRejection:            "Manuscript Rejected",
	EventReviewerAssigned:     "Reviewer Assigned",
	EventReviewSubmitted:      "Review Submitted",
	EventCorrectionsSubmitted: "Corrections Submitted",
	EventCopyeditingStarted:   "Copyediting Started",
	EventPublished:            "Manuscript Published",
}

var requiredMetadata = map[EventType][]string{
	EventReviewerAssigned:     {MetaReviewerID, MetaReviewerName, MetaReviewerEmail},
	EventReviewSubmitted:      {MetaReviewerID, MetaComments, MetaRecommendation},
	EventCorrectionsSubmitted: {MetaAuthorID, MetaChangesDescription},
}

var statusEvents = map[ManuscriptStatus]EventType{
	StatusAccepted:    EventAcceptance,
	StatusRejected:    EventRejection,
	StatusCopyediting: EventCopyeditingStarted,
	StatusPublished:   EventPublished,
}

func NewEventType(s string) (EventType, error) {
	et := EventType(s)
	if !et.IsValid() {
		return "", fmt.Errorf("invalid event type: %s", s)
	}
	return et, nil
}

func (e EventType) String() string {
	return string(e)
}

func (e EventType) IsValid() bool {
	_, ok := eventTypeLabels[e]
	return ok
}

// Label is the human readable name shown in provenance listings.
func (e EventType) Label() string {
	return eventTypeLabels[e]
}

// RequiredMetadataKeys lists the keys an event of this type must carry.
func (e EventType) RequiredMetadataKeys() []string {
	return requiredMetadata[e]
}

// EventForStatus maps an editorial status change onto the event it records.
func EventForStatus(s ManuscriptStatus) (EventType, bool) {
	et, ok := statusEvents[s]
	return et, ok
}
