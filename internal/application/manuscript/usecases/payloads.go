package usecases

import (
	"time"

	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/biztime"
)

// Ledger payloads. Every payload names its action and carries the time it
// was built, so two identical requests still produce distinct transactions.

func authorPayloads(authors []*manuscript.Author) []map[string]any {
	out := make([]map[string]any, 0, len(authors))
	for _, a := range authors {
		out = append(out, map[string]any{
			"first_name":  a.FirstName(),
			"last_name":   a.LastName(),
			"email":       a.Email(),
			"affiliation": a.Affiliation(),
			"is_primary":  a.IsPrimary(),
		})
	}
	return out
}

func submissionPayload(m *manuscript.Manuscript) map[string]any {
	return map[string]any{
		"action":       vo.EventSubmission.String(),
		"title":        m.Title(),
		"abstract":     m.Abstract(),
		"keywords":     m.Keywords(),
		"journal_id":   m.JournalID(),
		"submitted_by": m.SubmittedBy(),
		"authors":      authorPayloads(m.Authors()),
		"status":       m.Status().String(),
		"timestamp":    biztime.FormatMetadataTime(m.SubmittedAt()),
	}
}

// snapshotPayload is the full manuscript as it will look once target is
// applied.
func snapshotPayload(action vo.EventType, m *manuscript.Manuscript, target vo.ManuscriptStatus, actorID string) map[string]any {
	return map[string]any{
		"action":        action.String(),
		"manuscript_id": m.ID(),
		"title":         m.Title(),
		"abstract":      m.Abstract(),
		"keywords":      m.Keywords(),
		"journal_id":    m.JournalID(),
		"submitted_by":  m.SubmittedBy(),
		"authors":       authorPayloads(m.Authors()),
		"reviewer_ids":  m.ReviewerIDs(),
		"status":        target.String(),
		"actor_id":      actorID,
		"timestamp":     biztime.FormatMetadataTime(biztime.NowUTC()),
	}
}

func assignmentPayload(m *manuscript.Manuscript, reviewer *manuscript.Profile, actorID string, dueDate *time.Time) map[string]any {
	p := map[string]any{
		"action":        vo.EventReviewerAssigned.String(),
		"manuscript_id": m.ID(),
		"reviewer_id":   reviewer.ID,
		"assigned_by":   actorID,
		"timestamp":     biztime.FormatMetadataTime(biztime.NowUTC()),
	}
	if dueDate != nil {
		p["due_date"] = biztime.FormatMetadataTime(*dueDate)
	}
	return p
}

func reviewPayload(manuscriptID uint, reviewerID, comments string, rec vo.Recommendation) map[string]any {
	return map[string]any{
		"action":         vo.EventReviewSubmitted.String(),
		"manuscript_id":  manuscriptID,
		"reviewer_id":    reviewerID,
		"comments":       comments,
		"recommendation": rec.String(),
		"timestamp":      biztime.FormatMetadataTime(biztime.NowUTC()),
	}
}

func correctionsPayload(manuscriptID uint, authorID, changes string) map[string]any {
	return map[string]any{
		"action":              vo.EventCorrectionsSubmitted.String(),
		"manuscript_id":       manuscriptID,
		"author_id":           authorID,
		"changes_description": changes,
		"timestamp":           biztime.FormatMetadataTime(biztime.NowUTC()),
	}
}
