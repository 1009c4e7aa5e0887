package valueobjects

import "fmt"

// Recommendation is the reviewer's verdict on a manuscript.
type Recommendation string

const (
	RecommendAccept        Recommendation = "accept"
	RecommendMinorRevision Recommendation = "minor_revision"
	RecommendMajorRevision Recommendation = "major_revision"
	RecommendReject        Recommendation = "reject"
)

func NewRecommendation(s string) (Recommendation, error) {
	r := Recommendation(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid recommendation: %s", s)
	}
	return r, nil
}

func (r Recommendation) String() string {
	return string(r)
}

func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendAccept, RecommendMinorRevision, RecommendMajorRevision, RecommendReject:
		return true
	}
	return false
}
