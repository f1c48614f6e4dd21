// Package label holds pairwise coreference judgments between content ids.
package label

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/fcdex/internal/domain"
)

// CorefValue is a human coreference judgment.
type CorefValue int

const (
	// Negative means the two items are known not to be coreferent.
	Negative CorefValue = -1
	// Unknown means the annotator could not decide.
	Unknown CorefValue = 0
	// Positive means the two items are coreferent.
	Positive CorefValue = 1
)

// ParseCorefValue parses "-1", "0" or "1".
func ParseCorefValue(s string) (CorefValue, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Unknown, fmt.Errorf("%w: %q", domain.ErrInvalidCorefValue, s)
	}
	v := CorefValue(n)
	if !v.Valid() {
		return Unknown, fmt.Errorf("%w: %d", domain.ErrInvalidCorefValue, n)
	}
	return v, nil
}

// Valid reports whether the value is one of -1, 0, 1.
func (v CorefValue) Valid() bool {
	return v >= Negative && v <= Positive
}

// Label is a single coreference judgment between two content ids.
// Labels are stored normalized: CID1 <= CID2, subtopics swapped alongside.
type Label struct {
	CID1        string     `json:"content_id1"`
	CID2        string     `json:"content_id2"`
	AnnotatorID string     `json:"annotator_id"`
	Value       CorefValue `json:"value"`
	SubtopicID1 string     `json:"subtopic_id1,omitempty"`
	SubtopicID2 string     `json:"subtopic_id2,omitempty"`
	EpochTicks  int64      `json:"epoch_ticks"`
}

// Normalize returns a copy with the content ids in lexicographic order.
func (l Label) Normalize() Label {
	if l.CID1 > l.CID2 {
		l.CID1, l.CID2 = l.CID2, l.CID1
		l.SubtopicID1, l.SubtopicID2 = l.SubtopicID2, l.SubtopicID1
	}
	return l
}

// Connects reports whether the label touches the given content id.
func (l Label) Connects(cid string) bool {
	return l.CID1 == cid || l.CID2 == cid
}

// Other returns the content id on the opposite side of cid, or "" when the
// label does not touch cid.
func (l Label) Other(cid string) string {
	switch cid {
	case l.CID1:
		return l.CID2
	case l.CID2:
		return l.CID1
	}
	return ""
}
