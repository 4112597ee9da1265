package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// EditHalfLife is the time after which a past edit counts half as much
// toward EditFrequency.
const EditHalfLife = 30 * 24 * time.Hour

// Metrics holds usage counters for a single category. A row is created
// alongside its category and removed with it.
type Metrics struct {
	CategoryID    uuid.UUID  `json:"category_id"`
	NoteCount     int        `json:"note_count"`
	EditFrequency float64    `json:"edit_frequency"`
	LastEdited    *time.Time `json:"last_edited"`
}

// RecordEdit returns m updated for one note mutation at now. The existing
// frequency decays by the time since the last edit before the new edit
// is added, so EditFrequency approximates recent edits rather than a
// lifetime total. noteDelta adjusts NoteCount, which never drops below 0.
func (m Metrics) RecordEdit(now time.Time, noteDelta int) Metrics {
	if m.LastEdited != nil {
		if elapsed := now.Sub(*m.LastEdited); elapsed > 0 {
			m.EditFrequency *= math.Pow(0.5, float64(elapsed)/float64(EditHalfLife))
		}
	}
	m.EditFrequency++
	m.NoteCount = max(0, m.NoteCount+noteDelta)
	m.LastEdited = &now
	return m
}
