package domain

import (
	"time"

	"gorm.io/datatypes"
)

// PatternType names one learned dimension of a user's activity
type PatternType string

const (
	PatternTypeTiming     PatternType = "timing"
	PatternTypeCategory   PatternType = "category"
	PatternTypePriority   PatternType = "priority"
	PatternTypeTags       PatternType = "tags"
	PatternTypeCompletion PatternType = "completion"
	PatternTypeRecurring  PatternType = "recurring"
)

// AllPatternTypes lists every type in canonical reporting order.
var AllPatternTypes = []PatternType{
	PatternTypeTiming,
	PatternTypeCategory,
	PatternTypePriority,
	PatternTypeTags,
	PatternTypeCompletion,
	PatternTypeRecurring,
}

// ParsePatternType validates a pattern type coming from the outside.
func ParsePatternType(s string) (PatternType, error) {
	for _, t := range AllPatternTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidPatternType
}

// Order returns the canonical position of t, or len(AllPatternTypes) when unknown.
func (t PatternType) Order() int {
	for i, known := range AllPatternTypes {
		if known == t {
			return i
		}
	}
	return len(AllPatternTypes)
}

const (
	InitialFrequency  = 1
	InitialConfidence = 10
)

// Pattern is one learned, scored observation about a user's habits.
// There is at most one row per (user_id, pattern_type).
type Pattern struct {
	ID              string         `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          string         `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_patterns_user_type"`
	PatternType     PatternType    `json:"pattern_type" gorm:"not null;uniqueIndex:idx_user_patterns_user_type"`
	PatternData     datatypes.JSON `json:"pattern_data" gorm:"type:jsonb;not null"`
	Frequency       int            `json:"frequency" gorm:"not null;default:1"`
	ConfidenceScore int            `json:"confidence_score" gorm:"not null;default:10"`
	FirstSeenAt     time.Time      `json:"first_seen_at"`
	LastSeenAt      time.Time      `json:"last_seen_at"`
	Metadata        datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Pattern) TableName() string {
	return "user_patterns"
}
