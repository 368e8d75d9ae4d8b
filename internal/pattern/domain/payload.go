package domain

import (
	"encoding/json"
	"fmt"

	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

// Payload is the type-specific body of a pattern.
type Payload interface {
	Type() PatternType
	// Richness reports in [0,1] how much evidence backs the payload.
	Richness() float64
}

// fullSampleSize is the sample size at which evidence counts as saturated.
const fullSampleSize = 20

func sampleFactor(n int) float64 {
	if n <= 0 {
		return 0
	}
	if n >= fullSampleSize {
		return 1
	}
	return float64(n) / fullSampleSize
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TimingData aggregates when a user creates, schedules and finishes things.
// Hours are 0-23, days are 0 (Sunday) to 6.
type TimingData struct {
	CreationHours          map[int]int    `json:"creationHours"`
	CreationDays           map[int]int    `json:"creationDays"`
	DueTimes               map[string]int `json:"dueTimes"`
	DueDays                map[int]int    `json:"dueDays"`
	CompletionHours        map[int]int    `json:"completionHours"`
	AverageCompletionHours float64        `json:"averageCompletionHours"`
	CompletedSamples       int            `json:"completedSamples"`
	SampleSize             int            `json:"sampleSize"`
}

func (TimingData) Type() PatternType { return PatternTypeTiming }

// Richness favours due observations spread over many weekdays.
func (d TimingData) Richness() float64 {
	return clampUnit(0.5*sampleFactor(d.SampleSize) + 0.5*float64(len(d.DueDays))/7)
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type CategoryData struct {
	Categories         []CategoryCount                `json:"categories"`
	CategoryTags       map[string][]string            `json:"categoryTags"`
	CategoryPriorities map[string]taskdomain.Priority `json:"categoryPriorities"`
	SampleSize         int                            `json:"sampleSize"`
}

func (CategoryData) Type() PatternType { return PatternTypeCategory }

func (d CategoryData) Richness() float64 {
	return sampleFactor(d.SampleSize)
}

type PriorityData struct {
	DefaultPriority    taskdomain.Priority            `json:"defaultPriority"`
	Distribution       map[taskdomain.Priority]int    `json:"distribution"`
	CategoryPriorities map[string]taskdomain.Priority `json:"categoryPriorities"`
	SampleSize         int                            `json:"sampleSize"`
}

func (PriorityData) Type() PatternType { return PatternTypePriority }

// Richness blends sample size with how dominant the default priority is.
func (d PriorityData) Richness() float64 {
	if d.SampleSize == 0 {
		return 0
	}
	dominance := float64(d.Distribution[d.DefaultPriority]) / float64(d.SampleSize)
	return clampUnit(0.5*sampleFactor(d.SampleSize) + 0.5*dominance)
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type TagCombination struct {
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

type TagData struct {
	Tags          []TagCount                     `json:"tags"`
	Combinations  []TagCombination               `json:"combinations"`
	TagCategories map[string][]string            `json:"tagCategories"`
	TagPriorities map[string]taskdomain.Priority `json:"tagPriorities"`
	SampleSize    int                            `json:"sampleSize"`
}

func (TagData) Type() PatternType { return PatternTypeTags }

func (d TagData) Richness() float64 {
	return sampleFactor(d.SampleSize)
}

type CompletionData struct {
	AvgHoursByCategory       map[string]float64              `json:"avgHoursByCategory"`
	AvgHoursByPriority       map[taskdomain.Priority]float64 `json:"avgHoursByPriority"`
	CompletionRateByCategory map[string]float64              `json:"completionRateByCategory"`
	OverdueRateByCategory    map[string]float64              `json:"overdueRateByCategory"`
	OverdueCategories        []string                        `json:"overdueCategories"`
	OverduePriorities        []taskdomain.Priority           `json:"overduePriorities"`
	CompletedSamples         int                             `json:"completedSamples"`
	SampleSize               int                             `json:"sampleSize"`
}

func (CompletionData) Type() PatternType { return PatternTypeCompletion }

func (d CompletionData) Richness() float64 {
	completed := float64(d.CompletedSamples) / 10
	if completed > 1 {
		completed = 1
	}
	return clampUnit(0.5*sampleFactor(d.SampleSize) + 0.5*completed)
}

type RecurringReminder struct {
	Title      string `json:"title"`
	Frequency  string `json:"frequency"`
	CommonTime string `json:"commonTime"`
	CommonDay  int    `json:"commonDay"`
}

type RecurringData struct {
	Reminders       []RecurringReminder `json:"reminders"`
	FrequencyCounts map[string]int      `json:"frequencyCounts"`
	SampleSize      int                 `json:"sampleSize"`
}

func (RecurringData) Type() PatternType { return PatternTypeRecurring }

func (d RecurringData) Richness() float64 {
	return sampleFactor(d.SampleSize)
}

// DecodePayload parses stored pattern data for the given type.
func DecodePayload(t PatternType, raw []byte) (Payload, error) {
	var (
		payload Payload
		err     error
	)
	switch t {
	case PatternTypeTiming:
		var d TimingData
		err = json.Unmarshal(raw, &d)
		payload = d
	case PatternTypeCategory:
		var d CategoryData
		err = json.Unmarshal(raw, &d)
		payload = d
	case PatternTypePriority:
		var d PriorityData
		err = json.Unmarshal(raw, &d)
		payload = d
	case PatternTypeTags:
		var d TagData
		err = json.Unmarshal(raw, &d)
		payload = d
	case PatternTypeCompletion:
		var d CompletionData
		err = json.Unmarshal(raw, &d)
		payload = d
	case PatternTypeRecurring:
		var d RecurringData
		err = json.Unmarshal(raw, &d)
		payload = d
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPatternType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s pattern data: %w", t, err)
	}
	return payload, nil
}
