package extractor

import (
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
)

// Timing aggregates creation, due and completion times over every item.
func Timing(items []Item, loc *time.Location) domain.TimingData {
	if loc == nil {
		loc = time.UTC
	}
	data := domain.TimingData{
		CreationHours:   make(map[int]int),
		CreationDays:    make(map[int]int),
		DueTimes:        make(map[string]int),
		DueDays:         make(map[int]int),
		CompletionHours: make(map[int]int),
		SampleSize:      len(items),
	}

	var totalHours float64
	for _, it := range items {
		created := it.CreatedAt.In(loc)
		data.CreationHours[created.Hour()]++
		data.CreationDays[int(created.Weekday())]++

		if clock, day, ok := dueClock(it, loc); ok {
			data.DueTimes[clock]++
			data.DueDays[int(day)]++
		}

		if it.CompletedAt != nil {
			data.CompletionHours[it.CompletedAt.In(loc).Hour()]++
			if elapsed := it.CompletedAt.Sub(it.CreatedAt); elapsed >= 0 {
				totalHours += elapsed.Hours()
				data.CompletedSamples++
			}
		}
	}

	if data.CompletedSamples > 0 {
		data.AverageCompletionHours = round2(totalHours / float64(data.CompletedSamples))
	}
	return data
}
