package extractor

import (
	"sort"
	"strings"
	"time"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

const (
	uncategorized = "uncategorized"

	// A group tends to go overdue once half of at least two dated items slipped.
	overdueMinDated = 2
	overdueRate     = 0.5
)

type durationAcc struct {
	hours float64
	n     int
}

func (d *durationAcc) add(h float64) {
	d.hours += h
	d.n++
}

func (d durationAcc) avg() float64 {
	return round2(d.hours / float64(d.n))
}

type overdueAcc struct {
	dated   int
	overdue int
}

func (o overdueAcc) rate() float64 {
	return float64(o.overdue) / float64(o.dated)
}

func (o overdueAcc) tendsOverdue() bool {
	return o.dated >= overdueMinDated && o.rate() >= overdueRate
}

// Completion measures how fast and how reliably tasks get done, per category
// and per priority. asOf decides whether an open task is already overdue.
func Completion(items []Item, asOf time.Time, loc *time.Location) domain.CompletionData {
	if loc == nil {
		loc = time.UTC
	}

	totals := make(map[string]int)
	completed := make(map[string]int)
	byCategory := make(map[string]*durationAcc)
	byPriority := make(map[taskdomain.Priority]*durationAcc)
	overdueByCategory := make(map[string]*overdueAcc)
	overdueByPriority := make(map[taskdomain.Priority]*overdueAcc)
	samples := 0

	for _, it := range items {
		category := strings.TrimSpace(it.Category)
		if category == "" {
			category = uncategorized
		}
		totals[category]++
		if it.Completed {
			completed[category]++
		}

		if it.CompletedAt != nil {
			if elapsed := it.CompletedAt.Sub(it.CreatedAt); elapsed >= 0 {
				samples++
				accFor(byCategory, category).add(elapsed.Hours())
				if it.Priority != "" {
					accFor(byPriority, it.Priority).add(elapsed.Hours())
				}
			}
		}

		due, ok := deadline(it, loc)
		if !ok {
			continue
		}
		late := isOverdue(it, due, asOf)
		markOverdue(overdueFor(overdueByCategory, category), late)
		if it.Priority != "" {
			markOverdue(overdueFor(overdueByPriority, it.Priority), late)
		}
	}

	data := domain.CompletionData{
		AvgHoursByCategory:       make(map[string]float64, len(byCategory)),
		AvgHoursByPriority:       make(map[taskdomain.Priority]float64, len(byPriority)),
		CompletionRateByCategory: make(map[string]float64, len(totals)),
		OverdueRateByCategory:    make(map[string]float64, len(overdueByCategory)),
		OverdueCategories:        []string{},
		OverduePriorities:        []taskdomain.Priority{},
		CompletedSamples:         samples,
		SampleSize:               len(items),
	}
	for category, acc := range byCategory {
		data.AvgHoursByCategory[category] = acc.avg()
	}
	for priority, acc := range byPriority {
		data.AvgHoursByPriority[priority] = acc.avg()
	}
	for category, total := range totals {
		data.CompletionRateByCategory[category] = round2(float64(completed[category]) / float64(total))
	}
	for category, acc := range overdueByCategory {
		data.OverdueRateByCategory[category] = round2(acc.rate())
		if acc.tendsOverdue() {
			data.OverdueCategories = append(data.OverdueCategories, category)
		}
	}
	for priority, acc := range overdueByPriority {
		if acc.tendsOverdue() {
			data.OverduePriorities = append(data.OverduePriorities, priority)
		}
	}
	sort.Strings(data.OverdueCategories)
	sort.Slice(data.OverduePriorities, func(i, j int) bool {
		return data.OverduePriorities[i].Rank() > data.OverduePriorities[j].Rank()
	})
	return data
}

// isOverdue: finished after the deadline, or still open past it.
func isOverdue(it Item, due, asOf time.Time) bool {
	if it.CompletedAt != nil {
		return it.CompletedAt.After(due)
	}
	if it.Completed {
		return false
	}
	return asOf.After(due)
}

func markOverdue(acc *overdueAcc, late bool) {
	acc.dated++
	if late {
		acc.overdue++
	}
}

func accFor[K comparable](m map[K]*durationAcc, key K) *durationAcc {
	if m[key] == nil {
		m[key] = &durationAcc{}
	}
	return m[key]
}

func overdueFor[K comparable](m map[K]*overdueAcc, key K) *overdueAcc {
	if m[key] == nil {
		m[key] = &overdueAcc{}
	}
	return m[key]
}
