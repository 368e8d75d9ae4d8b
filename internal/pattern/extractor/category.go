package extractor

import (
	"strings"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
	taskdomain "github.com/ngandimoun/saydo-ai-sub006/internal/task/domain"
)

// Category ranks categories and records the tags and usual priority seen with each.
// Items without a category are ignored.
func Category(items []Item) domain.CategoryData {
	counts := newCounter()
	tags := make(stringSet)
	priorities := make(priorityTally)
	sample := 0

	for _, it := range items {
		category := strings.TrimSpace(it.Category)
		if category == "" {
			continue
		}
		sample++
		counts.add(category)
		for _, tag := range uniqueTags(it.Tags) {
			tags.add(category, tag)
		}
		priorities.add(category, it.Priority)
	}

	ranked := counts.ranked()
	categories := make([]domain.CategoryCount, 0, len(ranked))
	for _, e := range ranked {
		categories = append(categories, domain.CategoryCount{Category: e.key, Count: e.count})
	}

	return domain.CategoryData{
		Categories:         categories,
		CategoryTags:       tags.sorted(),
		CategoryPriorities: priorities.mostFrequent(),
		SampleSize:         sample,
	}
}

// Priority finds the user's default priority and the usual priority per category.
// Items without a priority are ignored.
func Priority(items []Item) domain.PriorityData {
	distribution := make(map[taskdomain.Priority]int)
	perCategory := make(priorityTally)
	sample := 0

	for _, it := range items {
		if it.Priority == "" {
			continue
		}
		sample++
		distribution[it.Priority]++
		if category := strings.TrimSpace(it.Category); category != "" {
			perCategory.add(category, it.Priority)
		}
	}

	return domain.PriorityData{
		DefaultPriority:    mostFrequentPriority(distribution),
		Distribution:       distribution,
		CategoryPriorities: perCategory.mostFrequent(),
		SampleSize:         sample,
	}
}
