package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ngandimoun/saydo-ai-sub006/internal/pattern/domain"
)

// Tags ranks tags and tag combinations and maps each tag to the categories
// and usual priority it appears with.
func Tags(items []Item) domain.TagData {
	counts := newCounter()
	combos := newCounter()
	comboSets := make(map[string][]string)
	categories := make(stringSet)
	priorities := make(priorityTally)
	sample := 0

	for _, it := range items {
		tags := uniqueTags(it.Tags)
		if len(tags) == 0 {
			continue
		}
		sample++
		category := strings.TrimSpace(it.Category)
		for _, tag := range tags {
			counts.add(tag)
			if category != "" {
				categories.add(tag, category)
			}
			priorities.add(tag, it.Priority)
		}
		if len(tags) > 1 {
			set := append([]string(nil), tags...)
			sort.Strings(set)
			// %q quotes every tag, so distinct sets never share a key.
			key := fmt.Sprintf("%q", set)
			if _, seen := comboSets[key]; !seen {
				comboSets[key] = set
			}
			combos.add(key)
		}
	}

	rankedTags := counts.ranked()
	tagCounts := make([]domain.TagCount, 0, len(rankedTags))
	for _, e := range rankedTags {
		tagCounts = append(tagCounts, domain.TagCount{Tag: e.key, Count: e.count})
	}

	rankedCombos := combos.ranked()
	combinations := make([]domain.TagCombination, 0, len(rankedCombos))
	for _, e := range rankedCombos {
		combinations = append(combinations, domain.TagCombination{
			Tags:  comboSets[e.key],
			Count: e.count,
		})
	}

	return domain.TagData{
		Tags:          tagCounts,
		Combinations:  combinations,
		TagCategories: categories.sorted(),
		TagPriorities: priorities.mostFrequent(),
		SampleSize:    sample,
	}
}
