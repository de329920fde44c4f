package service

import (
	"regexp"
	"sort"
	"strings"

	"classpulse/internal/model"
)

const wordCloudLimit = 50

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"are": true, "was": true, "were": true, "been": true, "have": true,
	"has": true, "had": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "might": true,
	"must": true, "can": true, "this": true, "that": true, "these": true,
	"those": true, "you": true, "she": true, "they": true, "him": true,
	"her": true, "them": true, "your": true, "his": true, "its": true,
	"our": true, "their": true, "very": true, "really": true, "quite": true,
	"just": true, "only": true, "also": true, "too": true, "when": true,
	"where": true, "why": true, "how": true, "what": true, "who": true,
	"which": true, "there": true, "here": true, "now": true, "then": true,
	"than": true, "more": true, "most": true, "some": true, "any": true,
	"all": true, "both": true, "each": true, "every": true, "not": true,
	"yes": true,
}

// BuildWordCloud tokenizes free-text answers into the most frequent
// meaningful words. Words shorter than three letters and common filler
// words are dropped; ties keep first-encountered order so repeated runs
// over the same answers render identically.
func BuildWordCloud(texts []string) []model.WordCount {
	counts := make(map[string]int)
	first := make(map[string]int)
	order := 0
	for _, text := range texts {
		for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if stopWords[word] {
				continue
			}
			if _, seen := counts[word]; !seen {
				first[word] = order
				order++
			}
			counts[word]++
		}
	}

	cloud := make([]model.WordCount, 0, len(counts))
	for word, count := range counts {
		cloud = append(cloud, model.WordCount{Text: word, Weight: count})
	}
	sort.Slice(cloud, func(i, j int) bool {
		if cloud[i].Weight != cloud[j].Weight {
			return cloud[i].Weight > cloud[j].Weight
		}
		return first[cloud[i].Text] < first[cloud[j].Text]
	})
	if len(cloud) > wordCloudLimit {
		cloud = cloud[:wordCloudLimit]
	}
	return cloud
}
