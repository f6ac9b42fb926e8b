package score

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Scorer rates a page's topical relevance. Implementations must return a
// value in [0, 1] and be safe for concurrent use.
type Scorer interface {
	Score(title, text string) float64
}

// sampleWords bounds how much of a page's text contributes to the
// language signal. Long pages settle well before this.
const sampleWords = 1000

// stopwordTarget is the stopword ratio at which a text is considered
// confidently English. Typical English prose runs 30% and above.
const stopwordTarget = 0.25

// englishStopwords are high-frequency English function words. A text with
// a healthy share of these is almost certainly English; translated or
// non-English pages score near zero.
var englishStopwords = map[string]struct{}{
	"the": {}, "of": {}, "and": {}, "a": {}, "to": {}, "in": {}, "is": {},
	"it": {}, "you": {}, "that": {}, "was": {}, "for": {}, "on": {},
	"are": {}, "with": {}, "as": {}, "at": {}, "be": {}, "this": {},
	"have": {}, "from": {}, "or": {}, "by": {}, "not": {}, "but": {},
	"what": {}, "all": {}, "were": {}, "when": {}, "we": {}, "there": {},
	"can": {}, "an": {}, "which": {}, "their": {}, "has": {}, "will": {},
	"one": {}, "about": {}, "how": {}, "its": {}, "our": {}, "out": {},
	"them": {}, "then": {}, "these": {}, "so": {}, "some": {}, "her": {},
	"would": {}, "into": {}, "more": {}, "no": {}, "than": {}, "been": {},
	"who": {}, "his": {}, "they": {}, "she": {}, "if": {}, "do": {},
	"him": {}, "your": {}, "my": {}, "me": {}, "also": {}, "other": {},
	"new": {}, "time": {}, "up": {}, "most": {}, "us": {}, "where": {},
	"after": {}, "first": {}, "well": {}, "even": {}, "because": {},
	"any": {}, "only": {}, "may": {}, "such": {}, "here": {}, "between": {},
	"during": {}, "over": {}, "through": {},
}

// TopicScorer is the default Scorer: the product of an English-language
// confidence and a topic-term hit signal. With no topic terms configured
// it degrades to the language signal alone.
type TopicScorer struct {
	terms  []string
	caser  cases.Caser
	folder norm.Form
}

// NewTopicScorer creates a TopicScorer for the given topic terms. Terms
// are matched case-insensitively as substrings of the normalized title
// and text; multi-word terms are supported.
func NewTopicScorer(terms []string) *TopicScorer {
	s := &TopicScorer{
		caser:  cases.Lower(language.English),
		folder: norm.NFKC,
	}
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			s.terms = append(s.terms, s.normalize(term))
		}
	}
	return s
}

// Score rates the page. Empty text scores zero regardless of the title.
func (s *TopicScorer) Score(title, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	normTitle := s.normalize(title)
	normText := s.normalize(text)

	english := s.englishConfidence(normText)
	if len(s.terms) == 0 {
		return english
	}
	return english * s.topicSignal(normTitle, normText)
}

// englishConfidence estimates how likely the text is English prose from
// the stopword density of its leading words.
func (s *TopicScorer) englishConfidence(normText string) float64 {
	words := strings.Fields(normText)
	if len(words) == 0 {
		return 0
	}
	if len(words) > sampleWords {
		words = words[:sampleWords]
	}

	hits := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?()[]{}\"'")
		if _, ok := englishStopwords[w]; ok {
			hits++
		}
	}
	ratio := float64(hits) / float64(len(words))
	if ratio >= stopwordTarget {
		return 1
	}
	return ratio / stopwordTarget
}

// topicSignal is the share of configured terms present in the page, with
// title hits counting double. The divisor saturates at five terms so a
// long term list does not demand every term on one page.
func (s *TopicScorer) topicSignal(normTitle, normText string) float64 {
	expected := len(s.terms)
	if expected > 5 {
		expected = 5
	}

	var weight float64
	for _, term := range s.terms {
		switch {
		case strings.Contains(normTitle, term):
			weight += 2
		case strings.Contains(normText, term):
			weight++
		}
	}
	signal := weight / float64(expected)
	if signal > 1 {
		return 1
	}
	return signal
}

// normalize lowercases and Unicode-normalizes a string so that accented
// and compatibility forms compare equal.
func (s *TopicScorer) normalize(text string) string {
	return s.caser.String(s.folder.String(text))
}
