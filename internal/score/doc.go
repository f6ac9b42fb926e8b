// Package score estimates how relevant a crawled page is to the crawl's
// topic. The Scorer interface keeps the engine independent of the
// scoring strategy; the default TopicScorer combines an English-language
// confidence signal with topic-term matching and yields a value in
// [0, 1] that drives frontier priority for the page's outbound links.
package score
