package score

import "testing"

const englishText = `The old town sits on the river and is known for its
university, which was founded in the fifteenth century. Visitors can walk
along the water, see the castle on the hill, and take a boat tour during
the summer months. The market square is at the heart of the town and has
been a meeting place for hundreds of years.`

const germanText = `Die Altstadt liegt am Fluss und ist bekannt für ihre
Universität, die im fünfzehnten Jahrhundert gegründet wurde. Besucher
können am Wasser entlang spazieren, das Schloss auf dem Hügel besichtigen
und im Sommer eine Bootstour machen.`

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	s := NewTopicScorer([]string{"castle", "university", "river"})
	inputs := []struct{ title, text string }{
		{"", ""},
		{"Castle", englishText},
		{"anything", germanText},
		{"x", "short"},
	}
	for _, in := range inputs {
		got := s.Score(in.title, in.text)
		if got < 0 || got > 1 {
			t.Errorf("Score(%q, ...) = %v, out of [0, 1]", in.title, got)
		}
	}
}

func TestScoreEmptyTextIsZero(t *testing.T) {
	t.Parallel()

	s := NewTopicScorer([]string{"castle"})
	if got := s.Score("A Castle Page", "   "); got != 0 {
		t.Errorf("Score with empty text = %v, want 0", got)
	}
}

func TestScorePrefersEnglish(t *testing.T) {
	t.Parallel()

	s := NewTopicScorer(nil)
	english := s.Score("", englishText)
	german := s.Score("", germanText)

	if english <= german {
		t.Errorf("english = %v, german = %v; want english higher", english, german)
	}
	if english < 0.9 {
		t.Errorf("english confidence = %v, want near 1 for plain prose", english)
	}
}

func TestScorePrefersOnTopicPages(t *testing.T) {
	t.Parallel()

	s := NewTopicScorer([]string{"castle", "university", "river"})

	onTopic := s.Score("The Castle and University", englishText)
	offTopic := s.Score("Cooking recipes", `The recipe needs two eggs and a
cup of flour. Mix them in a bowl and bake for twenty minutes in the oven
at a medium heat until the top is golden and firm to the touch.`)

	if onTopic <= offTopic {
		t.Errorf("onTopic = %v, offTopic = %v; want onTopic higher", onTopic, offTopic)
	}
}

func TestScoreTitleHitsWeighMore(t *testing.T) {
	t.Parallel()

	s := NewTopicScorer([]string{"castle", "museum", "tour", "bridge", "garden"})

	titled := s.Score("Castle tours", englishText)
	untitled := s.Score("Pages", englishText)
	if titled <= untitled {
		t.Errorf("titled = %v, untitled = %v; want title hits to score higher", titled, untitled)
	}
}

func TestScoreNormalizesUnicode(t *testing.T) {
	t.Parallel()

	// The term uses the precomposed umlaut; the page spells the same word
	// with a combining diaeresis.
	s := NewTopicScorer([]string{"tübingen"})
	decomposed := "Tübingen " + englishText

	if got := s.Score("", decomposed); got == 0 {
		t.Error("decomposed Unicode form did not match the topic term")
	}
}

func TestScoreNoTermsUsesLanguageOnly(t *testing.T) {
	t.Parallel()

	s := NewTopicScorer(nil)
	if got := s.Score("any title", englishText); got <= 0 {
		t.Errorf("Score without terms = %v, want positive", got)
	}
}
