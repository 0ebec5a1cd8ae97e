package normalizer

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Normalizer turns free-form offer text into the canonical token stream the
// classifiers are trained on.
//
// Digits are removed together with punctuation, so numeric fields folded
// into the text (price, mileage) never reach the model.
type Normalizer struct {
	lemmatizer Lemmatizer
	stopwords  map[string]struct{}
}

// New creates a normalizer around a lemmatizer and the built-in stop-words.
func New(l Lemmatizer) *Normalizer {
	return &Normalizer{
		lemmatizer: l,
		stopwords:  stopwords,
	}
}

// Normalize strips markup, lowercases, keeps only a-z and whitespace,
// lemmatizes, drops stop-words and joins the lemmas with single spaces.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := foldText(visibleText(raw))

	tokens := strings.Fields(text)
	lemmas := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.isStop(tok) {
			continue
		}
		lemma := n.lemmatizer.Lemma(tok)
		if lemma == "" || !isAlpha(lemma) || n.isStop(lemma) {
			continue
		}
		lemmas = append(lemmas, lemma)
	}

	return strings.Join(lemmas, " ")
}

func (n *Normalizer) isStop(word string) bool {
	_, ok := n.stopwords[word]
	return ok
}

// visibleText returns the text content of an HTML fragment without script
// and style bodies. Input that cannot be parsed is returned unchanged.
func visibleText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("script,noscript,style").Remove()
	return doc.Text()
}

// foldText lowercases s and keeps only a-z and whitespace.
func foldText(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(s))
}

// foldWord folds a dictionary word the way Normalize folds tokens.
func foldWord(w string) string {
	return strings.Join(strings.Fields(foldText(w)), "")
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
