package normalizer

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed lemmas_pl.tsv
var defaultLemmas string

// Lemmatizer maps an inflected lowercase word to its base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// DictionaryLemmatizer looks lemmas up in a form -> lemma table. Words that
// are not in the table are their own lemma.
type DictionaryLemmatizer struct {
	lemmas map[string]string
}

// Lemma returns the base form of word.
func (d *DictionaryLemmatizer) Lemma(word string) string {
	if l, ok := d.lemmas[word]; ok {
		return l
	}
	return word
}

// Len returns the number of known forms.
func (d *DictionaryLemmatizer) Len() int {
	return len(d.lemmas)
}

// LoadDefaultLemmatizer parses the built-in Polish dictionary.
func LoadDefaultLemmatizer() (*DictionaryLemmatizer, error) {
	return ReadLemmatizer(strings.NewReader(defaultLemmas))
}

// LoadLemmatizerFile parses a dictionary file. An empty path selects the
// built-in dictionary.
func LoadLemmatizerFile(path string) (*DictionaryLemmatizer, error) {
	if path == "" {
		return LoadDefaultLemmatizer()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lemma dictionary: %w", err)
	}
	defer f.Close()
	return ReadLemmatizer(f)
}

// ReadLemmatizer parses "form<TAB>lemma" lines. Tab-separated exports with
// further columns (morphological tags) are accepted and the extra columns
// ignored. Blank lines and lines starting with '#' are skipped. Both words
// are folded to the alphabet Normalize keeps, so "samochodów" is stored as
// "samochodw"; entries that fold to nothing are dropped. The first entry
// for a form wins. Chains (a -> b -> c) are resolved so that every lemma
// maps to itself.
func ReadLemmatizer(r io.Reader) (*DictionaryLemmatizer, error) {
	raw := make(map[string]string)
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		form, lemma, err := splitEntry(text)
		if err != nil {
			return nil, fmt.Errorf("lemma dictionary line %d: %w", line, err)
		}
		form, lemma = foldWord(form), foldWord(lemma)
		if form == "" || lemma == "" {
			continue
		}
		if _, dup := seen[form]; dup {
			continue
		}
		seen[form] = struct{}{}
		if form != lemma {
			raw[form] = lemma
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lemma dictionary: %w", err)
	}
	return &DictionaryLemmatizer{lemmas: closeChains(raw)}, nil
}

func splitEntry(text string) (string, string, error) {
	if strings.Contains(text, "\t") {
		parts := strings.Split(text, "\t")
		if len(parts) < 2 {
			return "", "", fmt.Errorf("want at least 2 fields, got %d", len(parts))
		}
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
	}
	parts := strings.Fields(text)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("want 2 fields, got %d", len(parts))
	}
	return parts[0], parts[1], nil
}

// closeChains rewrites the table so Lemma(Lemma(w)) == Lemma(w). A cycle
// collapses onto its alphabetically smallest member.
func closeChains(raw map[string]string) map[string]string {
	forms := make([]string, 0, len(raw))
	for f := range raw {
		forms = append(forms, f)
	}
	sort.Strings(forms)

	resolved := make(map[string]string, len(raw))
	for _, form := range forms {
		if _, done := resolved[form]; done {
			continue
		}
		path := []string{form}
		seen := map[string]int{form: 0}
		cur := form
		var root string
		for {
			next, ok := raw[cur]
			if !ok {
				root = cur
				break
			}
			if r, ok := resolved[next]; ok {
				root = r
				break
			}
			if idx, loop := seen[next]; loop {
				cycle := append([]string(nil), path[idx:]...)
				sort.Strings(cycle)
				root = cycle[0]
				break
			}
			seen[next] = len(path)
			path = append(path, next)
			cur = next
		}
		for _, p := range path {
			resolved[p] = root
		}
	}

	out := make(map[string]string, len(resolved))
	for form, lemma := range resolved {
		if form != lemma {
			out[form] = lemma
		}
	}
	return out
}
