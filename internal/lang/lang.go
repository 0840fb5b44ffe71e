// Package lang provides the language resources used to compute token
// features: a word tokenizer and per-language stopword lists. Resources are
// loaded once per process and are read-only afterwards, so a single
// *Resources may be shared between goroutines.
package lang

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

//go:embed stopwords/*.txt
var stopwordFiles embed.FS

// ErrUnsupportedLanguage is returned by Load for languages without resources.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Spanish is the name of the Spanish resources.
const Spanish = "spanish"

var tags = map[string]language.Tag{
	Spanish: language.Spanish,
}

// Resources holds the tokenizer settings and stopwords for one language.
type Resources struct {
	name      string
	tag       language.Tag
	stopwords map[string]struct{}
}

// Load reads the embedded resources for the named language.
func Load(name string) (*Resources, error) {
	tag, ok := tags[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}

	f, err := stopwordFiles.Open("stopwords/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("open %s stopwords: %w", name, err)
	}
	defer f.Close()

	stopwords := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		stopwords[norm.NFC.String(w)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s stopwords: %w", name, err)
	}

	return &Resources{name: name, tag: tag, stopwords: stopwords}, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(name string) *Resources {
	r, err := Load(name)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the language name the resources were loaded for.
func (r *Resources) Name() string {
	return r.name
}

// StopwordCount returns the size of the stopword list.
func (r *Resources) StopwordCount() int {
	return len(r.stopwords)
}

// IsStopword reports whether the lowercased word is a stopword.
func (r *Resources) IsStopword(word string) bool {
	_, ok := r.stopwords[word]
	return ok
}

// Tokens splits text into words and keeps those made only of letters,
// lowercased, that are not stopwords.
func (r *Resources) Tokens(text string) []string {
	lower := cases.Lower(r.tag)

	var out []string
	for _, tok := range Tokenize(text) {
		if !isAlpha(tok) {
			continue
		}
		tok = lower.String(tok)
		if r.IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// CountTokens returns len(r.Tokens(text)).
func (r *Resources) CountTokens(text string) int {
	return len(r.Tokens(text))
}

// Tokenize splits text into word tokens. Whitespace and clause punctuation
// separate tokens; periods, hyphens and apostrophes are kept inside a word
// but stripped from its edges. Punctuation never forms a token of its own.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(norm.NFC.String(text), isSeparator)

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, edgePunct)
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

const (
	separators = ",;:?!¿¡()[]{}<>\"«»“”‘’…–—/|@#$%&*+=~^`"
	edgePunct  = ".'-_"
)

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(separators, r)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
