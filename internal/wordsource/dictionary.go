package wordsource

import (
	"bufio"
	_ "embed" // Embedded default dictionary.
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed words_en.txt
var defaultDictionary string

// Dictionary returns a copy of the built-in English dictionary.
func Dictionary() []string {
	words, err := readWords(strings.NewReader(defaultDictionary), FilterForLang("en"))
	if err != nil {
		panic(fmt.Sprintf("embedded dictionary is invalid: %v", err))
	}
	return words
}

// FilterFunc returns true when a word should be kept.
type FilterFunc func(string) bool

// FilterForLang returns a language-specific filter for dictionaries.
func FilterForLang(lang string) FilterFunc {
	switch strings.ToLower(lang) {
	case "en":
		return filterEnglishASCII
	default:
		return func(string) bool { return true }
	}
}

func filterEnglishASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		ch := word[i]
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

// LoadWords reads one word per line from path, keeping words accepted by filter.
func LoadWords(path string, filter FilterFunc) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dictionary.
			_ = cerr
		}
	}()
	return readWords(file, filter)
}

func readWords(r io.Reader, filter FilterFunc) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if filter != nil && !filter(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
