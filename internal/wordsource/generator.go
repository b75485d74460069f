// Package wordsource builds the target word sequences for typing sessions.
package wordsource

import (
	"math/rand"
	"time"
	"unicode"
)

// Generator produces randomized word sequences.
type Generator struct {
	rnd      *rand.Rand
	capsPct  float64
	punctPct float64
	punctSet []rune
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand injects the source of randomness.
func WithRand(rnd *rand.Rand) GeneratorOption {
	return func(g *Generator) {
		g.rnd = rnd
	}
}

// WithSeed seeds the source of randomness.
func WithSeed(seed int64) GeneratorOption {
	return func(g *Generator) {
		g.rnd = rand.New(rand.NewSource(seed))
	}
}

// WithCaps capitalizes the first letter of a word with the given probability.
func WithCaps(pct float64) GeneratorOption {
	return func(g *Generator) {
		g.capsPct = pct
	}
}

// WithPunct appends a character from set with the given probability.
func WithPunct(pct float64, set string) GeneratorOption {
	return func(g *Generator) {
		g.punctPct = pct
		g.punctSet = []rune(set)
	}
}

// NewGenerator returns a Generator seeded with the current time unless overridden.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate draws count words uniformly from dict, never repeating the
// previous base word unless dict holds a single distinct entry.
func (g *Generator) Generate(dict []string, count int, prev string) []string {
	words, _ := g.generate(dict, count, prev)
	return words
}

func (g *Generator) generate(dict []string, count int, prev string) ([]string, string) {
	if len(dict) == 0 || count <= 0 {
		return nil, prev
	}
	varied := hasDistinct(dict)
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := dict[g.rnd.Intn(len(dict))]
		for word == prev && varied {
			word = dict[g.rnd.Intn(len(dict))]
		}
		prev = word
		word = applyCaps(g.rnd, word, g.capsPct)
		word = applyPunct(g.rnd, word, g.punctPct, g.punctSet)
		result = append(result, word)
	}
	return result, prev
}

func hasDistinct(dict []string) bool {
	for _, w := range dict[1:] {
		if w != dict[0] {
			return true
		}
	}
	return false
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
