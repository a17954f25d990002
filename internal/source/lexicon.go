package source

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/voyantic/placeintel/internal/model"
)

// LexiconEntry maps a keyword found in free text to a taste signal.
type LexiconEntry struct {
	Keyword  string         `yaml:"keyword"`
	Domain   model.Domain   `yaml:"domain"`
	Tag      string         `yaml:"tag"`
	Polarity model.Polarity `yaml:"polarity"`
	Weight   float64        `yaml:"weight"`
}

// Lexicon is the keyword fallback extractor used when LLM extraction is
// unavailable or returns nothing.
type Lexicon struct {
	entries []LexiconEntry
}

// defaultLexicon is the built-in keyword table. Operators override it
// with a YAML file per market.
const defaultLexicon = `
- {keyword: "michelin", domain: food, tag: "michelin recognized", polarity: positive, weight: 0.85}
- {keyword: "tasting menu", domain: food, tag: "tasting menu", polarity: positive, weight: 0.7}
- {keyword: "farm to table", domain: food, tag: "farm to table", polarity: positive, weight: 0.65}
- {keyword: "natural wine", domain: food, tag: "natural wine list", polarity: positive, weight: 0.6}
- {keyword: "bland", domain: food, tag: "uninspired kitchen", polarity: negative, weight: 0.55}

- {keyword: "brutalist", domain: design, tag: "brutalist", polarity: positive, weight: 0.7}
- {keyword: "mid-century", domain: design, tag: "mid-century", polarity: positive, weight: 0.65}
- {keyword: "art deco", domain: design, tag: "art deco", polarity: positive, weight: 0.65}
- {keyword: "dated rooms", domain: design, tag: "dated interiors", polarity: negative, weight: 0.6}

- {keyword: "attentive staff", domain: service, tag: "attentive staff", polarity: positive, weight: 0.7}
- {keyword: "turndown", domain: service, tag: "turndown service", polarity: positive, weight: 0.5}
- {keyword: "rude", domain: service, tag: "unfriendly staff", polarity: negative, weight: 0.65}
- {keyword: "slow check-in", domain: service, tag: "slow checkin", polarity: negative, weight: 0.55}

- {keyword: "family-run", domain: character, tag: "family run", polarity: positive, weight: 0.6}
- {keyword: "storied", domain: character, tag: "storied history", polarity: positive, weight: 0.55}
- {keyword: "soulless", domain: character, tag: "corporate feel", polarity: negative, weight: 0.6}

- {keyword: "walkable", domain: location, tag: "walkable area", polarity: positive, weight: 0.6}
- {keyword: "quiet street", domain: location, tag: "quiet street", polarity: positive, weight: 0.55}
- {keyword: "noisy", domain: location, tag: "street noise", polarity: negative, weight: 0.55}

- {keyword: "spa", domain: wellness, tag: "spa", polarity: positive, weight: 0.6}
- {keyword: "thermal", domain: wellness, tag: "thermal baths", polarity: positive, weight: 0.65}
- {keyword: "yoga", domain: wellness, tag: "yoga program", polarity: positive, weight: 0.5}
`

var keywordFolder = cases.Fold()

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon([]byte(defaultLexicon))
	if err != nil {
		panic(err) // built-in table must parse
	}
	return lex
}

// LoadLexicon reads a lexicon override from a YAML file.
func LoadLexicon(path string) (*Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lexicon: read %s", path)
	}
	return ParseLexicon(raw)
}

// ParseLexicon parses lexicon YAML and validates its entries.
func ParseLexicon(raw []byte) (*Lexicon, error) {
	var entries []LexiconEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, eris.Wrap(err, "lexicon: parse yaml")
	}
	for i, e := range entries {
		if e.Keyword == "" {
			return nil, eris.Errorf("lexicon: entry %d has empty keyword", i)
		}
		if !model.ValidDomain(e.Domain) {
			return nil, eris.Errorf("lexicon: entry %q has unknown domain %q", e.Keyword, e.Domain)
		}
		if e.Weight <= 0 || e.Weight > 1 {
			return nil, eris.Errorf("lexicon: entry %q has weight %v outside (0,1]", e.Keyword, e.Weight)
		}
	}
	return &Lexicon{entries: entries}, nil
}

// Extract scans free text for lexicon keywords and returns the matched
// signals. Matching is case-folded substring search; each entry fires at
// most once per text.
func (l *Lexicon) Extract(text string, sourceName string, now time.Time) []model.TasteSignal {
	if text == "" {
		return nil
	}
	folded := keywordFolder.String(text)

	var signals []model.TasteSignal
	for _, e := range l.entries {
		if !strings.Contains(folded, keywordFolder.String(e.Keyword)) {
			continue
		}
		polarity := e.Polarity
		if polarity == "" {
			polarity = model.PolarityPositive
		}
		signals = append(signals, model.TasteSignal{
			Domain:      e.Domain,
			Tag:         e.Tag,
			Confidence:  e.Weight,
			Source:      sourceName,
			Polarity:    polarity,
			ExtractedAt: now,
		})
	}
	return signals
}
