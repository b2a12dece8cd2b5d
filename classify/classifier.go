// Package classify selects the specialists for a user message with a
// keyword automaton. Classification is pure: same text, same outcome.
package classify

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"council-lab/domain/specialist"
)

// group binds one specialist to its trigger keywords. Order matters:
// selection is reported in this order, not in text-match order.
type group struct {
	id       specialist.ID
	keywords []string
}

var groups = []group{
	{specialist.Code, []string{"code", "react", "javascript", "component"}},
	{specialist.Design, []string{"design", "ui", "ux", "style"}},
	{specialist.Writing, []string{"write", "content", "documentation"}},
	{specialist.Analysis, []string{"analyze", "performance", "optimize"}},
}

const rationalePrefix = "I'll coordinate with our specialists to help you: "

// Classifier matches trigger keywords as plain substrings of the
// lowercased text, via an Aho-Corasick automaton built once.
type Classifier struct {
	matcher *goahocorasick.Machine
	byWord  map[string]specialist.ID
}

// Result is the deterministic outcome of classifying one message.
type Result struct {
	Specialists []specialist.ID
	Rationale   string
	Language    string // ISO 639-1 hint, empty when detection is unsure
}

// NewClassifier initializes the Aho-Corasick automaton with the trigger
// keywords of every specialist group.
func NewClassifier() (*Classifier, error) {
	byWord := make(map[string]specialist.ID)
	var patterns [][]rune
	for _, g := range groups {
		for _, kw := range g.keywords {
			byWord[kw] = g.id
			patterns = append(patterns, []rune(kw))
		}
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Classifier{matcher: m, byWord: byWord}, nil
}

// Classify lowercases the text and collects every specialist whose
// keywords occur in it, in group order and without duplicates. A text
// matching nothing falls back to the code specialist so a round always
// has at least one responder.
func (c *Classifier) Classify(text string) Result {
	matched := make(map[specialist.ID]bool)
	spans := c.matcher.MultiPatternSearch([]rune(strings.ToLower(text)), false)
	for _, span := range spans {
		if id, ok := c.byWord[string(span.Word)]; ok {
			matched[id] = true
		}
	}

	selected := make([]specialist.ID, 0, len(groups))
	for _, g := range groups {
		if matched[g.id] {
			selected = append(selected, g.id)
		}
	}
	if len(selected) == 0 {
		selected = []specialist.ID{specialist.Code}
	}

	return Result{
		Specialists: selected,
		Rationale:   Rationale(selected),
		Language:    languageHint(text),
	}
}

// Rationale renders the coordinator text for a selection.
func Rationale(ids []specialist.ID) string {
	names := lo.Map(ids, func(id specialist.ID, _ int) string {
		return id.DisplayName()
	})
	return rationalePrefix + strings.Join(names, ", ")
}

// languageHint reports the detected language of the text, empty when
// the detector is not confident enough to be useful.
func languageHint(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
