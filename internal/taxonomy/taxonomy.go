package taxonomy

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrRuleKeywordRequired  = errors.New("taxonomy: rule keyword required")
	ErrRuleCategoryRequired = errors.New("taxonomy: rule category required")
	ErrMatchModeInvalid     = errors.New("taxonomy: match mode invalid")
)

// MatchMode controls how rule keywords are compared against a title.
type MatchMode string

const (
	// MatchSubstring matches when the keyword occurs anywhere in the title.
	MatchSubstring MatchMode = "substring"
	// MatchWord matches only when the keyword is bounded by non-word characters.
	MatchWord MatchMode = "word"
)

// ParseMatchMode resolves a configured mode. Empty input yields MatchSubstring.
func ParseMatchMode(value string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWord:
		return MatchWord, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrMatchModeInvalid, value)
	}
}

// Rule maps a title keyword to a category and a set of tags.
type Rule struct {
	Keyword  string   `yaml:"keyword" json:"keyword"`
	Category string   `yaml:"category" json:"category"`
	Tags     []string `yaml:"tags" json:"tags"`
}

// Taxonomy is an ordered rule table plus the fallbacks used when no rule
// matches.
type Taxonomy struct {
	Rules           []Rule    `yaml:"rules" json:"rules"`
	DefaultCategory string    `yaml:"default_category" json:"default_category"`
	DefaultTag      string    `yaml:"default_tag" json:"default_tag"`
	Match           MatchMode `yaml:"match" json:"match"`
}

// Infer derives tags and categories from a document title. Rules are walked
// in table order and results keep first-seen order without duplicates. When
// nothing matches, the defaults are returned so neither list is ever empty.
func (t Taxonomy) Infer(title string) (tags []string, categories []string) {
	title = strings.ToLower(title)
	tags = []string{}
	categories = []string{}

	for _, rule := range t.Rules {
		if !t.matches(title, rule.Keyword) {
			continue
		}
		categories = appendUnique(categories, rule.Category)
		for _, tag := range rule.Tags {
			tags = appendUnique(tags, tag)
		}
	}

	if len(categories) == 0 {
		categories = append(categories, t.defaultCategory())
	}
	if len(tags) == 0 {
		tags = append(tags, t.defaultTag())
	}
	return tags, categories
}

// Validate checks every rule carries a keyword and a category.
func (t Taxonomy) Validate() error {
	if _, err := ParseMatchMode(string(t.Match)); err != nil {
		return err
	}
	for idx, rule := range t.Rules {
		if strings.TrimSpace(rule.Keyword) == "" {
			return fmt.Errorf("%w: rule %d", ErrRuleKeywordRequired, idx)
		}
		if strings.TrimSpace(rule.Category) == "" {
			return fmt.Errorf("%w: rule %d (%s)", ErrRuleCategoryRequired, idx, rule.Keyword)
		}
	}
	return nil
}

// WithMatch returns a copy using the supplied match mode.
func (t Taxonomy) WithMatch(mode MatchMode) Taxonomy {
	t.Match = mode
	return t
}

func (t Taxonomy) matches(title, keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}
	if t.Match != MatchWord {
		return strings.Contains(title, keyword)
	}
	pattern := `\b` + regexp.QuoteMeta(keyword) + `\b`
	matched, err := regexp.MatchString(pattern, title)
	return err == nil && matched
}

func (t Taxonomy) defaultCategory() string {
	if value := strings.TrimSpace(t.DefaultCategory); value != "" {
		return value
	}
	return DefaultCategory
}

func (t Taxonomy) defaultTag() string {
	if value := strings.TrimSpace(t.DefaultTag); value != "" {
		return value
	}
	return DefaultTag
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
