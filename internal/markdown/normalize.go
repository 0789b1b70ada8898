package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmnorm/internal/taxonomy"
)

// DefaultAuthor is written when a document has no author key.
const DefaultAuthor = "Keith Thomson"

const (
	keyTitle      = "title"
	keyAuthor     = "author"
	keyTags       = "tags"
	keyCategories = "categories"

	frontMatterDelimiter = "---\n"
)

// Normalizer applies the front matter merge policy to a single document.
type Normalizer struct {
	Taxonomy taxonomy.Taxonomy
	// Author is used when the document has no author key.
	Author string
	// SortKeys orders the top-level keys alphabetically.
	SortKeys bool
	// NormalizeTags rewrites tag entries as slugs.
	NormalizeTags bool
}

// Outcome describes the result of normalizing one document.
type Outcome struct {
	// Content is the full document after normalization. It is the input
	// source when Changed is false.
	Content []byte
	Changed bool
	// Added lists the top-level keys that were created.
	Added          []string
	Title          string
	Tags           []string
	Categories     []string
	HadFrontMatter bool
	Malformed      bool
	Warnings       []string
}

// Normalize ensures the document carries title, author, tags and categories.
// Existing values are kept; inferred tags and categories are appended when
// missing. path is only used to derive a fallback title.
func (n Normalizer) Normalize(path string, source []byte) (*Outcome, error) {
	block, body := SplitFrontMatter(source)
	doc := block.Document()
	root := doc.Content[0]

	out := &Outcome{
		HadFrontMatter: block.Present,
		Malformed:      block.Malformed,
	}
	edited := !block.Present || block.Malformed
	if block.Malformed {
		out.Warnings = append(out.Warnings, "front matter is not a YAML mapping and was replaced")
	}

	titleNode := mappingValue(root, keyTitle)
	if titleNode == nil {
		title, ok := ExtractTitle(body)
		if !ok {
			title = TitleFromPath(path)
		}
		titleNode = stringNode(title)
		appendPair(root, keyTitle, titleNode)
		out.Added = append(out.Added, keyTitle)
		edited = true
	}
	out.Title = scalarString(titleNode)

	if mappingValue(root, keyAuthor) == nil {
		appendPair(root, keyAuthor, stringNode(n.author()))
		out.Added = append(out.Added, keyAuthor)
		edited = true
	}

	inferredTags, inferredCategories := n.Taxonomy.Infer(out.Title)
	if n.NormalizeTags {
		inferredTags = slugValues(inferredTags)
	}

	tags, changed := ensureList(root, keyTags, out)
	edited = edited || changed
	if tags != nil {
		edited = appendMissing(tags, inferredTags) || edited
		if n.NormalizeTags {
			edited = slugSequence(tags) || edited
		}
		out.Tags = sequenceStrings(tags)
	} else {
		out.Tags = inferredTags
	}

	categories, changed := ensureList(root, keyCategories, out)
	edited = edited || changed
	if categories != nil {
		edited = appendMissing(categories, inferredCategories) || edited
		out.Categories = sequenceStrings(categories)
	} else {
		out.Categories = inferredCategories
	}

	if n.SortKeys {
		edited = sortMapping(root) || edited
	}

	if !edited {
		out.Content = source
		return out, nil
	}

	content, err := render(doc, body)
	if err != nil {
		return nil, fmt.Errorf("markdown: render front matter %s: %w", path, err)
	}
	out.Content = content
	out.Changed = !bytes.Equal(content, source)
	return out, nil
}

// Fingerprint identifies the settings that shape Normalize output: author,
// key sorting, tag slugging and the full taxonomy. Two normalizers with the
// same fingerprint produce the same content for the same input.
func (n Normalizer) Fingerprint() string {
	tax := n.Taxonomy
	if mode, err := taxonomy.ParseMatchMode(string(tax.Match)); err == nil {
		tax.Match = mode
	}
	settings := struct {
		Author        string            `yaml:"author"`
		SortKeys      bool              `yaml:"sort_keys"`
		NormalizeTags bool              `yaml:"normalize_tags"`
		Taxonomy      taxonomy.Taxonomy `yaml:"taxonomy"`
	}{n.author(), n.SortKeys, n.NormalizeTags, tax}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (n Normalizer) author() string {
	if author := strings.TrimSpace(n.Author); author != "" {
		return author
	}
	return DefaultAuthor
}

func render(doc *yaml.Node, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(frontMatterDelimiter)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}

	buf.WriteString(frontMatterDelimiter)
	buf.Write(body)
	return buf.Bytes(), nil
}

// ensureList makes sure key holds a sequence. Missing, null and blank values
// become empty sequences and other scalars are wrapped in a one-item sequence.
// An alias is replaced by a copy of its anchored value first, so the anchor
// itself is never edited. Values that cannot be converted are left alone and
// reported, in which case nil is returned.
func ensureList(mapping *yaml.Node, key string, out *Outcome) (*yaml.Node, bool) {
	value := mappingValue(mapping, key)
	if value == nil {
		seq := newSequence()
		appendPair(mapping, key, seq)
		out.Added = append(out.Added, key)
		return seq, true
	}

	expanded := false
	if value.Kind == yaml.AliasNode && value.Alias != nil && value.Alias.Kind != yaml.MappingNode {
		expandAlias(value)
		expanded = true
	}

	switch value.Kind {
	case yaml.SequenceNode:
		return value, expanded
	case yaml.ScalarNode:
		if value.Tag == "!!null" || (value.Tag == "!!str" && strings.TrimSpace(value.Value) == "") {
			value.Kind = yaml.SequenceNode
			value.Tag = "!!seq"
			value.Value = ""
			value.Style = 0
			value.Content = nil
			return value, true
		}
		item := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   value.Tag,
			Value: value.Value,
			Style: value.Style,
		}
		value.Kind = yaml.SequenceNode
		value.Tag = "!!seq"
		value.Value = ""
		value.Style = 0
		value.Content = []*yaml.Node{item}
		return value, true
	default:
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s is not a list and was left unchanged", key))
		return nil, false
	}
}

func appendMissing(seq *yaml.Node, values []string) bool {
	present := map[string]struct{}{}
	for _, item := range seq.Content {
		if item.Kind == yaml.ScalarNode {
			present[item.Value] = struct{}{}
		}
	}
	changed := false
	for _, value := range values {
		if _, ok := present[value]; ok {
			continue
		}
		seq.Content = append(seq.Content, stringNode(value))
		present[value] = struct{}{}
		changed = true
	}
	return changed
}

func slugSequence(seq *yaml.Node) bool {
	changed := false
	seen := map[string]struct{}{}
	kept := seq.Content[:0]
	for _, item := range seq.Content {
		if item.Kind != yaml.ScalarNode {
			kept = append(kept, item)
			continue
		}
		if normalized := slugValue(item.Value); normalized != item.Value {
			item.Value = normalized
			item.Tag = "!!str"
			changed = true
		}
		if _, dup := seen[item.Value]; dup {
			changed = true
			continue
		}
		seen[item.Value] = struct{}{}
		kept = append(kept, item)
	}
	seq.Content = kept
	return changed
}

func slugValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		normalized := slugValue(value)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func slugValue(value string) string {
	normalized, err := slug.Normalize(value)
	if err != nil || normalized == "" {
		return value
	}
	return normalized
}

func sortMapping(mapping *yaml.Node) bool {
	type pair struct{ key, value *yaml.Node }
	pairs := make([]pair, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		pairs = append(pairs, pair{mapping.Content[i], mapping.Content[i+1]})
	}
	if sort.SliceIsSorted(pairs, func(i, j int) bool { return pairs[i].key.Value < pairs[j].key.Value }) {
		return false
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key.Value < pairs[j].key.Value })
	content := make([]*yaml.Node, 0, len(mapping.Content))
	for _, p := range pairs {
		content = append(content, p.key, p.value)
	}
	mapping.Content = content
	return true
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	mapping.Content = append(mapping.Content, stringNode(key), value)
}

// scalarString returns the textual form of a scalar, following aliases.
// Nulls and collections yield an empty string.
// expandAlias turns an alias node into a copy of the node it points at.
func expandAlias(node *yaml.Node) {
	target := node.Alias
	node.Kind = target.Kind
	node.Tag = target.Tag
	node.Value = target.Value
	node.Style = target.Style
	node.Alias = nil
	node.Anchor = ""
	node.Content = make([]*yaml.Node, len(target.Content))
	for i, item := range target.Content {
		dup := *item
		dup.Anchor = ""
		node.Content[i] = &dup
	}
}

func scalarString(node *yaml.Node) string {
	if node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return node.Value
}

func sequenceStrings(seq *yaml.Node) []string {
	out := make([]string, 0, len(seq.Content))
	for _, item := range seq.Content {
		if value := scalarString(item); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func newSequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}
