package markdown

import (
	"bytes"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// FrontMatterBlock is the YAML block found at the top of a document.
type FrontMatterBlock struct {
	// Present reports whether delimited front matter was found.
	Present bool
	// Raw holds the bytes between the delimiters.
	Raw []byte
	// Malformed is set when Raw is not valid YAML or its root is not a mapping.
	Malformed bool

	document *yaml.Node
}

var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", captureFrontMatter),
	frontmatter.NewFormat("---yaml", "---", captureFrontMatter),
}

// SplitFrontMatter separates the front matter block from the markdown body.
// Documents without front matter, or with an unterminated block, are returned
// whole as body.
func SplitFrontMatter(source []byte) (*FrontMatterBlock, []byte) {
	block := &FrontMatterBlock{}
	body, err := frontmatter.Parse(bytes.NewReader(source), block, frontMatterFormats...)
	if err != nil {
		// captureFrontMatter never fails, so this only happens on reader errors.
		return &FrontMatterBlock{}, source
	}
	return block, body
}

// Document returns the YAML document node for the block. Absent, empty or
// malformed blocks yield a document wrapping an empty mapping, created on
// first use so later edits stick.
func (b *FrontMatterBlock) Document() *yaml.Node {
	if b.document == nil {
		b.document = newDocument()
	}
	return b.document
}

// Mapping returns the root mapping of the block.
func (b *FrontMatterBlock) Mapping() *yaml.Node {
	return b.Document().Content[0]
}

func captureFrontMatter(data []byte, v interface{}) error {
	block, ok := v.(*FrontMatterBlock)
	if !ok {
		return nil
	}
	block.Present = true
	block.Raw = append([]byte(nil), data...)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		block.Malformed = true
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
		block.document = &doc
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
	default:
		block.Malformed = true
	}
	return nil
}

func newDocument() *yaml.Node {
	return &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{newMapping()},
	}
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}
