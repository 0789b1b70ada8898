// Package markdown normalizes the YAML front matter of markdown documents.
// It splits documents into front matter and body, resolves a title, merges
// inferred tags and categories into the existing metadata, and writes the
// result back through a filesystem-backed service.
package markdown
