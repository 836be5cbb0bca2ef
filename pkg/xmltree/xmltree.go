// Package xmltree wraps an etree document with the lookups the track parsers
// need: one logical element resolved from several spellings, and repeated
// elements always handed back as a slice.
package xmltree

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Aliases is an ordered list of candidate tag names for one logical element.
// The first spelling present wins.
type Aliases []string

var (
	KML      = Aliases{"kml", "Kml", "KML"}
	Document = Aliases{"Document", "document"}
	Folder   = Aliases{"Folder", "folder"}
)

// StructureError means the input cannot yield any data at all: it is not
// well-formed XML or a mandatory element is missing. Everything else is
// handled by dropping the offending unit.
type StructureError struct {
	Op     string // parser that gave up, e.g. "kml" or "airnav"
	Reason string
	Err    error
}

func (e *StructureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *StructureError) Unwrap() error { return e.Err }

// Parse reads a whole document. Declared non-UTF-8 encodings are decoded
// through x/net's charset tables.
func Parse(op string, data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &StructureError{Op: op, Reason: "malformed XML", Err: err}
	}
	return doc, nil
}

// Root resolves the document element against the aliases.
func Root(op string, doc *etree.Document, names Aliases) (*etree.Element, error) {
	if root := doc.Root(); root != nil {
		for _, n := range names {
			if root.Tag == n {
				return root, nil
			}
		}
	}
	return nil, &StructureError{Op: op, Reason: fmt.Sprintf("no %s root element found", names[0])}
}

// Child returns the first child matching any alias, in alias order.
func Child(el *etree.Element, names Aliases) *etree.Element {
	if el == nil {
		return nil
	}
	for _, n := range names {
		if c := el.SelectElement(n); c != nil {
			return c
		}
	}
	return nil
}

// Children returns every child element matching any alias, in document
// order. Zero, one or many matches all come back as a slice, so callers never
// branch on cardinality.
func Children(el *etree.Element, names ...string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		for _, n := range names {
			if c.Tag == n {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Text returns the trimmed text of the first child matching any alias, or ""
// when there is none.
func Text(el *etree.Element, names Aliases) string {
	c := Child(el, names)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

// Path follows a chain of single-child steps, e.g. Path(pm, "Point",
// "coordinates"). It returns nil as soon as a step is missing.
func Path(el *etree.Element, steps ...string) *etree.Element {
	for _, s := range steps {
		if el == nil {
			return nil
		}
		el = el.SelectElement(s)
	}
	return el
}

// PathText is Path followed by the trimmed element text.
func PathText(el *etree.Element, steps ...string) string {
	if c := Path(el, steps...); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}
