// Package xmltree provides small, total lookup helpers over a parsed XML tree.
//
// Lookups match elements by local name, ignoring namespaces, and search
// descendants depth-first in document order. Missing nodes never fail: scalar
// lookups return "" and element lookups return nil. An empty element and a
// missing element are treated the same for scalar fields; use Has or First
// when container presence matters.
package xmltree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ErrEmptyDocument is returned when the input holds no root element.
var ErrEmptyDocument = errors.New("document has no root element")

// Parse reads raw XML text and returns the root element. Encodings declared in
// the prolog other than UTF-8 (ISO-8859-1 is still common) are decoded.
func Parse(raw string) (*etree.Element, error) {
	return ParseReader(strings.NewReader(raw))
}

// ParseReader is Parse over a reader.
func ParseReader(r io.Reader) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// First returns the first descendant of node named tag, or nil.
func First(node *etree.Element, tag string) *etree.Element {
	if node == nil {
		return nil
	}
	for _, child := range node.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := First(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// FirstOrSelf is First, but returns node itself when it is already named tag.
func FirstOrSelf(node *etree.Element, tag string) *etree.Element {
	if node != nil && node.Tag == tag {
		return node
	}
	return First(node, tag)
}

// All returns every descendant of node named tag, in document order.
func All(node *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	collect(node, tag, &out)
	return out
}

func collect(node *etree.Element, tag string, out *[]*etree.Element) {
	if node == nil {
		return
	}
	for _, child := range node.ChildElements() {
		if child.Tag == tag {
			*out = append(*out, child)
		}
		collect(child, tag, out)
	}
}

// Child returns the first direct child of node named tag, or nil.
func Child(node *etree.Element, tag string) *etree.Element {
	if node == nil {
		return nil
	}
	for _, child := range node.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// Children returns every direct child of node named tag.
func Children(node *etree.Element, tag string) []*etree.Element {
	if node == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range node.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// FirstChild returns the first element child of node, or nil.
func FirstChild(node *etree.Element) *etree.Element {
	if node == nil {
		return nil
	}
	children := node.ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// Text returns the trimmed text of the first descendant named tag, or "".
func Text(node *etree.Element, tag string) string {
	v, _ := Lookup(node, tag)
	return v
}

// Lookup is Text with presence reported separately. The boolean is false
// when no element named tag exists below node.
func Lookup(node *etree.Element, tag string) (string, bool) {
	el := First(node, tag)
	if el == nil {
		return "", false
	}
	return strings.TrimSpace(el.Text()), true
}

// ChildText returns the trimmed text of the first direct child named tag.
func ChildText(node *etree.Element, tag string) string {
	el := Child(node, tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// Attr returns attribute attr of the first descendant named tag, or "".
func Attr(node *etree.Element, tag, attr string) string {
	return OwnAttr(First(node, tag), attr)
}

// OwnAttr returns attribute attr of node itself, or "".
func OwnAttr(node *etree.Element, attr string) string {
	if node == nil {
		return ""
	}
	return node.SelectAttrValue(attr, "")
}
