// Package tei loads and rewrites TEI critical apparatus documents. It
// parses listWit and app elements into the apparatus model, and serializes
// edited variation units back into the source document without disturbing
// the surrounding markup.
package tei

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/errors"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed TEI file. Variation units replaced through
// ReplaceUnit shadow their originals when the document is written back.
type Document struct {
	root     *xmlquery.Node
	replaced map[string]*apparatus.Unit
}

// Load parses a TEI document from r.
func Load(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.NewParse("TEI XML", "", err.Error(), err)
	}
	return &Document{
		root:     root,
		replaced: make(map[string]*apparatus.Unit),
	}, nil
}

// LoadFile parses the TEI document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		var perr *errors.ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Query runs an XPath expression against the document and returns the
// matching nodes. The expression is compiled first so malformed queries
// surface as errors rather than empty results.
func (d *Document) Query(expr string) ([]*xmlquery.Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	return nodes, nil
}

// Witnesses returns the canonical witness list from the document's first
// listWit element, in document order. Each witness is identified by its
// xml:id, falling back to n and then to the element text.
func (d *Document) Witnesses() ([]string, error) {
	lists, err := d.Query("//listWit")
	if err != nil {
		return nil, errors.NewParse("TEI XML", "", err.Error(), err)
	}
	var listWit *xmlquery.Node
	if len(lists) > 0 {
		listWit = lists[0]
	}
	if listWit == nil {
		return nil, errors.NewNotFound("witness list", "")
	}

	var wits []string
	for child := listWit.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || child.Data != "witness" {
			continue
		}
		id := attrValue(child, "xml:id")
		if id == "" {
			id = attrValue(child, "n")
		}
		if id == "" {
			id = strings.TrimSpace(child.InnerText())
		}
		if id != "" {
			wits = append(wits, id)
		}
	}
	if len(wits) == 0 {
		return nil, errors.NewNotFound("witness list", "")
	}
	return wits, nil
}

// Collation parses the document's variation units over its canonical
// witness list. With no arguments every app element is included; otherwise
// only the named units are, and a missing name is an error.
func (d *Document) Collation(ids ...string) (*apparatus.Collation, error) {
	wits, err := d.Witnesses()
	if err != nil {
		return nil, err
	}

	apps, err := d.Query("//app")
	if err != nil {
		return nil, errors.NewParse("TEI XML", "", err.Error(), err)
	}

	var want map[string]bool
	if len(ids) > 0 {
		want = make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
	}

	var units []*apparatus.Unit
	for _, app := range apps {
		id := attrValue(app, "xml:id")
		if want != nil && !want[id] {
			continue
		}
		units = append(units, parseUnit(app))
		delete(want, id)
	}
	for id := range want {
		return nil, errors.NewNotFound("variation unit", id)
	}

	return apparatus.NewCollation(wits, units), nil
}

// Unit parses the single variation unit with the given xml:id.
func (d *Document) Unit(id string) (*apparatus.Unit, error) {
	apps, err := d.Query("//app")
	if err != nil {
		return nil, errors.NewParse("TEI XML", "", err.Error(), err)
	}
	for _, app := range apps {
		if attrValue(app, "xml:id") == id {
			return parseUnit(app), nil
		}
	}
	return nil, errors.NewNotFound("variation unit", id)
}

// ReplaceUnit registers u as the replacement for the app element sharing
// its identifier. The substitution happens when the document is written.
func (d *Document) ReplaceUnit(u *apparatus.Unit) {
	d.replaced[u.ID] = u
}

// parseUnit converts an app element into a variation unit, keeping its
// children (including structural comments) in document order.
func parseUnit(app *xmlquery.Node) *apparatus.Unit {
	u := &apparatus.Unit{ID: attrValue(app, "xml:id")}
	for child := app.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.CommentNode:
			u.Children = append(u.Children, &apparatus.Comment{Text: child.Data})
		case xmlquery.ElementNode:
			switch child.Data {
			case "lem":
				u.Children = append(u.Children, parseLemma(child))
			case "rdg":
				u.Children = append(u.Children, parseReading(child))
			case "witDetail":
				u.Children = append(u.Children, parseWitDetail(child))
			case "note":
				u.Children = append(u.Children, parseNote(child))
			}
		}
	}
	return u
}

func parseLemma(n *xmlquery.Node) *apparatus.Lemma {
	text, content := parseInline(n)
	return &apparatus.Lemma{
		ID:      attrValue(n, "xml:id"),
		N:       attrValue(n, "n"),
		Wits:    apparatus.SplitCitations(attrValue(n, "wit")),
		Text:    text,
		Content: content,
	}
}

func parseReading(n *xmlquery.Node) *apparatus.Reading {
	text, content := parseInline(n)
	return &apparatus.Reading{
		ID:      attrValue(n, "xml:id"),
		N:       attrValue(n, "n"),
		Type:    attrValue(n, "type"),
		Cause:   attrValue(n, "cause"),
		Ana:     attrValue(n, "ana"),
		Lang:    attrValue(n, "xml:lang"),
		Wits:    apparatus.SplitCitations(attrValue(n, "wit")),
		Text:    text,
		Content: content,
	}
}

func parseWitDetail(n *xmlquery.Node) *apparatus.WitDetail {
	d := &apparatus.WitDetail{
		ID:      attrValue(n, "xml:id"),
		N:       attrValue(n, "n"),
		Type:    attrValue(n, "type"),
		Wits:    apparatus.SplitCitations(attrValue(n, "wit")),
		Targets: strings.Fields(attrValue(n, "target")),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			if child.Type == xmlquery.TextNode {
				if t := strings.TrimSpace(child.Data); t != "" {
					if d.Text != "" {
						d.Text += " "
					}
					d.Text += t
				}
			}
			continue
		}
		if child.Data == "certainty" {
			d.Certainties = append(d.Certainties, &apparatus.Certainty{
				Target: attrValue(child, "target"),
				Locus:  attrValue(child, "locus"),
				Degree: attrValue(child, "degree"),
			})
			continue
		}
		d.Content = append(d.Content, parseElement(child))
	}
	return d
}

func parseNote(n *xmlquery.Node) *apparatus.Note {
	note := &apparatus.Note{}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode:
			if t := strings.TrimSpace(child.Data); t != "" {
				if note.Text != "" {
					note.Text += " "
				}
				note.Text += t
			}
		case xmlquery.ElementNode:
			if child.Data != "listRelation" {
				continue
			}
			list := &apparatus.ListRelation{Type: attrValue(child, "type")}
			for rel := child.FirstChild; rel != nil; rel = rel.NextSibling {
				if rel.Type != xmlquery.ElementNode || rel.Data != "relation" {
					continue
				}
				list.Relations = append(list.Relations, &apparatus.Relation{
					Active:  strings.Fields(attrValue(rel, "active")),
					Passive: strings.Fields(attrValue(rel, "passive")),
					Ana:     attrValue(rel, "ana"),
				})
			}
			note.Lists = append(note.Lists, list)
		}
	}
	return note
}

// parseInline splits a mixed-content element into its leading text and its
// child elements, attaching trailing text to each child as its tail.
// Whitespace-only runs are dropped.
func parseInline(n *xmlquery.Node) (string, []*apparatus.Element) {
	var text string
	var content []*apparatus.Element
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			t := strings.TrimSpace(child.Data)
			if t == "" {
				continue
			}
			if len(content) == 0 {
				if text != "" {
					text += " "
				}
				text += t
			} else {
				last := content[len(content)-1]
				if last.Tail != "" {
					last.Tail += " "
				}
				last.Tail += t
			}
		case xmlquery.ElementNode:
			content = append(content, parseElement(child))
		}
	}
	return text, content
}

// parseElement converts an element subtree into the generic content model.
func parseElement(n *xmlquery.Node) *apparatus.Element {
	e := &apparatus.Element{Tag: n.Data}
	for _, a := range n.Attr {
		e.SetAttr(attrName(a.Name.Space, a.Name.Local), a.Value)
	}
	e.Text, e.Children = parseInline(n)
	return e
}

const xmlNamespaceURL = "http://www.w3.org/XML/1998/namespace"

// attrName reconstructs the source spelling of an attribute name from the
// namespace form the parser recorded.
func attrName(space, local string) string {
	switch space {
	case "":
		return local
	case "xmlns":
		return "xmlns:" + local
	case "xml", xmlNamespaceURL:
		return "xml:" + local
	}
	return space + ":" + local
}

// attrValue returns the named attribute of n, matching on the local part
// so that prefixed spellings like xml:id resolve regardless of how the
// parser recorded the namespace.
func attrValue(n *xmlquery.Node, name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
