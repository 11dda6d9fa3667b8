package tei

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/FocuswithJustin/Apparatus/core/apparatus"
	"github.com/FocuswithJustin/Apparatus/core/encoding"
	"github.com/antchfx/xmlquery"
)

// indentStep is the per-level indentation used when serializing rewritten
// variation units.
const indentStep = "  "

// Write serializes the document to w. Untouched markup is emitted as
// parsed; app elements registered through ReplaceUnit are emitted from
// the apparatus model instead, keeping the original app attributes.
func (d *Document) Write(w io.Writer) error {
	var buf bytes.Buffer
	d.writeNode(&buf, d.root)
	_, err := w.Write(buf.Bytes())
	return err
}

func (d *Document) writeNode(buf *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			d.writeNode(buf, child)
		}

	case xmlquery.DeclarationNode:
		buf.WriteString("<?xml")
		for _, attr := range n.Attr {
			buf.WriteString(" ")
			buf.WriteString(attr.Name.Local)
			buf.WriteString("=\"")
			buf.WriteString(encoding.EscapeXMLAttr(attr.Value))
			buf.WriteString("\"")
		}
		buf.WriteString("?>")

	case xmlquery.ElementNode:
		if n.Data == "app" {
			if u, ok := d.replaced[attrValue(n, "xml:id")]; ok {
				d.writeReplacedApp(buf, n, u)
				return
			}
		}

		name := n.Data
		if n.Prefix != "" {
			name = n.Prefix + ":" + n.Data
		}
		buf.WriteString("<")
		buf.WriteString(name)
		for _, attr := range n.Attr {
			buf.WriteString(" ")
			buf.WriteString(attrName(attr.Name.Space, attr.Name.Local))
			buf.WriteString("=\"")
			buf.WriteString(encoding.EscapeXMLAttr(attr.Value))
			buf.WriteString("\"")
		}
		if n.FirstChild == nil {
			buf.WriteString("/>")
			return
		}
		buf.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			d.writeNode(buf, child)
		}
		buf.WriteString("</")
		buf.WriteString(name)
		buf.WriteString(">")

	case xmlquery.TextNode:
		buf.WriteString(encoding.EscapeXMLText(n.Data))

	case xmlquery.CharDataNode:
		buf.WriteString("<![CDATA[")
		buf.WriteString(n.Data)
		buf.WriteString("]]>")

	case xmlquery.CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	}
}

// writeReplacedApp emits a rewritten unit in place of its original app
// element. The opening tag keeps the original attributes; the children
// come from the replacement, indented one step past the element's own
// line indentation.
func (d *Document) writeReplacedApp(buf *bytes.Buffer, n *xmlquery.Node, u *apparatus.Unit) {
	base := lineIndent(n)
	buf.WriteString("<app")
	for _, attr := range n.Attr {
		buf.WriteString(" ")
		buf.WriteString(attrName(attr.Name.Space, attr.Name.Local))
		buf.WriteString("=\"")
		buf.WriteString(encoding.EscapeXMLAttr(attr.Value))
		buf.WriteString("\"")
	}
	buf.WriteString(">\n")
	for _, c := range u.Children {
		writeChild(buf, c, base+indentStep)
	}
	buf.WriteString(base)
	buf.WriteString("</app>")
}

// lineIndent returns the whitespace that opens the line n sits on, so a
// rewritten element can be re-indented to match its surroundings.
func lineIndent(n *xmlquery.Node) string {
	prev := n.PrevSibling
	if prev == nil || prev.Type != xmlquery.TextNode {
		return ""
	}
	s := prev.Data
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if strings.TrimSpace(s) != "" {
		return ""
	}
	return s
}

// FormatUnit serializes a variation unit as a standalone app element.
func FormatUnit(u *apparatus.Unit) string {
	var buf bytes.Buffer
	buf.WriteString("<app")
	writeAttr(&buf, "xml:id", u.ID)
	buf.WriteString(">\n")
	for _, c := range u.Children {
		writeChild(&buf, c, indentStep)
	}
	buf.WriteString("</app>\n")
	return buf.String()
}

func writeChild(buf *bytes.Buffer, c apparatus.Child, indent string) {
	switch v := c.(type) {
	case *apparatus.Lemma:
		buf.WriteString(indent)
		buf.WriteString("<lem")
		writeAttr(buf, "xml:id", v.ID)
		writeAttr(buf, "n", v.N)
		writeAttr(buf, "wit", witAttr(v.Wits))
		closeInline(buf, "lem", v.Text, v.Content)

	case *apparatus.Reading:
		buf.WriteString(indent)
		buf.WriteString("<rdg")
		writeAttr(buf, "xml:id", v.ID)
		writeAttr(buf, "n", v.N)
		writeAttr(buf, "type", v.Type)
		writeAttr(buf, "cause", v.Cause)
		writeAttr(buf, "ana", v.Ana)
		writeAttr(buf, "xml:lang", v.Lang)
		writeAttr(buf, "wit", witAttr(v.Wits))
		closeInline(buf, "rdg", v.Text, v.Content)

	case *apparatus.WitDetail:
		buf.WriteString(indent)
		buf.WriteString("<witDetail")
		writeAttr(buf, "xml:id", v.ID)
		writeAttr(buf, "n", v.N)
		writeAttr(buf, "type", v.Type)
		writeAttr(buf, "target", strings.Join(v.Targets, " "))
		writeAttr(buf, "wit", witAttr(v.Wits))
		if len(v.Certainties) == 0 {
			closeInline(buf, "witDetail", v.Text, v.Content)
			return
		}
		buf.WriteString(">")
		if v.Text != "" {
			buf.WriteString(encoding.EscapeXMLText(v.Text))
		}
		buf.WriteString("\n")
		for _, cert := range v.Certainties {
			buf.WriteString(indent + indentStep)
			buf.WriteString("<certainty")
			writeAttr(buf, "target", cert.Target)
			writeAttr(buf, "locus", cert.Locus)
			writeAttr(buf, "degree", cert.Degree)
			buf.WriteString("/>\n")
		}
		for _, e := range v.Content {
			buf.WriteString(indent + indentStep)
			writeElement(buf, e)
			buf.WriteString("\n")
		}
		buf.WriteString(indent)
		buf.WriteString("</witDetail>\n")

	case *apparatus.Note:
		buf.WriteString(indent)
		buf.WriteString("<note")
		if v.Text == "" && len(v.Lists) == 0 {
			buf.WriteString("/>\n")
			return
		}
		buf.WriteString(">")
		if v.Text != "" {
			buf.WriteString(encoding.EscapeXMLText(v.Text))
		}
		if len(v.Lists) == 0 {
			buf.WriteString("</note>\n")
			return
		}
		buf.WriteString("\n")
		for _, list := range v.Lists {
			buf.WriteString(indent + indentStep)
			buf.WriteString("<listRelation")
			writeAttr(buf, "type", list.Type)
			buf.WriteString(">\n")
			for _, rel := range list.Relations {
				buf.WriteString(indent + indentStep + indentStep)
				buf.WriteString("<relation")
				writeAttr(buf, "active", strings.Join(rel.Active, " "))
				writeAttr(buf, "passive", strings.Join(rel.Passive, " "))
				writeAttr(buf, "ana", rel.Ana)
				buf.WriteString("/>\n")
			}
			buf.WriteString(indent + indentStep)
			buf.WriteString("</listRelation>\n")
		}
		buf.WriteString(indent)
		buf.WriteString("</note>\n")

	case *apparatus.Comment:
		buf.WriteString(indent)
		buf.WriteString("<!--")
		buf.WriteString(v.Text)
		buf.WriteString("-->\n")
	}
}

// closeInline finishes an opened start tag with the element's inline
// content, self-closing when there is none, and ends the line.
func closeInline(buf *bytes.Buffer, tag, text string, content []*apparatus.Element) {
	if text == "" && len(content) == 0 {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteString(">")
	writeInline(buf, text, content)
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func writeInline(buf *bytes.Buffer, text string, content []*apparatus.Element) {
	buf.WriteString(encoding.EscapeXMLText(text))
	for _, e := range content {
		writeElement(buf, e)
	}
}

func writeElement(buf *bytes.Buffer, e *apparatus.Element) {
	buf.WriteString("<")
	buf.WriteString(e.Tag)
	for _, name := range attrOrder(e.Attrs) {
		writeAttr(buf, name, e.Attrs[name])
	}
	if e.Text == "" && len(e.Children) == 0 {
		buf.WriteString("/>")
	} else {
		buf.WriteString(">")
		writeInline(buf, e.Text, e.Children)
		buf.WriteString("</")
		buf.WriteString(e.Tag)
		buf.WriteString(">")
	}
	if e.Tail != "" {
		buf.WriteString(encoding.EscapeXMLText(e.Tail))
	}
}

// preferredAttrs is the emission order for attribute names the apparatus
// encoding uses. Anything else follows alphabetically.
var preferredAttrs = []string{
	"xml:id", "n", "type", "cause", "ana", "xml:lang", "wit", "target",
	"active", "passive", "locus", "degree", "reason", "extent", "unit",
	"rend",
}

func attrOrder(attrs map[string]string) []string {
	if len(attrs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(attrs))
	var order []string
	for _, name := range preferredAttrs {
		if _, ok := attrs[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range attrs {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	buf.WriteString(" ")
	buf.WriteString(name)
	buf.WriteString("=\"")
	buf.WriteString(encoding.EscapeXMLAttr(value))
	buf.WriteString("\"")
}

// witAttr rebuilds a wit attribute from citation tokens, restoring the
// "#" reference markers. The rell token stays bare.
func witAttr(wits []string) string {
	if len(wits) == 0 {
		return ""
	}
	parts := make([]string, len(wits))
	for i, w := range wits {
		if w == apparatus.RellToken {
			parts[i] = w
		} else {
			parts[i] = "#" + w
		}
	}
	return strings.Join(parts, " ")
}
