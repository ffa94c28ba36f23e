package gateway

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// TextKey holds the character data of an element that also has attributes.
const TextKey = "#text"

var errEmptyDocument = errors.New("empty xml document")

type xmlNode struct {
	name     string
	attrs    map[string]string
	children []*xmlNode
	text     strings.Builder
	hasText  bool
}

// ParseXML converts a document into nested maps keyed by local element
// names. Repeated siblings become []any, attributes are merged into the
// element map and leaves become trimmed strings, or nil when empty.
func ParseXML(r io.Reader) (map[string]any, error) {
	d := xml.NewDecoder(r)

	var (
		root  *xmlNode
		stack []*xmlNode
	)
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: attrsOf(t.Attr)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			} else {
				return nil, errors.New("xml document has more than one root element")
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if len(top.children) == 0 {
				top.text.Write(t)
				top.hasText = true
			}
		}
	}
	if root == nil {
		return nil, errEmptyDocument
	}

	switch v := root.value().(type) {
	case map[string]any:
		return v, nil
	case string:
		if v != "" {
			return map[string]any{TextKey: v}, nil
		}
	}
	return map[string]any{}, nil
}

func attrsOf(attrs []xml.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		out[a.Name.Local] = a.Value
	}
	return out
}

func (n *xmlNode) value() any {
	if len(n.children) == 0 {
		if !n.hasText {
			return nil
		}
		return strings.TrimSpace(n.text.String())
	}

	out := make(map[string]any, len(n.children))
	for _, child := range n.children {
		v := child.value()
		if len(child.attrs) > 0 {
			merged := make(map[string]any, len(child.attrs)+1)
			for k, a := range child.attrs {
				merged[k] = a
			}
			switch cv := v.(type) {
			case map[string]any:
				for k, x := range cv {
					merged[k] = x
				}
			case string:
				if cv != "" {
					merged[TextKey] = cv
				}
			}
			v = merged
		}
		appendChild(out, child.name, v)
	}
	return out
}

func appendChild(m map[string]any, name string, v any) {
	existing, ok := m[name]
	if !ok {
		m[name] = v
		return
	}
	if list, isList := existing.([]any); isList {
		m[name] = append(list, v)
		return
	}
	m[name] = []any{existing, v}
}
