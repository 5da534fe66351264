package globalone

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
)

const (
	responseCodeApproved = "A"

	fieldResponseCode = "RESPONSECODE"
	fieldResponseText = "RESPONSETEXT"
	fieldApprovalCode = "APPROVALCODE"
	fieldUniqueRef    = "UNIQUEREF"
	fieldError        = "ERROR"
	fieldErrorString  = "ERRORSTRING"
)

// Parse turns a response body into a tree of nested maps. Elements with
// children become maps, leaves become strings and repeated siblings become
// slices. Bodies that cannot be parsed give an empty tree.
func Parse(body []byte) map[string]interface{} {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return map[string]interface{}{}
	}

	if trimmed[0] == '{' {
		tree := map[string]interface{}{}
		if err := json.Unmarshal(trimmed, &tree); err != nil {
			return map[string]interface{}{}
		}
		return tree
	}

	tree, err := parseXML(trimmed)
	if err != nil {
		return map[string]interface{}{}
	}
	return tree
}

type node struct {
	name     string
	text     strings.Builder
	children map[string]interface{}
}

func newNode(name string) *node {
	return &node{name: name, children: map[string]interface{}{}}
}

func (n *node) value() interface{} {
	if len(n.children) > 0 {
		return n.children
	}
	return strings.TrimSpace(n.text.String())
}

func (n *node) add(name string, v interface{}) {
	existing, ok := n.children[name]
	if !ok {
		n.children[name] = v
		return
	}
	if list, ok := existing.([]interface{}); ok {
		n.children[name] = append(list, v)
		return
	}
	n.children[name] = []interface{}{existing, v}
}

func parseXML(body []byte) (map[string]interface{}, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	stack := []*node{newNode("")}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, newNode(t.Name.Local))
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		case xml.EndElement:
			if len(stack) < 2 {
				return nil, io.ErrUnexpectedEOF
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].add(n.name, n.value())
		}
	}

	if len(stack) != 1 {
		return nil, io.ErrUnexpectedEOF
	}
	return stack[0].children, nil
}

// lookup walks path through tree. Any shape mismatch yields "".
func lookup(tree map[string]interface{}, path ...string) string {
	var cur interface{} = tree
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		if cur, ok = m[key]; !ok {
			return ""
		}
	}

	switch v := cur.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// normalize builds the Response for a tree whose payload sits under root.
func normalize(tree map[string]interface{}, root string, test bool) *domain.Response {
	success := lookup(tree, root, fieldResponseCode) == responseCodeApproved

	resp := &domain.Response{
		Success:       success,
		Message:       lookup(tree, root, fieldResponseText),
		Params:        tree,
		Authorization: lookup(tree, root, fieldApprovalCode),
		UniqueRef:     lookup(tree, root, fieldUniqueRef),
		Test:          test,
	}
	if !success {
		resp.ErrorCode = lookup(tree, fieldError, fieldErrorString)
	}
	return resp
}
