package collect

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dusk-indust/spectrace/internal/trace"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// TreeSitterScanner finds test/it call sites by walking a TypeScript syntax
// tree. Unlike RegexScanner it ignores calls inside comments and strings and
// reads the modifier off test.skip / test.todo.
//
// A new tree-sitter parser is created per Scan call, so one scanner can be
// shared between goroutines.
type TreeSitterScanner struct {
	typescript *tree_sitter.Language
	tsx        *tree_sitter.Language
}

// NewTreeSitterScanner creates a scanner with the TypeScript and TSX
// grammars registered. Plain JavaScript parses with the TypeScript grammar.
func NewTreeSitterScanner() *TreeSitterScanner {
	return &TreeSitterScanner{
		typescript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		tsx:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	}
}

func (s *TreeSitterScanner) languageFor(path string) *tree_sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx":
		return s.tsx
	default:
		return s.typescript
	}
}

// Scan implements Scanner.
func (s *TreeSitterScanner) Scan(path string, source []byte) ([]Case, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(s.languageFor(path)); err != nil {
		return nil, fmt.Errorf("set language for %s: %w", path, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	cursor := tree.RootNode().Walk()
	defer cursor.Close()

	var out []Case
	walkCalls(cursor, source, &out)
	return out, nil
}

// walkCalls visits the tree depth-first so cases come out in source order.
func walkCalls(cursor *tree_sitter.TreeCursor, source []byte, out *[]Case) {
	node := cursor.Node()
	if node.Kind() == "call_expression" {
		if c, ok := testCase(node, source); ok {
			*out = append(*out, c)
		}
	}

	if cursor.GotoFirstChild() {
		walkCalls(cursor, source, out)
		for cursor.GotoNextSibling() {
			walkCalls(cursor, source, out)
		}
		cursor.GotoParent()
	}
}

// testCase recognizes test(...), it(...) and their .only/.skip/.todo
// variants whose first argument is a literal name.
func testCase(call *tree_sitter.Node, source []byte) (Case, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return Case{}, false
	}

	status := trace.StatusPending
	switch fn.Kind() {
	case "identifier":
		if !isTestFunc(fn.Utf8Text(source)) {
			return Case{}, false
		}
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Kind() != "identifier" || !isTestFunc(obj.Utf8Text(source)) {
			return Case{}, false
		}
		switch prop.Utf8Text(source) {
		case "skip":
			status = trace.StatusSkipped
		case "only", "todo":
		default:
			return Case{}, false
		}
	default:
		return Case{}, false
	}

	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return Case{}, false
	}
	name, ok := literalText(args.NamedChild(0), source)
	if !ok || name == "" {
		return Case{}, false
	}
	return Case{Name: name, Status: status}, true
}

func isTestFunc(name string) bool {
	return name == "test" || name == "it"
}

// literalText returns the decoded contents of a string literal or a template
// literal without substitutions.
func literalText(node *tree_sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "string":
	case "template_string":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if child := node.NamedChild(i); child != nil && child.Kind() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	raw := node.Utf8Text(source)
	if len(raw) < 2 {
		return "", false
	}
	return unescapeJS(raw[1 : len(raw)-1]), true
}

// unescapeJS decodes the escape sequences of a JavaScript string body.
// Unknown escapes stand for the escaped character itself, and malformed hex
// escapes are kept verbatim.
func unescapeJS(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); {
		if body[i] != '\\' || i+1 == len(body) {
			b.WriteByte(body[i])
			i++
			continue
		}

		c := body[i+1]
		i += 2
		switch c {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(body) && body[i] == '\n' {
				i++
			}
		case 'x':
			if r, ok := hexRune(body, i, 2); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteString(`\x`)
			}
		case 'u':
			r, n, ok := unicodeEscape(body, i)
			if !ok {
				b.WriteString(`\u`)
				break
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(body[i:], `\u`) {
				if lo, m, ok := unicodeEscape(body, i+2); ok {
					if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
						r = pair
						i += 2 + m
					}
				}
			}
			b.WriteRune(r)
		default:
			r, size := utf8.DecodeRuneInString(body[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String()
}

// unicodeEscape reads the digits of a \uXXXX or \u{X...} escape starting at
// body[i] and reports how many bytes they span.
func unicodeEscape(body string, i int) (rune, int, bool) {
	if i < len(body) && body[i] == '{' {
		end := strings.IndexByte(body[i:], '}')
		if end < 2 {
			return 0, 0, false
		}
		r, ok := hexRune(body, i+1, end-1)
		if !ok || r > utf8.MaxRune {
			return 0, 0, false
		}
		return r, end + 1, true
	}
	r, ok := hexRune(body, i, 4)
	return r, 4, ok
}

func hexRune(body string, i, n int) (rune, bool) {
	if i+n > len(body) || n > 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(body[i:i+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
