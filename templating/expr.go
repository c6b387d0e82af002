package templating

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed placeholder body of the form
// binding.method("arg", 'arg').
type Expression struct {
	Binding string
	Method  string
	Args    []string
}

// String formats the expression back into template syntax.
func (ex Expression) String() string {
	quoted := make([]string, len(ex.Args))
	for i, arg := range ex.Args {
		quoted[i] = strconv.Quote(arg)
	}

	return fmt.Sprintf(
		"%s.%s(%s)",
		ex.Binding, ex.Method, strings.Join(quoted, ", "),
	)
}

// ParseExpression parses a placeholder body. Surrounding
// whitespace is ignored. Arguments must be string literals
// in double or single quotes; a trailing comma is allowed.
func ParseExpression(src string) (Expression, error) {
	pa := exprParser{src: src}

	ex, err := pa.parse()
	if err != nil {
		return Expression{}, fmt.Errorf(
			"%w: %q: %w", ErrSyntax, strings.TrimSpace(src), err,
		)
	}

	return ex, nil
}

type exprParser struct {
	src string
	pos int
}

func (pa *exprParser) parse() (Expression, error) {
	var ex Expression

	pa.skipSpace()

	binding, err := pa.ident()
	if err != nil {
		return ex, err
	}

	if err := pa.expect('.'); err != nil {
		return ex, err
	}

	method, err := pa.ident()
	if err != nil {
		return ex, err
	}

	pa.skipSpace()

	if err := pa.expect('('); err != nil {
		return ex, err
	}

	args, err := pa.args()
	if err != nil {
		return ex, err
	}

	pa.skipSpace()

	if pa.pos != len(pa.src) {
		return ex, fmt.Errorf(
			"unexpected %q at offset %d",
			pa.src[pa.pos:], pa.pos,
		)
	}

	ex.Binding = binding
	ex.Method = method
	ex.Args = args

	return ex, nil
}

// args reads string literals up to and including the
// closing parenthesis.
func (pa *exprParser) args() ([]string, error) {
	var args []string

	for {
		pa.skipSpace()

		if pa.peek() == ')' {
			pa.pos++

			return args, nil
		}

		arg, err := pa.str()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		pa.skipSpace()

		switch pa.peek() {
		case ',':
			pa.pos++
		case ')':
			pa.pos++

			return args, nil
		default:
			return nil, pa.unexpected("',' or ')'")
		}
	}
}

func (pa *exprParser) ident() (string, error) {
	start := pa.pos

	for pa.pos < len(pa.src) {
		ch := pa.src[pa.pos]
		isLetter := ch == '_' ||
			(ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z')
		isDigit := ch >= '0' && ch <= '9'

		if !isLetter && !(isDigit && pa.pos > start) {
			break
		}

		pa.pos++
	}

	if pa.pos == start {
		return "", pa.unexpected("identifier")
	}

	return pa.src[start:pa.pos], nil
}

// str reads a quoted literal. Escapes follow Go string
// rules; inside single quotes \' and a bare " are allowed.
func (pa *exprParser) str() (string, error) {
	quote := pa.peek()
	if quote != '"' && quote != '\'' {
		return "", pa.unexpected("string literal")
	}

	start := pa.pos
	end := -1

	for idx := start + 1; idx < len(pa.src); idx++ {
		if pa.src[idx] == '\\' {
			idx++

			continue
		}

		if pa.src[idx] == quote {
			end = idx

			break
		}
	}

	if end < 0 {
		return "", fmt.Errorf(
			"unterminated string at offset %d", start,
		)
	}

	pa.pos = end + 1

	lit := pa.src[start : end+1]
	if quote == '\'' {
		lit = singleToDouble(lit[1 : len(lit)-1])
	}

	val, err := strconv.Unquote(lit)
	if err != nil {
		return "", fmt.Errorf(
			"bad string at offset %d: %w", start, err,
		)
	}

	return val, nil
}

// singleToDouble rewrites the body of a single-quoted
// literal as a double-quoted Go literal.
func singleToDouble(body string) string {
	var sb strings.Builder

	sb.WriteByte('"')

	for idx := 0; idx < len(body); idx++ {
		ch := body[idx]

		switch {
		case ch == '\\' && idx+1 < len(body):
			idx++
			if body[idx] != '\'' {
				sb.WriteByte('\\')
			}

			sb.WriteByte(body[idx])
		case ch == '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteByte(ch)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}

func (pa *exprParser) expect(ch byte) error {
	if pa.peek() != ch {
		return pa.unexpected(strconv.QuoteRune(rune(ch)))
	}

	pa.pos++

	return nil
}

func (pa *exprParser) peek() byte {
	if pa.pos >= len(pa.src) {
		return 0
	}

	return pa.src[pa.pos]
}

func (pa *exprParser) skipSpace() {
	for pa.pos < len(pa.src) {
		switch pa.src[pa.pos] {
		case ' ', '\t', '\n', '\r':
			pa.pos++
		default:
			return
		}
	}
}

func (pa *exprParser) unexpected(want string) error {
	if pa.pos >= len(pa.src) {
		return fmt.Errorf("expected %s at end of input", want)
	}

	return fmt.Errorf(
		"expected %s at offset %d, found %q",
		want, pa.pos, pa.src[pa.pos],
	)
}
