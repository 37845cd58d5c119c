package literal

import (
	"fmt"
	"strconv"
	"strings"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
)

// SyntaxError reports where the literal dialect could not be normalized.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return commonerrors.ErrLiteralSyntax
}

// Normalize rewrites a literal written in the relaxed dialect (unquoted
// keys, single-quoted or backtick strings, trailing commas, line and block
// comments) into strict JSON text. The scanner tracks string state, so
// colons, commas, brackets and comment markers inside strings are copied
// untouched.
func Normalize(body string) (string, error) {
	s := &scanner{src: body}
	if err := s.run(); err != nil {
		return "", err
	}
	if s.pendingComma {
		return "", s.errorf(len(body), "dangling comma at end of literal")
	}
	return string(s.out), nil
}

type scanner struct {
	src          string
	pos          int
	out          []byte
	pendingComma bool
	commaAt      int // index of the pending comma in out
}

func (s *scanner) errorf(offset int, format string, args ...any) error {
	line, col := 1, 1
	for i := 0; i < offset && i < len(s.src); i++ {
		if s.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{Offset: offset, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// flushComma settles the last comma once the next significant byte is
// known: it is dropped when that byte closes a container.
func (s *scanner) flushComma(next byte) {
	if !s.pendingComma {
		return
	}
	s.pendingComma = false
	if next == ']' || next == '}' {
		s.out = append(s.out[:s.commaAt], s.out[s.commaAt+1:]...)
	}
}

func (s *scanner) run() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.out = append(s.out, c)
			s.pos++

		case c == '/' && s.peek(1) == '/':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}

		case c == '/' && s.peek(1) == '*':
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				return s.errorf(s.pos, "unterminated block comment")
			}
			s.pos += end + 4
			s.out = append(s.out, ' ')

		case c == ',':
			if s.pendingComma {
				return s.errorf(s.pos, "empty element between commas")
			}
			s.pendingComma = true
			s.commaAt = len(s.out)
			s.out = append(s.out, ',')
			s.pos++

		case c == '[' || c == '{' || c == ']' || c == '}' || c == ':':
			s.flushComma(c)
			s.out = append(s.out, c)
			s.pos++

		case c == '"' || c == '\'' || c == '`':
			s.flushComma(c)
			str, err := s.readString()
			if err != nil {
				return err
			}
			s.out = appendJSONString(s.out, str)

		case c == '-' || c == '+':
			s.flushComma(c)
			if c == '-' {
				s.out = append(s.out, '-')
			}
			s.pos++
			if !isNumberStart(s.peek(0), s.peek(1)) {
				return s.errorf(s.pos-1, "sign not followed by a number")
			}

		case isNumberStart(c, s.peek(1)):
			s.flushComma(c)
			start := s.pos
			num, err := s.readNumber()
			if err != nil {
				return err
			}
			if s.followedByColon() {
				s.out = appendJSONString(s.out, s.src[start:s.pos])
			} else {
				s.out = append(s.out, num...)
			}

		case isIdentStart(c):
			s.flushComma(c)
			start := s.pos
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			word := s.src[start:s.pos]
			switch {
			case s.followedByColon():
				s.out = appendJSONString(s.out, word)
			case word == "true" || word == "false" || word == "null":
				s.out = append(s.out, word...)
			default:
				return s.errorf(start, "unsupported bare identifier %q", word)
			}

		default:
			return s.errorf(s.pos, "unexpected character %q", c)
		}
	}
	return nil
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}
	return 0
}

// followedByColon reports whether the next non-space byte is ':'.
func (s *scanner) followedByColon() bool {
	for i := s.pos; i < len(s.src); i++ {
		switch s.src[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

// readString consumes a quoted string starting at s.pos and returns its
// decoded value.
func (s *scanner) readString() (string, error) {
	start := s.pos
	q := s.src[s.pos]
	s.pos++

	var sb strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == q:
			s.pos++
			return sb.String(), nil

		case c == '\\':
			if s.pos+1 >= len(s.src) {
				return "", s.errorf(s.pos, "unterminated escape")
			}
			if err := s.readEscape(&sb); err != nil {
				return "", err
			}

		case c == '\n' && q != '`':
			return "", s.errorf(start, "unterminated string")

		case q == '`' && c == '$' && s.peek(1) == '{':
			return "", s.errorf(s.pos, "template substitution is not a literal")

		default:
			sb.WriteByte(c)
			s.pos++
		}
	}
	return "", s.errorf(start, "unterminated string")
}

// readEscape decodes the escape sequence at s.pos (a backslash).
func (s *scanner) readEscape(sb *strings.Builder) error {
	e := s.src[s.pos+1]
	s.pos += 2
	switch e {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
		// line continuation
	case '\r':
		if s.peek(0) == '\n' {
			s.pos++
		}
	case 'x':
		v, err := s.readHex(2)
		if err != nil {
			return err
		}
		sb.WriteRune(rune(v))
	case 'u':
		if s.peek(0) == '{' {
			end := strings.IndexByte(s.src[s.pos:], '}')
			if end < 0 {
				return s.errorf(s.pos, "unterminated unicode escape")
			}
			v, err := strconv.ParseUint(s.src[s.pos+1:s.pos+end], 16, 32)
			if err != nil {
				return s.errorf(s.pos, "bad unicode escape")
			}
			s.pos += end + 1
			sb.WriteRune(rune(v))
			return nil
		}
		v, err := s.readHex(4)
		if err != nil {
			return err
		}
		// surrogate pair
		if v >= 0xD800 && v < 0xDC00 && s.peek(0) == '\\' && s.peek(1) == 'u' {
			save := s.pos
			s.pos += 2
			lo, err := s.readHex(4)
			if err == nil && lo >= 0xDC00 && lo < 0xE000 {
				sb.WriteRune(rune((v-0xD800)<<10 + (lo - 0xDC00) + 0x10000))
				return nil
			}
			s.pos = save
		}
		sb.WriteRune(rune(v))
	default:
		sb.WriteByte(e)
	}
	return nil
}

func (s *scanner) readHex(n int) (uint64, error) {
	if s.pos+n > len(s.src) {
		return 0, s.errorf(s.pos, "truncated hex escape")
	}
	v, err := strconv.ParseUint(s.src[s.pos:s.pos+n], 16, 32)
	if err != nil {
		return 0, s.errorf(s.pos, "bad hex escape %q", s.src[s.pos:s.pos+n])
	}
	s.pos += n
	return v, nil
}

// readNumber consumes a JS numeric literal and returns its JSON spelling.
func (s *scanner) readNumber() (string, error) {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isDigit(c) || c == '.' || c == '_' || isLetter(c) {
			s.pos++
			continue
		}
		prev := s.src[s.pos-1]
		if (c == '+' || c == '-') && (prev == 'e' || prev == 'E') && !isHexPrefixed(s.src[start:s.pos]) {
			s.pos++
			continue
		}
		break
	}

	raw := strings.ReplaceAll(s.src[start:s.pos], "_", "")
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "0o"), strings.HasPrefix(lower, "0b"):
		v, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return "", s.errorf(start, "bad number %q", raw)
		}
		return strconv.FormatInt(v, 10), nil
	}

	if strings.HasPrefix(raw, ".") {
		raw = "0" + raw
	}
	raw = strings.Replace(raw, ".e", ".0e", 1)
	raw = strings.Replace(raw, ".E", ".0E", 1)
	raw = strings.TrimSuffix(raw, ".")
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", s.errorf(start, "bad number %q", s.src[start:s.pos])
	}
	return raw, nil
}

const hexDigits = "0123456789abcdef"

// appendJSONString appends v as a JSON string. Non-ASCII text is kept as is.
func appendJSONString(dst []byte, v string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c == '\n':
			dst = append(dst, `\n`...)
		case c == '\t':
			dst = append(dst, `\t`...)
		case c == '\r':
			dst = append(dst, `\r`...)
		case c < 0x20:
			dst = append(dst, `\u00`...)
			dst = append(dst, hexDigits[c>>4], hexDigits[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

func isHexPrefixed(s string) bool {
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isNumberStart(c, next byte) bool {
	return isDigit(c) || (c == '.' && isDigit(next))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '$' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
