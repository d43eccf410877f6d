package mvt

import (
	"fmt"
	"strings"

	"github.com/atlasdatatech/sqltomvt/tileset"
)

// Slot identifies a placeholder in a layer query template.
type Slot uint8

const (
	SlotBBox Slot = iota + 1
	SlotZoom
	SlotPixelWidth
	SlotPixelHeight
	SlotLanguages
	SlotGeometry
)

func (s Slot) String() string {
	switch s {
	case SlotBBox:
		return "bbox"
	case SlotZoom:
		return "zoom"
	case SlotPixelWidth:
		return "pixel_width"
	case SlotPixelHeight:
		return "pixel_height"
	case SlotLanguages:
		return "languages"
	case SlotGeometry:
		return "geometry"
	}
	return fmt.Sprintf("Slot(%d)", s)
}

// tokens recognised between exclamation marks
const (
	tokenBBox             = "bbox"
	tokenScaleDenominator = "scale_denominator"
	tokenPixelWidth       = "pixel_width"
	tokenPixelHeight      = "pixel_height"
)

// ZoomFunc is the only function !scale_denominator! may be passed to. The
// call as a whole is replaced by the zoom expression.
const ZoomFunc = "z"

type section struct {
	text string
	slot Slot
}

// Template is a layer query split into literal sections and slots. It is
// immutable once parsed.
type Template struct {
	sections []section
	slots    map[Slot]int
}

// Bindings hold the SQL expressions substituted into the slots of a template.
type Bindings struct {
	BBox        string
	Zoom        string
	PixelWidth  string
	PixelHeight string
	Languages   string
	// Geometry rewrites the (possibly qualified) geometry column reference.
	// When nil the reference is kept as is.
	Geometry func(ref string) string
}

// ParseTemplate splits query into sections. A query wrapped as
// "( ... ) AS t" is unwrapped first. The geometry field must be referenced
// exactly once outside of string literals and comments.
func ParseTemplate(query, geometryField string) (*Template, error) {
	if geometryField == "" || !isIdent(geometryField) {
		return nil, ErrTemplate{Reason: fmt.Sprintf("geometry field %q is not a plain identifier", geometryField)}
	}
	p := parser{
		src:  unwrapQuery(query),
		geom: geometryField,
		tmpl: &Template{slots: make(map[Slot]int)},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.tmpl, nil
}

// Has reports whether the template contains the slot.
func (t *Template) Has(s Slot) bool { return t.slots[s] > 0 }

// Render substitutes every slot.
func (t *Template) Render(b Bindings) string {
	var sb strings.Builder
	for _, s := range t.sections {
		switch s.slot {
		case SlotBBox:
			sb.WriteString(b.BBox)
		case SlotZoom:
			sb.WriteString(b.Zoom)
		case SlotPixelWidth:
			sb.WriteString(b.PixelWidth)
		case SlotPixelHeight:
			sb.WriteString(b.PixelHeight)
		case SlotLanguages:
			sb.WriteString(b.Languages)
		case SlotGeometry:
			if b.Geometry == nil {
				sb.WriteString(s.text)
			} else {
				sb.WriteString(b.Geometry(s.text))
			}
		default:
			sb.WriteString(s.text)
		}
	}
	return sb.String()
}

// unwrapQuery removes the outer parenthesis and the trailing alias of a
// query written as a sub-select, e.g. "(SELECT ...) AS t".
func unwrapQuery(query string) string {
	q := strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
	if !strings.HasPrefix(q, "(") {
		return q
	}
	if i := strings.LastIndex(q, ")"); i > 0 {
		return q[1:i]
	}
	return q
}

type parser struct {
	src  string
	pos  int
	geom string
	lit  []byte
	tmpl *Template
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return ErrTemplate{Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) flush() {
	if len(p.lit) == 0 {
		return
	}
	p.tmpl.sections = append(p.tmpl.sections, section{text: string(p.lit)})
	p.lit = p.lit[:0]
}

func (p *parser) emit(s Slot, text string) {
	p.flush()
	p.tmpl.sections = append(p.tmpl.sections, section{slot: s, text: text})
	p.tmpl.slots[s]++
}

func (p *parser) parse() error {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		var err error
		switch {
		case ch == '\'' || ch == '"':
			err = p.quoted(ch)
		case ch == '$':
			err = p.dollar()
		case ch == '-' && p.peek(1) == '-':
			p.copyUntil("\n")
		case ch == '/' && p.peek(1) == '*':
			err = p.blockComment()
		case ch == '!':
			err = p.bang()
		case ch == '{':
			err = p.brace()
		case isIdentStart(ch):
			err = p.word()
		case isDigit(ch):
			p.copyWhile(isIdentChar)
		default:
			p.lit = append(p.lit, ch)
			p.pos++
		}
		if err != nil {
			return err
		}
	}
	p.flush()

	switch n := p.tmpl.slots[SlotGeometry]; {
	case n == 0:
		return p.errorf("geometry field %q is not referenced by the query", p.geom)
	case n > 1:
		return p.errorf("geometry field %q is referenced %v times, expected exactly once", p.geom, n)
	}
	return nil
}

func (p *parser) peek(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) copyWhile(fn func(byte) bool) {
	start := p.pos
	for p.pos < len(p.src) && fn(p.src[p.pos]) {
		p.pos++
	}
	p.lit = append(p.lit, p.src[start:p.pos]...)
}

func (p *parser) copyUntil(end string) bool {
	i := strings.Index(p.src[p.pos:], end)
	if i < 0 {
		p.lit = append(p.lit, p.src[p.pos:]...)
		p.pos = len(p.src)
		return false
	}
	stop := p.pos + i + len(end)
	p.lit = append(p.lit, p.src[p.pos:stop]...)
	p.pos = stop
	return true
}

func (p *parser) blockComment() error {
	if !p.copyUntil("*/") {
		return p.errorf("unterminated comment")
	}
	return nil
}

// quoted copies a string literal or quoted identifier. A doubled quote
// character is an escaped quote.
func (p *parser) quoted(q byte) error {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		if p.src[p.pos] != q {
			p.pos++
			continue
		}
		if p.peek(1) == q {
			p.pos += 2
			continue
		}
		p.pos++
		text := p.src[start:p.pos]
		if err := p.checkQuoted(text); err != nil {
			return err
		}
		p.lit = append(p.lit, text...)
		return nil
	}
	return p.errorf("unterminated quoted text starting at offset %v", start)
}

// dollar copies dollar quoted text such as $$...$$ or $tag$...$tag$. A "$"
// followed by a digit is a parameter and stays plain text.
func (p *parser) dollar() error {
	end := p.pos + 1
	if end < len(p.src) && isIdentStart(p.src[end]) {
		for end < len(p.src) && isIdentChar(p.src[end]) {
			end++
		}
	}
	if end >= len(p.src) || p.src[end] != '$' {
		p.lit = append(p.lit, '$')
		p.pos++
		return nil
	}

	start := p.pos
	tag := p.src[start : end+1]
	i := strings.Index(p.src[end+1:], tag)
	if i < 0 {
		return p.errorf("unterminated dollar quoted text starting at offset %v", start)
	}
	p.pos = end + 1 + i + len(tag)
	text := p.src[start:p.pos]
	if err := p.checkQuoted(text); err != nil {
		return err
	}
	p.lit = append(p.lit, text...)
	return nil
}

// checkQuoted rejects placeholders inside quoted text, they would be sent to
// the database unsubstituted.
func (p *parser) checkQuoted(text string) error {
	for _, token := range []string{tokenBBox, tokenScaleDenominator, tokenPixelWidth, tokenPixelHeight} {
		if strings.Contains(text, "!"+token+"!") {
			return p.errorf("!%v! can not be used inside quoted text %v", token, text)
		}
	}
	if strings.Contains(text, tileset.LanguagesToken) {
		return p.errorf("%v can not be used inside quoted text %v", tileset.LanguagesToken, text)
	}
	return nil
}

// bang handles !token! placeholders. A "!" that does not start a token, as
// in "!=", is plain text.
func (p *parser) bang() error {
	end := p.pos + 1
	for end < len(p.src) && isIdentChar(p.src[end]) {
		end++
	}
	if end == p.pos+1 || end >= len(p.src) || p.src[end] != '!' {
		p.lit = append(p.lit, '!')
		p.pos++
		return nil
	}

	token := p.src[p.pos+1 : end]
	switch token {
	case tokenBBox:
		p.emit(SlotBBox, "")
	case tokenPixelWidth:
		p.emit(SlotPixelWidth, "")
	case tokenPixelHeight:
		p.emit(SlotPixelHeight, "")
	case tokenScaleDenominator:
		call := ZoomFunc + "("
		n := len(p.lit)
		if n < len(call) || string(p.lit[n-len(call):]) != call ||
			(n > len(call) && isIdentChar(p.lit[n-len(call)-1])) ||
			end+1 >= len(p.src) || p.src[end+1] != ')' {
			return p.errorf("!%v! must only be used as the argument of %v(), e.g. %v(!%v!)",
				token, ZoomFunc, ZoomFunc, token)
		}
		p.lit = p.lit[:n-len(call)]
		p.emit(SlotZoom, "")
		end++
	default:
		return p.errorf("unknown token !%v!", token)
	}
	p.pos = end + 1
	return nil
}

// brace handles {name} placeholders.
func (p *parser) brace() error {
	end := p.pos + 1
	for end < len(p.src) && isIdentChar(p.src[end]) {
		end++
	}
	if end == p.pos+1 || end >= len(p.src) || p.src[end] != '}' {
		p.lit = append(p.lit, '{')
		p.pos++
		return nil
	}
	token := p.src[p.pos : end+1]
	if token != tileset.LanguagesToken {
		return p.errorf("unknown token %v", token)
	}
	p.emit(SlotLanguages, "")
	p.pos = end + 1
	return nil
}

func (p *parser) word() error {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	w := p.src[start:p.pos]
	// unquoted identifiers are case insensitive; "::geometry" is a type
	// cast, not a column
	if !strings.EqualFold(w, p.geom) || strings.HasSuffix(strings.TrimRight(string(p.lit), " \t\r\n"), "::") {
		p.lit = append(p.lit, w...)
		return nil
	}

	ref := w
	if n := len(p.lit); n > 0 && p.lit[n-1] == '.' {
		i := n - 1
		for i > 0 && isIdentChar(p.lit[i-1]) {
			i--
		}
		if i == n-1 {
			return p.errorf("geometry field %q has an unsupported qualifier", p.geom)
		}
		ref = string(p.lit[i:n]) + w
		p.lit = p.lit[:i]
	}
	if prevWordIs(p.lit, "AS") {
		return p.errorf("geometry field %q is used as an alias, reference the column instead", p.geom)
	}
	p.emit(SlotGeometry, ref)
	return nil
}

// prevWordIs reports whether the last word of b, ignoring trailing spaces,
// equals w (case insensitive).
func prevWordIs(b []byte, w string) bool {
	end := len(b)
	for end > 0 && isSpace(b[end-1]) {
		end--
	}
	if end == len(b) {
		// no separating space, so the previous text is part of a longer token
		return false
	}
	start := end
	for start > 0 && isIdentChar(b[start-1]) {
		start--
	}
	return strings.EqualFold(string(b[start:end]), w)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}
