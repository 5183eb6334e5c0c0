// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

// Package legacyfmt converts legacy two-character colour codes, as typed into
// game-server chat and configuration files ("&cRed", "§lBold"), into tag
// markup ("<red>Red", "<bold>Bold").
package legacyfmt

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultPrefixes are the escape characters recognised when no other
	// prefix set is configured: the ampersand and the section sign.
	DefaultPrefixes = "&§"

	hexIntroducer = 'x'
	hexDigits     = 6
)

var (
	ErrNoPrefixes     = errors.New("at least one escape prefix is required")
	ErrInvalidPrefix  = errors.New("escape prefix must be a valid, printable, non-space character")
	ErrAmbiguousCodes = errors.New("escape prefix collides with a format code character")
)

// simpleCodes maps a (lowercased) code character to its markup tag.
// It is never written after init.
var simpleCodes = map[byte]string{
	'0': "<black>",
	'1': "<dark_blue>",
	'2': "<dark_green>",
	'3': "<dark_aqua>",
	'4': "<dark_red>",
	'5': "<dark_purple>",
	'6': "<gold>",
	'7': "<gray>",
	'8': "<dark_gray>",
	'9': "<blue>",
	'a': "<green>",
	'b': "<aqua>",
	'c': "<red>",
	'd': "<light_purple>",
	'e': "<yellow>",
	'f': "<white>",
	'k': "<obfuscated>",
	'l': "<bold>",
	'm': "<strikethrough>",
	'n': "<underlined>",
	'o': "<italic>",
	'r': "<reset>",
}

// ASCII-only lowering; unicode.ToLower folds e.g. the Kelvin sign to 'k'.
func asciiLower(r rune) rune {
	if 'A' <= r && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// lookupCode returns the tag for a simple code character, if any.
// Codes are matched case-insensitively: &C is the same as &c.
func lookupCode(r rune) (tag string, ok bool) {
	r = asciiLower(r)
	if r >= utf8.RuneSelf {
		return "", false
	}
	tag, ok = simpleCodes[byte(r)]
	return
}

// Codes returns a copy of the simple code table, keyed by code character.
func Codes() map[rune]string {
	result := make(map[rune]string, len(simpleCodes))
	for code, tag := range simpleCodes {
		result[rune(code)] = tag
	}
	return result
}

// Translator converts legacy codes introduced by any of a fixed set of
// prefix characters. A Translator is immutable and safe for concurrent use.
type Translator struct {
	prefixes string
}

var defaultTranslator = MustTranslator(DefaultPrefixes)

// NewTranslator returns a Translator recognising each rune of prefixes as an
// escape prefix.
func NewTranslator(prefixes string) (*Translator, error) {
	if prefixes == "" {
		return nil, ErrNoPrefixes
	}
	if !utf8.ValidString(prefixes) {
		return nil, ErrInvalidPrefix
	}
	for _, r := range prefixes {
		if r <= ' ' || r == utf8.RuneError || r == '\x7f' {
			return nil, ErrInvalidPrefix
		}
		if _, isCode := lookupCode(r); isCode || asciiLower(r) == hexIntroducer {
			return nil, ErrAmbiguousCodes
		}
	}
	return &Translator{prefixes: prefixes}, nil
}

// MustTranslator is like NewTranslator but panics on an invalid prefix set.
func MustTranslator(prefixes string) *Translator {
	t, err := NewTranslator(prefixes)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the Translator for DefaultPrefixes.
func Default() *Translator {
	return defaultTranslator
}

// Prefixes returns the escape prefixes this Translator recognises.
func (t *Translator) Prefixes() string {
	return t.prefixes
}

// IsPrefix reports whether r introduces a legacy code.
func (t *Translator) IsPrefix(r rune) bool {
	return strings.ContainsRune(t.prefixes, r)
}

// Translate takes a string containing legacy codes and returns it with tag markup.
//
// IE, it turns this: "&6&lShop &x&f&f&0&0&0&0Sale"
// into: "<gold><bold>Shop <#ff0000>Sale"
//
// Anything that doesn't form a recognised code, including a trailing prefix,
// is copied through unchanged.
func (t *Translator) Translate(raw string) string {
	return t.convert(raw, true)
}

// Strip removes every recognised legacy code from raw, leaving the plain text.
//
// IE, it turns this: "&6&lShop &x&f&f&0&0&0&0Sale"
// into: "Shop Sale"
func (t *Translator) Strip(raw string) string {
	return t.convert(raw, false)
}

// Translate converts raw using the default prefixes.
func Translate(raw string) string {
	return defaultTranslator.Translate(raw)
}

// Strip removes legacy codes introduced by the default prefixes.
func Strip(raw string) string {
	return defaultTranslator.Strip(raw)
}

func (t *Translator) convert(raw string, emitTags bool) string {
	if !strings.ContainsAny(raw, t.prefixes) {
		return raw
	}

	var out strings.Builder
	out.Grow(len(raw) + len(raw)/2)

	// literal runs are copied from raw by byte offset, so invalid UTF-8
	// passes through untouched
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if !t.IsPrefix(r) || i+size == len(raw) {
			out.WriteString(raw[i : i+size])
			i += size
			continue
		}

		code, codeSize := utf8.DecodeRuneInString(raw[i+size:])
		if tag, ok := lookupCode(code); ok {
			if emitTags {
				out.WriteString(tag)
			}
			i += size + codeSize
			continue
		}

		if digits, n, ok := t.hexColor(raw[i:]); ok {
			if emitTags {
				out.WriteString("<#")
				out.WriteString(digits)
				out.WriteByte('>')
			}
			i += n
			continue
		}

		// not a code: keep the prefix and look at the next character afresh
		out.WriteString(raw[i : i+size])
		i += size
	}

	return out.String()
}

// hexColor matches "<p>x<p>h<p>h<p>h<p>h<p>h<p>h" at the start of s, returning
// the six digits as written and the number of bytes consumed. Every digit
// position must hold a hex digit; otherwise the sequence is not a hex colour
// and its codes are translated one at a time.
func (t *Translator) hexColor(s string) (digits string, n int, ok bool) {
	_, size := utf8.DecodeRuneInString(s)
	n += size
	r, size := utf8.DecodeRuneInString(s[n:])
	if asciiLower(r) != hexIntroducer {
		return
	}
	n += size

	var buf [hexDigits]byte
	for d := 0; d < hexDigits; d++ {
		if n >= len(s) {
			return "", 0, false
		}
		r, size = utf8.DecodeRuneInString(s[n:])
		if !t.IsPrefix(r) {
			return "", 0, false
		}
		n += size
		if n >= len(s) {
			return "", 0, false
		}
		r, size = utf8.DecodeRuneInString(s[n:])
		if !isHexDigit(r) {
			return "", 0, false
		}
		buf[d] = byte(r)
		n += size
	}
	return string(buf[:]), n, true
}
