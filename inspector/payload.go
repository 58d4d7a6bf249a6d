package inspector

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// NotAvailable is printed for fields missing from a hadith record
const NotAvailable = "N/A"

// Candidate field names for the hadith text, probed in order on the first record.
var hadithTextFields = []string{"hadith", "hadithEnglish", "hadithText", "text", "content"}

var errTrailingData = errors.New("unexpected data after top-level JSON value")

// decodePayload decodes a response body, keeping numbers as their literal text.
func decodePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return payload, nil
}

// sortedKeys returns the keys of an object in a stable order
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatKeys(obj map[string]any) string {
	return "[" + strings.Join(sortedKeys(obj), ", ") + "]"
}

// kindOf names the JSON kind of a decoded value
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return "unknown"
	}
}

// lookup returns a field value when the key exists and is not null.
func lookup(obj map[string]any, key string) (any, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// lookupNested returns obj[outer][inner] when obj[outer] is an object.
func lookupNested(obj map[string]any, outer, inner string) (any, bool) {
	v, ok := lookup(obj, outer)
	if !ok {
		return nil, false
	}
	nested, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, inner)
}

// displayValue renders a decoded JSON value as a single line of text
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return NotAvailable
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return NotAvailable
		}
		return string(encoded)
	}
}

// fieldOrNA returns the display value of the first present key, or N/A.
func fieldOrNA(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(record, key); ok {
			return displayValue(v)
		}
	}
	return NotAvailable
}

// bookName prefers a flat bookName and falls back to book.bookName
func bookName(record map[string]any) string {
	if v, ok := lookup(record, "bookName"); ok {
		return displayValue(v)
	}
	if v, ok := lookupNested(record, "book", "bookName"); ok {
		return displayValue(v)
	}
	return NotAvailable
}

// chapterName prefers a flat chapterEnglish and falls back to chapter.chapterEnglish
func chapterName(record map[string]any) string {
	if v, ok := lookup(record, "chapterEnglish"); ok {
		return displayValue(v)
	}
	if v, ok := lookupNested(record, "chapter", "chapterEnglish"); ok {
		return displayValue(v)
	}
	return NotAvailable
}

// hadithText returns the English hadith text, or "" when absent or not a string.
func hadithText(record map[string]any) string {
	v, ok := lookup(record, "hadithEnglish")
	if !ok {
		return ""
	}
	text, _ := v.(string)
	return text
}

// probeTextField returns the first candidate hadith text field present on the record.
func probeTextField(record map[string]any) (string, string, bool) {
	for _, field := range hadithTextFields {
		if v, ok := lookup(record, field); ok {
			return field, displayValue(v), true
		}
	}
	return "", "", false
}

// sourceLabel renders a book or chapter field for the source line.
// Object values use their name field when it has one.
func sourceLabel(v any, nameField string) string {
	if nested, ok := v.(map[string]any); ok {
		if name, ok := lookup(nested, nameField); ok {
			return displayValue(name)
		}
	}
	return displayValue(v)
}

// truncate shortens s to limit characters and appends "..." when it was longer.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return firstChars(s, limit) + "..."
}

// firstChars returns the first n characters of s without re-encoding its bytes.
func firstChars(s string, n int) string {
	offset := 0
	for count := 0; count < n && offset < len(s); count++ {
		_, size := utf8.DecodeRuneInString(s[offset:])
		offset += size
	}
	return s[:offset]
}

// charAfterQuote returns the character following a leading quotation mark.
func charAfterQuote(text string) string {
	rest := strings.TrimPrefix(text, `"`)
	if rest == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return string(r)
}

// charIndex converts a byte offset in s into a character offset
func charIndex(s string, byteOffset int) int {
	return utf8.RuneCountInString(s[:byteOffset])
}
