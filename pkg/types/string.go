package types

import (
	"heapstore/pkg/primitives"
	"io"
	"strings"
	"unicode/utf8"
)

// StringMaxSize defines the maximum size for string fields in bytes.
const (
	StringMaxSize = 256
)

// StringField represents a fixed-width string field. On disk it always
// occupies 4 + StringMaxSize bytes regardless of the value length.
type StringField struct {
	Value   string // The string value stored in this field
	MaxSize int    // The maximum allowed size for this string field in bytes
}

// NewStringField creates a new StringField with the given value and maximum
// size. Values longer than maxSize bytes are cut at the last rune boundary
// that fits.
func NewStringField(value string, maxSize int) *StringField {
	if maxSize <= 0 || maxSize > StringMaxSize {
		maxSize = StringMaxSize
	}
	value = truncateUTF8(value, maxSize)

	return &StringField{
		Value:   value,
		MaxSize: maxSize,
	}
}

// Compare performs a comparison between this StringField and another Field
// using the given predicate. Strings compare lexicographically; Like is a
// substring match.
func (s *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	otherString, ok := other.(*StringField)
	if !ok {
		return false, nil
	}

	if op == primitives.Like {
		return strings.Contains(s.Value, otherString.Value), nil
	}
	return compareOrdered(s.Value, otherString.Value, op), nil
}

// Serialize writes the string field in its fixed-width format:
// 1. 4 bytes for the string length (big-endian uint32)
// 2. The string bytes
// 3. Zero padding up to StringMaxSize
func (s *StringField) Serialize(w io.Writer) error {
	value := truncateUTF8(s.Value, StringMaxSize)
	length := len(value)

	if err := serializeUint32(w, uint32(length)); err != nil { // #nosec G115
		return err
	}

	if _, err := w.Write([]byte(value)); err != nil {
		return err
	}

	padding := make([]byte, StringMaxSize-length)
	_, err := w.Write(padding)
	return err
}

func (s *StringField) Type() Type {
	return StringType
}

func (s *StringField) String() string {
	return s.Value
}

// Equals reports whether other is a StringField holding the same value.
func (s *StringField) Equals(other Field) bool {
	otherString, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == otherString.Value
}

func (s *StringField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(s.Value)), nil
}

// Length returns the serialized size of this field in bytes.
func (s *StringField) Length() uint32 {
	return StringType.Size()
}

// truncateUTF8 returns the longest prefix of s of at most n bytes that does
// not split a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
