package textenc

import "fmt"

// Kind is the encoding category reported by a sniffer for one buffer.
type Kind int

// The closed set of kinds. None means no text encoding applies.
const (
	None Kind = iota
	Ascii
	Ansi
	Utf8Bom
	Utf8NoBom
	Utf16LeBom
	Utf16LeNoBom
	Utf16BeBom
	Utf16BeNoBom
)

var kindNames = [...]string{
	None:         "None",
	Ascii:        "Ascii",
	Ansi:         "Ansi",
	Utf8Bom:      "Utf8Bom",
	Utf8NoBom:    "Utf8Nobom",
	Utf16LeBom:   "Utf16LeBom",
	Utf16LeNoBom: "Utf16LeNoBom",
	Utf16BeBom:   "Utf16BeBom",
	Utf16BeNoBom: "Utf16BeNoBom",
}

// String returns the report name of k.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k belongs to the known set.
func (k Kind) Valid() bool {
	return k >= None && k <= Utf16BeNoBom
}

// IsBinary reports whether no text encoding applies.
func (k Kind) IsBinary() bool {
	return k == None
}

// HasBOM reports whether the kind implies a leading byte order mark.
func (k Kind) HasBOM() bool {
	return k == Utf8Bom || k == Utf16LeBom || k == Utf16BeBom
}

// ParseKind accepts the names produced by String, case-sensitively.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return None, false
}

// UnknownKindError reports a Kind outside the known set.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown encoding kind %d", int(e.Kind))
}
