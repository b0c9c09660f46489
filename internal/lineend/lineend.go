// Package lineend counts line terminators in decoded text and decides whether a
// file sticks to a single convention.
package lineend

type Style string

const (
	StyleNone  Style = "none"
	StyleCRLF  Style = "crlf"
	StyleLF    Style = "lf"
	StyleCR    Style = "cr"
	StyleMixed Style = "mixed"
)

// Tally holds line break counts by kind. Total is always CRLF + LF + CR.
type Tally struct {
	Total int `json:"total"`
	CRLF  int `json:"crlf"`
	LF    int `json:"lf"`
	CR    int `json:"cr"`
}

// Count scans text once. A "\r\n" pair is one CRLF break, never a CR plus an LF.
// Text is UTF-8, so '\r' and '\n' bytes cannot occur inside a multi-byte rune.
func Count(text string) Tally {
	var t Tally
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				t.CRLF++
				i++
			} else {
				t.CR++
			}
		case '\n':
			t.LF++
		}
	}
	t.Total = t.CRLF + t.LF + t.CR
	return t
}

func (t Tally) kinds() int {
	n := 0
	for _, c := range [...]int{t.CRLF, t.LF, t.CR} {
		if c > 0 {
			n++
		}
	}
	return n
}

func (t Tally) Style() Style {
	switch {
	case t.Total == 0:
		return StyleNone
	case t.kinds() > 1:
		return StyleMixed
	case t.CRLF > 0:
		return StyleCRLF
	case t.LF > 0:
		return StyleLF
	default:
		return StyleCR
	}
}

// IsConsistent reports whether at most one kind of line break is present.
// Text without any break has nothing to be inconsistent about and passes.
func IsConsistent(t Tally) bool {
	return t.kinds() <= 1
}

// IsConsistentStrict is IsConsistent but additionally requires at least one break.
func IsConsistentStrict(t Tally) bool {
	return t.Total > 0 && IsConsistent(t)
}
