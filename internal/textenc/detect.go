package textenc

import "bytes"

const (
	DefaultExpectedNullPercent   = 70
	DefaultUnexpectedNullPercent = 10
)

// Detector classifies byte buffers into a Kind using BOM sniffing, a strict
// UTF-8 scan and two UTF-16 null-byte heuristics.
type Detector struct {
	// NullSuggestsBinary makes any NUL byte rule out UTF-8 and ANSI.
	NullSuggestsBinary bool
	// Percent of NULs required in the high-order byte positions of UTF-16 text.
	ExpectedNullPercent int
	// Percent of NULs tolerated in the low-order byte positions of UTF-16 text.
	UnexpectedNullPercent int
}

func NewDetector() *Detector {
	return &Detector{
		NullSuggestsBinary:    true,
		ExpectedNullPercent:   DefaultExpectedNullPercent,
		UnexpectedNullPercent: DefaultUnexpectedNullPercent,
	}
}

// Detect never fails; binary or undecidable input yields None.
func (d *Detector) Detect(buf []byte) Kind {
	if k := checkBOM(buf); k != None {
		return k
	}
	if k := d.checkUTF8(buf); k != None {
		return k
	}
	if k := checkUTF16Newlines(buf); k != None {
		return k
	}
	if k := d.checkUTF16Nulls(buf); k != None {
		return k
	}
	if !containsNull(buf) {
		return Ansi
	}
	if d.NullSuggestsBinary {
		return None
	}
	return Ansi
}

func checkBOM(buf []byte) Kind {
	if len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return Utf8Bom
	}
	if len(buf) >= 2 {
		if buf[0] == 0xFF && buf[1] == 0xFE {
			return Utf16LeBom
		}
		if buf[0] == 0xFE && buf[1] == 0xFF {
			return Utf16BeBom
		}
	}
	return None
}

func (d *Detector) checkUTF8(buf []byte) Kind {
	onlyASCII := true
	pos := 0
	for pos < len(buf) {
		ch := buf[pos]
		pos++
		if ch == 0 && d.NullSuggestsBinary {
			return None
		}
		var more int
		switch {
		case ch <= 127:
			more = 0
		case ch >= 194 && ch <= 223:
			more = 1
		case ch >= 224 && ch <= 239:
			more = 2
		case ch >= 240 && ch <= 244:
			more = 3
		default:
			return None
		}
		// a sequence cut off by the end of the buffer is tolerated
		for more > 0 && pos < len(buf) {
			onlyASCII = false
			ch = buf[pos]
			pos++
			if ch < 128 || ch > 191 {
				return None
			}
			more--
		}
	}
	if onlyASCII {
		return Ascii
	}
	return Utf8NoBom
}

func checkUTF16Newlines(buf []byte) Kind {
	if len(buf) < 2 {
		return None
	}
	le, be := 0, 0
	for pos := 0; pos+1 < len(buf); pos += 2 {
		b1, b2 := buf[pos], buf[pos+1]
		switch {
		case b1 == 0:
			if b2 == '\n' || b2 == '\r' {
				be++
			}
		case b2 == 0:
			if b1 == '\n' || b1 == '\r' {
				le++
			}
		}
		if le > 0 && be > 0 {
			return None
		}
	}
	if le > 0 {
		return Utf16LeNoBom
	}
	if be > 0 {
		return Utf16BeNoBom
	}
	return None
}

func (d *Detector) checkUTF16Nulls(buf []byte) Kind {
	if len(buf) == 0 {
		return None
	}
	even, odd := 0, 0
	for i, b := range buf {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	size := float64(len(buf))
	evenRatio := float64(even) * 2 / size
	oddRatio := float64(odd) * 2 / size
	expected := float64(d.ExpectedNullPercent) / 100
	unexpected := float64(d.UnexpectedNullPercent) / 100

	// little endian ASCII text has its NULs in the odd (high-order) positions
	if evenRatio < unexpected && oddRatio > expected {
		return Utf16LeNoBom
	}
	if oddRatio < unexpected && evenRatio > expected {
		return Utf16BeNoBom
	}
	return None
}

func containsNull(buf []byte) bool {
	return bytes.IndexByte(buf, 0) >= 0
}
