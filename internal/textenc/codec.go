package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoText is returned when a decoder is requested for a binary buffer.
var ErrNoText = errors.New("no text encoding: decoding skipped")

const replacementChar = "\uFFFD"

// SelectCodec maps a Kind to the decoder for it. Every decoder it returns
// substitutes U+FFFD for malformed input rather than failing, and drops a
// leading byte order mark of the selected encoding. The byte order always
// follows kind, a leading mark of the other byte order is decoded as text.
func SelectCodec(kind Kind, cp CodePage) (*encoding.Decoder, error) {
	switch kind {
	case None:
		return nil, ErrNoText
	case Ascii:
		return &encoding.Decoder{Transformer: asciiDecoder{}}, nil
	case Ansi:
		return cp.encoding().NewDecoder(), nil
	case Utf8Bom, Utf8NoBom:
		return unicode.UTF8BOM.NewDecoder(), nil
	case Utf16LeBom, Utf16LeNoBom:
		return utf16Decoder(unicode.LittleEndian, bomUTF16LE), nil
	case Utf16BeBom, Utf16BeNoBom:
		return utf16Decoder(unicode.BigEndian, bomUTF16BE), nil
	default:
		return nil, &UnknownKindError{Kind: kind}
	}
}

// Decode converts data to a UTF-8 string under the codec selected for kind.
func Decode(data []byte, kind Kind, cp CodePage) (string, error) {
	dec, err := SelectCodec(kind, cp)
	if err != nil {
		return "", err
	}
	out, err := dec.Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", kind, err)
	}
	return string(out), nil
}

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// utf16Decoder decodes at a fixed byte order. IgnoreBOM keeps x/text from
// switching byte order on a leading mark, so the matching mark is cut first.
func utf16Decoder(e unicode.Endianness, bom []byte) *encoding.Decoder {
	return &encoding.Decoder{Transformer: transform.Chain(
		&bomStripper{bom: bom},
		unicode.UTF16(e, unicode.IgnoreBOM).NewDecoder(),
	)}
}

// bomStripper drops bom once if the input starts with it and copies the rest.
type bomStripper struct {
	bom  []byte
	done bool
}

func (s *bomStripper) Reset() { s.done = false }

func (s *bomStripper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if !s.done {
		if len(src) < len(s.bom) && !atEOF && bytes.HasPrefix(s.bom, src) {
			return 0, 0, transform.ErrShortSrc
		}
		s.done = true
		if bytes.HasPrefix(src, s.bom) {
			nSrc = len(s.bom)
		}
	}
	n := copy(dst, src[nSrc:])
	nDst, nSrc = n, nSrc+n
	if nSrc < len(src) {
		err = transform.ErrShortDst
	}
	return nDst, nSrc, err
}

// asciiDecoder maps each byte to one rune, replacing bytes outside 7-bit range.
type asciiDecoder struct{ transform.NopResetter }

func (asciiDecoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
		} else {
			if nDst+len(replacementChar) > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], replacementChar)
		}
		nSrc++
	}
	return nDst, nSrc, nil
}
