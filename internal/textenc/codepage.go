package textenc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const DefaultCodePageName = "windows-1252"

// CodePage is the legacy code page used to decode Ansi buffers. It is passed
// explicitly instead of being read from the host locale.
type CodePage struct {
	Name string
	enc  encoding.Encoding
}

// DefaultCodePage returns windows-1252.
func DefaultCodePage() CodePage {
	return CodePage{Name: DefaultCodePageName, enc: charmap.Windows1252}
}

var codePageAliases = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1250": charmap.Windows1250,
	"cp1250":       charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"cp866":        charmap.CodePage866,
	"koi8-r":       charmap.KOI8R,
	"mac":          charmap.Macintosh,
	"gbk":          simplifiedchinese.GBK,
	"cp936":        simplifiedchinese.GBK,
	"gb18030":      simplifiedchinese.GB18030,
}

// UnknownCodePageError reports a name that resolves to no encoding.
type UnknownCodePageError struct {
	Name string
}

func (e *UnknownCodePageError) Error() string {
	return fmt.Sprintf("unsupported code page: %s", e.Name)
}

// IncompatibleCodePageError reports an encoding that does not map ASCII bytes
// to themselves, such as UTF-16. Line breaks could not be counted under it.
type IncompatibleCodePageError struct {
	Name string
}

func (e *IncompatibleCodePageError) Error() string {
	return fmt.Sprintf("code page %s is not ASCII compatible", e.Name)
}

const asciiSample = "a\r\nb\n\r~"

// LookupCodePage resolves a code page by alias or IANA name. An empty name
// selects the default. Encodings that do not keep ASCII intact are rejected.
func LookupCodePage(name string) (CodePage, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return DefaultCodePage(), nil
	}
	if enc, ok := codePageAliases[key]; ok {
		return CodePage{Name: key, enc: enc}, nil
	}
	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return CodePage{}, &UnknownCodePageError{Name: name}
	}
	if !keepsASCII(enc) {
		return CodePage{}, &IncompatibleCodePageError{Name: name}
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = key
	}
	return CodePage{Name: strings.ToLower(canonical), enc: enc}, nil
}

func keepsASCII(enc encoding.Encoding) bool {
	out, err := enc.NewDecoder().String(asciiSample)
	return err == nil && out == asciiSample
}

func (c CodePage) encoding() encoding.Encoding {
	if c.enc == nil {
		return charmap.Windows1252
	}
	return c.enc
}
