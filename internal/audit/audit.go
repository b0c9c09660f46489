// Package audit runs the per-file pipeline: read, sniff, decode, count and
// classify line breaks.
package audit

import (
	"encoding/hex"
	"fmt"
	"os"

	"eol-audit/internal/lineend"
	"eol-audit/internal/textenc"

	"lukechampine.com/blake3"
)

// Sniffer classifies a raw buffer. Implementations must be total and deterministic.
type Sniffer interface {
	Detect(buf []byte) textenc.Kind
}

// SnifferFunc adapts a plain function to Sniffer.
type SnifferFunc func(buf []byte) textenc.Kind

func (f SnifferFunc) Detect(buf []byte) textenc.Kind { return f(buf) }

type Result struct {
	Path       string
	Encoding   textenc.Kind
	Tally      lineend.Tally
	Consistent bool
	Binary     bool
	Size       int64
	Hash       string
}

// Verdict is the label printed in reports.
func (r Result) Verdict() string {
	switch {
	case r.Binary:
		return "BINARY"
	case r.Consistent:
		return "PERFECT"
	default:
		return "INCONSISTENCE"
	}
}

// Auditor is safe for concurrent use as long as its Sniffer is.
type Auditor struct {
	sniffer  Sniffer
	codePage textenc.CodePage
	strict   bool
	readFile func(string) ([]byte, error)
}

type Option func(*Auditor)

func WithSniffer(s Sniffer) Option {
	return func(a *Auditor) { a.sniffer = s }
}

func WithCodePage(cp textenc.CodePage) Option {
	return func(a *Auditor) { a.codePage = cp }
}

// WithStrict makes text without any line break count as inconsistent.
func WithStrict(strict bool) Option {
	return func(a *Auditor) { a.strict = strict }
}

func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(a *Auditor) { a.readFile = fn }
}

func New(opts ...Option) *Auditor {
	a := &Auditor{
		sniffer:  textenc.NewDetector(),
		codePage: textenc.DefaultCodePage(),
		readFile: os.ReadFile,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Audit reads path and audits its content. Read failures come back as *ReadError.
func (a *Auditor) Audit(path string) (Result, error) {
	data, err := a.readFile(path)
	if err != nil {
		return Result{}, &ReadError{Path: path, Cause: err}
	}
	return a.AuditBytes(path, data)
}

// AuditBytes audits an in-memory buffer. It only fails when the sniffer
// returns a kind outside the known set.
func (a *Auditor) AuditBytes(path string, data []byte) (Result, error) {
	kind := a.sniffer.Detect(data)
	if !kind.Valid() {
		return Result{}, fmt.Errorf("audit %s: %w", path, &textenc.UnknownKindError{Kind: kind})
	}
	res := Result{
		Path:     path,
		Encoding: kind,
		Size:     int64(len(data)),
		Hash:     hashHex(data),
	}
	if kind.IsBinary() {
		res.Binary = true
		res.Consistent = true
		return res, nil
	}
	text, err := textenc.Decode(data, kind, a.codePage)
	if err != nil {
		return Result{}, fmt.Errorf("audit %s: %w", path, err)
	}
	res.Tally = lineend.Count(text)
	if a.strict {
		res.Consistent = lineend.IsConsistentStrict(res.Tally)
	} else {
		res.Consistent = lineend.IsConsistent(res.Tally)
	}
	return res, nil
}

func hashHex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
