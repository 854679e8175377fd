// Package parser turns raw document bytes into an ordered stream of block
// descriptors with exact byte spans.
//
// The parser never holds more of the input than the current line: block
// boundaries are tracked as offsets into the source stream, so arbitrarily
// large documents can be scanned in bounded memory. Concatenating the
// [Start, End) slices of every emitted block, separated only by the blank
// separator bytes that sat between them in the source, reproduces the
// input byte-for-byte. That contract is what makes exact reconstruction
// from stored spans possible.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Kind classifies a block.
type Kind string

// Block kinds recognised by the scanner. KindDoc is never emitted by the
// scanner itself; the graph builder uses it for the document root node.
const (
	KindDoc       Kind = "doc"
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindCodeBlock Kind = "code_block"
)

// Block is one parsed region of the document.
type Block struct {
	Kind  Kind
	Level int    // heading depth 1..6; zero for other kinds
	Lang  string // fence info string; empty for other kinds
	Start int    // byte offset, inclusive
	End   int    // byte offset, exclusive; includes the final line's newline
}

// Scanner yields blocks from a byte stream in document order. Construct a
// new Scanner to restart a document. The zero value is not usable; call
// NewScanner.
//
// Usage mirrors bufio.Scanner:
//
//	sc := parser.NewScanner(r)
//	for sc.Scan() {
//		b := sc.Block()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	r       *bufio.Reader
	offset  int // offset of the next unread line
	pending *line
	block   Block
	err     error
	done    bool
}

// line is one physical line including its trailing newline bytes (if any).
type line struct {
	start int
	text  []byte
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next block. It returns false at end of input or on
// I/O error; malformed Markdown never stops the scan.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}
	for {
		ln, ok := s.next()
		if !ok {
			s.done = true
			return false
		}
		if isBlank(ln.text) {
			// Blank lines are separators, not blocks.
			continue
		}
		switch {
		case headingLevel(ln.text) > 0:
			s.block = Block{
				Kind:  KindHeading,
				Level: headingLevel(ln.text),
				Start: ln.start,
				End:   ln.start + len(ln.text),
			}
		case fenceRun(ln.text) > 0:
			s.block = s.scanFence(ln)
		default:
			s.block = s.scanParagraph(ln)
		}
		return true
	}
}

// Block returns the block found by the last successful Scan.
func (s *Scanner) Block() Block { return s.block }

// Err returns the first I/O error encountered, if any.
func (s *Scanner) Err() error { return s.err }

// scanFence consumes a fenced code block opened by open. An unterminated
// fence degrades to a block running through end of document.
func (s *Scanner) scanFence(open line) Block {
	fenceChar := open.text[0]
	openLen := fenceRun(open.text)
	lang := string(bytes.TrimSpace(trimEOL(open.text)[openLen:]))

	end := open.start + len(open.text)
	for {
		ln, ok := s.next()
		if !ok {
			break
		}
		end = ln.start + len(ln.text)
		if closesFence(ln.text, fenceChar, openLen) {
			break
		}
	}
	return Block{Kind: KindCodeBlock, Lang: lang, Start: open.start, End: end}
}

// scanParagraph consumes a maximal run of non-blank lines starting at
// first. A heading or fence opener terminates the run and is pushed back
// for the next Scan.
func (s *Scanner) scanParagraph(first line) Block {
	end := first.start + len(first.text)
	for {
		ln, ok := s.next()
		if !ok {
			break
		}
		if isBlank(ln.text) {
			break
		}
		if headingLevel(ln.text) > 0 || fenceRun(ln.text) > 0 {
			s.pending = &ln
			break
		}
		end = ln.start + len(ln.text)
	}
	return Block{Kind: KindParagraph, Start: first.start, End: end}
}

// next returns the next physical line, honouring the one-line lookahead.
func (s *Scanner) next() (line, bool) {
	if s.pending != nil {
		ln := *s.pending
		s.pending = nil
		return ln, true
	}
	if s.err != nil {
		return line{}, false
	}
	text, err := s.r.ReadBytes('\n')
	if len(text) == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			s.err = err
		}
		return line{}, false
	}
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
		return line{}, false
	}
	ln := line{start: s.offset, text: text}
	s.offset += len(text)
	return ln, true
}

// headingLevel returns 1..6 for an ATX heading line, 0 otherwise.
func headingLevel(text []byte) int {
	body := trimEOL(text)
	n := 0
	for n < len(body) && body[n] == '#' {
		n++
	}
	if n < 1 || n > 6 {
		return 0
	}
	if n == len(body) {
		return n // bare marker run, e.g. "##"
	}
	if body[n] == ' ' || body[n] == '\t' {
		return n
	}
	return 0
}

// fenceRun returns the length of a leading fence-character run of three or
// more backticks or tildes, 0 if the line opens no fence.
func fenceRun(text []byte) int {
	body := trimEOL(text)
	if len(body) < 3 {
		return 0
	}
	c := body[0]
	if c != '`' && c != '~' {
		return 0
	}
	n := 0
	for n < len(body) && body[n] == c {
		n++
	}
	if n < 3 {
		return 0
	}
	return n
}

// closesFence reports whether the line is a closing fence for the given
// character: a run of at least openLen of the same character and nothing
// else but trailing whitespace.
func closesFence(text []byte, fenceChar byte, openLen int) bool {
	body := bytes.TrimRight(trimEOL(text), " \t")
	if len(body) < openLen {
		return false
	}
	for _, c := range body {
		if c != fenceChar {
			return false
		}
	}
	return true
}

func isBlank(text []byte) bool {
	return len(bytes.TrimRight(trimEOL(text), " \t")) == 0
}

func trimEOL(text []byte) []byte {
	return bytes.TrimRight(text, "\r\n")
}
