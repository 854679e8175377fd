package parser

import (
	"strings"
	"testing"
)

// scanAll collects every block from the input.
func scanAll(t *testing.T, input string) []Block {
	t.Helper()
	sc := NewScanner(strings.NewReader(input))
	var out []Block
	for sc.Scan() {
		out = append(out, sc.Block())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	return out
}

func TestScan_HeadingsAndParagraphs(t *testing.T) {
	input := "# A\n\nP1\n\n## B\n\nP2\n"
	blocks := scanAll(t, input)

	want := []Block{
		{Kind: KindHeading, Level: 1, Start: 0, End: 4},
		{Kind: KindParagraph, Start: 5, End: 8},
		{Kind: KindHeading, Level: 2, Start: 9, End: 14},
		{Kind: KindParagraph, Start: 15, End: 18},
	}
	if len(blocks) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(blocks), len(want), blocks)
	}
	for i, w := range want {
		if blocks[i] != w {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], w)
		}
	}
}

func TestScan_SpansReconstructInput(t *testing.T) {
	inputs := []string{
		"# A\n\nP1\n\n## B\n\nP2\n",
		"plain paragraph only",
		"line one\nline two\n\n\n\nline three\n",
		"# H\ncode next\n```go\nfmt.Println(1)\n```\ntail\n",
		"\r\ncrlf line\r\n\r\n## Win\r\n",
		"",
	}
	for _, input := range inputs {
		blocks := scanAll(t, input)
		var sb strings.Builder
		prev := 0
		for _, b := range blocks {
			sb.WriteString(input[prev:b.Start]) // separator bytes
			sb.WriteString(input[b.Start:b.End])
			prev = b.End
		}
		sb.WriteString(input[prev:])
		if sb.String() != input {
			t.Errorf("reconstruction mismatch for %q:\ngot  %q", input, sb.String())
		}
	}
}

func TestScan_MultiLineParagraph(t *testing.T) {
	input := "one\ntwo\nthree\n\nfour\n"
	blocks := scanAll(t, input)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if got := input[blocks[0].Start:blocks[0].End]; got != "one\ntwo\nthree\n" {
		t.Errorf("first paragraph = %q", got)
	}
}

func TestScan_HeadingInterruptsParagraph(t *testing.T) {
	input := "text\n# H\n"
	blocks := scanAll(t, input)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != KindParagraph || blocks[1].Kind != KindHeading {
		t.Errorf("kinds = %s, %s", blocks[0].Kind, blocks[1].Kind)
	}
}

func TestScan_FencedCode(t *testing.T) {
	input := "```go\nx := 1\n\ny := 2\n```\n"
	blocks := scanAll(t, input)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1: %+v", len(blocks), blocks)
	}
	b := blocks[0]
	if b.Kind != KindCodeBlock {
		t.Fatalf("kind = %s, want code_block", b.Kind)
	}
	if b.Lang != "go" {
		t.Errorf("lang = %q, want go", b.Lang)
	}
	if input[b.Start:b.End] != input {
		t.Errorf("span = %q, want whole input", input[b.Start:b.End])
	}
}

func TestScan_FenceLongerCloseAndTildes(t *testing.T) {
	input := "~~~~\ncontent\n~~~\n~~~~~\nafter\n"
	blocks := scanAll(t, input)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	// Three tildes do not close a four-tilde fence; five do.
	if got := input[blocks[0].Start:blocks[0].End]; got != "~~~~\ncontent\n~~~\n~~~~~\n" {
		t.Errorf("fence span = %q", got)
	}
	if blocks[1].Kind != KindParagraph {
		t.Errorf("trailing kind = %s", blocks[1].Kind)
	}
}

func TestScan_UnterminatedFenceRunsToEOF(t *testing.T) {
	input := "before\n\n```python\nprint(1)\nnever closed\n"
	blocks := scanAll(t, input)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2: %+v", len(blocks), blocks)
	}
	b := blocks[1]
	if b.Kind != KindCodeBlock {
		t.Fatalf("kind = %s, want code_block", b.Kind)
	}
	if b.End != len(input) {
		t.Errorf("fence end = %d, want EOF %d", b.End, len(input))
	}
	if b.Lang != "python" {
		t.Errorf("lang = %q", b.Lang)
	}
}

func TestScan_SevenHashesIsParagraph(t *testing.T) {
	blocks := scanAll(t, "####### too deep\n")
	if len(blocks) != 1 || blocks[0].Kind != KindParagraph {
		t.Fatalf("blocks = %+v, want one paragraph", blocks)
	}
}

func TestScan_NoTrailingNewline(t *testing.T) {
	input := "# H\n\nlast line"
	blocks := scanAll(t, input)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[1].End != len(input) {
		t.Errorf("end = %d, want %d", blocks[1].End, len(input))
	}
}

func TestScan_EmptyInput(t *testing.T) {
	if blocks := scanAll(t, ""); blocks != nil {
		t.Errorf("blocks = %+v, want none", blocks)
	}
	if blocks := scanAll(t, "\n\n  \n"); blocks != nil {
		t.Errorf("blank-only blocks = %+v, want none", blocks)
	}
}
