package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

func ingest(t *testing.T, st *store.Store, docID string, data []byte) {
	t.Helper()
	if _, err := graph.NewBuilder(st).Ingest(context.Background(), docID, docID, data, false); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

// nodeSpanning finds the node of a document whose span is exactly text.
func nodeSpanning(t *testing.T, st *store.Store, docID string, content []byte, text string) *store.NodeRecord {
	t.Helper()
	nodes, err := st.NodesForDoc(docID)
	if err != nil {
		t.Fatal(err)
	}
	for i := range nodes {
		if string(content[nodes[i].Start:nodes[i].End]) == text {
			return &nodes[i]
		}
	}
	t.Fatalf("no node spanning %q", text)
	return nil
}

func ph(n *store.NodeRecord) string {
	return Placeholder(n.ShortID, n.Kind, n.End-n.Start)
}

func TestRenderFull_RoundTrip(t *testing.T) {
	inputs := map[string]string{
		"nested headings":     "# A\n\nP1\n\n## B\n\nP2\n",
		"leading paragraph":   "intro text\n\n# A\n\nbody\n",
		"crlf line endings":   "# A\r\n\r\nP1\r\n",
		"no trailing newline": "# A\n\nlast line",
		"unterminated fence":  "# A\n\n```go\nnever closed\n",
		"code block":          "before\n\n```\nx := 1\n```\n\nafter\n",
		"blank run":           "a\n\n\n\nb\n",
		"empty":               "",
		"only blanks":         "\n\n\n",
	}
	st := testutil.TestStore(t)
	r := NewRenderer(st)
	for name, in := range inputs {
		docID := name + ".md"
		ingest(t, st, docID, []byte(in))
		out, err := r.RenderFull(docID)
		if err != nil {
			t.Errorf("%s: RenderFull: %v", name, err)
			continue
		}
		if !bytes.Equal(out, []byte(in)) {
			t.Errorf("%s: round trip mismatch:\n got %q\nwant %q", name, out, in)
		}
	}
}

// Fixture used by the filtered-view tests:
//
//	# A        section [0,18)
//	P1         [5,8)
//	## B       section [9,18)
//	P2         [15,18)
//	# C        section [19,27)
//	P3         [24,27)
const filteredInput = "# A\n\nP1\n\n## B\n\nP2\n\n# C\n\nP3\n"

func filteredFixture(t *testing.T) (*Renderer, *store.Store) {
	t.Helper()
	st := testutil.TestStore(t)
	ingest(t, st, "doc.md", []byte(filteredInput))
	return NewRenderer(st), st
}

func TestRenderFiltered_Direct(t *testing.T) {
	r, st := filteredFixture(t)
	content := []byte(filteredInput)
	p1 := nodeSpanning(t, st, "doc.md", content, "P1\n")
	p2 := nodeSpanning(t, st, "doc.md", content, "P2\n")
	secC := nodeSpanning(t, st, "doc.md", content, "# C\n\nP3\n")

	out, err := r.RenderFiltered("doc.md", []int64{p2.PK}, Options{Policy: Direct})
	if err != nil {
		t.Fatal(err)
	}
	// Ancestor sections A and B are traversed but contribute no text of
	// their own; untouched nodes collapse to placeholders.
	want := ph(p1) + "\nP2\n\n" + ph(secC)
	if string(out) != want {
		t.Errorf("Direct view:\n got %q\nwant %q", out, want)
	}
}

func TestRenderFiltered_DirectAncestors(t *testing.T) {
	r, st := filteredFixture(t)
	content := []byte(filteredInput)
	p1 := nodeSpanning(t, st, "doc.md", content, "P1\n")
	p2 := nodeSpanning(t, st, "doc.md", content, "P2\n")
	secC := nodeSpanning(t, st, "doc.md", content, "# C\n\nP3\n")

	out, err := r.RenderFiltered("doc.md", []int64{p2.PK}, Options{Policy: DirectAncestors})
	if err != nil {
		t.Fatal(err)
	}
	// Enclosing heading lines reappear, with their original separators.
	want := "# A\n\n" + ph(p1) + "\n## B\n\nP2\n\n" + ph(secC)
	if string(out) != want {
		t.Errorf("DirectAncestors view:\n got %q\nwant %q", out, want)
	}
}

func TestRenderFiltered_SiblingWindow(t *testing.T) {
	r, st := filteredFixture(t)
	content := []byte(filteredInput)
	p1 := nodeSpanning(t, st, "doc.md", content, "P1\n")
	secC := nodeSpanning(t, st, "doc.md", content, "# C\n\nP3\n")

	out, err := r.RenderFiltered("doc.md", []int64{p1.PK}, Options{
		Policy:        DirectAncestorsSiblings,
		SiblingWindow: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	// P1's next sibling under A is the whole B section, so it is expanded
	// in full. C is outside the window and stays collapsed.
	want := "# A\n\nP1\n\n## B\n\nP2\n\n" + ph(secC)
	if string(out) != want {
		t.Errorf("sibling window view:\n got %q\nwant %q", out, want)
	}
}

func TestRenderFiltered_ShowStructure(t *testing.T) {
	r, st := filteredFixture(t)
	content := []byte(filteredInput)
	p1 := nodeSpanning(t, st, "doc.md", content, "P1\n")
	p2 := nodeSpanning(t, st, "doc.md", content, "P2\n")
	p3 := nodeSpanning(t, st, "doc.md", content, "P3\n")

	out, err := r.RenderFiltered("doc.md", []int64{p2.PK}, Options{
		Policy:        Direct,
		ShowStructure: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// The full outline survives even for sections with no match.
	want := "# A\n\n" + ph(p1) + "\n## B\n\nP2\n\n# C\n\n" + ph(p3)
	if string(out) != want {
		t.Errorf("ShowStructure view:\n got %q\nwant %q", out, want)
	}
}

func TestRenderFiltered_RootMatchExpandsWholeDocument(t *testing.T) {
	r, st := filteredFixture(t)
	root, err := st.DocRoot("doc.md")
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.RenderFiltered("doc.md", []int64{root.PK}, Options{Policy: Direct})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != filteredInput {
		t.Errorf("root match:\n got %q\nwant %q", out, filteredInput)
	}
}

func TestRenderFiltered_NoMatchesCollapsesEverything(t *testing.T) {
	r, st := filteredFixture(t)
	content := []byte(filteredInput)
	secA := nodeSpanning(t, st, "doc.md", content, "# A\n\nP1\n\n## B\n\nP2\n")
	secC := nodeSpanning(t, st, "doc.md", content, "# C\n\nP3\n")

	out, err := r.RenderFiltered("doc.md", nil, Options{Policy: Direct})
	if err != nil {
		t.Fatal(err)
	}
	want := ph(secA) + "\n" + ph(secC)
	if string(out) != want {
		t.Errorf("empty match set:\n got %q\nwant %q", out, want)
	}
}
