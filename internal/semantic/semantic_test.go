package semantic

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/scope"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

// fakeEmbedder maps exact texts to fixed vectors and everything else to
// base, so rankings in tests are chosen, not computed.
type fakeEmbedder struct {
	model string
	dims  int
	vecs  map[string][]float32
	base  []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	return f.base, nil
}

func (f *fakeEmbedder) ModelName() string { return f.model }
func (f *fakeEmbedder) Dimensions() int   { return f.dims }

func newFake() *fakeEmbedder {
	return &fakeEmbedder{
		model: "fake-v1",
		dims:  3,
		vecs:  map[string][]float32{},
		base:  []float32{1, 0, 0},
	}
}

func ingest(t *testing.T, st *store.Store, docID string, data []byte) []store.NodeRecord {
	t.Helper()
	if _, err := graph.NewBuilder(st).Ingest(context.Background(), docID, docID, data, false); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	nodes, err := st.NodesForDoc(docID)
	if err != nil {
		t.Fatal(err)
	}
	return nodes
}

func putVec(t *testing.T, st *store.Store, fullID, model string, v []float32) {
	t.Helper()
	if err := st.PutEmbedding(store.EmbeddingRecord{
		FullID:     fullID,
		Model:      model,
		Dimensions: len(v),
		Vector:     EncodeVector(v),
	}); err != nil {
		t.Fatal(err)
	}
}

func TestEmbedDocument_SkipThenForce(t *testing.T) {
	st := testutil.TestStore(t)
	nodes := ingest(t, st, "doc.md", []byte("# A\n\nP1\n\nP2\n"))
	fake := newFake()
	ix := NewIndex(st, fake)

	n, err := ix.EmbedDocument(context.Background(), "doc.md", false)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(nodes) {
		t.Fatalf("first pass wrote %d vectors, want %d", n, len(nodes))
	}

	// Second pass without force embeds nothing and never calls the backend.
	fake.calls = 0
	n, err = ix.EmbedDocument(context.Background(), "doc.md", false)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || fake.calls != 0 {
		t.Errorf("unforced re-embed wrote %d vectors with %d backend calls, want 0 and 0", n, fake.calls)
	}

	// Force overwrites in place: one row per (full_id, model), new bytes.
	fake.base = []float32{0, 1, 0}
	n, err = ix.EmbedDocument(context.Background(), "doc.md", true)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(nodes) {
		t.Fatalf("forced re-embed wrote %d vectors, want %d", n, len(nodes))
	}
	embs, err := st.AllEmbeddings(fake.model)
	if err != nil {
		t.Fatal(err)
	}
	if len(embs) != len(nodes) {
		t.Fatalf("%d stored vectors after force, want %d", len(embs), len(nodes))
	}
	v, err := DecodeVector(embs[0].Vector)
	if err != nil {
		t.Fatal(err)
	}
	if v[0] != 0 || v[1] != 1 {
		t.Errorf("forced re-embed did not overwrite: %v", v)
	}
}

func TestEmbedDocument_RateLimitSurfacesUnchanged(t *testing.T) {
	st := testutil.TestStore(t)
	ingest(t, st, "doc.md", []byte("P1\n"))
	fake := newFake()
	fake.err = &apperr.RateLimitedError{RetryAfter: 30 * time.Second}
	ix := NewIndex(st, fake)

	_, err := ix.EmbedDocument(context.Background(), "doc.md", false)
	var rl *apperr.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want RateLimitedError", err)
	}
	if rl.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %s, want 30s", rl.RetryAfter)
	}
}

func TestQuery_RankingAndTopK(t *testing.T) {
	st := testutil.TestStore(t)
	nodes := ingest(t, st, "doc.md", []byte("a\n\nb\n\nc\n\nd\n"))
	fake := newFake()
	fake.vecs["find a"] = []float32{1, 0, 0}
	ix := NewIndex(st, fake)

	// nodes[0] is the doc root; the paragraphs follow in span order.
	putVec(t, st, nodes[1].FullID, fake.model, []float32{1, 0, 0}) // cos 1
	putVec(t, st, nodes[2].FullID, fake.model, []float32{1, 1, 0}) // cos ~0.707
	putVec(t, st, nodes[3].FullID, fake.model, []float32{0, 1, 0}) // cos 0
	putVec(t, st, nodes[4].FullID, fake.model, []float32{0, 0, 0}) // zero norm, cos -1

	res, err := ix.Query(context.Background(), "find a", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 4 {
		t.Fatalf("%d results, want 4", len(res))
	}
	wantOrder := []string{nodes[1].FullID, nodes[2].FullID, nodes[3].FullID, nodes[4].FullID}
	for i, want := range wantOrder {
		if res[i].FullID != want {
			t.Errorf("result %d = %s score %.3f, want %s", i, res[i].FullID, res[i].Score, want)
		}
	}
	if res[0].Score < 0.999 {
		t.Errorf("best score = %f, want ~1", res[0].Score)
	}
	if res[3].Score != -1 {
		t.Errorf("zero-norm score = %f, want -1", res[3].Score)
	}
	if res[0].ShortID != nodes[1].ShortID {
		t.Errorf("short id not backfilled: %q", res[0].ShortID)
	}
	if res[0].DocID != "doc.md" {
		t.Errorf("doc id = %q", res[0].DocID)
	}

	res, err = ix.Query(context.Background(), "find a", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].FullID != nodes[1].FullID || res[1].FullID != nodes[2].FullID {
		t.Errorf("top-2 = %+v", res)
	}
}

func TestQuery_TiesKeepInsertionOrder(t *testing.T) {
	st := testutil.TestStore(t)
	nodes := ingest(t, st, "doc.md", []byte("a\n\nb\n\nc\n"))
	fake := newFake()
	ix := NewIndex(st, fake)

	same := []float32{1, 0, 0}
	putVec(t, st, nodes[3].FullID, fake.model, same)
	putVec(t, st, nodes[1].FullID, fake.model, same)
	putVec(t, st, nodes[2].FullID, fake.model, same)

	res, err := ix.Query(context.Background(), "anything", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []string{nodes[3].FullID, nodes[1].FullID, nodes[2].FullID}
	for i, want := range wantOrder {
		if res[i].FullID != want {
			t.Errorf("tie order broken at %d: got %s, want %s", i, res[i].FullID, want)
		}
	}
}

func TestQuery_ScopeFilter(t *testing.T) {
	st := testutil.TestStore(t)
	a := ingest(t, st, "a.md", []byte("alpha\n"))
	b := ingest(t, st, "b.md", []byte("beta\n"))
	fake := newFake()
	ix := NewIndex(st, fake)

	putVec(t, st, a[1].FullID, fake.model, []float32{1, 0, 0})
	putVec(t, st, b[1].FullID, fake.model, []float32{1, 0, 0})

	res, err := ix.Query(context.Background(), "q", 10, scope.NewSet("a.md"))
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].DocID != "a.md" {
		t.Errorf("doc-scoped results = %+v", res)
	}

	res, err = ix.Query(context.Background(), "q", 10, scope.NewSet(b[1].FullID))
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].FullID != b[1].FullID {
		t.Errorf("node-scoped results = %+v", res)
	}

	res, err = ix.Query(context.Background(), "q", 10, scope.NewSet())
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("empty scope returned %+v", res)
	}
}

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero left", []float32{0, 0}, []float32{1, 0}, -1},
		{"zero right", []float32{1, 0}, []float32{0, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, -1},
	}
	for _, c := range cases {
		got := Cosine(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: Cosine = %f, want %f", c.name, got, c.want)
		}
	}
}
