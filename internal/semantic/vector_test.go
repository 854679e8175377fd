package semantic

import "testing"

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.1415927, -2.5e-3}
	out, err := DecodeVector(EncodeVector(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d: %v != %v", i, out[i], in[i])
		}
	}
}

func TestDecodeVectorRejectsTruncatedBlob(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("truncated blob accepted")
	}
}
