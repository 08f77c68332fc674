package layout

import "testing"

func TestEncodeDecodeNodeRoundTrip(t *testing.T) {
	n := &Node{
		NKeys:       2,
		LeftKey:     10,
		RightKey:    20,
		LeftBook:    0,
		RightBook:   8,
		LeftChild:   16,
		MiddleChild: 48,
		RightChild:  80,
	}
	buf := EncodeNode(n)
	if len(buf) != NodeSize {
		t.Fatalf("expected %d bytes, got %d", NodeSize, len(buf))
	}
	got := DecodeNode(buf)
	if *got != *n {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestNewLeafIsLeaf(t *testing.T) {
	n := NewLeaf(5, 0)
	if !n.IsLeaf() {
		t.Fatal("expected fresh leaf to report IsLeaf")
	}
	if n.NKeys != 1 || n.LeftKey != 5 {
		t.Fatalf("unexpected leaf contents: %+v", n)
	}
}

func TestEncodeFreeNodeAndDecodeFreeLink(t *testing.T) {
	buf := EncodeFreeNode(256)
	if link := DecodeFreeLink(buf); link != 256 {
		t.Fatalf("expected free link 256, got %d", link)
	}
}
