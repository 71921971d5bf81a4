package vectorstore

import (
	"math"
	"testing"
)

func TestHashingEmbedderDeterministic(t *testing.T) {
	e := NewHashingEmbedder(256)
	a := e.Embed("the wizard casts a spell")
	b := e.Embed("the wizard casts a spell")
	if len(a) != 256 {
		t.Fatalf("dim = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d", i)
		}
	}
}

func TestHashingEmbedderNormalized(t *testing.T) {
	e := NewHashingEmbedder(128)
	v := e.Embed("armor class and hit dice and saving throws")
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("norm = %v, want 1", norm)
	}
}

func TestHashingEmbedderEmptyText(t *testing.T) {
	e := NewHashingEmbedder(64)
	v := e.Embed("   ")
	for _, x := range v {
		if x != 0 {
			t.Fatal("empty text should embed to zero vector")
		}
	}
}

func TestHashingEmbedderSeparatesTexts(t *testing.T) {
	e := NewHashingEmbedder(256)
	a := e.Embed("combat rules for melee attacks")
	b := e.Embed("sailing ships across the ocean")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct texts embedded identically")
	}
}
