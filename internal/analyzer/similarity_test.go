package analyzer

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	if s := Similarity("John works at Google", "John works at Google"); s != 1.0 {
		t.Errorf("similarity = %f, want 1.0", s)
	}
}

func TestSimilarityCaseAndPunctuation(t *testing.T) {
	if s := Similarity("John works at Google.", "john WORKS at google"); s != 1.0 {
		t.Errorf("similarity = %f, want 1.0", s)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if s := Similarity("quantum physics", "birthday cake"); s != 0 {
		t.Errorf("similarity = %f, want 0", s)
	}
}

func TestSimilarityPartial(t *testing.T) {
	s := Similarity("machine learning research", "machine learning models")
	if s <= 0 || s >= 1 {
		t.Errorf("similarity = %f, want in (0, 1)", s)
	}
	// {machine, learning} shared over {machine, learning, research, models}
	if s != 0.5 {
		t.Errorf("similarity = %f, want 0.5", s)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if s := Similarity("", "anything"); s != 0 {
		t.Errorf("similarity = %f, want 0", s)
	}
	if s := Similarity("", ""); s != 0 {
		t.Errorf("similarity = %f, want 0", s)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "graph memory engine", "memory graph store"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity not symmetric")
	}
}
