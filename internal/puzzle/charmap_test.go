package puzzle

import (
	"testing"
	"unicode/utf8"
)

func TestBuildCharMapCoversEveryRune(t *testing.T) {
	quotes := []string{
		"",
		"Go go!",
		"Be yourself; everyone else is already taken.",
		"It’s 2 late  for double spaces",
		"Ünïcode wörds stay non-letters",
	}
	for _, q := range quotes {
		m := BuildCharMap(q)
		if len(m) != utf8.RuneCountInString(q) {
			t.Fatalf("%q: expected %d cells, got %d", q, utf8.RuneCountInString(q), len(m))
		}
		for i, c := range m {
			if c.Index != i {
				t.Fatalf("%q: cell %d has index %d", q, i, c.Index)
			}
			want := (c.Char >= 'a' && c.Char <= 'z') || (c.Char >= 'A' && c.Char <= 'Z')
			if c.IsLetter != want {
				t.Fatalf("%q: cell %d (%q) isLetter=%v want %v", q, i, c.Char, c.IsLetter, want)
			}
		}
	}
}

func TestBuildCharMapGroupsSpacesWithPrecedingWord(t *testing.T) {
	m := BuildCharMap("ab cd")
	wantWords := []int{0, 0, 0, 1, 1}
	for i, c := range m {
		if c.Word != wantWords[i] {
			t.Fatalf("cell %d: expected word %d, got %d", i, wantWords[i], c.Word)
		}
	}
	if m[2].IsLetter || m[2].Char != ' ' {
		t.Fatalf("expected space cell at index 2, got %#v", m[2])
	}
	words := m.Words()
	if len(words) != 2 || len(words[0]) != 3 || len(words[1]) != 2 {
		t.Fatalf("unexpected word grouping: %#v", words)
	}
}

func TestBuildCharMapIsDeterministic(t *testing.T) {
	q := "The only way out is through."
	a, b := BuildCharMap(q), BuildCharMap(q)
	if len(a) != len(b) {
		t.Fatalf("length mismatch")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs: %#v vs %#v", i, a[i], b[i])
		}
	}
}

func TestLetterCount(t *testing.T) {
	if got := BuildCharMap("Go go!").LetterCount(); got != 4 {
		t.Fatalf("expected 4 letters, got %d", got)
	}
	if got := BuildCharMap("1, 2; 3!").LetterCount(); got != 0 {
		t.Fatalf("expected 0 letters, got %d", got)
	}
}
