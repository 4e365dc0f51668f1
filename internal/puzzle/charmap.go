package puzzle

// BuildCharMap splits text on single spaces. Every space between two words is
// kept as a non-letter cell grouped with the word before it.
func BuildCharMap(text string) CharMap {
	runes := []rune(text)
	out := make(CharMap, 0, len(runes))
	word := 0
	for i, r := range runes {
		out = append(out, Cell{
			Char:     r,
			Index:    i,
			Word:     word,
			IsLetter: isASCIILetter(r),
		})
		if r == ' ' {
			word++
		}
	}
	return out
}

func (m CharMap) LetterCount() int {
	n := 0
	for _, c := range m {
		if c.IsLetter {
			n++
		}
	}
	return n
}

func (m CharMap) LetterIndices() []int {
	out := make([]int, 0, len(m))
	for _, c := range m {
		if c.IsLetter {
			out = append(out, c.Index)
		}
	}
	return out
}

// Cell returns the cell at index, false when out of range.
func (m CharMap) Cell(index int) (Cell, bool) {
	if index < 0 || index >= len(m) {
		return Cell{}, false
	}
	return m[index], true
}

// Words groups cells by word index in order. Used for layout only.
func (m CharMap) Words() [][]Cell {
	var out [][]Cell
	for _, c := range m {
		for len(out) <= c.Word {
			out = append(out, nil)
		}
		out[c.Word] = append(out[c.Word], c)
	}
	return out
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
