package ui

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < 44 || rows < 14 {
		return LayoutTooSmall
	}
	if cols >= 100 && rows >= 24 {
		return LayoutWide
	}
	return LayoutMedium
}
