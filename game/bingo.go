package game

// HasBingo reports whether the card's marked numbers complete a row, column or
// diagonal. Only numbers that were actually called count; the free cell always
// counts.
func HasBingo(card *Card, marked map[int]bool, called map[int]bool) bool {
	covered := func(col, row int) bool {
		n := card.Grid[col][row]
		if n == 0 {
			return true // free space
		}
		return marked[n] && called[n]
	}

	// Rows
	for row := 0; row < gridSize; row++ {
		full := true
		for col := 0; col < gridSize; col++ {
			if !covered(col, row) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	// Columns
	for col := 0; col < gridSize; col++ {
		full := true
		for row := 0; row < gridSize; row++ {
			if !covered(col, row) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}

	// Diagonals
	diag1, diag2 := true, true
	for i := 0; i < gridSize; i++ {
		if !covered(i, i) {
			diag1 = false
		}
		if !covered(i, gridSize-1-i) {
			diag2 = false
		}
	}
	return diag1 || diag2
}
