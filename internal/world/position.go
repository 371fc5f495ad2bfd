package world

// Position addresses one cell on the grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// mooreOffsets enumerates the eight surrounding cells in row-major order.
var mooreOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}
