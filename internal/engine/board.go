package engine

import "math/rand/v2"

const (
	// BoardSize is the side length of a board; BoardCells its cell count.
	BoardSize  = 5
	BoardCells = BoardSize * BoardSize
	// FreeCell is the center index, pre-satisfied in bingo and hybrid modes.
	FreeCell = 12
	// BandSize numbers belong to each letter column (B 1-15 ... O 61-75).
	BandSize = 15
)

// Board holds a player's numbers in row-major order. The free cell stores 0.
type Board []int

// NewBoard deals a board the traditional way: each column draws BoardSize
// distinct numbers from its letter band. The center is free in modes that
// have one.
func NewBoard(mode string) Board {
	board := make(Board, BoardCells)
	for col := 0; col < BoardSize; col++ {
		low := col*BandSize + 1
		picks := rand.Perm(BandSize)[:BoardSize]
		for row := 0; row < BoardSize; row++ {
			board[row*BoardSize+col] = low + picks[row]
		}
	}
	if hasFreeCell(mode) {
		board[FreeCell] = 0
	}
	return board
}

func hasFreeCell(mode string) bool {
	return mode == ModeBingo || mode == ModeHybrid
}

// Bitset is a fixed-length bit vector tracking marked cells.
type Bitset []byte

func NewBitset(bits int) Bitset {
	return make(Bitset, (bits+7)/8)
}

func (b Bitset) Get(i int) bool {
	if i < 0 || i/8 >= len(b) {
		return false
	}
	return b[i/8]&(1<<(i%8)) != 0
}

func (b Bitset) Set(i int, marked bool) {
	if i < 0 || i/8 >= len(b) {
		return
	}
	if marked {
		b[i/8] |= 1 << (i % 8)
	} else {
		b[i/8] &^= 1 << (i % 8)
	}
}

func (b Bitset) Count() int {
	total := 0
	for i := 0; i < len(b)*8; i++ {
		if b.Get(i) {
			total++
		}
	}
	return total
}

func (b Bitset) Clone() Bitset {
	clone := make(Bitset, len(b))
	copy(clone, b)
	return clone
}
