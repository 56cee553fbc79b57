package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// testBoard builds a deterministic board: cell i holds i+1, center free.
func testBoard() Board {
	board := make(Board, BoardCells)
	for i := range board {
		board[i] = i + 1
	}
	board[FreeCell] = 0
	return board
}

func markCells(cells ...int) Bitset {
	marks := NewBitset(BoardCells)
	for _, cell := range cells {
		marks.Set(cell, true)
	}
	return marks
}

func TestLineWinTopRow(t *testing.T) {
	board := testBoard()
	marks := markCells(0, 1, 2, 3, 4)
	drawn := []int{1, 2, 3, 4, 5}
	if !HasLineWin(board, marks, drawn, VariantClassic) {
		t.Fatalf("expected top row to win")
	}
}

func TestLineWinRejectsUnbackedMarks(t *testing.T) {
	board := testBoard()
	marks := markCells(0, 1, 2, 3, 4)
	// Number 5 (cell 4) was never drawn; the mark must not count.
	drawn := []int{1, 2, 3, 4}
	if HasLineWin(board, marks, drawn, VariantClassic) {
		t.Fatalf("tampered mark produced a win")
	}
}

func TestLineWinRequiresMarks(t *testing.T) {
	board := testBoard()
	marks := markCells(0, 1, 2, 3)
	drawn := []int{1, 2, 3, 4, 5}
	if HasLineWin(board, marks, drawn, VariantClassic) {
		t.Fatalf("incomplete row produced a win")
	}
}

func TestLineWinDiagonalUsesFreeCell(t *testing.T) {
	board := testBoard()
	// Main diagonal: 0, 6, 12 (free), 18, 24.
	marks := markCells(0, 6, 18, 24)
	drawn := []int{1, 7, 19, 25}
	if !HasLineWin(board, marks, drawn, VariantClassic) {
		t.Fatalf("expected diagonal through free cell to win")
	}
	if HasLineWin(board, marks, drawn, VariantStraight) {
		t.Fatalf("straight variant must not count diagonals")
	}
}

func TestFullCardWin(t *testing.T) {
	board := testBoard()
	marks := NewBitset(BoardCells)
	var drawn []int
	for i := 0; i < BoardCells; i++ {
		if i == FreeCell {
			continue
		}
		marks.Set(i, true)
		drawn = append(drawn, board[i])
	}
	if !HasFullCardWin(board, marks, drawn) {
		t.Fatalf("expected full card win")
	}
	marks.Set(3, false)
	if HasFullCardWin(board, marks, drawn) {
		t.Fatalf("missing mark produced full card win")
	}
}

// riggedWinner gives a player a validated top-row line win by injecting the
// board's first row into the drawn sequence and marking it.
func riggedWinner(t *testing.T, e *Engine, code, nickname string) {
	t.Helper()
	err := e.store.Mutate(NormalizeCode(code), func(session *Session) error {
		player := session.findPlayer(nickname)
		for cell := 0; cell < BoardSize; cell++ {
			session.Drawn = append(session.Drawn, player.Board[cell])
			player.Marks.Set(cell, true)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("rig winner: %v", err)
	}
}

func TestClaimPrizeFirstWins(t *testing.T) {
	e := newTestEngine(t)
	createSession(t, e, "VB-TEST")
	joinPlayer(t, e, "VB-TEST", "Ada")
	joinPlayer(t, e, "VB-TEST", "Ben")
	startSession(t, e, "VB-TEST")

	riggedWinner(t, e, "VB-TEST", "Ada")
	riggedWinner(t, e, "VB-TEST", "Ben")

	claim, err := e.ClaimPrize("VB-TEST", "Ada", PrizeLine)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if claim.Nickname != "Ada" {
		t.Fatalf("expected Ada bound, got %q", claim.Nickname)
	}

	_, err = e.ClaimPrize("VB-TEST", "Ben", PrizeLine)
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Ada") {
		t.Fatalf("error should carry the bound claimant, got %q", err.Error())
	}
}

func TestClaimPrizeRejectsInvalidBoard(t *testing.T) {
	e := newTestEngine(t)
	createSession(t, e, "CLAIM2")
	joinPlayer(t, e, "CLAIM2", "Ada")
	startSession(t, e, "CLAIM2")

	if _, err := e.ClaimPrize("CLAIM2", "Ada", PrizeLine); err == nil {
		t.Fatalf("expected claim on empty board to fail")
	}
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	e := newTestEngine(t)
	createSession(t, e, "RACE1")
	joinPlayer(t, e, "RACE1", "Ada")
	joinPlayer(t, e, "RACE1", "Ben")
	startSession(t, e, "RACE1")
	riggedWinner(t, e, "RACE1", "Ada")
	riggedWinner(t, e, "RACE1", "Ben")

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, nickname := range []string{"Ada", "Ben"} {
		wg.Add(1)
		go func(slot int, who string) {
			defer wg.Done()
			_, results[slot] = e.ClaimPrize("RACE1", who, PrizeLine)
		}(i, nickname)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrAlreadyClaimed) {
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning claim, got %d", wins)
	}

	var bound string
	_ = e.store.View("RACE1", func(session *Session) {
		bound = session.LineClaim.Nickname
	})
	for i, nickname := range []string{"Ada", "Ben"} {
		if results[i] == nil && bound != nickname {
			t.Fatalf("bound claimant %q does not match winner %q", bound, nickname)
		}
	}
}
