package engine

import (
	"fmt"
	"log"
	"time"
)

const (
	PrizeLine     = "line"
	PrizeFullCard = "card"
)

// winLines enumerates the cell indexes of every line pattern the variant
// allows: five rows, five columns, and both diagonals under VariantClassic.
func winLines(variant string) [][]int {
	lines := make([][]int, 0, 2*BoardSize+2)
	for row := 0; row < BoardSize; row++ {
		line := make([]int, BoardSize)
		for col := 0; col < BoardSize; col++ {
			line[col] = row*BoardSize + col
		}
		lines = append(lines, line)
	}
	for col := 0; col < BoardSize; col++ {
		line := make([]int, BoardSize)
		for row := 0; row < BoardSize; row++ {
			line[row] = row*BoardSize + col
		}
		lines = append(lines, line)
	}
	if variant != VariantStraight {
		main := make([]int, BoardSize)
		anti := make([]int, BoardSize)
		for i := 0; i < BoardSize; i++ {
			main[i] = i*BoardSize + i
			anti[i] = i*BoardSize + (BoardSize - 1 - i)
		}
		lines = append(lines, main, anti)
	}
	return lines
}

// cellSatisfied reports whether a cell counts toward a win: free cells
// always do, every other cell must be marked AND its number actually drawn.
// A mark with no backing draw never counts, whatever the client sent.
func cellSatisfied(board Board, marks Bitset, drawn map[int]bool, cell int) bool {
	if cell == FreeCell && board[cell] == 0 {
		return true
	}
	return marks.Get(cell) && drawn[board[cell]]
}

// HasLineWin reports whether any complete line of the board is fully
// marked and draw-backed.
func HasLineWin(board Board, marks Bitset, drawnNumbers []int, variant string) bool {
	if len(board) != BoardCells {
		return false
	}
	drawn := drawnSet(drawnNumbers)
	for _, line := range winLines(variant) {
		complete := true
		for _, cell := range line {
			if !cellSatisfied(board, marks, drawn, cell) {
				complete = false
				break
			}
		}
		if complete {
			return true
		}
	}
	return false
}

// HasFullCardWin reports whether every non-free cell is marked and
// draw-backed.
func HasFullCardWin(board Board, marks Bitset, drawnNumbers []int) bool {
	if len(board) != BoardCells {
		return false
	}
	drawn := drawnSet(drawnNumbers)
	for cell := 0; cell < BoardCells; cell++ {
		if !cellSatisfied(board, marks, drawn, cell) {
			return false
		}
	}
	return true
}

func drawnSet(drawnNumbers []int) map[int]bool {
	drawn := make(map[int]bool, len(drawnNumbers))
	for _, n := range drawnNumbers {
		drawn[n] = true
	}
	return drawn
}

// ClaimPrize validates a player's win claim and resolves the per-round race:
// the first validated claim binds the claimant, every later one fails with
// ErrAlreadyClaimed carrying the bound nickname. Claims never overwrite.
func (e *Engine) ClaimPrize(code, nickname, kind string) (Claim, error) {
	code = NormalizeCode(code)
	if kind != PrizeLine && kind != PrizeFullCard {
		return Claim{}, fmt.Errorf("unknown prize kind %q", kind)
	}
	var (
		claim Claim
		event EventRecord
	)
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive); err != nil {
			return err
		}
		player := session.findPlayer(nickname)
		if player == nil {
			return fmt.Errorf("%w: player %q", ErrNotFound, nickname)
		}
		slot := &session.LineClaim
		if kind == PrizeFullCard {
			slot = &session.CardClaim
		}
		if slot.Taken() {
			return fmt.Errorf("%w: %s already won by %q", ErrAlreadyClaimed, kind, slot.Nickname)
		}
		valid := false
		switch kind {
		case PrizeLine:
			valid = HasLineWin(player.Board, player.Marks, session.Drawn, session.Variant)
		case PrizeFullCard:
			valid = HasFullCardWin(player.Board, player.Marks, session.Drawn)
		}
		if !valid {
			return fmt.Errorf("board does not validate a %s win", kind)
		}
		*slot = Claim{Nickname: player.Nickname, At: time.Now().UTC()}
		player.Wins++
		claim = *slot
		event = appendEvent(session, EventPrizeClaimed, EventPayload{
			Nickname: player.Nickname,
			Kind:     kind,
			Round:    session.Round,
		})
		return nil
	})
	if err != nil {
		return Claim{}, err
	}
	log.Printf("prize claimed code=%s kind=%s nickname=%s", code, kind, claim.Nickname)
	e.persistSessionState(code)
	e.persistPlayerState(code, nickname)
	e.persistEvent(code, event)
	return claim, nil
}
