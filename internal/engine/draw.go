package engine

import (
	"log"
	"math/rand/v2"
)

// PoolSize is the number of balls in the draw pool.
const PoolSize = 75

// NextDraw picks uniformly at random from the numbers not yet drawn.
// It never repeats a number; once all of 1..PoolSize are out it fails
// with ErrPoolExhausted.
func NextDraw(drawn []int) (int, error) {
	if len(drawn) >= PoolSize {
		return 0, ErrPoolExhausted
	}
	taken := make(map[int]bool, len(drawn))
	for _, n := range drawn {
		taken[n] = true
	}
	remaining := make([]int, 0, PoolSize-len(drawn))
	for n := 1; n <= PoolSize; n++ {
		if !taken[n] {
			remaining = append(remaining, n)
		}
	}
	if len(remaining) == 0 {
		return 0, ErrPoolExhausted
	}
	return remaining[rand.IntN(len(remaining))], nil
}

// Letter maps a drawn number to its display band: B 1-15, I 16-30, N 31-45,
// G 46-60, O 61-75. Purely derived, never stored.
func Letter(n int) string {
	const letters = "BINGO"
	if n < 1 || n > PoolSize {
		return ""
	}
	return string(letters[(n-1)/BandSize])
}

// DrawNext draws the next number for a session. The drawn sequence keeps
// insertion order for display; uniqueness is the invariant that matters.
func (e *Engine) DrawNext(code string) (int, error) {
	code = NormalizeCode(code)
	var (
		number int
		event  EventRecord
	)
	err := e.store.Mutate(code, func(session *Session) error {
		if err := requireStatus(session, StatusActive); err != nil {
			return err
		}
		n, err := NextDraw(session.Drawn)
		if err != nil {
			return err
		}
		session.Drawn = append(session.Drawn, n)
		session.Current = n
		number = n
		event = appendEvent(session, EventNumberDrawn, EventPayload{
			Number: n,
			Letter: Letter(n),
			Round:  session.Round,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Printf("number drawn code=%s number=%d letter=%s", code, number, Letter(number))
	e.persistSessionState(code)
	e.persistEvent(code, event)
	return number, nil
}
