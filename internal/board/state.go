package board

import (
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/position"
)

// State is the client's in-memory copy of one open board.
//
// The slices are replaced wholesale on every mutation (never edited in place), so
// a caller holding an older slice keeps a consistent snapshot.
type State struct {
	Board model.Board
	Lists []model.List
	Cards []model.Card
}

// SortedLists returns the board's lists in display order.
func (s *State) SortedLists() []model.List {
	out := append([]model.List(nil), s.Lists...)
	position.SortLists(out)
	return out
}

// CardsIn returns the cards of listID in display order.
func (s *State) CardsIn(listID string) []model.Card {
	return position.CardsInList(s.Cards, listID)
}

func (s *State) FindCard(id string) (model.Card, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return model.Card{}, false
}

func (s *State) FindList(id string) (model.List, bool) {
	for _, l := range s.Lists {
		if l.ID == id {
			return l, true
		}
	}
	return model.List{}, false
}

// Clone returns a copy whose slices do not alias s.
func (s *State) Clone() *State {
	return &State{
		Board: s.Board,
		Lists: append([]model.List(nil), s.Lists...),
		Cards: append([]model.Card(nil), s.Cards...),
	}
}

// Dense reports whether every list and the board's lists are densely numbered.
func (s *State) Dense() bool {
	ps := make([]int, 0, len(s.Lists))
	for _, l := range s.Lists {
		ps = append(ps, l.Position)
	}
	if !position.Dense(ps) {
		return false
	}
	for _, ok := range position.DenseCards(s.Cards) {
		if !ok {
			return false
		}
	}
	return true
}

// Issue is an ordering that is not numbered 0..n-1. ListID is empty for the
// board's own list order.
type Issue struct {
	ListID    string `json:"list_id,omitempty"`
	Title     string `json:"title"`
	Positions []int  `json:"positions"`
}

// Check reports every ordering in s that is not dense.
func (s *State) Check() []Issue {
	var out []Issue
	lists := s.SortedLists()
	ps := make([]int, 0, len(lists))
	for _, l := range lists {
		ps = append(ps, l.Position)
	}
	if !position.Dense(ps) {
		out = append(out, Issue{Title: s.Board.Title, Positions: ps})
	}
	for _, l := range lists {
		cards := s.CardsIn(l.ID)
		cps := make([]int, 0, len(cards))
		for _, c := range cards {
			cps = append(cps, c.Position)
		}
		if !position.Dense(cps) {
			out = append(out, Issue{ListID: l.ID, Title: l.Title, Positions: cps})
		}
	}
	return out
}
