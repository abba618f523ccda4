// Package reorder computes card moves for drag-and-drop.
//
// Everything here is pure: functions take the current card and list sets and
// return new slices. Applying the result to UI state and persisting it are the
// callers' concerns (see internal/drag and internal/reconcile).
package reorder

import (
	"errors"
	"fmt"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/position"
)

var ErrUnknownCard = errors.New("unknown card")

type Kind int

const (
	KindNone Kind = iota
	KindWithinList
	KindAcrossLists
)

func (k Kind) String() string {
	switch k {
	case KindWithinList:
		return "within-list"
	case KindAcrossLists:
		return "across-lists"
	default:
		return "none"
	}
}

// Result is the outcome of ComputeMove.
//
// Cards holds every input card (same slice order as the input) with positions
// and list ids recomputed. TouchedListIDs lists the lists whose ordering
// changed: the target list first, then the source list for cross-list moves.
type Result struct {
	Cards          []model.Card
	TouchedListIDs []string
	Kind           Kind
	ActiveCardID   string
	SourceListID   string
	TargetListID   string
}

// Noop reports whether the move left every card where it was.
func (r Result) Noop() bool { return r.Kind == KindNone }

// ComputeMove moves activeCardID onto overID.
//
// overID may name another card (take its slot), a list (append to that list),
// or nothing known (no move). Dropping a card onto itself is a no-op.
func ComputeMove(cards []model.Card, lists []model.List, activeCardID, overID string) (Result, error) {
	out := append([]model.Card(nil), cards...)
	active, ok := findCard(cards, activeCardID)
	if !ok {
		return Result{Cards: out}, fmt.Errorf("%w: %s", ErrUnknownCard, activeCardID)
	}
	res := Result{
		Cards:        out,
		ActiveCardID: active.ID,
		SourceListID: active.ListID,
		TargetListID: active.ListID,
	}
	if overID == "" || overID == active.ID {
		return res, nil
	}

	overCard, overIsCard := findCard(cards, overID)
	overIsList := hasList(lists, overID)
	switch {
	case overIsList:
		res.TargetListID = overID
	case overIsCard:
		res.TargetListID = overCard.ListID
	default:
		return res, nil
	}

	if res.TargetListID == res.SourceListID {
		return moveWithinList(res, active, overCard, overIsCard && !overIsList), nil
	}
	return moveAcrossLists(res, active, overCard, overIsCard && !overIsList), nil
}

func moveWithinList(res Result, active, over model.Card, overIsCard bool) Result {
	sibs := position.CardsInList(res.Cards, res.SourceListID)
	from := indexOf(sibs, active.ID)
	to := len(sibs) - 1
	if overIsCard {
		to = indexOf(sibs, over.ID)
	}
	if from < 0 || to < 0 || from == to {
		return res
	}
	moved := sibs[from]
	rest := append(append([]model.Card{}, sibs[:from]...), sibs[from+1:]...)
	final := insertAt(rest, to, moved)

	res.Cards = replace(res.Cards, position.Cards(final))
	res.Kind = KindWithinList
	res.TouchedListIDs = []string{res.SourceListID}
	return res
}

func moveAcrossLists(res Result, active, over model.Card, overIsCard bool) Result {
	source := position.CardsInList(res.Cards, res.SourceListID)
	target := position.CardsInList(res.Cards, res.TargetListID)

	from := indexOf(source, active.ID)
	moved := source[from]
	source = append(source[:from:from], source[from+1:]...)

	dest := len(target)
	if overIsCard {
		if i := indexOf(target, over.ID); i >= 0 {
			dest = i
		}
	}
	moved.ListID = res.TargetListID
	target = insertAt(target, dest, moved)

	res.Cards = replace(res.Cards, position.Cards(target))
	res.Cards = replace(res.Cards, position.Cards(source))
	res.Kind = KindAcrossLists
	res.TouchedListIDs = []string{res.TargetListID, res.SourceListID}
	return res
}

// RemoveCard deletes id and renumbers the remaining cards of its list.
// It returns the owning list id, or ok=false when the card is unknown.
func RemoveCard(cards []model.Card, id string) (out []model.Card, listID string, ok bool) {
	c, found := findCard(cards, id)
	if !found {
		return append([]model.Card(nil), cards...), "", false
	}
	rest := make([]model.Card, 0, len(cards)-1)
	for _, x := range cards {
		if x.ID != id {
			rest = append(rest, x)
		}
	}
	sibs := position.CardsInList(rest, c.ListID)
	return replace(rest, position.Cards(sibs)), c.ListID, true
}

// RemoveList deletes a list and its cards and renumbers the remaining lists.
func RemoveList(lists []model.List, cards []model.Card, id string) ([]model.List, []model.Card, bool) {
	if !hasList(lists, id) {
		return append([]model.List(nil), lists...), append([]model.Card(nil), cards...), false
	}
	rest := make([]model.List, 0, len(lists)-1)
	for _, l := range lists {
		if l.ID != id {
			rest = append(rest, l)
		}
	}
	position.SortLists(rest)
	keep := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.ListID != id {
			keep = append(keep, c)
		}
	}
	return position.Lists(rest), keep, true
}

// Changed returns the cards of after whose list id or position differ from the
// card with the same id in before. Cards absent from before are included.
func Changed(before, after []model.Card) []model.Card {
	prev := make(map[string]model.Card, len(before))
	for _, c := range before {
		prev[c.ID] = c
	}
	var out []model.Card
	for _, c := range after {
		p, ok := prev[c.ID]
		if !ok || p.ListID != c.ListID || p.Position != c.Position {
			out = append(out, c)
		}
	}
	return out
}

// ChangedLists is Changed for lists (position only).
func ChangedLists(before, after []model.List) []model.List {
	prev := make(map[string]int, len(before))
	for _, l := range before {
		prev[l.ID] = l.Position
	}
	var out []model.List
	for _, l := range after {
		if p, ok := prev[l.ID]; !ok || p != l.Position {
			out = append(out, l)
		}
	}
	return out
}

func findCard(cards []model.Card, id string) (model.Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return model.Card{}, false
}

func hasList(lists []model.List, id string) bool {
	for _, l := range lists {
		if l.ID == id {
			return true
		}
	}
	return false
}

func indexOf(cards []model.Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func insertAt(cards []model.Card, i int, c model.Card) []model.Card {
	if i < 0 {
		i = 0
	}
	if i > len(cards) {
		i = len(cards)
	}
	out := make([]model.Card, 0, len(cards)+1)
	out = append(out, cards[:i]...)
	out = append(out, c)
	out = append(out, cards[i:]...)
	return out
}

// replace swaps in updated versions of cards (matched by id), keeping slice order.
func replace(cards []model.Card, updated []model.Card) []model.Card {
	byID := make(map[string]model.Card, len(updated))
	for _, c := range updated {
		byID[c.ID] = c
	}
	out := make([]model.Card, len(cards))
	for i, c := range cards {
		if u, ok := byID[c.ID]; ok {
			out[i] = u
			continue
		}
		out[i] = c
	}
	return out
}
