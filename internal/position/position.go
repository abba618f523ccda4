// Package position owns the dense integer ordering used for cards within a list
// and lists within a board.
//
// Positions are always 0..n-1 in display order. Renumber is the only way a
// position is assigned after insert; there are no fractional or gap-based ranks.
package position

import (
	"sort"

	"corkboard-cli/internal/model"
)

// Renumber assigns position = index to every item, in the given order.
// The input slice is not modified.
func Renumber[T any](items []T, set func(*T, int)) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		set(&out[i], i)
	}
	return out
}

// Cards renumbers cards in the given order.
func Cards(cards []model.Card) []model.Card {
	return Renumber(cards, func(c *model.Card, i int) { c.Position = i })
}

// Lists renumbers lists in the given order.
func Lists(lists []model.List) []model.List {
	return Renumber(lists, func(l *model.List, i int) { l.Position = i })
}

// Next is the position of a row appended to a container holding count rows.
func Next(count int) int {
	if count < 0 {
		return 0
	}
	return count
}

// SortCards sorts cards in place by position, then CreatedAt, then ID.
func SortCards(cards []model.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return compare(cards[i].Position, cards[j].Position, cards[i].CreatedAt.UnixNano(), cards[j].CreatedAt.UnixNano(), cards[i].ID, cards[j].ID) < 0
	})
}

// SortLists sorts lists in place by position, then CreatedAt, then ID.
func SortLists(lists []model.List) {
	sort.SliceStable(lists, func(i, j int) bool {
		return compare(lists[i].Position, lists[j].Position, lists[i].CreatedAt.UnixNano(), lists[j].CreatedAt.UnixNano(), lists[i].ID, lists[j].ID) < 0
	})
}

func compare(pa, pb int, ca, cb int64, ia, ib string) int {
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	}
	return 0
}

// Dense reports whether positions form exactly 0..len-1 with no duplicates.
func Dense(positions []int) bool {
	seen := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// CardsInList returns the cards of listID sorted by position. The result is a copy.
func CardsInList(cards []model.Card, listID string) []model.Card {
	out := make([]model.Card, 0)
	for _, c := range cards {
		if c.ListID == listID {
			out = append(out, c)
		}
	}
	SortCards(out)
	return out
}

// DenseCards reports, per list id, whether the list's cards are densely numbered.
// Lists with no cards are omitted.
func DenseCards(cards []model.Card) map[string]bool {
	byList := map[string][]int{}
	for _, c := range cards {
		byList[c.ListID] = append(byList[c.ListID], c.Position)
	}
	out := make(map[string]bool, len(byList))
	for id, ps := range byList {
		out[id] = Dense(ps)
	}
	return out
}
