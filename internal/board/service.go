package board

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/position"
	"corkboard-cli/internal/reconcile"
	"corkboard-cli/internal/reorder"
	"corkboard-cli/internal/store"
)

// Service is the CRUD glue between a State and the record store.
//
// Title edits that are empty or unchanged are ignored: the method returns the
// zero value, false and a nil error, and nothing is written.
type Service struct {
	store  store.Store
	rec    *reconcile.Reconciler
	logger log.FieldLogger
}

func NewService(s store.Store, logger log.FieldLogger) *Service {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{store: s, rec: reconcile.New(s, logger), logger: logger}
}

func (s *Service) Store() store.Store                { return s.store }
func (s *Service) Reconciler() *reconcile.Reconciler { return s.rec }

func cleanTitle(title string) string {
	return strings.TrimSpace(title)
}

// Boards returns the boards userID owns or is a member of.
func (s *Service) Boards(ctx context.Context, userID string) ([]model.Board, error) {
	return store.BoardsForUser(ctx, s.store, userID)
}

// Load fetches a board with its lists and cards.
func (s *Service) Load(ctx context.Context, boardID string) (*State, error) {
	b, err := store.BoardByID(ctx, s.store, boardID)
	if err != nil {
		return nil, err
	}
	lists, err := store.ListsForBoard(ctx, s.store, boardID)
	if err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
	}
	ids := make([]string, 0, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID)
	}
	cards, err := store.CardsForLists(ctx, s.store, ids)
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	return &State{Board: b, Lists: lists, Cards: cards}, nil
}

// CreateBoard inserts a board owned by owner and its owner membership row.
func (s *Service) CreateBoard(ctx context.Context, owner model.Identity, title string) (model.Board, bool, error) {
	title = cleanTitle(title)
	if title == "" {
		return model.Board{}, false, nil
	}
	b, err := store.InsertBoard(ctx, s.store, model.Board{UserID: owner.UserID, Title: title})
	if err != nil {
		return model.Board{}, false, fmt.Errorf("create board: %w", err)
	}
	_, err = store.InsertMember(ctx, s.store, model.Member{
		BoardID: b.ID,
		UserID:  owner.UserID,
		Email:   owner.Email,
		Role:    model.RoleOwner,
	})
	if err != nil {
		return b, true, fmt.Errorf("add owner membership: %w", err)
	}
	s.logger.WithFields(log.Fields{"table": string(store.Boards), "row_id": b.ID}).Debug("board created")
	return b, true, nil
}

func (s *Service) RenameBoard(ctx context.Context, st *State, title string) (model.Board, bool, error) {
	title = cleanTitle(title)
	if title == "" || title == st.Board.Title {
		return model.Board{}, false, nil
	}
	if err := store.UpdateByID(ctx, s.store, store.Boards, st.Board.ID, store.Row{"title": title}); err != nil {
		return model.Board{}, false, fmt.Errorf("rename board: %w", err)
	}
	st.Board.Title = title
	return st.Board, true, nil
}

// DeleteBoard removes the board; lists, cards, members and invites go with it.
func (s *Service) DeleteBoard(ctx context.Context, boardID string) error {
	if _, err := store.BoardByID(ctx, s.store, boardID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.Boards, store.ByID(boardID)); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

// AddList appends a list to the board.
func (s *Service) AddList(ctx context.Context, st *State, title string) (model.List, bool, error) {
	title = cleanTitle(title)
	if title == "" {
		return model.List{}, false, nil
	}
	l, err := store.InsertList(ctx, s.store, model.List{
		BoardID:  st.Board.ID,
		Title:    title,
		Position: position.Next(len(st.Lists)),
	})
	if err != nil {
		return model.List{}, false, fmt.Errorf("add list: %w", err)
	}
	st.Lists = append(append([]model.List(nil), st.Lists...), l)
	return l, true, nil
}

func (s *Service) RenameList(ctx context.Context, st *State, listID, title string) (model.List, bool, error) {
	l, ok := st.FindList(listID)
	if !ok {
		return model.List{}, false, store.NotFoundError{Table: store.Lists, ID: listID}
	}
	title = cleanTitle(title)
	if title == "" || title == l.Title {
		return model.List{}, false, nil
	}
	if err := store.UpdateByID(ctx, s.store, store.Lists, listID, store.Row{"title": title}); err != nil {
		return model.List{}, false, fmt.Errorf("rename list: %w", err)
	}
	l.Title = title
	st.Lists = replaceList(st.Lists, l)
	return l, true, nil
}

// DeleteList removes a list with its cards and renumbers the remaining lists.
func (s *Service) DeleteList(ctx context.Context, st *State, listID string) error {
	lists, cards, ok := reorder.RemoveList(st.Lists, st.Cards, listID)
	if !ok {
		return store.NotFoundError{Table: store.Lists, ID: listID}
	}
	if err := s.store.Delete(ctx, store.Lists, store.ByID(listID)); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	changed := reorder.ChangedLists(st.Lists, lists)
	st.Lists, st.Cards = lists, cards
	for _, l := range changed {
		if err := store.UpdateByID(ctx, s.store, store.Lists, l.ID, store.Row{"position": l.Position}); err != nil {
			s.logger.WithFields(log.Fields{
				"table":    string(store.Lists),
				"row_id":   l.ID,
				"position": l.Position,
			}).WithError(err).Error("persist list position failed")
		}
	}
	return nil
}

// AddCard appends a card to listID.
func (s *Service) AddCard(ctx context.Context, st *State, listID, title string) (model.Card, bool, error) {
	if _, ok := st.FindList(listID); !ok {
		return model.Card{}, false, store.NotFoundError{Table: store.Lists, ID: listID}
	}
	title = cleanTitle(title)
	if title == "" {
		return model.Card{}, false, nil
	}
	c, err := store.InsertCard(ctx, s.store, model.Card{
		ListID:   listID,
		Title:    title,
		Position: position.Next(len(st.CardsIn(listID))),
	})
	if err != nil {
		return model.Card{}, false, fmt.Errorf("add card: %w", err)
	}
	st.Cards = append(append([]model.Card(nil), st.Cards...), c)
	return c, true, nil
}

func (s *Service) RenameCard(ctx context.Context, st *State, cardID, title string) (model.Card, bool, error) {
	c, ok := st.FindCard(cardID)
	if !ok {
		return model.Card{}, false, store.NotFoundError{Table: store.Cards, ID: cardID}
	}
	title = cleanTitle(title)
	if title == "" || title == c.Title {
		return model.Card{}, false, nil
	}
	if err := store.UpdateByID(ctx, s.store, store.Cards, cardID, store.Row{"title": title}); err != nil {
		return model.Card{}, false, fmt.Errorf("rename card: %w", err)
	}
	c.Title = title
	st.Cards = replaceCard(st.Cards, c)
	return c, true, nil
}

// EditCard sets the card description. An all-blank description clears it.
func (s *Service) EditCard(ctx context.Context, st *State, cardID, description string) (model.Card, bool, error) {
	c, ok := st.FindCard(cardID)
	if !ok {
		return model.Card{}, false, store.NotFoundError{Table: store.Cards, ID: cardID}
	}
	desc := strings.TrimRight(description, " \t\n")
	if desc == c.DescriptionText() {
		return model.Card{}, false, nil
	}
	patch := store.Row{"description": nil}
	c.Description = nil
	if strings.TrimSpace(desc) != "" {
		patch["description"] = desc
		c.Description = &desc
	}
	if err := store.UpdateByID(ctx, s.store, store.Cards, cardID, patch); err != nil {
		return model.Card{}, false, fmt.Errorf("edit card: %w", err)
	}
	st.Cards = replaceCard(st.Cards, c)
	return c, true, nil
}

// DeleteCard removes a card and renumbers its former siblings.
func (s *Service) DeleteCard(ctx context.Context, st *State, cardID string) error {
	cards, _, ok := reorder.RemoveCard(st.Cards, cardID)
	if !ok {
		return store.NotFoundError{Table: store.Cards, ID: cardID}
	}
	if err := s.store.Delete(ctx, store.Cards, store.ByID(cardID)); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	changed := reorder.Changed(st.Cards, cards)
	st.Cards = cards
	updates := make([]reconcile.Update, 0, len(changed))
	for _, c := range changed {
		updates = append(updates, reconcile.Update{CardID: c.ID, Step: reconcile.StepSource, Position: c.Position})
	}
	s.rec.Apply(ctx, updates)
	return nil
}

// Repair renumbers every list and card ordering of st to 0..n-1, keeping the
// current display order, and writes the rows that changed. It returns the
// number of rows written.
func (s *Service) Repair(ctx context.Context, st *State) (int, error) {
	written := 0
	lists := position.Lists(st.SortedLists())
	for _, l := range reorder.ChangedLists(st.Lists, lists) {
		if err := store.UpdateByID(ctx, s.store, store.Lists, l.ID, store.Row{"position": l.Position}); err != nil {
			return written, fmt.Errorf("repair list %s: %w", l.ID, err)
		}
		written++
	}
	st.Lists = lists

	var cards []model.Card
	var updates []reconcile.Update
	for _, l := range lists {
		renumbered := position.Cards(st.CardsIn(l.ID))
		for _, c := range reorder.Changed(st.CardsIn(l.ID), renumbered) {
			updates = append(updates, reconcile.Update{CardID: c.ID, Step: reconcile.StepSource, Position: c.Position})
		}
		cards = append(cards, renumbered...)
	}
	rep := s.rec.Apply(ctx, updates)
	st.Cards = cards
	written += len(rep.Applied)
	if !rep.OK() {
		return written, fmt.Errorf("repair: %d card update(s) failed: %w", len(rep.Failed), rep.Failed[0].Err)
	}
	return written, nil
}

// Move runs a drop outside the pointer loop: compute, apply to st, then persist
// and wait for the report.
func (s *Service) Move(ctx context.Context, st *State, cardID, overID string) (reorder.Result, reconcile.Report, error) {
	res, err := reorder.ComputeMove(st.Cards, st.Lists, cardID, overID)
	if err != nil {
		return res, reconcile.Report{}, err
	}
	if res.Noop() {
		return res, reconcile.Report{}, nil
	}
	before := st.Cards
	st.Cards = res.Cards
	rep := s.rec.Persist(ctx, before, res)
	return res, rep, nil
}

func replaceList(lists []model.List, l model.List) []model.List {
	out := append([]model.List(nil), lists...)
	for i := range out {
		if out[i].ID == l.ID {
			out[i] = l
		}
	}
	return out
}

func replaceCard(cards []model.Card, c model.Card) []model.Card {
	out := append([]model.Card(nil), cards...)
	for i := range out {
		if out[i].ID == c.ID {
			out[i] = c
		}
	}
	return out
}
