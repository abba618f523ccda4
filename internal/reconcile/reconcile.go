// Package reconcile persists the outcome of a card move.
//
// Local state is already updated by the time a plan is applied. Each write is
// independent: a failure is logged and the remaining writes still run. Nothing
// is retried and nothing is rolled back.
package reconcile

import (
	"context"
	"time"

	"corkboard-cli/internal/model"
	"corkboard-cli/internal/position"
	"corkboard-cli/internal/reorder"
	"corkboard-cli/internal/store"

	log "github.com/sirupsen/logrus"
)

type Step string

const (
	StepMoved  Step = "moved"
	StepTarget Step = "target"
	StepSource Step = "source"
)

// Update is one card write.
type Update struct {
	CardID   string
	Step     Step
	Position int
	// ListID is set only when the card changed lists.
	ListID string
}

func (u Update) Patch() store.Row {
	r := store.Row{"position": u.Position}
	if u.ListID != "" {
		r["list_id"] = u.ListID
	}
	return r
}

// Plan returns the writes needed to persist res, given the cards as they were
// before the move. Only rows whose position or list changed are included.
//
// Order: the moved card first, then the target list's siblings by new position,
// then the source list's siblings (cross-list moves only).
func Plan(before []model.Card, res reorder.Result) []Update {
	if res.Noop() {
		return nil
	}
	changed := map[string]model.Card{}
	for _, c := range reorder.Changed(before, res.Cards) {
		changed[c.ID] = c
	}
	prevList := make(map[string]string, len(before))
	for _, c := range before {
		prevList[c.ID] = c.ListID
	}

	var out []Update
	if c, ok := changed[res.ActiveCardID]; ok {
		u := Update{CardID: c.ID, Step: StepMoved, Position: c.Position}
		if prevList[c.ID] != c.ListID {
			u.ListID = c.ListID
		}
		out = append(out, u)
	}
	step := StepTarget
	for _, listID := range res.TouchedListIDs {
		for _, c := range position.CardsInList(res.Cards, listID) {
			if c.ID == res.ActiveCardID {
				continue
			}
			if _, ok := changed[c.ID]; !ok {
				continue
			}
			out = append(out, Update{CardID: c.ID, Step: step, Position: c.Position})
		}
		step = StepSource
	}
	return out
}

// Failure is one write that did not go through.
type Failure struct {
	Update Update
	Err    error
}

// Report summarizes one applied plan.
type Report struct {
	Applied  []Update
	Failed   []Failure
	Duration time.Duration
}

func (r Report) OK() bool { return len(r.Failed) == 0 }

type Reconciler struct {
	store  store.Store
	logger log.FieldLogger
}

func New(s store.Store, logger log.FieldLogger) *Reconciler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Reconciler{store: s, logger: logger}
}

// Apply issues updates sequentially, in order, and never stops early.
func (r *Reconciler) Apply(ctx context.Context, updates []Update) Report {
	start := time.Now()
	var rep Report
	for _, u := range updates {
		if err := store.UpdateByID(ctx, r.store, store.Cards, u.CardID, u.Patch()); err != nil {
			r.logger.WithFields(log.Fields{
				"table":    string(store.Cards),
				"row_id":   u.CardID,
				"step":     string(u.Step),
				"position": u.Position,
			}).WithError(err).Error("persist card position failed")
			rep.Failed = append(rep.Failed, Failure{Update: u, Err: err})
			continue
		}
		rep.Applied = append(rep.Applied, u)
	}
	rep.Duration = time.Since(start)
	r.logger.WithFields(log.Fields{
		"applied":  len(rep.Applied),
		"failed":   len(rep.Failed),
		"duration": rep.Duration.String(),
	}).Debug("reconciled move")
	return rep
}

// Persist plans and applies in one call.
func (r *Reconciler) Persist(ctx context.Context, before []model.Card, res reorder.Result) Report {
	return r.Apply(ctx, Plan(before, res))
}

// Dispatch persists res on its own goroutine. The returned channel receives
// exactly one report and is then closed.
func (r *Reconciler) Dispatch(ctx context.Context, before []model.Card, res reorder.Result) <-chan Report {
	ch := make(chan Report, 1)
	updates := Plan(before, res)
	go func() {
		defer close(ch)
		ch <- r.Apply(ctx, updates)
	}()
	return ch
}
