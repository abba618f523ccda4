package tui

import (
	"corkboard-cli/internal/board"
	"corkboard-cli/internal/model"
	"corkboard-cli/internal/reconcile"
)

type view int

const (
	viewPicker view = iota
	viewBoard
	viewDetail
)

type modal int

const (
	modalNone modal = iota
	modalInput
	modalEditor
	modalConfirm
)

type inputPurpose int

const (
	inputNewBoard inputPurpose = iota
	inputRenameBoard
	inputNewList
	inputRenameList
	inputNewCard
	inputRenameCard
)

func (p inputPurpose) title() string {
	switch p {
	case inputNewBoard:
		return "New board"
	case inputRenameBoard:
		return "Rename board"
	case inputNewList:
		return "New list"
	case inputRenameList:
		return "Rename list"
	case inputNewCard:
		return "New card"
	default:
		return "Rename card"
	}
}

// kbDrag is a keyboard-driven drag: the target list (display index) and the
// slot within it.
type kbDrag struct {
	list int
	pos  int
	over string
}

type boardsLoadedMsg struct {
	boards []model.Board
	err    error
}

type boardLoadedMsg struct {
	st  *board.State
	err error
}

// boardOpMsg carries the outcome of a CRUD operation that ran on a copy of the
// board state.
type boardOpMsg struct {
	st     *board.State
	status string
	err    error
}

type boardDeletedMsg struct {
	title string
	err   error
}

type persistedMsg struct {
	report reconcile.Report
}
