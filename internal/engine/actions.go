package engine

import (
	"fmt"
	"strings"
)

// Action is one variant of the closed set of button payloads. Callback
// data is parsed into an Action exactly once, at the boundary; the
// engine never branches on raw strings.
type Action interface {
	isAction()
}

// CancelAction aborts the workflow; valid from every state.
type CancelAction struct{}

// EditExistingAction loads an existing note for the word into the edit
// loop.
type EditExistingAction struct {
	Word string
}

// CreateNewAction enriches the word even though notes for it exist.
type CreateNewAction struct {
	Word string
}

// ConfirmCreateAction accepts the enrichment result and moves on to
// template selection.
type ConfirmCreateAction struct{}

// ChooseTemplateAction selects the card template.
type ChooseTemplateAction struct {
	Template string
}

// ChooseDeckAction selects the target deck.
type ChooseDeckAction struct {
	Deck string
}

// ConfirmFinalAction commits the card.
type ConfirmFinalAction struct{}

// EditCardAction opens the field edit menu from the preview.
type EditCardAction struct{}

// EditFieldAction starts editing one field.
type EditFieldAction struct {
	Field string
}

// FinishEditingAction leaves the edit menu and re-renders the preview.
type FinishEditingAction struct{}

func (CancelAction) isAction()         {}
func (EditExistingAction) isAction()   {}
func (CreateNewAction) isAction()      {}
func (ConfirmCreateAction) isAction()  {}
func (ChooseTemplateAction) isAction() {}
func (ChooseDeckAction) isAction()     {}
func (ConfirmFinalAction) isAction()   {}
func (EditCardAction) isAction()       {}
func (EditFieldAction) isAction()      {}
func (FinishEditingAction) isAction()  {}

// Wire tokens. They double as the template/deck aliases the flashcard
// gateway resolves, so the callback payload stays a single opaque
// string.
const (
	tokenCancel        = "cancel"
	tokenEditExisting  = "edit_existing:"
	tokenCreateNew     = "create_new:"
	tokenConfirmCreate = "confirm_create"
	tokenBasicCard     = "basic_card"
	tokenReversedCard  = "reversed_card"
	tokenDeckPrefix    = "deck_"
	tokenConfirmFinal  = "confirm_create_final"
	tokenEditCard      = "edit_card"
	tokenEditField     = "edit_field:"
	tokenFinishEditing = "finish_editing"
)

// ParseAction parses a callback payload into its Action variant.
// Unknown payloads are rejected here so no stray token ever reaches
// the state machine.
func ParseAction(data string) (Action, error) {
	switch {
	case data == tokenCancel:
		return CancelAction{}, nil
	case strings.HasPrefix(data, tokenEditExisting):
		word := strings.TrimPrefix(data, tokenEditExisting)
		if word == "" {
			return nil, fmt.Errorf("edit-existing payload without a word")
		}
		return EditExistingAction{Word: word}, nil
	case strings.HasPrefix(data, tokenCreateNew):
		word := strings.TrimPrefix(data, tokenCreateNew)
		if word == "" {
			return nil, fmt.Errorf("create-new payload without a word")
		}
		return CreateNewAction{Word: word}, nil
	case data == tokenConfirmCreate:
		return ConfirmCreateAction{}, nil
	case data == tokenBasicCard || data == tokenReversedCard:
		return ChooseTemplateAction{Template: data}, nil
	case strings.HasPrefix(data, tokenDeckPrefix):
		return ChooseDeckAction{Deck: data}, nil
	case data == tokenConfirmFinal:
		return ConfirmFinalAction{}, nil
	case data == tokenEditCard:
		return EditCardAction{}, nil
	case strings.HasPrefix(data, tokenEditField):
		field := strings.TrimPrefix(data, tokenEditField)
		if field == "" {
			return nil, fmt.Errorf("edit-field payload without a field name")
		}
		return EditFieldAction{Field: field}, nil
	case data == tokenFinishEditing:
		return FinishEditingAction{}, nil
	}
	return nil, fmt.Errorf("unknown action payload %q", data)
}
