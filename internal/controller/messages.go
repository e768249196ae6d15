package controller

import (
	"github.com/ncgopher/ncgopher-go/internal/apperr"
	"github.com/ncgopher/ncgopher-go/internal/page"
)

// UiMessage is one of the commands the terminal UI sends to the
// controller.
type UiMessage interface{ isUiMessage() }

type NavigateTo struct{ URL string }
type NavigateBack struct{}
type Reload struct{}
type SavePage struct{ Path string }
type Download struct{ URL, Path string }
type AddBookmark struct{ Title, URL string }
type OpenBookmark struct{ URL string }
type SetQuery struct{ URL, Query string }
type ConfirmTrust struct {
	Host        string
	Port        int
	Fingerprint string
}
type RejectTrust struct {
	Host string
	Port int
}
type Quit struct{}

func (NavigateTo) isUiMessage()   {}
func (NavigateBack) isUiMessage() {}
func (Reload) isUiMessage()       {}
func (SavePage) isUiMessage()     {}
func (Download) isUiMessage()     {}
func (AddBookmark) isUiMessage()  {}
func (OpenBookmark) isUiMessage() {}
func (SetQuery) isUiMessage()     {}
func (ConfirmTrust) isUiMessage() {}
func (RejectTrust) isUiMessage()  {}
func (Quit) isUiMessage()         {}

// ControllerMessage is one of the notifications the controller emits
// back to the terminal UI.
type ControllerMessage interface{ isControllerMessage() }

// ShowPage renders a fetched page. Cursor is non-nil only when
// restoring a saved scroll position, as happens on NavigateBack.
type ShowPage struct {
	Page   *page.Page
	Cursor *int
}
type ShowStatus struct{ Text string }
type ShowError struct {
	Kind apperr.Kind
	Text string
}

// AskTrust requests a user decision on a new or changed certificate
// fingerprint. OldFingerprint is nil on first contact.
type AskTrust struct {
	Host           string
	Port           int
	OldFingerprint *string
	NewFingerprint string
}
type AskQuery struct{ Prompt, URL string }
type ProgressTick struct{ Bytes int64 }

func (ShowPage) isControllerMessage()     {}
func (ShowStatus) isControllerMessage()   {}
func (ShowError) isControllerMessage()    {}
func (AskTrust) isControllerMessage()     {}
func (AskQuery) isControllerMessage()     {}
func (ProgressTick) isControllerMessage() {}
