package editor

import (
	"fmt"
	"slices"

	"github.com/starford/noteflow/internal/doc"
)

// Args carries the parameters of a named command.
type Args struct {
	Value string `json:"value,omitempty"`
	Level int    `json:"level,omitempty"`
	From  *int   `json:"from,omitempty"`
	To    *int   `json:"to,omitempty"`
}

var builders = map[string]func(Args) (Command, error){
	"bold":            fixed(ToggleBold),
	"italic":          fixed(ToggleItalic),
	"underline":       fixed(ToggleUnderline),
	"strike":          fixed(ToggleStrike),
	"code":            fixed(ToggleCode),
	"blockquote":      fixed(ToggleBlockquote),
	"bulletList":      fixed(ToggleBulletList),
	"orderedList":     fixed(ToggleOrderedList),
	"paragraph":       fixed(SetParagraph),
	"heading":         func(a Args) (Command, error) { return SetHeading(a.Level), nil },
	"toggleHeading":   func(a Args) (Command, error) { return ToggleHeading(a.Level), nil },
	"align":           func(a Args) (Command, error) { return SetTextAlign(doc.Align(a.Value)), nil },
	"color":           func(a Args) (Command, error) { return SetColor(a.Value), nil },
	"unsetColor":      fixed(UnsetColor),
	"fontFamily":      func(a Args) (Command, error) { return SetFontFamily(a.Value), nil },
	"unsetFontFamily": fixed(UnsetFontFamily),
	"fontSize":        func(a Args) (Command, error) { return SetFontSize(a.Value), nil },
	"unsetFontSize":   fixed(UnsetFontSize),
	"link":            func(a Args) (Command, error) { return SetLink(a.Value), nil },
	"unlink":          fixed(UnsetLink),
	"sortAZ":          fixed(SortAZ),
	"sortZA":          fixed(SortZA),
	"selectAll":       fixed(SelectAll),
	"setSelection":    selectionArgs,
	"insertText":      func(a Args) (Command, error) { return InsertText(a.Value), nil },
	"deleteBackward":  fixed(DeleteBackward),
	"deleteForward":   fixed(DeleteForward),
	"splitBlock":      fixed(SplitBlock),
}

func fixed(f func() Command) func(Args) (Command, error) {
	return func(Args) (Command, error) { return f(), nil }
}

func selectionArgs(a Args) (Command, error) {
	if a.From == nil {
		return nil, fmt.Errorf("%w: setSelection needs from", ErrInvalidArgument)
	}
	to := *a.From
	if a.To != nil {
		to = *a.To
	}
	return SetSelection(doc.Range(*a.From, to)), nil
}

// Names lists the registered command names in order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build resolves a named command.
func Build(name string, a Args) (Command, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return b(a)
}
