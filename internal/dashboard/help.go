package dashboard

import "github.com/charmbracelet/bubbles/help"

// HelpBindings returns the help.KeyMap for the given view,
// providing context-aware help bar content.
func HelpBindings(view View) help.KeyMap {
	if view == ViewDetail {
		return DetailKeyMap()
	}
	return ListKeyMap()
}
