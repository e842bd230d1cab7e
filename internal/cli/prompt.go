package cli

import "github.com/charmbracelet/huh"

// Confirm asks a yes/no question before changes are made; tests replace it.
var Confirm = func(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	return ok, err
}
