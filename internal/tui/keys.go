// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	MoreBars  key.Binding
	FewerBars key.Binding
	Louder    key.Binding
	Quieter   key.Binding
	Mapping   key.Binding
	Reduction key.Binding
	Peaks     key.Binding
	Stats     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		MoreBars:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "bars")),
		FewerBars: key.NewBinding(key.WithKeys("-", "_")),
		Louder:    key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "sensitivity")),
		Quieter:   key.NewBinding(key.WithKeys("[")),
		Mapping:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mapping")),
		Reduction: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "peak/average")),
		Peaks:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "peaks")),
		Stats:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stats")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoreBars, k.Louder, k.Peaks, k.Stats, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.MoreBars, k.Louder, k.Mapping, k.Reduction},
		{k.Peaks, k.Stats, k.Help, k.Quit},
	}
}
