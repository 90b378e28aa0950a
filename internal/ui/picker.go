package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3mint/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
)

// PickerItem is one entry shown in the interactive picker.
type PickerItem struct {
	Label    string // primary text (e.g. wallet name)
	SubLabel string // secondary text shown dimmed (e.g. address)
	Value    string // value returned on selection
}

// pickerModel is the Bubble Tea model for the interactive list picker.
type pickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func newPicker(title string, items []PickerItem) pickerModel {
	return pickerModel{title: title, items: items}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) > 0 {
			item := m.items[m.cursor]
			m.selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n\n")
	for i, item := range m.items {
		line := "    " + StyleValue.Render(item.Label)
		if i == m.cursor {
			line = "  ▸ " + item.Label
		}
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem runs an interactive list picker and returns the selected item's Value.
// Returns ("", nil) if the user cancels. Returns an error only on TUI failure.
func PickItem(ctx context.Context, title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", errors.New("no items to pick from")
	}

	p := tea.NewProgram(newPicker(title, items), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}

	fm := final.(pickerModel)
	if fm.quitting || fm.selected == nil {
		return "", nil
	}
	return fm.selected.Value, nil
}

// WalletItems lists wallets for the picker, default first.
func WalletItems(wallets []*wallet.Wallet) []PickerItem {
	items := make([]PickerItem, 0, len(wallets))
	for _, w := range wallets {
		sub := w.Address
		if !w.CanSign() {
			sub += "  (watch-only)"
		}
		if w.IsDefault {
			sub += "  ★"
		}
		items = append(items, PickerItem{Label: w.Name, SubLabel: sub, Value: w.Name})
	}
	return items
}

// WalletSelector asks the user which wallet to connect. A single wallet is
// picked without prompting.
func WalletSelector(ctx context.Context, wallets []*wallet.Wallet) (*wallet.Wallet, error) {
	if len(wallets) == 1 {
		return wallets[0], nil
	}
	name, err := PickItem(ctx, "Connect wallet", WalletItems(wallets))
	if err != nil || name == "" {
		return nil, err
	}
	for _, w := range wallets {
		if w.Name == name {
			return w, nil
		}
	}
	return nil, nil
}

var _ wallet.Selector = WalletSelector
