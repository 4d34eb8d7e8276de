package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SettingsView edits the server connection and handles login/logout using
// tview
type SettingsView struct {
	app  *App
	flex *tview.Flex
	form *tview.Form
	text *tview.TextView

	baseURL  string
	username string
	password string
}

// NewSettingsView creates a new settings view
func NewSettingsView(app *App) *SettingsView {
	sv := &SettingsView{
		app:     app,
		baseURL: app.cfg.Server.BaseURL,
	}

	sv.form = tview.NewForm().
		AddInputField("Server URL", sv.baseURL, 0, nil, func(text string) {
			sv.baseURL = text
		}).
		AddInputField("Username", "", 0, nil, func(text string) {
			sv.username = text
		}).
		AddPasswordField("Password", "", 0, '*', func(text string) {
			sv.password = text
		}).
		AddButton("Save", func() {
			sv.saveSettings()
		}).
		AddButton("Login", func() {
			sv.login()
		}).
		AddButton("Logout", func() {
			sv.logout()
		})
	sv.form.SetBorder(true).SetTitle(" Server ")

	sv.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	sv.text.SetBorder(true).SetTitle(" Current Settings ")

	sv.flex = tview.NewFlex().
		AddItem(sv.form, 0, 1, true).
		AddItem(sv.text, 0, 1, false)

	sv.render()

	return sv
}

// GetPrimitive returns the tview primitive
func (sv *SettingsView) GetPrimitive() tview.Primitive {
	return sv.flex
}

// saveSettings persists the server URL
func (sv *SettingsView) saveSettings() {
	sv.app.cfg.Server.BaseURL = sv.baseURL
	if err := sv.app.cfg.Save(); err != nil {
		sv.text.SetText(fmt.Sprintf("[red]Error saving config: %v", err))
		return
	}
	sv.render()
}

// login exchanges the entered credentials for a token and stores it
func (sv *SettingsView) login() {
	username, password := sv.username, sv.password
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		token, err := sv.app.client.Login(ctx, username, password)
		sv.app.app.QueueUpdateDraw(func() {
			if err != nil {
				sv.text.SetText(fmt.Sprintf("[red]Login failed: %v", err))
				return
			}
			sv.app.cfg.Server.Token = token
			if err := sv.app.cfg.Save(); err != nil {
				sv.text.SetText(fmt.Sprintf("[red]Error saving config: %v", err))
				return
			}
			sv.render()
		})
	}()
}

// logout clears the stored token
func (sv *SettingsView) logout() {
	sv.app.client.ClearToken()
	sv.app.cfg.Server.Token = ""
	if err := sv.app.cfg.Save(); err != nil {
		sv.text.SetText(fmt.Sprintf("[red]Error saving config: %v", err))
		return
	}
	sv.render()
}

// render updates the current settings display
func (sv *SettingsView) render() {
	authState := "[red]not logged in"
	if sv.app.cfg.Server.Token != "" {
		authState = "[green]logged in"
	}
	sv.text.SetText(fmt.Sprintf(
		"[yellow]Server:[white] %s\n[yellow]Auth:[white] %s[white]\n[yellow]History:[white] %s\n\nEsc returns to chat.",
		sv.app.cfg.Server.BaseURL, authState, sv.app.cfg.Paths.HistoryDB))
}
