package tui

import (
	"fmt"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ops-agent/cli/config"
	"github.com/ops-agent/cli/internal/agent"
	"github.com/ops-agent/cli/internal/capture"
	"github.com/ops-agent/cli/internal/conversation"
	"github.com/ops-agent/cli/internal/history"
)

// App represents the main TUI application using tview
type App struct {
	app   *tview.Application
	pages *tview.Pages

	client    *agent.Client
	store     *conversation.Store
	submitter *conversation.SubmissionController
	feedback  *conversation.FeedbackController
	screenSrc *capture.ScreenSource
	historyDB *history.Store
	cfg       *config.Config

	// Views
	chatView     *ChatView
	cropView     *CropView
	settingsView *SettingsView
}

// NewApp creates a new TUI application
func NewApp(cfg *config.Config) (*App, error) {
	client := agent.NewClient(cfg.Server.BaseURL, cfg.Server.Token)

	store := conversation.NewStore()

	// Local history is best effort: a broken database should not keep the
	// assistant from starting.
	historyDB, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		log.Printf("Warning: history unavailable: %v", err)
	} else {
		if msgs, err := historyDB.Load(); err != nil {
			log.Printf("Warning: failed to load history: %v", err)
		} else if len(msgs) > 0 {
			store.Restore(msgs)
		}
		store.SetPersister(historyDB)
	}

	app := &App{
		client:    client,
		store:     store,
		submitter: conversation.NewSubmissionController(store, client),
		feedback:  conversation.NewFeedbackController(store, client),
		screenSrc: capture.NewScreenSource(nil,
			time.Duration(cfg.Capture.FrameDelayMs)*time.Millisecond),
		historyDB: historyDB,
		cfg:       cfg,
	}

	// Seed the greeting only for a fresh conversation.
	if store.Len() == 0 && cfg.Chat.WelcomeMessage != "" {
		store.AppendAssistantMessage(cfg.Chat.WelcomeMessage, nil, "")
	}

	// Initialize tview application
	app.app = tview.NewApplication()
	app.app.EnableMouse(true)
	app.pages = tview.NewPages()

	// Initialize views
	app.chatView = NewChatView(app)
	app.cropView = NewCropView(app)
	app.settingsView = NewSettingsView(app)

	// Add pages
	app.pages.AddPage("chat", app.chatView.GetPrimitive(), true, true)
	app.pages.AddPage("crop", app.cropView.GetPrimitive(), true, false)
	app.pages.AddPage("settings", app.settingsView.GetPrimitive(), true, false)

	// Set root
	app.app.SetRoot(app.pages, true).SetFocus(app.pages)

	// Keep focus on the chat input when returning to the chat page
	app.pages.SetChangedFunc(func() {
		name, _ := app.pages.GetFrontPage()
		if name == "chat" {
			app.app.SetFocus(app.chatView.input)
		}
	})

	// Redraw whenever the conversation mutates. Mutations arrive from
	// worker goroutines, so hop onto the UI queue.
	store.SetOnChange(func() {
		app.app.QueueUpdateDraw(func() {
			app.chatView.renderMessages()
		})
	})

	app.setupGlobalKeys()

	return app, nil
}

// setupGlobalKeys sets up global keyboard shortcuts
func (a *App) setupGlobalKeys() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		name, _ := a.pages.GetFrontPage()

		if name == "crop" && event.Key() != tcell.KeyCtrlC {
			return a.cropView.HandleKey(event)
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			a.app.Stop()
			return nil
		case tcell.KeyEsc:
			switch name {
			case "settings":
				a.pages.SwitchToPage("chat")
				return nil
			case "chat":
				a.app.Stop()
				return nil
			}
		case tcell.KeyF2:
			if name == "chat" {
				a.pages.SwitchToPage("settings")
				return nil
			}
		}

		return event
	})
}

// ShowError renders err on the chat status line.
func (a *App) ShowError(err error) {
	a.chatView.setStatus(fmt.Sprintf("[red]%v[white]", err))
}

// Run starts the TUI application
func (a *App) Run() error {
	defer func() {
		if a.historyDB != nil {
			a.historyDB.Close()
		}
	}()
	return a.app.Run()
}
