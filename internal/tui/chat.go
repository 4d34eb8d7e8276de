package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ops-agent/cli/internal/capture"
	"github.com/ops-agent/cli/internal/conversation"
	"github.com/ops-agent/cli/internal/imaging"
)

// ChatView handles the chat interface using tview
type ChatView struct {
	app      *App
	flex     *tview.Flex
	messages *tview.TextView
	hot      *tview.TextView
	status   *tview.TextView
	input    *tview.TextArea

	// Image staged for the next submission, already cropped.
	pendingImage imaging.EncodedImage
}

// NewChatView creates a new chat view
func NewChatView(app *App) *ChatView {
	cv := &ChatView{app: app}

	cv.messages = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetScrollable(true)
	cv.messages.SetBorder(true).SetTitle(" Ops Agent ")

	cv.hot = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	cv.status = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)

	cv.input = tview.NewTextArea().
		SetPlaceholder("Ask a question... (Ctrl+Enter to send, Ctrl+S screenshot, Ctrl+O attach)").
		SetWrap(true)

	cv.input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			if event.Modifiers()&tcell.ModCtrl != 0 {
				cv.sendMessage()
				return nil
			}
		case tcell.KeyCtrlO:
			cv.promptAttachFile()
			return nil
		case tcell.KeyCtrlB:
			cv.pasteImage()
			return nil
		case tcell.KeyCtrlS:
			cv.captureScreen()
			return nil
		case tcell.KeyCtrlU:
			cv.promptUploadDocument()
			return nil
		case tcell.KeyCtrlX:
			cv.clearAttachment()
			return nil
		case tcell.KeyCtrlY:
			cv.sendFeedback(conversation.FeedbackSolved)
			return nil
		case tcell.KeyCtrlN:
			cv.sendFeedback(conversation.FeedbackUnsolved)
			return nil
		case tcell.KeyCtrlR:
			cv.resetConversation()
			return nil
		case tcell.KeyCtrlF:
			cv.downloadLatestSource()
			return nil
		}
		return event
	})

	cv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(cv.hot, 1, 0, false).
		AddItem(cv.messages, 0, 1, false).
		AddItem(cv.status, 1, 0, false).
		AddItem(cv.input, 4, 0, true)

	cv.renderMessages()
	go cv.fetchHotQuestions()

	return cv
}

// GetPrimitive returns the tview primitive
func (cv *ChatView) GetPrimitive() tview.Primitive {
	return cv.flex
}

func (cv *ChatView) setStatus(text string) {
	cv.status.SetText(text)
}

// fetchHotQuestions loads frequently asked questions into the header line.
// Best effort: failures leave the line empty.
func (cv *ChatView) fetchHotQuestions() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	questions, err := cv.app.client.HotQuestions(ctx)
	if err != nil || len(questions) == 0 {
		return
	}
	if max := cv.app.cfg.Chat.HotQuestionCount; max > 0 && len(questions) > max {
		questions = questions[:max]
	}

	cv.app.app.QueueUpdateDraw(func() {
		cv.hot.SetText("[yellow]Hot:[white] " + strings.Join(questions, "  |  "))
	})
}

// sendMessage submits the composed text and staged image.
func (cv *ChatView) sendMessage() {
	if cv.app.submitter.Busy() {
		cv.setStatus("[yellow]Still answering the previous question...[white]")
		return
	}

	text := cv.input.GetText()
	image := cv.pendingImage
	if strings.TrimSpace(text) == "" && image == "" {
		return
	}

	cv.input.SetText("", false)
	cv.pendingImage = ""
	cv.setStatus("")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		// Submit failures are already rendered into the conversation; only
		// guard errors are worth surfacing separately.
		err := cv.app.submitter.Submit(ctx, text, image)
		if errors.Is(err, conversation.ErrSubmissionInFlight) ||
			errors.Is(err, conversation.ErrEmptySubmission) {
			cv.app.app.QueueUpdateDraw(func() {
				cv.app.ShowError(err)
			})
		}
	}()
}

// sendFeedback marks the latest resolved answer solved or unsolved.
func (cv *ChatView) sendFeedback(verdict conversation.Feedback) {
	msgs := cv.app.store.All()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		// Feedback is only offered on answers that completed the server
		// round-trip.
		if m.Role == conversation.RoleAssistant && m.QuestionID != "" {
			go func(id string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				cv.app.feedback.Submit(ctx, id, verdict)
			}(m.ID)
			return
		}
	}
	cv.setStatus("[yellow]No answer to rate yet[white]")
}

// promptAttachFile asks for an image path and routes it through the crop
// flow.
func (cv *ChatView) promptAttachFile() {
	cv.promptInput(" Attach Image ", "Path", func(path string) {
		if strings.TrimSpace(path) == "" {
			return
		}
		go cv.acquireAndCrop(capture.FileSource{Path: strings.TrimSpace(path)})
	})
}

// pasteImage pulls an image off the system clipboard. A clipboard without
// an image is a no-op apart from the status hint.
func (cv *ChatView) pasteImage() {
	go cv.acquireAndCrop(capture.ClipboardSource{})
}

// captureScreen grabs one frame via the platform capture prompt.
func (cv *ChatView) captureScreen() {
	go cv.acquireAndCrop(cv.app.screenSrc)
}

// acquireAndCrop runs an acquisition source off the event loop and hands
// the result to the crop view. Runs in its own goroutine.
func (cv *ChatView) acquireAndCrop(src capture.Source) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	img, err := src.Acquire(ctx)
	cv.app.app.QueueUpdateDraw(func() {
		if err != nil {
			if errors.Is(err, capture.ErrNoImage) {
				cv.setStatus("[yellow]Clipboard has no image[white]")
			} else {
				cv.app.ShowError(err)
			}
			return
		}
		cv.app.cropView.Show(img, func(cropped imaging.EncodedImage, ok bool) {
			cv.app.pages.SwitchToPage("chat")
			if !ok {
				return
			}
			cv.pendingImage = cropped
			cv.setStatus("[green]Image attached[white] (Ctrl+X to remove)")
		})
		cv.app.pages.SwitchToPage("crop")
	})
}

func (cv *ChatView) clearAttachment() {
	cv.pendingImage = ""
	cv.setStatus("")
}

// promptUploadDocument asks for a file path and pushes it into the
// knowledge base.
func (cv *ChatView) promptUploadDocument() {
	cv.promptInput(" Upload Document ", "Path", func(path string) {
		path = strings.TrimSpace(path)
		if path == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			cv.app.submitter.UploadDocument(ctx, path)
		}()
	})
}

// resetConversation wipes the log and its persisted mirror.
func (cv *ChatView) resetConversation() {
	cv.app.store.Reset()
	if cv.app.historyDB != nil {
		if err := cv.app.historyDB.Clear(); err != nil {
			cv.app.ShowError(err)
		}
	}
	if welcome := cv.app.cfg.Chat.WelcomeMessage; welcome != "" {
		cv.app.store.AppendAssistantMessage(welcome, nil, "")
	}
}

// downloadLatestSource saves the first citation of the newest answer.
func (cv *ChatView) downloadLatestSource() {
	msgs := cv.app.store.All()
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Role != conversation.RoleAssistant || len(m.Sources) == 0 {
			continue
		}
		src := m.Sources[0]
		if src.ID == "" {
			cv.setStatus("[yellow]Source has no downloadable id[white]")
			return
		}
		dest := fmt.Sprintf("%s/%s", cv.app.cfg.Paths.DownloadDir, src.Filename)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			err := cv.app.client.DownloadSource(ctx, src.ID, dest)
			cv.app.app.QueueUpdateDraw(func() {
				if err != nil {
					cv.app.ShowError(err)
				} else {
					cv.setStatus(fmt.Sprintf("[green]Saved %s[white]", dest))
				}
			})
		}()
		return
	}
	cv.setStatus("[yellow]No sources to download[white]")
}

// promptInput shows a one-line modal input form.
func (cv *ChatView) promptInput(title, label string, onSubmit func(string)) {
	form := tview.NewForm()
	form.AddInputField(label, "", 0, nil, nil).
		AddButton("OK", func() {
			value := form.GetFormItem(0).(*tview.InputField).GetText()
			cv.app.pages.RemovePage("prompt")
			onSubmit(value)
		}).
		AddButton("Cancel", func() {
			cv.app.pages.RemovePage("prompt")
		})
	form.SetBorder(true).SetTitle(title)

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 7, 0, true).
			AddItem(nil, 0, 1, false),
			0, 2, true).
		AddItem(nil, 0, 1, false)

	cv.app.pages.AddPage("prompt", modal, true, true)
	cv.app.app.SetFocus(form)
}

// renderMessages updates the messages display
func (cv *ChatView) renderMessages() {
	var lines []string
	for _, msg := range cv.app.store.All() {
		if msg.Role == conversation.RoleUser {
			content := msg.Content
			if content == "" && msg.Image != "" {
				content = "(image)"
			}
			lines = append(lines, fmt.Sprintf("[cyan]You: %s[white]", tview.Escape(content)))
			if msg.Image != "" && msg.Content != "" {
				lines = append(lines, "  [gray](image attached)[white]")
			}
		} else {
			lines = append(lines, "AI: "+formatMarkdown(msg.Content))
			if len(msg.Sources) > 0 {
				lines = append(lines, "", "[yellow]Sources:[white]")
				for _, src := range msg.Sources {
					lines = append(lines, fmt.Sprintf("  [gray]- %s[white]", tview.Escape(src.Filename)))
				}
			}
			switch msg.Feedback {
			case conversation.FeedbackSolved:
				lines = append(lines, "  [green]marked solved[white]")
			case conversation.FeedbackUnsolved:
				lines = append(lines, "  [red]marked unsolved[white]")
			}
		}
		lines = append(lines, "")
	}
	cv.messages.SetText(strings.Join(lines, "\n"))
	cv.messages.ScrollToEnd()
}

// formatMarkdown converts a small markdown subset to tview color codes
func formatMarkdown(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "),
			strings.HasPrefix(trimmed, "## "),
			strings.HasPrefix(trimmed, "# "):
			header := strings.TrimLeft(trimmed, "# ")
			out = append(out, fmt.Sprintf("[yellow]%s[white]", header))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			bullet := strings.TrimPrefix(strings.TrimPrefix(trimmed, "- "), "* ")
			out = append(out, "  [gray]*[white] "+processBold(bullet))
		default:
			out = append(out, processBold(line))
		}
	}
	return strings.Join(out, "\n")
}

// processBold converts **bold** markdown to [yellow]bold[white] tview format
func processBold(text string) string {
	var result strings.Builder
	open := false
	for i := 0; i < len(text); {
		if i+1 < len(text) && text[i] == '*' && text[i+1] == '*' {
			if open {
				result.WriteString("[white]")
			} else {
				result.WriteString("[yellow]")
			}
			open = !open
			i += 2
			continue
		}
		result.WriteByte(text[i])
		i++
	}
	if open {
		result.WriteString("[white]")
	}
	return result.String()
}
