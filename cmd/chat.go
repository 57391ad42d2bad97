package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"assistant-client/internal/notify"
	"assistant-client/internal/render"
	"assistant-client/internal/service"
	"assistant-client/pkg/logger"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var (
	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func chatCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			return runChat(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

// lineReader provides input history and line editing for the REPL.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader(historyFile string) *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	loadHistory(line, historyFile)
	return &lineReader{line: line, historyFile: historyFile}
}

// history is the part of *liner.State that persists input history.
type history interface {
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

func loadHistory(h history, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := h.ReadHistory(f); err != nil {
		logger.Warnf("Failed to load history: %v", err)
	}
}

func saveHistory(h history, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		logger.Warnf("Failed to create history dir: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		logger.Warnf("Failed to save history: %v", err)
		return
	}
	defer f.Close()

	if _, err := h.WriteHistory(f); err != nil {
		logger.Warnf("Failed to save history: %v", err)
	}
}

func (r *lineReader) read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *lineReader) close() {
	saveHistory(r.line, r.historyFile)
	r.line.Close()
}

func historyPath(configured string) string {
	if configured != "" {
		return configured
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "assistant-client", "chat_history")
}

func runChat(ctx context.Context, a *app, out io.Writer) error {
	if _, err := a.checker.Probe(ctx); err != nil {
		fmt.Fprintln(out, errorStyle.Render(notify.MsgUnreachable))
	}
	a.chat.EstablishSession(ctx)

	printWelcome(out, a)

	reader := newLineReader(historyPath(a.cfg.UI.HistoryFile))
	defer reader.close()

	for {
		input, err := reader.read("You> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warnf("Failed to read input: %v", err)
			}
			fmt.Fprintln(out)
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			query, quit := handleCommand(ctx, a, out, input)
			if quit {
				break
			}
			if query == "" {
				continue
			}
			input = query
		}

		ask(ctx, a, out, input)
	}

	fmt.Fprint(out, render.TerminalStats(a.chat.Stats(), sessionIDOrEmpty(a.chat)))
	return nil
}

// ask submits one query; Ctrl+C while waiting cancels it.
func ask(ctx context.Context, a *app, out io.Writer, query string) error {
	queryCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(out, infoStyle.Render("Thinking..."))
	msg, err := a.chat.Submit(queryCtx, query)
	switch {
	case err == nil:
		fmt.Fprintln(out, render.Terminal(msg.Response))
	case errors.Is(err, service.ErrEmptyQuery):
	case errors.Is(err, service.ErrBusy):
		fmt.Fprintln(out, errorStyle.Render("A query is already in progress."))
	default:
		fmt.Fprintln(out, errorStyle.Render(service.MsgQueryFailed))
	}
	return err
}

// handleCommand runs a slash command. It returns a query to submit when the
// command picks a quick question, and quit when the session should end.
func handleCommand(ctx context.Context, a *app, out io.Writer, input string) (query string, quit bool) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		return "", true
	case "/help", "/h":
		printHelp(out, a)
	case "/status", "/s":
		fmt.Fprint(out, render.TerminalStatus(a.checker.Refresh(ctx)))
	case "/stats":
		fmt.Fprint(out, render.TerminalStats(a.chat.Stats(), sessionIDOrEmpty(a.chat)))
	case "/clear", "/c":
		n, err := a.chat.ClearTranscript()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			break
		}
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Cleared %d entries.", n)))
	case "/example", "/e":
		if len(fields) < 2 {
			printQuickQuestions(out, a.cfg.UI.QuickQuestions)
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(a.cfg.UI.QuickQuestions) {
			fmt.Fprintln(out, errorStyle.Render("No such example: "+fields[1]))
			break
		}
		return a.cfg.UI.QuickQuestions[n-1], false
	default:
		fmt.Fprintln(out, errorStyle.Render("Unknown command: "+fields[0]+" (try /help)"))
	}
	return "", false
}

func printWelcome(out io.Writer, a *app) {
	fmt.Fprintln(out, welcomeStyle.Render(a.cfg.UI.Title))
	if id, ok := a.chat.SessionID(); ok {
		fmt.Fprintln(out, infoStyle.Render("Session: "+id))
	}
	fmt.Fprintln(out, infoStyle.Render("Type a question, or /help for commands."))
	printQuickQuestions(out, a.cfg.UI.QuickQuestions)
	fmt.Fprintln(out)
}

func printHelp(out io.Writer, a *app) {
	commands := []struct{ name, desc string }{
		{"/status, /s", "Show system status"},
		{"/stats", "Show session statistics"},
		{"/clear, /c", "Clear the transcript"},
		{"/example N, /e N", "Ask example question N"},
		{"/help, /h", "Show this help"},
		{"/quit, /q", "Exit chat"},
	}
	for _, c := range commands {
		fmt.Fprintf(out, "  %s  %s\n", commandStyle.Render(fmt.Sprintf("%-18s", c.name)), c.desc)
	}
	printQuickQuestions(out, a.cfg.UI.QuickQuestions)
}

func printQuickQuestions(out io.Writer, questions []string) {
	if len(questions) == 0 {
		return
	}
	fmt.Fprintln(out, infoStyle.Render("Examples:"))
	for i, q := range questions {
		fmt.Fprintf(out, "  %s %s\n", commandStyle.Render(fmt.Sprintf("[%d]", i+1)), q)
	}
}

func sessionIDOrEmpty(chat *service.ChatService) string {
	id, _ := chat.SessionID()
	return id
}
