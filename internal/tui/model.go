package tui

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voicerag/internal/conversation"
)

// ChatPort is the TUI-facing subset of the conversation flow.
type ChatPort interface {
	Turn(ctx context.Context, transcript string) []conversation.Message
	History() []conversation.Message
}

// Model is the Bubble Tea model for the text stand-in of the voice session.
type Model struct {
	flow      ChatPort
	input     textinput.Model
	viewport  viewport.Model
	summary   string
	status    string
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(flow ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Say something and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{flow: flow, input: ti, viewport: vp, summary: summary, status: conversation.Greeting}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around transcript and input boxes
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + ih + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			m.status = conversation.Farewell
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				added := m.flow.Turn(context.Background(), q)
				m.lastQuery = q
				m.input.SetValue("")
				m.status = "Context attached"
				if len(added) < 2 {
					m.status = "No context attached"
				}
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and the session transcript.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Voice RAG knowledge base")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	history := m.flow.History()
	var b strings.Builder
	for i, msg := range history {
		if i == 0 && msg.Role == conversation.RoleSystem {
			continue // instructions
		}
		if msg.Role == conversation.RoleUser {
			b.WriteString(userStyle.Render("You: ") + msg.Content)
		} else {
			body := msg.Content
			if i == len(history)-1 {
				body = highlightBestSentence(body, m.lastQuery)
			}
			b.WriteString(contextStyle.Render("KB: ") + body)
		}
		b.WriteString("\n\n")
	}
	if b.Len() == 0 {
		return "No questions yet."
	}
	return strings.TrimRight(b.String(), "\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	contextStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	unicodeWordRe      = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe         = regexp.MustCompile(`(?m)(?U)([^.!?\n]+[.!?])`)
)

// highlightBestSentence emphasises the sentence sharing the most words with query.
// Line structure of text is preserved.
func highlightBestSentence(text, query string) string {
	qTokens := toTokenSet(query)
	if strings.TrimSpace(text) == "" || len(qTokens) == 0 {
		return text
	}
	locs := sentenceRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	bestIdx, bestScore := -1, 0
	for i, loc := range locs {
		if score := tokenOverlapScore(qTokens, text[loc[0]:loc[1]]); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return text
	}
	start, end := locs[bestIdx][0], locs[bestIdx][1]
	sent := text[start:end]
	lead := len(sent) - len(strings.TrimLeft(sent, " \t"))
	return text[:start+lead] + highlightStyle.Render(sent[lead:]) + text[end:]
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
