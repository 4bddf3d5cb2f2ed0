package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"mergemaster/pkg/types"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	padding  = 2
	maxWidth = 80
)

type startMsg struct {
	total int
}

type advanceMsg struct {
	result types.CopyResult
}

type finishMsg struct {
	summary types.Summary
	err     error
}

// barModel is the bubbletea model behind Bar.
type barModel struct {
	bar      bprogress.Model
	total    int
	done     int
	current  string
	finished bool
	message  string
	failed   bool
}

func newBarModel() barModel {
	return barModel{
		bar: bprogress.New(bprogress.WithDefaultGradient()),
	}
}

func (m barModel) Init() tea.Cmd {
	return nil
}

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.total = msg.total
		m.done = 0
		return m, nil
	case advanceMsg:
		m.done++
		m.current = describe(msg.result)
		return m, nil
	case finishMsg:
		m.finished = true
		if msg.err != nil {
			m.failed = true
			m.message = failureMessage(msg.summary, msg.err)
		} else {
			m.message = completionMessage(msg.summary)
		}
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - padding*2 - 10
		if m.bar.Width > maxWidth {
			m.bar.Width = maxWidth
		}
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m barModel) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m barModel) View() string {
	pad := strings.Repeat(" ", padding)
	var b strings.Builder
	b.WriteString(pad + TitleStyle.Render("Merging Files") + "\n")
	b.WriteString(pad + m.bar.ViewAs(m.percent()))
	b.WriteString(StatusStyle.Render(fmt.Sprintf(" %d/%d", m.done, m.total)) + "\n")
	if m.finished {
		style := SuccessStyle
		if m.failed {
			style = ErrorStyle
		}
		b.WriteString(pad + style.Render(m.message) + "\n")
		return b.String()
	}
	if m.current != "" {
		b.WriteString(pad + StatusStyle.Render(m.current) + "\n")
	}
	return b.String()
}

// Bar draws an interactive progress bar. The bubbletea program starts on
// the first Start and exits on Finish.
type Bar struct {
	w       io.Writer
	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	runErr  error
}

// NewBar creates a Bar that renders to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Start(total int) {
	b.mu.Lock()
	if b.program == nil {
		b.program = tea.NewProgram(newBarModel(), tea.WithOutput(b.w), tea.WithInput(nil), tea.WithoutSignalHandler())
		b.done = make(chan struct{})
		go func(p *tea.Program, done chan struct{}) {
			defer close(done)
			if _, err := p.Run(); err != nil {
				b.mu.Lock()
				b.runErr = err
				b.mu.Unlock()
			}
		}(b.program, b.done)
	}
	p := b.program
	b.mu.Unlock()
	p.Send(startMsg{total: total})
}

func (b *Bar) Advance(r types.CopyResult) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(advanceMsg{result: r})
	}
}

// Finish stops the program and waits until the final frame is drawn. A run
// that failed before Start only gets the closing message.
func (b *Bar) Finish(s types.Summary, err error) {
	b.mu.Lock()
	p, done := b.program, b.done
	b.program = nil
	b.mu.Unlock()

	if p == nil {
		b.printMessage(s, err)
		return
	}
	p.Send(finishMsg{summary: s, err: err})
	<-done

	b.mu.Lock()
	runErr := b.runErr
	b.mu.Unlock()
	if runErr != nil {
		b.printMessage(s, err)
	}
}

func (b *Bar) printMessage(s types.Summary, err error) {
	if err != nil {
		fmt.Fprintln(b.w, ErrorStyle.Render(failureMessage(s, err)))
		return
	}
	fmt.Fprintln(b.w, SuccessStyle.Render(completionMessage(s)))
}
