package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"agtrace/internal/event"
	"agtrace/internal/session"
)

func renderTranscript(sess *session.Session, maxTurns, width int, useColor bool) []string {
	if width <= 0 {
		width = 80
	}

	turns := sess.Turns
	if maxTurns > 0 {
		turns = lastTurns(turns, maxTurns)
	}

	lines := make([]string, 0, len(turns)*8)
	lines = append(lines, renderSessionHeader(sess, useColor)...)

	for i := range turns {
		lines = append(lines, "")
		lines = append(lines, renderTurn(&turns[i], width, useColor)...)
	}

	lines = append(lines, "")
	lines = append(lines, renderFooter(sess, useColor))
	return lines
}

// lastTurns keeps the final n user turns, plus a preamble turn 0 if present.
func lastTurns(turns []session.Turn, n int) []session.Turn {
	var kept []session.Turn
	userTurns := 0
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Index == 0 {
			kept = append([]session.Turn{turns[i]}, kept...)
			continue
		}
		if userTurns < n {
			kept = append([]session.Turn{turns[i]}, kept...)
			userTurns++
		}
	}
	return kept
}

func renderSessionHeader(sess *session.Session, useColor bool) []string {
	id := sess.ID.String()
	model := sess.Model
	if model == "" {
		model = "unknown"
	}

	title := fmt.Sprintf("Session %s", id)
	if useColor {
		title = colorize(true, ansiBoldWhite, title)
	}

	meta := fmt.Sprintf("%s | %d turns | %d events", model, sess.TurnCount(), sess.EventCount)
	if !sess.StartedAt.IsZero() {
		meta += " | " + sess.StartedAt.Format("2006-01-02 15:04")
	}
	if useColor {
		meta = colorize(true, ansiTimestamp, meta)
	}

	return []string{title, meta}
}

func renderTurn(turn *session.Turn, width int, useColor bool) []string {
	lines := []string{turnHeader(turn, width, useColor)}

	contentWidth := width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	if turn.UserText != "" {
		label := "user"
		if useColor {
			label = colorize(true, ansiUser, label)
		}
		lines = append(lines, renderBlock(label, turn.UserText, contentWidth)...)
	}

	for _, ev := range turn.Events {
		if ev.ID == turn.UserEventID {
			continue
		}
		lines = append(lines, renderEvent(turn, ev, contentWidth, useColor)...)
	}
	return lines
}

func turnHeader(turn *session.Turn, width int, useColor bool) string {
	label := fmt.Sprintf(" turn %d", turn.Index)
	if turn.Index == 0 {
		label = " preamble"
	}
	if !turn.StartedAt.IsZero() {
		label += " | " + turn.StartedAt.Format("15:04:05")
	}
	if turn.DurationMS > 0 {
		label += " | " + formatDuration(turn.DurationMS)
	}
	label += " "

	fill := width - visibleWidth(label) - 4
	if fill < 0 {
		fill = 0
	}
	line := "──" + label + strings.Repeat("─", fill+2)
	if useColor {
		return colorize(true, ansiSeparator, line)
	}
	return line
}

func renderEvent(turn *session.Turn, ev event.Event, width int, useColor bool) []string {
	switch p := ev.Payload.(type) {
	case event.ReasoningPayload:
		label := "thinking"
		if useColor {
			label = colorize(true, ansiSeparator, label)
		}
		return renderBlock(label, p.Text, width)
	case event.MessagePayload:
		label := "assistant"
		if useColor {
			label = colorize(true, ansiAssistant, label)
		}
		return renderBlock(label, p.Text, width)
	case event.ToolCallPayload:
		return []string{renderToolLine(turn, ev, p, width, useColor)}
	case event.SlashCommandPayload:
		text := "/" + p.Command
		if p.Args != "" {
			text += " " + p.Args
		}
		label := "user"
		if useColor {
			label = colorize(true, ansiUser, label)
		}
		return renderBlock(label, text, width)
	case event.NotificationPayload:
		level := p.Level
		if level == "" {
			level = "info"
		}
		line := fmt.Sprintf("  [%s] %s", level, firstLine(p.Text))
		if useColor {
			line = colorize(true, ansiSeparator, line)
		}
		return []string{truncateToWidth(line, width)}
	default:
		// Tool results fold into the call line; usage folds into the footer.
		return nil
	}
}

func renderToolLine(turn *session.Turn, ev event.Event, p event.ToolCallPayload, width int, useColor bool) string {
	mark := "·"
	suffix := ""
	if exec, ok := findExecution(turn, ev.ID); ok {
		switch {
		case !exec.Resolved:
			suffix = " [pending]"
		case exec.IsError:
			mark = "✗"
			suffix = " [failed"
			if exec.DurationMS > 0 {
				suffix += ", " + formatDuration(exec.DurationMS)
			}
			suffix += "]"
		case exec.DurationMS > 0:
			suffix = " [" + formatDuration(exec.DurationMS) + "]"
		}
	}

	name := p.Name
	if useColor {
		if mark == "✗" {
			name = colorize(true, ansiTool, name)
		} else {
			name = colorize(true, ansiBoldWhite, name)
		}
	}

	line := fmt.Sprintf("  %s %s", mark, name)
	if target := toolTarget(p.Args); target != "" {
		line += " " + firstLine(target)
	}
	line += suffix
	if useColor && suffix != "" {
		line = strings.Replace(line, suffix, colorize(true, ansiTimestamp, suffix), 1)
	}
	return truncateToWidth(line, width)
}

func findExecution(turn *session.Turn, callID uuid.UUID) (session.ToolExecution, bool) {
	for i := range turn.Tools {
		if turn.Tools[i].CallID == callID {
			return turn.Tools[i], true
		}
	}
	return session.ToolExecution{}, false
}

func toolTarget(args event.ToolArgs) string {
	switch a := args.(type) {
	case event.FileReadArgs:
		return a.Target()
	case event.FileEditArgs:
		return a.FilePath
	case event.FileWriteArgs:
		return a.FilePath
	case event.ExecuteArgs:
		return a.Command
	case event.SearchArgs:
		return a.Term()
	case event.McpArgs:
		return a.Server + "/" + a.Tool
	default:
		return ""
	}
}

func renderFooter(sess *session.Session, useColor bool) string {
	usage := sess.Usage
	line := fmt.Sprintf("tokens: %d in (%d cached) / %d out",
		usage.Input.Total(), usage.Input.Cached, usage.Output.Total())

	w := sess.Window
	if w.LimitKnown {
		line += fmt.Sprintf(" | context %.1f%% of %d", w.Percent, w.Limit)
	} else if w.UsedTokens > 0 {
		line += fmt.Sprintf(" | context %d used (limit unknown)", w.UsedTokens)
	}
	if useColor {
		return colorize(true, ansiTimestamp, line)
	}
	return line
}

// renderBlock prints a labeled text block with a gutter under the label.
func renderBlock(label, text string, width int) []string {
	out := []string{label}
	for _, raw := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		for _, line := range wrapText(raw, width) {
			out = append(out, "  "+line)
		}
	}
	return out
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	text = strings.TrimRight(text, " ")
	if text == "" {
		return []string{""}
	}
	var out []string
	var current strings.Builder
	currentWidth := 0

	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if currentWidth+rw > width && current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
			currentWidth = 0
		}
		current.WriteRune(r)
		currentWidth += rw
	}
	if currentWidth > 0 || current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}

func truncateToWidth(text string, width int) string {
	if visibleWidth(text) <= width {
		return text
	}
	var colored strings.Builder
	current := 0

	for i := 0; i < len(text); {
		if m := ansiPattern.FindStringIndex(text[i:]); m != nil && m[0] == 0 {
			colored.WriteString(text[i : i+m[1]])
			i += m[1]
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		colored.WriteRune(r)
		current += rw
		i += size
	}
	return colored.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(text string) int {
	clean := ansiPattern.ReplaceAllString(text, "")
	return runewidth.StringWidth(clean)
}

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiTimestamp = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiAssistant = "\x1b[38;5;44m"
	ansiUser      = "\x1b[38;5;220m"
	ansiTool      = "\x1b[38;5;207m"
)

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}
