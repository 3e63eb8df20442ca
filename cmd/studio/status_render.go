package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"studio/internal/notifications"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

const statusLabelWidth = 20

func (k statusKind) label() string {
	if style, ok := statusStyles[k]; ok {
		return style.label
	}
	return statusStyles[statusInfo].label
}

func (k statusKind) paint(s string, colorize bool) string {
	style, ok := statusStyles[k]
	if !colorize || !ok {
		return s
	}
	return style.color.Sprint(s)
}

// renderStatusLine formats "  Label:   [KIND] message" for the status and
// preflight views.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-*s [%s]", statusLabelWidth, label+":", kind.label())
	if message != "" {
		b.WriteString(" ")
		b.WriteString(message)
	}
	return kind.paint(b.String(), colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	return []string{
		statusInfo.paint(heading, colorize),
		statusInfo.paint(strings.Repeat("-", len(heading)), colorize),
	}
}

func shouldColorize(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

var severityKinds = map[notifications.Severity]statusKind{
	notifications.SeveritySuccess: statusOK,
	notifications.SeverityWarning: statusWarn,
	notifications.SeverityError:   statusError,
}

// banner prints workspace status messages the way the browser showed its
// toast banner.
func banner(w io.Writer) notifications.Banner {
	colorize := shouldColorize(w)
	return notifications.BannerFunc(func(severity notifications.Severity, message string) {
		kind, ok := severityKinds[severity]
		if !ok {
			kind = statusInfo
		}
		fmt.Fprintln(w, kind.paint("["+kind.label()+"] "+message, colorize))
	})
}
