// Package cli holds the terminal styling shared by the mergemaster
// commands: colored messages, the logo and the help template.
package cli

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	FlagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	DescStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	LogoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// PrintSuccess prints a success message in green
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, SuccessStyle.Render(message))
}

// PrintError prints an error message in red
func PrintError(w io.Writer, message string) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: "+message))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintln(w, WarningStyle.Render("Warning: "+message))
}

// PrintInfo prints an info message in cyan
func PrintInfo(w io.Writer, message string) {
	fmt.Fprintln(w, InfoStyle.Render(message))
}

// PrintHeader prints a bold header
func PrintHeader(w io.Writer, message string) {
	fmt.Fprintln(w, HeaderStyle.Render(message))
}

// DrawLogo returns the colored mergemaster logo.
func DrawLogo() string {
	logo := strings.Join([]string{
		` __  __                     __  __           _`,
		`|  \/  | ___ _ __ __ _  ___|  \/  | __ _ ___| |_ ___ _ __`,
		"| |\\/| |/ _ \\ '__/ _` |/ _ \\ |\\/| |/ _` / __| __/ _ \\ '__|",
		`| |  | |  __/ | | (_| |  __/ |  | | (_| \__ \ ||  __/ |`,
		`|_|  |_|\___|_|  \__, |\___|_|  |_|\__,_|___/\__\___|_|`,
		`                 |___/`,
	}, "\n")
	return LogoStyle.Render(logo)
}

// flagLine splits a pflag usage line into the option part and the
// description, which pflag separates by a run of spaces.
var flagLine = regexp.MustCompile(`^(\s*-.*?)(\s{2,})(.*)$`)

// ColorFlagUsages colors option names blue and descriptions yellow.
func ColorFlagUsages(usages string) string {
	lines := strings.Split(usages, "\n")
	for i, line := range lines {
		m := flagLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = FlagStyle.Render(m[1]) + m[2] + DescStyle.Render(m[3])
	}
	return strings.Join(lines, "\n")
}

// TemplateFuncs are registered with cobra for UsageTemplate.
var TemplateFuncs = map[string]interface{}{
	"heading":    func(s string) string { return HeaderStyle.Render(s) },
	"usageStyle": func(s string) string { return InfoStyle.Render(s) },
	"flagStyle":  ColorFlagUsages,
}

// UsageTemplate is cobra's default usage template with colored headings
// and flags.
const UsageTemplate = `{{heading "Usage:"}}{{if .Runnable}}
  {{usageStyle .UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{usageStyle (printf "%s [command]" .CommandPath)}}{{end}}{{if gt (len .Aliases) 0}}

{{heading "Aliases:"}}
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

{{heading "Examples:"}}
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

{{heading "Available Commands:"}}{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{heading "Flags:"}}
{{flagStyle (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}{{end}}{{if .HasAvailableInheritedFlags}}

{{heading "Global Flags:"}}
{{flagStyle (.InheritedFlags.FlagUsages | trimTrailingWhitespaces)}}{{end}}{{if .HasHelpSubCommands}}

{{heading "Additional help topics:"}}{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
