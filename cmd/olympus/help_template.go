// help_template.go gives every olympus command the same help layout with a named local flag section.
package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const localFlagsHeadingKey = "localFlagsHeading"

const commandHelpTemplate = `{{with or .Long .Short}}{{. | trimTrailingWhitespaces}}{{end}}

Usage:
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}
{{if .HasExample}}
Examples:
{{.Example}}
{{end}}{{if .HasAvailableSubCommands}}
Commands:
{{range .Commands}}{{if (and .IsAvailableCommand (ne .Name "help"))}}  {{rpad .Name .NamePadding}} {{.Short}}
{{end}}{{end}}{{end}}
{{- $local := "Flags" -}}
{{- with .Annotations -}}{{- with index . "localFlagsHeading" -}}{{- $local = . -}}{{- end -}}{{- end }}
{{if .HasAvailableLocalFlags}}
{{$local}}:
{{flagUsages .LocalFlags}}
{{end}}{{if .HasAvailableInheritedFlags}}
Global Flags:
{{flagUsages .InheritedFlags}}
{{end}}`

func init() {
	cobra.AddTemplateFunc("flagUsages", formatFlagUsages)
}

// decorateCommandHelp installs the olympus help template on cmd and its
// children. heading names the local flag section of cmd itself.
func decorateCommandHelp(cmd *cobra.Command, heading string) {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	if strings.TrimSpace(heading) != "" {
		cmd.Annotations[localFlagsHeadingKey] = heading
	}
	cmd.SetHelpTemplate(commandHelpTemplate)
	cmd.SetUsageTemplate(commandHelpTemplate)
}

func formatFlagUsages(fs *pflag.FlagSet) string {
	if fs == nil {
		return ""
	}
	usages := fs.FlagUsagesWrapped(100)
	usages = strings.ReplaceAll(usages, "\t", "  ")
	return strings.TrimRight(usages, "\n")
}
