package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

// helpRule restyles every match of re in cobra's help text.
type helpRule struct {
	re    *regexp.Regexp
	style func(groups []string) string
}

var helpRules = []helpRule{
	// Section headers such as "Views:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`), func(g []string) string {
		return ui.RenderAccent(strings.TrimSpace(g[0]))
	}},
	// Command names: two-space indent, a word, then the description.
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func(g []string) string {
		return g[1] + ui.RenderCommand(g[2]) + g[3]
	}},
	// Flag type annotations such as "--tz string".
	{regexp.MustCompile(`(--?\S+\s+)(string|int|duration)\b`), func(g []string) string {
		return g[1] + ui.RenderMuted(g[2])
	}},
	{regexp.MustCompile(`\(default [^)]*\)`), func(g []string) string {
		return ui.RenderMuted(g[0])
	}},
	// Category names in long descriptions.
	{regexp.MustCompile(`\b(activities|gatherNodes|mobHits)\b`), func(g []string) string {
		return ui.RenderCategory(model.Category(g[1]), g[1])
	}},
}

// colorizedHelpFunc returns a cobra help function that post-processes the
// default help text with ANSI colors when the terminal supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}

		orig := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(orig)

		fmt.Fprint(orig, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.style(rule.re.FindStringSubmatch(match))
		})
	}
	return s
}
