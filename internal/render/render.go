// SPDX-License-Identifier: MPL-2.0

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/cargoscope/cargoscope/internal/config"
)

const (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorMuted     = lipgloss.Color("#6B7280")
	colorHighlight = lipgloss.Color("#3B82F6")
	colorSuccess   = lipgloss.Color("#10B981")
)

type (
	// styles is the palette bound to one output writer, so that colors are
	// dropped when the writer is not a terminal.
	styles struct {
		title lipgloss.Style
		key   lipgloss.Style
		value lipgloss.Style
		muted lipgloss.Style
	}

	textWriter struct {
		w   io.Writer
		s   styles
		err error
	}
)

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(colorPrimary),
		key:   r.NewStyle().Foreground(colorHighlight),
		value: r.NewStyle().Foreground(colorSuccess),
		muted: r.NewStyle().Foreground(colorMuted),
	}
}

// Encode writes v as YAML or JSON. Text output is type specific; see Text,
// Targets, Features and Members.
func Encode(w io.Writer, format config.OutputFormat, v any) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q has no generic encoding", config.ErrInvalidOutputFormat, format)
	}
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) field(name, value string) {
	if value == "" {
		return
	}
	t.printf("  %s: %s\n", t.s.key.Render(name), t.s.value.Render(value))
}

func (t *textWriter) list(name string, values []string) {
	if len(values) == 0 {
		return
	}
	t.field(name, strings.Join(values, ", "))
}

// Text writes a styled summary of v.
func Text(w io.Writer, v View) error {
	t := &textWriter{w: w, s: newStyles(w)}
	if p := v.Package; p != nil {
		t.printf("%s %s %s\n", t.s.title.Render(p.Name), t.s.value.Render(p.Version), t.s.muted.Render("(edition "+p.Edition+")"))
		t.field("directory", v.Dir)
		if v.WorkspaceRoot != nil {
			t.field("workspace root", displayDir(*v.WorkspaceRoot))
		}
		t.field("rust-version", p.RustVersion)
		t.field("description", p.Description)
		t.list("authors", p.Authors)
		t.field("license", p.License)
		t.field("license-file", p.LicenseFile)
		t.field("repository", p.Repository)
		t.field("homepage", p.Homepage)
		t.field("documentation", p.Documentation)
		t.field("readme", p.Readme)
		t.list("keywords", p.Keywords)
		t.list("categories", p.Categories)
		t.field("build", p.Build)
		t.field("links", p.Links)
		if !p.Publish {
			t.field("publish", "false")
		} else {
			t.list("publish", p.Registries)
		}
	} else {
		t.printf("%s %s\n", t.s.title.Render("virtual manifest"), t.s.muted.Render(displayDir(v.Dir)))
	}

	if len(v.Dependencies) > 0 {
		t.printf("\n%s\n", t.s.title.Render("Dependencies"))
		for _, d := range v.Dependencies {
			t.printf("  %s %s\n", t.s.key.Render(d.Name), t.s.muted.Render(describeDependency(d)))
		}
	}
	if err := featuresText(t, v); err != nil {
		return err
	}
	targetsText(t, v.Targets)
	return t.err
}

// Targets writes one line per target.
func Targets(w io.Writer, targets []TargetView) error {
	t := &textWriter{w: w, s: newStyles(w)}
	targetsText(t, targets)
	return t.err
}

// Features writes the feature table of v.
func Features(w io.Writer, v View) error {
	t := &textWriter{w: w, s: newStyles(w)}
	return featuresText(t, v)
}

// Members writes the member list of a workspace.
func Members(w io.Writer, m MembersView) error {
	t := &textWriter{w: w, s: newStyles(w)}
	t.printf("%s %s\n", t.s.title.Render("workspace"), t.s.muted.Render(displayDir(m.Root)))
	for _, member := range m.Members {
		t.printf("  %s\n", t.s.value.Render(displayDir(member)))
	}
	return t.err
}

func targetsText(t *textWriter, targets []TargetView) {
	if len(targets) == 0 {
		return
	}
	t.printf("\n%s\n", t.s.title.Render("Targets"))
	for _, target := range targets {
		line := fmt.Sprintf("  %s %s %s", t.s.key.Render(fmt.Sprintf("%-7s", target.Kind)), target.Name, t.s.muted.Render(target.Path))
		if len(target.RequiredFeatures) > 0 {
			line += t.s.muted.Render(" requires " + strings.Join(target.RequiredFeatures, ", "))
		}
		if target.Discovered {
			line += t.s.muted.Render(" (discovered)")
		}
		t.printf("%s\n", line)
	}
}

func featuresText(t *textWriter, v View) error {
	if len(v.Features) == 0 && len(v.ImplicitFeatures) == 0 {
		return t.err
	}
	t.printf("\n%s\n", t.s.title.Render("Features"))
	for _, f := range v.Features {
		t.printf("  %s = [%s]\n", t.s.key.Render(f.Name), strings.Join(f.Enables, ", "))
	}
	for _, name := range v.ImplicitFeatures {
		t.printf("  %s %s\n", t.s.key.Render(name), t.s.muted.Render("(optional dependency)"))
	}
	return t.err
}

func describeDependency(d DependencyView) string {
	var parts []string
	switch {
	case d.Path != "":
		parts = append(parts, "path "+d.Path)
	case d.Git != "":
		parts = append(parts, "git "+d.Git)
	}
	if d.Version != "" {
		parts = append(parts, d.Version)
	}
	if d.Package != "" {
		parts = append(parts, "package "+d.Package)
	}
	if len(d.Features) > 0 {
		parts = append(parts, "["+strings.Join(d.Features, ", ")+"]")
	}
	if d.Optional {
		parts = append(parts, "optional")
	}
	if !d.DefaultFeatures {
		parts = append(parts, "no-default-features")
	}
	if d.FromWorkspace {
		parts = append(parts, "workspace")
	}
	if d.Table != "dependencies" {
		parts = append(parts, d.Table)
	}
	return strings.Join(parts, " ")
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
