package main

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/autocast/editor"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/spf13/cobra"
)

var (
	previewOutput string
	previewANSI   bool
	previewStyle  string
)

var previewCmd = &cobra.Command{
	Use:   "preview SCRIPT",
	Short: "Render a script as HTML or in the terminal",
	Long: paragraph(fmt.Sprintf("\n%s a script the way the editor previews it. HTML goes to standard output unless an output file is given; "+
		"--ansi renders it for the terminal instead.", keyword("Render"))),
	Example: paragraph("autocast preview script.md -o script.html\nautocast preview script.md --ansi"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "HTML file to write")
	previewCmd.Flags().BoolVar(&previewANSI, "ansi", false, "render for the terminal")
	previewCmd.Flags().StringVarP(&previewStyle, "style", "s", "auto", "glamour style name or JSON path (with --ansi)")
}

// previewDocument wraps the rendered body in a standalone page. Scripts in
// right-to-left languages get dir="rtl".
func previewDocument(title, lang, body string) string {
	dir := "ltr"
	if i18n.IsRTL(lang) {
		dir = "rtl"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html lang=\"%s\" dir=\"%s\">\n<head>\n", html.EscapeString(lang), dir)
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	b.WriteString("<style>body{max-width:42rem;margin:2rem auto;padding:0 1rem;font-family:sans-serif;line-height:1.6}" +
		"blockquote{border-inline-start:3px solid #ccc;margin:0;padding-inline-start:1rem;color:#555}</style>\n")
	fmt.Fprintf(&b, "</head>\n<body>\n%s\n</body>\n</html>\n", body)
	return b.String()
}

func renderANSI(src string) (string, error) {
	style := previewStyle
	if style == "" || !isTerminal(os.Stdout) {
		style = "notty"
	}
	if err := validateStyle(style); err != nil {
		return "", err
	}

	opts := []glamour.TermRendererOption{
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithWordWrap(int(width)), //nolint:gosec
	}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(src)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func runPreview(stdout, stderr io.Writer, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read script: %w", err)
	}

	if previewANSI {
		out, err := renderANSI(string(b))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(stdout, out)
		return err //nolint:wrapcheck
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := previewDocument(title, settings.Script.Language, editor.RenderPreview(string(b)))
	if previewOutput == "" {
		_, err := fmt.Fprint(stdout, doc)
		return err //nolint:wrapcheck
	}
	return writeOutput(stderr, previewOutput, []byte(doc))
}
