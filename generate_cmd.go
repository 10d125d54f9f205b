package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	lang      string
	template  string
	framework []string
	details   []string
	notes     string
	summarize bool
	all       bool
	output    string
	edit      bool
}

var generateOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate [FILE|DIR|-]...",
	Short: "Write a podcast script from text and markdown files",
	Long: paragraph(fmt.Sprintf("\n%s a podcast script from files, directories or standard input. "+
		"Directories are searched for text and markdown files, honoring .gitignore.", keyword("Generate"))),
	Example: paragraph("autocast generate notes.md\n" +
		"autocast generate docs/ --summarize -o script.md --edit\n" +
		"cat article.txt | autocast generate --framework purpose_audience,episode_structure --detail purpose_audience=\"busy developers\""),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"md", "markdown", "txt"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := generateOpts
		if opts.edit && opts.output == "" {
			opts.output = defaultScript
		}
		if err := runGenerate(cmd.Context(), os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts); err != nil {
			return err
		}
		if opts.edit {
			return runTUI(opts.output)
		}
		return nil
	},
}

func init() {
	flags := generateCmd.Flags()
	flags.StringVar(&generateOpts.lang, "lang", "", "script language (en, fa, ar)")
	flags.StringVar(&generateOpts.template, "template", "", "system prompt template")
	flags.StringSliceVar(&generateOpts.framework, "framework", nil, "framework points to include, in order")
	flags.StringArrayVar(&generateOpts.details, "detail", nil, "requirements for a framework point, as id=text")
	flags.StringVar(&generateOpts.notes, "notes", "", "free-form notes on how to structure the podcast")
	flags.BoolVar(&generateOpts.summarize, "summarize", false, "summarize multiple files before writing the script")
	flags.BoolVarP(&generateOpts.all, "all", "a", false, "include hidden and ignored files from directories")
	flags.StringVarP(&generateOpts.output, "output", "o", "", "write the script to a file instead of standard output")
	flags.BoolVar(&generateOpts.edit, "edit", false, "open the script in the editor once written")
}

// readInputs loads the documents named by args. "-", or no arguments with
// piped input, reads standard input.
func readInputs(stdin io.Reader, args []string, all bool) ([]podcast.File, error) {
	if len(args) == 0 {
		if yes, err := stdinIsPipe(); err != nil {
			return nil, err
		} else if !yes {
			return nil, podcast.ErrTextRequired
		}
		args = []string{"-"}
	}

	var (
		files []podcast.File
		paths []string
	)
	for _, a := range args {
		if a != "-" {
			paths = append(paths, a)
			continue
		}
		f, err := podcast.ReadStdin(stdin, "")
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		files = append(files, f)
	}
	if len(paths) > 0 {
		found, err := podcast.Collect(paths, all)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		files = append(files, found...)
	}
	return files, nil
}

func runGenerate(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string, opts generateOptions) error {
	lang := settings.Script.Language
	if opts.lang != "" {
		lang = opts.lang
	}
	if !i18n.IsSupported(lang) {
		return fmt.Errorf("%w: language %q (choose from %v)", podcast.ErrUnknownOption, lang, i18n.Supported)
	}
	tmpl := settings.Script.Template
	if opts.template != "" {
		t, err := podcast.ResolveTemplate(opts.template)
		if err != nil {
			return err //nolint:wrapcheck
		}
		tmpl = t
	}
	points, err := podcast.ParseFrameworkIDs(opts.framework)
	if err != nil {
		return err //nolint:wrapcheck
	}
	details, err := podcast.ParseDetails(opts.details)
	if err != nil {
		return err //nolint:wrapcheck
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	status(stderr, "common.readingFiles")
	files, err := readInputs(stdin, args, opts.all)
	if err != nil {
		return localize(err)
	}
	log.Debug("read input", "files", len(files))

	if opts.summarize && len(files) > 1 {
		status(stderr, "common.summarizing")
	}
	text, err := client.PrepareText(ctx, files, opts.summarize, lang)
	if err != nil {
		return localize(err)
	}

	status(stderr, "common.generatingScript")
	script, err := client.GenerateScript(ctx, podcast.ScriptRequest{
		Text:         text,
		Language:     lang,
		Points:       points,
		Details:      details,
		Notes:        opts.notes,
		Template:     tmpl,
		CustomPrompt: settings.Script.CustomPrompt,
	})
	if err != nil {
		return localize(err)
	}

	if opts.output == "" {
		_, err := fmt.Fprintln(stdout, script)
		return err //nolint:wrapcheck
	}
	return writeOutput(stderr, opts.output, []byte(script+"\n"))
}
