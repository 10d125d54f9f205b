package podcast

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
)

// File is one input document.
type File struct {
	Name    string
	Path    string
	Content string
	Size    int64
	Kind    string // "markdown" or "text"
}

var markdownExtensions = []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn"}

func fileKind(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".txt" {
		return "text", true
	}
	for _, e := range markdownExtensions {
		if ext == e {
			return "markdown", true
		}
	}
	return "", false
}

func searchPatterns() []string {
	p := []string{"*.txt"}
	for _, e := range markdownExtensions {
		p = append(p, "*"+e)
	}
	return p
}

// ReadFile loads a text or markdown file.
func ReadFile(path string) (File, error) {
	name := filepath.Base(path)
	kind, ok := fileKind(name)
	if !ok {
		return File{}, fmt.Errorf("%w: %s for file %s", ErrUnsupportedFile, filepath.Ext(name), name)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return File{
		Name:    name,
		Path:    path,
		Content: string(b),
		Size:    int64(len(b)),
		Kind:    kind,
	}, nil
}

// ReadStdin loads a document from r under name.
func ReadStdin(r io.Reader, name string) (File, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("unable to read from stdin: %w", err)
	}
	return File{Name: name, Content: string(b), Size: int64(len(b)), Kind: "text"}, nil
}

// Collect reads every path. Directories are searched for text and markdown
// files, honoring .gitignore unless all is set.
func Collect(paths []string, all bool) ([]File, error) {
	var files []File
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("unable to stat %s: %w", p, err)
		}
		if !st.IsDir() {
			f, err := ReadFile(p)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
			continue
		}

		found, err := findInDir(p, all)
		if err != nil {
			return nil, err
		}
		for _, fp := range found {
			f, err := ReadFile(fp)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

func findInDir(dir string, all bool) ([]string, error) {
	var (
		ch  chan gitcha.SearchResult
		err error
	)
	if all {
		ch, err = gitcha.FindAllFilesExcept(dir, searchPatterns(), nil)
	} else {
		ch, err = gitcha.FindFilesExcept(dir, searchPatterns(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to search %s: %w", dir, err)
	}

	var paths []string
	for res := range ch {
		if res.Info != nil && res.Info.IsDir() {
			continue
		}
		paths = append(paths, res.Path)
	}
	sort.Strings(paths)
	log.Debug("found input files", "dir", dir, "count", len(paths))
	return paths, nil
}

// Combine joins documents, each under a "--- name ---" header. Unnamed
// documents, such as piped input, get no header.
func Combine(files []File) string {
	parts := make([]string, len(files))
	for i, f := range files {
		if f.Name == "" {
			parts[i] = f.Content
			continue
		}
		parts[i] = fmt.Sprintf("--- %s ---\n%s", f.Name, f.Content)
	}
	return strings.Join(parts, "\n\n")
}
