package crawler

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"jaytaylor.com/polyglot/domain"
	"jaytaylor.com/polyglot/pkg/contains"
)

// DefaultAllowList names the languages ingested out of the much larger
// roster sources.
var DefaultAllowList = []string{
	"C++", "Bash", "Java", "C#", "Rust", "Go", "Python",
	"Javascript", "R", "Julia", "Php", "Scala", "Ruby",
	"F#", "Fortran", "Matlab", "Elixir", "Clojure", "Kotlin",
}

var defaultTitles = map[string]string{
	"c++":        "C++",
	"bash":       "Bash_(Unix_shell)",
	"java":       "Java_(programming_language)",
	"c#":         "C_Sharp_(programming_language)",
	"rust":       "Rust_(programming_language)",
	"go":         "Go_(programming_language)",
	"python":     "Python_(programming_language)",
	"javascript": "JavaScript",
	"r":          "R_(programming_language)",
	"julia":      "Julia_(programming_language)",
	"php":        "PHP",
	"scala":      "Scala_(programming_language)",
	"ruby":       "Ruby_(programming_language)",
	"f#":         "F_Sharp_(programming_language)",
	"fortran":    "Fortran",
	"matlab":     "MATLAB",
	"elixir":     "Elixir_(programming_language)",
	"clojure":    "Clojure",
	"kotlin":     "Kotlin_(programming_language)",
}

const (
	csvNameColumn   = "ProgrammingLanguage"
	csvSourceColumn = "Source"
)

// Roster maps language names onto the article titles to fetch for them.
// Names are normalized entry keys.
type Roster struct {
	names  []string
	titles map[string]string
}

// NewRoster builds a roster from a name -> title mapping.  Entries with an
// empty name or title are dropped.
func NewRoster(titles map[string]string) *Roster {
	r := &Roster{
		names:  make([]string, 0, len(titles)),
		titles: make(map[string]string, len(titles)),
	}
	for name, title := range titles {
		name = domain.NormalizeKey(name)
		title = strings.TrimSpace(title)
		if len(name) == 0 || len(title) == 0 {
			continue
		}
		if _, ok := r.titles[name]; !ok {
			r.names = append(r.names, name)
		}
		r.titles[name] = title
	}
	sort.Strings(r.names)
	return r
}

// DefaultRoster returns the built-in roster covering DefaultAllowList.
func DefaultRoster() *Roster {
	return NewRoster(defaultTitles)
}

// LoadRoster reads a roster from a .csv or .yaml/.yml file and keeps only the
// allow-listed languages.  Every allow-listed language must be present.  An
// empty allow list keeps everything.
func LoadRoster(path string, allow []string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	var titles map[string]string

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		titles, err = readRosterCSV(f)
	case ".yaml", ".yml":
		titles, err = readRosterYAML(f)
	default:
		return nil, fmt.Errorf("unrecognized roster file extension %q (expected .csv, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading roster %v", path)
	}

	if len(allow) > 0 {
		for name := range titles {
			if !contains.StringFold(allow, name) {
				delete(titles, name)
			}
		}
	}

	r := NewRoster(titles)

	if missing := r.missing(allow); len(missing) > 0 {
		return nil, fmt.Errorf("roster %v is missing %v allow-listed language(s): %v", path, len(missing), strings.Join(missing, ", "))
	}

	log.WithField("path", path).WithField("languages", r.Len()).Debug("Loaded roster")
	return r, nil
}

// readRosterCSV takes the language name and article title from the last path
// segment of the ProgrammingLanguage and Source columns.  Later rows win.
func readRosterCSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	nameIdx, sourceIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case csvNameColumn:
			nameIdx = i
		case csvSourceColumn:
			sourceIdx = i
		}
	}
	if nameIdx == -1 || sourceIdx == -1 {
		return nil, fmt.Errorf("header must contain %q and %q columns", csvNameColumn, csvSourceColumn)
	}

	titles := map[string]string{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if nameIdx >= len(row) || sourceIdx >= len(row) {
			continue
		}
		name := strings.ToLower(lastSegment(row[nameIdx]))
		titles[name] = lastSegment(row[sourceIdx])
	}
	return titles, nil
}

func readRosterYAML(r io.Reader) (map[string]string, error) {
	titles := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&titles); err != nil && err != io.EOF {
		return nil, err
	}
	return titles, nil
}

func lastSegment(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "/"); i != -1 {
		s = s[i+1:]
	}
	if unescaped, err := url.PathUnescape(s); err == nil {
		s = unescaped
	}
	return s
}

// Names returns the language names in sorted order.
func (r *Roster) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Title returns the article title for name.
func (r *Roster) Title(name string) (string, bool) {
	title, ok := r.titles[domain.NormalizeKey(name)]
	return title, ok
}

func (r *Roster) Len() int {
	return len(r.names)
}

func (r *Roster) missing(allow []string) []string {
	missing := []string{}
	for _, lang := range allow {
		if _, ok := r.titles[domain.NormalizeKey(lang)]; !ok {
			missing = append(missing, lang)
		}
	}
	return missing
}
