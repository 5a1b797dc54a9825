package stoplist

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

//go:embed polish.txt
var polishList []byte

// Language selects the built-in stopword list.
const Language = "pl"

// Set is an immutable stopword set. Membership is exact string equality,
// so a capitalised token never matches the lowercase entries.
type Set struct {
	stops map[string]struct{}
}

// NewSet builds a set from the union of the given lists.
// Entries are trimmed and lowercased; blank entries are skipped.
func NewSet(lists ...[]string) *Set {
	stops := make(map[string]struct{})
	for _, list := range lists {
		for _, s := range list {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				stops[s] = struct{}{}
			}
		}
	}
	return &Set{stops: stops}
}

// IsStop checks if a token is a stopword
func (s *Set) IsStop(token string) bool {
	_, ok := s.stops[token]
	return ok
}

// Len returns the number of stopwords.
func (s *Set) Len() int {
	return len(s.stops)
}

// All returns all stopwords, sorted.
func (s *Set) All() []string {
	result := make([]string, 0, len(s.stops))
	for w := range s.stops {
		result = append(result, w)
	}
	sort.Strings(result)
	return result
}

// Builtin returns the built-in list for a language. Only Polish is available.
func Builtin(language string) ([]string, error) {
	if language != Language {
		return nil, fmt.Errorf("language %q is not supported (only %q): %w", language, Language, internalerr.ErrConfig)
	}
	return readLines(polishList), nil
}

// LoadFile reads a supplementary stopword list.
// Files ending in .yaml or .yml hold a `terms:` list; anything else is one
// word per line.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var sl struct {
			Terms []string `yaml:"terms"`
		}
		if err := yaml.Unmarshal(data, &sl); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return sl.Terms, nil
	default:
		return readLines(data), nil
	}
}

// Load builds the set for language: the built-in list plus the words in path.
// An empty path adds nothing. Any failure is a configuration error.
func Load(language, path string) (*Set, error) {
	builtin, err := Builtin(language)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return NewSet(builtin), nil
	}

	extra, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stopwords: %w: %w", internalerr.ErrConfig, err)
	}
	return NewSet(builtin, extra), nil
}

func readLines(data []byte) []string {
	var out []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
