package morph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

// Dictionary is an in-memory analyser backed by a form → interpretations table.
// Interpretations for a form keep insertion order, so the first entry loaded
// for a form is its first interpretation.
type Dictionary struct {
	mu         sync.RWMutex
	entries    map[string][]entry
	ignUnknown bool
}

type entry struct {
	lemma string
	tags  string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[string][]entry)}
}

// SetIgnUnknown makes Analyse report unknown words as a single "ign"
// interpretation instead of an empty result.
func (d *Dictionary) SetIgnUnknown(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ignUnknown = on
}

// Add appends an interpretation for form.
func (d *Dictionary) Add(form, lemma, tags string) {
	key := norm.NFC.String(form)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = append(d.entries[key], entry{lemma: norm.NFC.String(lemma), tags: tags})
}

// Len returns the number of distinct forms.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Analyse implements Analyzer. A form missing verbatim is retried lowercased.
func (d *Dictionary) Analyse(ctx context.Context, token string) ([]Interpretation, error) {
	orth := norm.NFC.String(token)

	d.mu.RLock()
	defer d.mu.RUnlock()

	found, ok := d.entries[orth]
	if !ok {
		found, ok = d.entries[strings.ToLower(orth)]
	}
	if !ok {
		if d.ignUnknown {
			return []Interpretation{Ign(orth)}, nil
		}
		return nil, nil
	}

	out := make([]Interpretation, len(found))
	for i, e := range found {
		out[i] = Interpretation{Start: 0, End: 1, Orth: orth, Lemma: e.lemma, Tags: e.tags}
	}
	return out, nil
}

// Entries calls fn for every stored interpretation, grouped by form.
// Forms are visited in sorted order.
func (d *Dictionary) Entries(fn func(form, lemma, tags string) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	forms := make([]string, 0, len(d.entries))
	for f := range d.entries {
		forms = append(forms, f)
	}
	slices.Sort(forms)

	for _, f := range forms {
		for _, e := range d.entries[f] {
			if err := fn(f, e.lemma, e.tags); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadTSV loads tab-separated dictionary lines into d.
//
// Format (PoliMorf-style): form<TAB>lemma<TAB>tags[<TAB>...]
//
//	domu	dom:s	subst:sg:gen:m3
//	zamek	zamek:s1	subst:sg:nom:m3
//	zamek	zamek:s2	subst:sg:acc:m3
//
// Blank lines and lines starting with '#' are skipped. Extra columns
// (qualifiers, labels) are ignored.
func (d *Dictionary) ReadTSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("dictionary line %d: %w: want form<TAB>lemma[<TAB>tags]", lineNo, internalerr.ErrInvalidInput)
		}
		tags := ""
		if len(parts) > 2 {
			tags = parts[2]
		}
		d.Add(parts[0], parts[1], tags)
	}
	return scanner.Err()
}

// LoadTSV reads a tab-separated dictionary file.
func LoadTSV(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := NewDictionary()
	if err := d.ReadTSV(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadYAML reads a dictionary from a YAML file.
//
// Expected format:
//
//	entries:
//	  - form: domu
//	    interpretations:
//	      - lemma: dom:s
//	        tags: subst:sg:gen:m3
func LoadYAML(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Entries []struct {
			Form            string `yaml:"form"`
			Interpretations []struct {
				Lemma string `yaml:"lemma"`
				Tags  string `yaml:"tags"`
			} `yaml:"interpretations"`
		} `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	d := NewDictionary()
	for i, e := range doc.Entries {
		if e.Form == "" {
			return nil, fmt.Errorf("%s: entry %d: %w: empty form", path, i, internalerr.ErrInvalidInput)
		}
		for _, in := range e.Interpretations {
			if in.Lemma == "" {
				return nil, fmt.Errorf("%s: form %q: %w: empty lemma", path, e.Form, internalerr.ErrInvalidInput)
			}
			d.Add(e.Form, in.Lemma, in.Tags)
		}
	}
	return d, nil
}
