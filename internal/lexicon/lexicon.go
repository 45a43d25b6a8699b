// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lexicon holds the semantic-group vocabulary used for query
// expansion. Groups are plain keyword clusters, matched by substring
// containment; no vectors are involved at this stage.
package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/silk2onion/paperlib/pkg/types"
)

// Activation describes one semantic group triggered by a query. Strength is
// the fraction of the group's words found in the text.
type Activation struct {
	Strength float64  `json:"strength"`
	Weight   float64  `json:"weight"`
	Matched  []string `json:"matched"`
}

// Expansion is the result of expanding a keyword list through the lexicon.
type Expansion struct {
	// Keywords holds the original keywords followed by the activated
	// groups' members, deduplicated case-insensitively, first seen wins.
	Keywords []string `json:"keywords"`

	// Activated maps group name to its activation.
	Activated map[string]Activation `json:"activated_groups"`
}

// Lexicon is a read-only set of named semantic groups.
type Lexicon struct {
	groups    map[string]types.SemanticGroup
	threshold float64
}

type lexiconFile struct {
	Groups map[string]types.SemanticGroup `yaml:"groups"`
}

// New builds a lexicon from explicit groups. Activation below threshold is
// ignored during expansion; zero keeps every matched group.
func New(groups map[string]types.SemanticGroup, threshold float64) *Lexicon {
	return &Lexicon{groups: groups, threshold: threshold}
}

// Load reads a lexicon from a YAML file. A missing path falls back to the
// built-in defaults rather than failing.
func Load(path string, threshold float64) (*Lexicon, error) {
	if path == "" {
		return Default(threshold), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(threshold), nil
		}
		return nil, fmt.Errorf("reading lexicon file: %w", err)
	}
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing lexicon file %s: %w", path, err)
	}
	if len(f.Groups) == 0 {
		return Default(threshold), nil
	}
	return New(f.Groups, threshold), nil
}

// Default returns the built-in vocabulary.
func Default(threshold float64) *Lexicon {
	return New(map[string]types.SemanticGroup{
		"walkability": {
			Words:  []string{"walkability", "street vitality", "pedestrian friendly", "walkability index"},
			Weight: 1.2,
		},
		"public space": {
			Words:  []string{"public space", "open space", "urban plaza", "pocket plaza"},
			Weight: 1.0,
		},
		"transit-oriented development": {
			Words:  []string{"tod", "transit-oriented development", "transit hub", "station-city integration"},
			Weight: 1.1,
		},
		"streetscape perception": {
			Words:  []string{"street view", "streetscape imagery", "visual perception", "visual quality", "enclosure"},
			Weight: 1.0,
		},
	}, threshold)
}

// Activate detects every group whose words appear in the text. Matching is
// case-insensitive substring containment. Groups below the activation
// threshold are dropped.
func (l *Lexicon) Activate(text string) map[string]Activation {
	if text == "" {
		return map[string]Activation{}
	}
	lower := strings.ToLower(text)

	activated := make(map[string]Activation)
	for name, g := range l.groups {
		words := dedupeWords(g.Words)
		if len(words) == 0 {
			continue
		}
		var matched []string
		for _, w := range words {
			if strings.Contains(lower, strings.ToLower(w)) {
				matched = append(matched, w)
			}
		}
		if len(matched) == 0 {
			continue
		}
		strength := float64(len(matched)) / float64(len(words))
		if strength < l.threshold {
			continue
		}
		weight := g.Weight
		if weight == 0 {
			weight = 1.0
		}
		activated[name] = Activation{Strength: strength, Weight: weight, Matched: matched}
	}
	return activated
}

// Expand merges the activated groups' vocabularies into the keyword list.
// Order is preserved: originals first, then group words in group-name order
// for determinism. Duplicates are dropped case-insensitively, first seen
// wins.
func (l *Lexicon) Expand(keywords []string) Expansion {
	base := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			base = append(base, k)
		}
	}

	activated := l.Activate(strings.Join(base, " "))

	names := make([]string, 0, len(activated))
	for name := range activated {
		names = append(names, name)
	}
	sort.Strings(names)

	var extra []string
	for _, name := range names {
		extra = append(extra, dedupeWords(l.groups[name].Words)...)
	}

	seen := make(map[string]bool)
	var merged []string
	for _, w := range append(base, extra...) {
		key := strings.ToLower(w)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, w)
	}
	return Expansion{Keywords: merged, Activated: activated}
}

func dedupeWords(words []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
