// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lexicon

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/silk2onion/paperlib/pkg/types"
)

func testLexicon(threshold float64) *Lexicon {
	return New(map[string]types.SemanticGroup{
		"walkability": {
			Words:  []string{"walkability", "street vitality", "pedestrian friendly"},
			Weight: 1.2,
		},
		"public space": {
			Words: []string{"public space", "open space"},
		},
	}, threshold)
}

func TestActivate(t *testing.T) {
	l := testLexicon(0)

	got := l.Activate("a study of Walkability and street vitality in dense cities")
	ag, ok := got["walkability"]
	if !ok {
		t.Fatalf("expected walkability group, got %v", got)
	}
	if want := 2.0 / 3.0; ag.Strength != want {
		t.Errorf("strength = %v, want %v", ag.Strength, want)
	}
	if ag.Weight != 1.2 {
		t.Errorf("weight = %v, want 1.2", ag.Weight)
	}
	if len(ag.Matched) != 2 {
		t.Errorf("matched = %v", ag.Matched)
	}
	if _, ok := got["public space"]; ok {
		t.Error("public space should not activate")
	}
}

func TestActivateThreshold(t *testing.T) {
	l := testLexicon(0.5)

	// One of three words is below the 0.5 threshold.
	if got := l.Activate("walkability only"); len(got) != 0 {
		t.Errorf("expected no activation below threshold, got %v", got)
	}
	if got := l.Activate("walkability and street vitality"); len(got) != 1 {
		t.Errorf("expected activation at 2/3, got %v", got)
	}
}

func TestActivateEmptyText(t *testing.T) {
	if got := testLexicon(0).Activate(""); len(got) != 0 {
		t.Errorf("empty text must activate nothing, got %v", got)
	}
}

func TestExpand(t *testing.T) {
	l := testLexicon(0)

	exp := l.Expand([]string{"Walkability", "density"})
	if len(exp.Activated) != 1 {
		t.Fatalf("expected one activated group, got %v", exp.Activated)
	}
	// Originals first, then group words. "Walkability" keeps its original
	// casing and suppresses the lowercase group duplicate.
	want := []string{"Walkability", "density", "street vitality", "pedestrian friendly"}
	if !reflect.DeepEqual(exp.Keywords, want) {
		t.Errorf("keywords = %v, want %v", exp.Keywords, want)
	}
}

func TestExpandNoActivation(t *testing.T) {
	l := testLexicon(0)

	exp := l.Expand([]string{"graphene", " ", "batteries"})
	if len(exp.Activated) != 0 {
		t.Errorf("unexpected activations: %v", exp.Activated)
	}
	if want := []string{"graphene", "batteries"}; !reflect.DeepEqual(exp.Keywords, want) {
		t.Errorf("keywords = %v, want %v", exp.Keywords, want)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.yaml")
	content := `groups:
  deep learning:
    words:
      - neural network
      - deep learning
    weight: 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	got := l.Activate("convolutional neural network training")
	ag, ok := got["deep learning"]
	if !ok {
		t.Fatalf("expected deep learning group, got %v", got)
	}
	if ag.Weight != 1.5 {
		t.Errorf("weight = %v, want 1.5", ag.Weight)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Activate("walkability index comparison"); len(got) == 0 {
		t.Error("expected built-in defaults to activate")
	}
}
