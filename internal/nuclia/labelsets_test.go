package nuclia

import (
	"reflect"
	"testing"
)

func TestParseLabelsetsMapShape(t *testing.T) {
	payload := []byte(`{"labelsets":{
		"topics":{"title":"Topics","labels":[{"title":"go"},{"title":"infrastructure"}]},
		"regions":{"labels":["emea","apac"]}
	}}`)

	sets, err := parseLabelsets(payload)
	if err != nil {
		t.Fatalf("parseLabelsets failed: %v", err)
	}
	want := []Labelset{
		{ID: "regions", Labels: []string{"emea", "apac"}},
		{ID: "topics", Labels: []string{"go", "infrastructure"}},
	}
	if !reflect.DeepEqual(sets, want) {
		t.Errorf("got %#v, want %#v", sets, want)
	}
}

func TestParseLabelsetsObjectArrayShape(t *testing.T) {
	payload := []byte(`{"labelsets":[
		{"id":"topics","labels":[{"label":"go"}]},
		{"name":"regions"}
	]}`)

	sets, err := parseLabelsets(payload)
	if err != nil {
		t.Fatalf("parseLabelsets failed: %v", err)
	}
	want := []Labelset{
		{ID: "topics", Labels: []string{"go"}},
		{ID: "regions"},
	}
	if !reflect.DeepEqual(sets, want) {
		t.Errorf("got %#v, want %#v", sets, want)
	}
}

func TestParseLabelsetsStringArrayShape(t *testing.T) {
	payload := []byte(`{"labelsets":["topics","regions"]}`)

	sets, err := parseLabelsets(payload)
	if err != nil {
		t.Fatalf("parseLabelsets failed: %v", err)
	}
	want := []Labelset{{ID: "topics"}, {ID: "regions"}}
	if !reflect.DeepEqual(sets, want) {
		t.Errorf("got %#v, want %#v", sets, want)
	}
}

func TestParseLabelsetsWithoutEnvelope(t *testing.T) {
	payload := []byte(`{"topics":{"labels":["go"]}}`)

	sets, err := parseLabelsets(payload)
	if err != nil {
		t.Fatalf("parseLabelsets failed: %v", err)
	}
	if len(sets) != 1 || sets[0].ID != "topics" {
		t.Errorf("got %#v", sets)
	}
}

func TestParseLabelsetsIdentifierPrecedence(t *testing.T) {
	// "id" outranks "name" for labelsets; "title" outranks "label" for labels.
	payload := []byte(`{"labelsets":[
		{"id":"topics","name":"ignored","labels":[{"title":"go","label":"ignored"}]}
	]}`)

	sets, err := parseLabelsets(payload)
	if err != nil {
		t.Fatalf("parseLabelsets failed: %v", err)
	}
	if sets[0].ID != "topics" {
		t.Errorf("labelset id: %q", sets[0].ID)
	}
	if len(sets[0].Labels) != 1 || sets[0].Labels[0] != "go" {
		t.Errorf("labels: %#v", sets[0].Labels)
	}
}

func TestParseLabelsetsDeduplicatesLabels(t *testing.T) {
	payload := []byte(`{"labelsets":{"topics":{"labels":["go","go","Go"]}}}`)

	sets, err := parseLabelsets(payload)
	if err != nil {
		t.Fatalf("parseLabelsets failed: %v", err)
	}
	// Dedup is case sensitive.
	want := []string{"go", "Go"}
	if !reflect.DeepEqual(sets[0].Labels, want) {
		t.Errorf("labels: got %#v, want %#v", sets[0].Labels, want)
	}
}

func TestParseLabelsetsRejectsUnknownShape(t *testing.T) {
	if _, err := parseLabelsets([]byte(`"just a string"`)); err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}
