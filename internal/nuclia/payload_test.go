package nuclia

import (
	"reflect"
	"testing"
	"time"

	"nucliasync/internal/config"
	"nucliasync/internal/content"
)

func ruleConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Labels.Taxonomies = map[string]config.TaxonomyMapping{
		"category": {
			Labelset: "topics",
			Terms:    map[string][]string{"10": {"go"}},
			Fallback: config.FallbackLabels{Labels: []string{"uncategorized"}},
		},
	}
	return &cfg
}

func testItem() *content.Item {
	return &content.Item{
		ID:        42,
		Type:      "post",
		Status:    content.StatusPublished,
		Title:     "<b>Launch &amp; Learn</b>",
		Body:      "<p>Hello world</p>",
		Permalink: "https://example.com/launch-and-learn",
		Language:  "en",
		CreatedAt: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		Terms: map[string][]int64{
			"category": {10, 11},
		},
	}
}

func TestBuildPayloadPost(t *testing.T) {
	res := BuildPayload(testItem(), PayloadOptions{})

	if res.Title != "Launch & Learn" {
		t.Errorf("title not cleaned: %q", res.Title)
	}
	if res.Slug != "42" {
		t.Errorf("slug must be the content id: %q", res.Slug)
	}
	if res.Icon != "text/html" {
		t.Errorf("post icon: %q", res.Icon)
	}
	text, ok := res.Texts["text-1"]
	if !ok {
		t.Fatal("post payload missing text-1")
	}
	if text.Body != "<p>Hello world</p>" || text.Format != "HTML" {
		t.Errorf("unexpected text block: %#v", text)
	}
	if res.Origin == nil || res.Origin.Created != "2024-03-15T09:30:00Z" {
		t.Errorf("origin created: %#v", res.Origin)
	}
	if res.Origin.URL != "https://example.com/launch-and-learn" {
		t.Errorf("origin url: %q", res.Origin.URL)
	}
	if res.Metadata == nil || res.Metadata.Language != "en" {
		t.Errorf("metadata language: %#v", res.Metadata)
	}
	if res.UserMetadata != nil {
		t.Errorf("no rules configured, expected no classifications: %#v", res.UserMetadata)
	}
}

func TestBuildPayloadAttachment(t *testing.T) {
	item := testItem()
	item.Type = content.TypeAttachment
	item.MimeType = "application/pdf"
	item.Body = ""

	res := BuildPayload(item, PayloadOptions{})
	if res.Icon != "application/pdf" {
		t.Errorf("attachment icon must be its mime type: %q", res.Icon)
	}
	if len(res.Texts) != 0 {
		t.Errorf("attachments carry no text block: %#v", res.Texts)
	}
}

func TestBuildPayloadDefaultLanguage(t *testing.T) {
	item := testItem()
	item.Language = ""

	res := BuildPayload(item, PayloadOptions{DefaultLanguage: "fr"})
	if res.Metadata == nil || res.Metadata.Language != "fr" {
		t.Errorf("expected default language, got %#v", res.Metadata)
	}
}

func TestBuildPayloadNormalizesLocale(t *testing.T) {
	item := testItem()
	item.Language = "pt_BR"

	res := BuildPayload(item, PayloadOptions{})
	if res.Metadata == nil || res.Metadata.Language != "pt-BR" {
		t.Errorf("expected normalized locale, got %#v", res.Metadata)
	}
}

func TestBuildClassificationsMapsTerms(t *testing.T) {
	rules := map[string]TaxonomyRules{
		"category": {
			Labelset: "topics",
			Terms: map[int64][]string{
				10: {"go"},
				11: {"infrastructure", "go"},
			},
		},
	}

	res := BuildPayload(testItem(), PayloadOptions{Rules: rules})
	if res.UserMetadata == nil {
		t.Fatal("expected classifications")
	}
	want := []Classification{
		{Labelset: "topics", Label: "go"},
		{Labelset: "topics", Label: "infrastructure"},
	}
	if !reflect.DeepEqual(res.UserMetadata.Classifications, want) {
		t.Errorf("classifications: got %#v, want %#v", res.UserMetadata.Classifications, want)
	}
}

func TestBuildClassificationsFallbackOnlyWithoutTerms(t *testing.T) {
	rules := map[string]TaxonomyRules{
		"category": {
			Labelset: "topics",
			Terms:    map[int64][]string{10: {"go"}},
			Fallback: FallbackRule{Labelset: "topics", Labels: []string{"uncategorized"}},
		},
	}

	// Terms assigned: fallback must not fire even when a term has no mapping.
	item := testItem()
	item.Terms = map[string][]int64{"category": {99}}
	res := BuildPayload(item, PayloadOptions{Rules: rules})
	if res.UserMetadata != nil {
		t.Errorf("unmapped term must not trigger fallback: %#v", res.UserMetadata)
	}

	// No terms at all: fallback applies.
	item.Terms = nil
	res = BuildPayload(item, PayloadOptions{Rules: rules})
	if res.UserMetadata == nil {
		t.Fatal("expected fallback classification")
	}
	want := []Classification{{Labelset: "topics", Label: "uncategorized"}}
	if !reflect.DeepEqual(res.UserMetadata.Classifications, want) {
		t.Errorf("fallback classifications: got %#v, want %#v", res.UserMetadata.Classifications, want)
	}
}

func TestRulesFromConfigParsesTermIDs(t *testing.T) {
	cfg := ruleConfig(t)
	rules := RulesFromConfig(cfg)

	rule, ok := rules["category"]
	if !ok {
		t.Fatal("expected category rules")
	}
	if rule.Labelset != "topics" {
		t.Errorf("labelset: %q", rule.Labelset)
	}
	if got := rule.Terms[10]; len(got) != 1 || got[0] != "go" {
		t.Errorf("term 10: %#v", got)
	}
	if rule.Fallback.Labelset != "topics" {
		t.Errorf("fallback labelset should default to the mapping labelset: %q", rule.Fallback.Labelset)
	}
}

func TestValidResourceID(t *testing.T) {
	if !ValidResourceID("1b4c9a70-8f2e-4d3b-9c1a-5e6f7a8b9c0d") {
		t.Error("canonical rid rejected")
	}
	for _, bad := range []string{"", "short", "1B4C9A70-8F2E-4D3B-9C1A-5E6F7A8B9C0D", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		if ValidResourceID(bad) {
			t.Errorf("rid %q should be rejected", bad)
		}
	}
}
