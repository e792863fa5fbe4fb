package nuclia

import (
	"sort"
	"strconv"

	"nucliasync/internal/config"
	"nucliasync/internal/content"
	"nucliasync/internal/textutil"
)

// Resource is the JSON body for resource create and modify calls.
type Resource struct {
	Title        string          `json:"title,omitempty"`
	Slug         string          `json:"slug,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	Metadata     *Metadata       `json:"metadata,omitempty"`
	Origin       *Origin         `json:"origin,omitempty"`
	Texts        map[string]Text `json:"texts,omitempty"`
	UserMetadata *UserMetadata   `json:"usermetadata,omitempty"`
}

type Metadata struct {
	Language string `json:"language,omitempty"`
}

type Origin struct {
	URL     string `json:"url,omitempty"`
	Created string `json:"created,omitempty"`
}

type Text struct {
	Body   string `json:"body"`
	Format string `json:"format"`
}

// UserMetadata carries the label classifications for a resource.
type UserMetadata struct {
	Classifications []Classification `json:"classifications"`
}

// Classification pairs one labelset with one of its labels.
type Classification struct {
	Labelset string `json:"labelset"`
	Label    string `json:"label"`
}

// TaxonomyRules maps one host taxonomy's term IDs onto labels in a
// Nuclia labelset. FallbackRule applies only when an item carries no
// terms at all under the taxonomy; a term that merely lacks a mapping
// contributes nothing.
type TaxonomyRules struct {
	Labelset string
	Terms    map[int64][]string
	Fallback FallbackRule
}

type FallbackRule struct {
	Labelset string
	Labels   []string
}

// RulesFromConfig converts the TOML label mapping into its runtime
// form. Term keys were already validated as integers at config load.
func RulesFromConfig(cfg *config.Config) map[string]TaxonomyRules {
	if len(cfg.Labels.Taxonomies) == 0 {
		return nil
	}
	rules := make(map[string]TaxonomyRules, len(cfg.Labels.Taxonomies))
	for taxonomy, mapping := range cfg.Labels.Taxonomies {
		terms := make(map[int64][]string, len(mapping.Terms))
		for key, labels := range mapping.Terms {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				continue
			}
			terms[id] = labels
		}
		fallbackSet := mapping.Fallback.Labelset
		if fallbackSet == "" {
			fallbackSet = mapping.Labelset
		}
		rules[taxonomy] = TaxonomyRules{
			Labelset: mapping.Labelset,
			Terms:    terms,
			Fallback: FallbackRule{Labelset: fallbackSet, Labels: mapping.Fallback.Labels},
		}
	}
	return rules
}

// PayloadOptions supplies build-time settings that are not part of the
// content item itself.
type PayloadOptions struct {
	DefaultLanguage string
	Rules           map[string]TaxonomyRules
}

// BuildPayload assembles the resource body for a content item. It is a
// pure function of its inputs so tests can pin the exact shape.
func BuildPayload(item *content.Item, opts PayloadOptions) Resource {
	res := Resource{
		Title: textutil.CleanTitle(item.Title),
		Slug:  strconv.FormatInt(item.ID, 10),
	}

	language := item.Language
	if language == "" {
		language = opts.DefaultLanguage
	}
	if language != "" {
		res.Metadata = &Metadata{Language: textutil.NormalizeLanguage(language)}
	}

	origin := Origin{URL: item.Permalink}
	if !item.CreatedAt.IsZero() {
		origin.Created = item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if origin != (Origin{}) {
		res.Origin = &origin
	}

	if item.Type == content.TypeAttachment {
		res.Icon = item.MimeType
	} else {
		res.Icon = "text/html"
		res.Texts = map[string]Text{
			"text-1": {Body: item.Body, Format: "HTML"},
		}
	}

	if classifications := buildClassifications(item, opts.Rules); len(classifications) > 0 {
		res.UserMetadata = &UserMetadata{Classifications: classifications}
	}
	return res
}

// buildClassifications walks taxonomies in sorted order so output is
// deterministic, deduplicating repeated labelset/label pairs.
func buildClassifications(item *content.Item, rules map[string]TaxonomyRules) []Classification {
	if len(rules) == 0 {
		return nil
	}

	taxonomies := make([]string, 0, len(rules))
	for name := range rules {
		taxonomies = append(taxonomies, name)
	}
	sort.Strings(taxonomies)

	var out []Classification
	seen := make(map[Classification]struct{})
	add := func(c Classification) {
		if c.Labelset == "" || c.Label == "" {
			return
		}
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, taxonomy := range taxonomies {
		rule := rules[taxonomy]
		assigned := item.Terms[taxonomy]
		if len(assigned) == 0 {
			for _, label := range rule.Fallback.Labels {
				add(Classification{Labelset: rule.Fallback.Labelset, Label: label})
			}
			continue
		}
		for _, termID := range assigned {
			for _, label := range rule.Terms[termID] {
				add(Classification{Labelset: rule.Labelset, Label: label})
			}
		}
	}
	return out
}
