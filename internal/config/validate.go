package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var zonePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNuclia(); err != nil {
		return err
	}
	if err := c.validateIndexing(); err != nil {
		return err
	}
	if err := c.validateLabels(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

// RemoteConfigured reports whether the remote credentials are complete.
// The daemon starts without them, but sync and proxy operations require them.
func (c *Config) RemoteConfigured() bool {
	return c.Nuclia.Zone != "" && c.Nuclia.KBID != "" && c.Nuclia.Token != ""
}

func (c *Config) validateNuclia() error {
	if c.Nuclia.Zone != "" && !zonePattern.MatchString(c.Nuclia.Zone) {
		return fmt.Errorf("nuclia.zone %q must be a lowercase slug (a-z, 0-9, -)", c.Nuclia.Zone)
	}
	if c.Nuclia.APIHost == "" {
		return errors.New("nuclia.api_host must be set")
	}
	if c.Nuclia.RequestTimeout <= 0 {
		return errors.New("nuclia.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateIndexing() error {
	if len(c.Indexing.ContentTypes) == 0 {
		return errors.New("indexing.content_types must include at least one content type")
	}
	if c.Indexing.MaxAttempts <= 0 {
		return errors.New("indexing.max_attempts must be positive")
	}
	if c.Indexing.RetryBackoffSeconds <= 0 {
		return errors.New("indexing.retry_backoff_seconds must be positive")
	}
	if c.Indexing.StaggerSeconds < 0 {
		return errors.New("indexing.stagger_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLabels() error {
	for taxonomy, mapping := range c.Labels.Taxonomies {
		if mapping.Labelset == "" && len(mapping.Terms) > 0 {
			return fmt.Errorf("labels.taxonomies.%s: labelset must be set when terms are mapped", taxonomy)
		}
		for termID := range mapping.Terms {
			if _, err := strconv.ParseInt(termID, 10, 64); err != nil {
				return fmt.Errorf("labels.taxonomies.%s: term id %q is not an integer", taxonomy, termID)
			}
		}
		if len(mapping.Fallback.Labels) > 0 && mapping.Fallback.Labelset == "" {
			return fmt.Errorf("labels.taxonomies.%s: fallback.labelset must be set when fallback labels exist", taxonomy)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Proxy.StreamTimeout <= 0 {
		return errors.New("proxy.stream_timeout must be positive (seconds)")
	}
	return nil
}
