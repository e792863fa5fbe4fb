package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Nuclia.Zone = strings.TrimSpace(strings.ToLower(c.Nuclia.Zone))
	c.Nuclia.KBID = strings.TrimSpace(c.Nuclia.KBID)
	c.Nuclia.Token = strings.TrimSpace(c.Nuclia.Token)
	c.Nuclia.APIHost = strings.TrimSpace(c.Nuclia.APIHost)
	if c.Nuclia.APIHost == "" {
		c.Nuclia.APIHost = defaultAPIHost
	}

	types := make([]string, 0, len(c.Indexing.ContentTypes))
	seen := make(map[string]struct{}, len(c.Indexing.ContentTypes))
	for _, t := range c.Indexing.ContentTypes {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	c.Indexing.ContentTypes = types

	if c.Indexing.Workers <= 0 {
		c.Indexing.Workers = defaultWorkers
	}
	if c.Indexing.PageSize <= 0 {
		c.Indexing.PageSize = defaultPageSize
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	return nil
}
