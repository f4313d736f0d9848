package github

// InstallationClientCount reports how many installation clients are cached
func (c *Client) InstallationClientCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.installations)
}
