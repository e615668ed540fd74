package session

// PendingWaiters reports how many callers wait on the in-flight refresh.
func (c *Coordinator) PendingWaiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.waiters)
}
