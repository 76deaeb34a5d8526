package wizard

// LiveSessions возвращает число сессий с запущенным автосохранением.
func (c *Controller) LiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}
