package server

import "errors"

var errShuttingDown = errors.New("server is shutting down")

// register tracks c and launches its pumps. It fails once shutdown began.
func (s *Server) register(c *Client) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return errShuttingDown
	}
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.wg.Add(2)
	s.mu.Unlock()

	s.metrics.SessionOpened()
	c.log.Info("client registered", "total_clients", count)

	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump()
	}()
	return nil
}

// unregister forgets c. It is called once per client from Client.close.
func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, c)
	count := len(s.clients)
	s.mu.Unlock()

	s.metrics.SessionClosed()
	c.log.Info("client unregistered", "total_clients", count)
}

// ClientCount returns the number of open connections.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// closeClients stops accepting connections and closes every open one.
func (s *Server) closeClients() int {
	s.mu.Lock()
	s.closing = true
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	return len(clients)
}
