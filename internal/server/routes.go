package server

import "net/http"

// Routes returns the HTTP handler with all application routes: the health
// check, the WebSocket endpoint, the JSON health report, Prometheus metrics
// and the test page.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	mux.HandleFunc("/healthz", s.HealthzHandler)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
