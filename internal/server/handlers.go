// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// WebSocketHandler handles WebSocket upgrade requests. It validates that the
// request uses the GET method, upgrades the connection, and registers a new
// Client whose session starts unjoined.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, s, r.RemoteAddr)
	if err := s.register(client); err != nil {
		s.log.Info("rejecting connection", "addr", r.RemoteAddr, "error", err)
		client.close()
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.origins.allows(r) {
		return true
	}

	s.log.Warn("blocked websocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "roomcast server is running!")
}

type healthReport struct {
	Status      string `json:"status"`
	Clients     int    `json:"clients"`
	Subscribers int    `json:"subscribers"`
}

// HealthzHandler reports open connections and hub subscribers as JSON.
func (s *Server) HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	report := healthReport{
		Status:      "ok",
		Clients:     s.ClientCount(),
		Subscribers: s.hub.Len(),
	}
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.log.Warn("error writing health report", "error", err)
	}
}

// TestPageHandler serves an HTML page for trying the chat by hand: join
// under a name, send messages, and watch the room.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPageHTML)
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>roomcast test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:disabled { background-color: #999; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        .system { color: gray; font-style: italic; text-align: center; }
        .error { color: #721c24; }
    </style>
</head>
<body>
    <h1>roomcast</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="nameInput" placeholder="Your name">
        <button id="joinButton" onclick="join()">Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const nameInput = document.getElementById('nameInput');
        const joinButton = document.getElementById('joinButton');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const statusDiv = document.getElementById('status');

        function addLine(text, cls) {
            const el = document.createElement('div');
            el.style.margin = '5px 0';
            if (cls) { el.className = cls; }
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function render(frame) {
            switch (frame.kind) {
            case 'chat':
                addLine(frame.sender + ': ' + frame.text);
                break;
            case 'system':
                addLine(frame.text, 'system');
                break;
            case 'error':
                addLine('Error (' + frame.code + '): ' + frame.text, 'error');
                break;
            }
        }

        function setJoined(joined) {
            messageInput.disabled = !joined;
            sendButton.disabled = !joined;
            nameInput.disabled = joined;
            joinButton.disabled = joined;
        }

        function connect(onOpen) {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() {
                statusDiv.textContent = 'Connected';
                statusDiv.className = 'status connected';
                onOpen();
            };
            ws.onmessage = function(event) {
                const frame = JSON.parse(event.data);
                if (frame.kind === 'error' && frame.code === 'invalid_name') {
                    setJoined(false);
                }
                render(frame);
            };
            ws.onclose = function() {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                setJoined(false);
                ws = null;
            };
        }

        function join() {
            const send = function() {
                ws.send(JSON.stringify({type: 'join', name: nameInput.value}));
                setJoined(true);
            };
            if (ws && ws.readyState === WebSocket.OPEN) { send(); } else { connect(send); }
        }

        function sendMessage() {
            if (ws && ws.readyState === WebSocket.OPEN && messageInput.value !== '') {
                ws.send(JSON.stringify({type: 'message', text: messageInput.value}));
                messageInput.value = '';
                messageInput.focus();
            }
        }

        nameInput.addEventListener('keypress', function(e) { if (e.key === 'Enter') { join(); } });
        messageInput.addEventListener('keypress', function(e) { if (e.key === 'Enter') { sendMessage(); } });
    </script>
</body>
</html>`
