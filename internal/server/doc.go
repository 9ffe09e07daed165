// Package server implements the HTTP and WebSocket transport for roomcast.
//
// Each WebSocket connection becomes a Client that owns one chat.Session on
// the shared chat.Hub. Clients send JSON commands ({"type":"join","name":..}
// and {"type":"message","text":..}) and receive every message broadcast in
// the room as {"sender":..,"text":..,"kind":"chat"|"system","seq":..}.
// Rejected commands are answered with {"kind":"error","code":..,"text":..}.
//
// The implementation is organized into files for configuration, connection
// tracking, clients, the wire protocol, routing, and HTTP handlers.
package server
