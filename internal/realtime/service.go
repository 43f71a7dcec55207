package realtime

import (
	"context"
	"encoding/json"

	"github.com/richxcame/scam-sniffer/internal/analysis"
	"github.com/richxcame/scam-sniffer/pkg/logger"
	"github.com/richxcame/scam-sniffer/pkg/security"
	ws "github.com/richxcame/scam-sniffer/pkg/websocket"
	"go.uber.org/zap"
)

// analyzeTextPayload is the inbound analyze_text message body
type analyzeTextPayload struct {
	Text string `json:"text"`
}

// Service bridges the websocket hub and the analysis service
type Service struct {
	hub      *ws.Hub
	analysis *analysis.Service
	maxLen   int
}

// NewService creates the realtime service and registers its message
// handlers on the hub. Must be called before the hub runs.
func NewService(hub *ws.Hub, analysisService *analysis.Service, maxTextLength int) *Service {
	s := &Service{
		hub:      hub,
		analysis: analysisService,
		maxLen:   maxTextLength,
	}
	hub.OnMessage("analyze_text", s.handleAnalyzeText)
	return s
}

// Broadcaster returns the hub adapter the analysis service fans out
// through
func (s *Service) Broadcaster() analysis.Broadcaster {
	return &hubBroadcaster{hub: s.hub}
}

// handleAnalyzeText processes one realtime analysis request. The
// websocket connection ID is the submitter identity for the
// coordination window, so two tabs of the same browser count as
// distinct submitters only if they hold distinct connections.
func (s *Service) handleAnalyzeText(client *ws.Client, data json.RawMessage) {
	var payload analyzeTextPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.sendError(client, "malformed analyze_text payload")
		return
	}

	text := security.StripHTML(payload.Text)
	if text == "" {
		s.sendError(client, "please provide text")
		return
	}
	if s.maxLen > 0 && len(text) > s.maxLen {
		s.sendError(client, "text too long")
		return
	}

	outcome := s.analysis.Analyze(context.Background(), text, client.ID, client.Email)

	if !s.hub.SendToClient(client.ID, ws.Message{Type: "analysis_result", Data: outcome.Result}) {
		logger.Debug("Client disconnected before result delivery",
			zap.String("client_id", client.ID),
		)
	}
}

func (s *Service) sendError(client *ws.Client, message string) {
	s.hub.SendToClient(client.ID, ws.Message{
		Type: "error",
		Data: map[string]string{"message": message},
	})
}

// hubBroadcaster adapts the websocket hub to the analysis.Broadcaster
// interface
type hubBroadcaster struct {
	hub *ws.Hub
}

func (b *hubBroadcaster) SendToClient(clientID, msgType string, data interface{}) bool {
	return b.hub.SendToClient(clientID, ws.Message{Type: msgType, Data: data})
}

func (b *hubBroadcaster) BroadcastToAdmins(msgType string, data interface{}) {
	b.hub.BroadcastToRole("admin", ws.Message{Type: msgType, Data: data})
}

func (b *hubBroadcaster) LiveUserCount() int {
	return b.hub.GetClientCount()
}
