// ABOUTME: MCP resource implementations for gymlog.
// ABOUTME: Provides gymlog://state, gymlog://sessions/recent, and gymlog://analytics/summary.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/gymlog/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	stateURI          = "gymlog://state"
	recentSessionsURI = "gymlog://sessions/recent"
	summaryURI        = "gymlog://analytics/summary"
	recentLimit       = 10
	summaryTopLimit   = 5
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         stateURI,
		Name:        "Workout State",
		Description: "Whether a workout is in progress, with the active session",
		MIMEType:    "application/json",
	}, s.handleStateResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentSessionsURI,
		Name:        "Recent Sessions",
		Description: "Last 10 workout sessions with sets and volume",
		MIMEType:    "application/json",
	}, s.handleRecentSessionsResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Training Summary",
		Description: "Weekly volume, completion rate, and top exercises",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// Resource handlers

func (s *Server) handleStateResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	state, err := s.tracker.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	result := map[string]any{"state": state}
	if active, err := s.tracker.ActiveSession(ctx); err == nil {
		detail, err := s.repo.GetSessionDetail(ctx, active.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load active session: %w", err)
		}
		result["active_session"] = detail
	}

	return jsonResource(stateURI, result)
}

func (s *Server) handleRecentSessionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	sessions, err := s.repo.ListSessions(ctx, models.SessionFilter{Limit: recentLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	details := make([]*sessionDetailOutput, 0, len(sessions))
	for _, sess := range sessions {
		detail, err := s.repo.GetSessionDetail(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %d: %w", sess.ID, err)
		}
		volumes, err := s.repo.ListMuscleVolume(ctx, sess.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load muscle volume: %w", err)
		}
		details = append(details, newSessionDetail(detail, volumes))
	}

	return jsonResource(recentSessionsURI, map[string]any{
		"sessions": details,
		"count":    len(details),
	})
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	summary, err := s.analyzer.Summary(ctx, s.opts.WeekCount, summaryTopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary: %w", err)
	}

	return jsonResource(summaryURI, map[string]any{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"summary":      summary,
	})
}
