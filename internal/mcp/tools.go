// ABOUTME: MCP tool implementations for gymlog.
// ABOUTME: Covers templates, the workout lifecycle, sets, sessions, and analytics.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/gymlog/internal/analytics"
	"github.com/harperreed/gymlog/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// templates
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_template",
		Description: "Create a workout template from a list of exercises",
	}, s.handleCreateTemplate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_templates",
		Description: "List workout templates with their exercises",
	}, s.handleListTemplates)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_template",
		Description: "Delete a template. Past sessions keep their snapshot",
	}, s.handleDeleteTemplate)

	// workout lifecycle
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_workout",
		Description: "Start a workout session from a template",
	}, s.handleStartWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_set",
		Description: "Record or overwrite one set of a session exercise",
	}, s.handleRecordSet)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "finish_workout",
		Description: "Finish the active workout, or a given session",
	}, s.handleFinishWorkout)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_state",
		Description: "Report whether a workout is in progress",
	}, s.handleGetState)

	// sessions
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List recent sessions, optionally filtered by template name and date range",
	}, s.handleListSessions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_session",
		Description: "Get a session with its exercises, sets, and muscle volume",
	}, s.handleGetSession)

	// analytics
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "weekly_volume",
		Description: "Training volume per ISO week, oldest first",
	}, s.handleWeeklyVolume)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "progressive_overload",
		Description: "Average weight and reps per session for one exercise",
	}, s.handleProgressiveOverload)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "completion_rate",
		Description: "Share of exercises whose recorded sets met the plan",
	}, s.handleCompletionRate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "top_exercises",
		Description: "Most frequently performed exercises",
	}, s.handleTopExercises)
}

// Tool input/output types

type exerciseInput struct {
	Name             string   `json:"name" jsonschema:"Exercise name"`
	Sets             int      `json:"sets,omitempty" jsonschema:"Planned sets (default 3)"`
	PrimaryMuscle    string   `json:"primary_muscle,omitempty" jsonschema:"Primary muscle group"`
	SecondaryMuscles []string `json:"secondary_muscles,omitempty" jsonschema:"Secondary muscle groups"`
	Metrics          []string `json:"metrics,omitempty" jsonschema:"Metric names recorded per set (default weight and reps)"`
}

type createTemplateInput struct {
	Name      string          `json:"name" jsonschema:"Template name"`
	Exercises []exerciseInput `json:"exercises" jsonschema:"Exercises in order"`
}

type idInput struct {
	ID int64 `json:"id" jsonschema:"Row ID"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type startWorkoutInput struct {
	TemplateID int64  `json:"template_id" jsonschema:"Template to start from"`
	Date       string `json:"date,omitempty" jsonschema:"Start time (ISO 8601), defaults to now"`
}

type recordSetInput struct {
	SessionExerciseID int64          `json:"session_exercise_id" jsonschema:"Session exercise ID from start_workout or get_session"`
	SetIndex          int            `json:"set_index" jsonschema:"1-based set number; recording the same index again overwrites it"`
	Metrics           map[string]any `json:"metrics" jsonschema:"Metric values, e.g. weight and reps or time"`
}

type finishWorkoutInput struct {
	SessionID int64  `json:"session_id,omitempty" jsonschema:"Session to finish, defaults to the active one"`
	EndedAt   string `json:"ended_at,omitempty" jsonschema:"End time (ISO 8601), defaults to now"`
}

type listSessionsInput struct {
	TemplateName string `json:"template_name,omitempty" jsonschema:"Filter by template name"`
	From         string `json:"from,omitempty" jsonschema:"Earliest session date (ISO 8601)"`
	To           string `json:"to,omitempty" jsonschema:"Latest session date (ISO 8601)"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type sessionDetailOutput struct {
	Session      *models.Session        `json:"session"`
	Volume       float64                `json:"volume"`
	VolumeSource analytics.VolumeSource `json:"volume_source"`
	Synthetic    bool                   `json:"synthetic_volume"`
	MuscleVolume []models.MuscleVolume  `json:"muscle_volume"`
}

func newSessionDetail(session *models.Session, volumes []models.MuscleVolume) *sessionDetailOutput {
	v := analytics.ComputeSessionVolume(session)
	if volumes == nil {
		volumes = []models.MuscleVolume{}
	}
	return &sessionDetailOutput{
		Session:      session,
		Volume:       v.Value,
		VolumeSource: v.Source,
		Synthetic:    v.Synthetic,
		MuscleVolume: volumes,
	}
}

type weeklyVolumeInput struct {
	Weeks int `json:"weeks,omitempty" jsonschema:"Number of weeks ending with the current one"`
}

type progressiveOverloadInput struct {
	Exercise string `json:"exercise" jsonschema:"Exercise name (case-insensitive)"`
	Points   int    `json:"points,omitempty" jsonschema:"Series width"`
}

type completionRateInput struct {
	TemplateName string `json:"template_name,omitempty" jsonschema:"Filter by template name"`
	From         string `json:"from,omitempty" jsonschema:"Earliest session date (ISO 8601)"`
	To           string `json:"to,omitempty" jsonschema:"Latest session date (ISO 8601)"`
}

type topExercisesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results (default 5)"`
}

// parseTimeInput accepts RFC3339 or the shorter local layouts people type.
func parseTimeInput(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use ISO 8601", value)
}

func parseTimePtr(value string) (*time.Time, error) {
	t, err := parseTimeInput(value)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func sessionFilter(templateName, from, to string, limit int) (models.SessionFilter, error) {
	var filter models.SessionFilter
	var err error
	if filter.From, err = parseTimePtr(from); err != nil {
		return filter, err
	}
	if filter.To, err = parseTimePtr(to); err != nil {
		return filter, err
	}
	if filter.To != nil && models.IsDateOnly(to) {
		end := models.EndOfDay(*filter.To)
		filter.To = &end
	}
	if name := strings.TrimSpace(templateName); name != "" {
		filter.TemplateName = &name
	}
	filter.Limit = limit
	return filter, nil
}

func templateExercises(in []exerciseInput) []models.TemplateExercise {
	out := make([]models.TemplateExercise, 0, len(in))
	for _, e := range in {
		ex := models.NewTemplateExercise(e.Name).WithMuscles(e.PrimaryMuscle, e.SecondaryMuscles...)
		if e.Sets > 0 {
			ex = ex.WithSets(e.Sets)
		}
		if len(e.Metrics) > 0 {
			ex.Metrics = make([]models.MetricDefinition, 0, len(e.Metrics))
			for _, m := range e.Metrics {
				ex.Metrics = append(ex.Metrics, models.MetricDefinition{Name: m})
			}
		}
		out = append(out, ex)
	}
	return out
}

// Tool handlers

func (s *Server) handleCreateTemplate(ctx context.Context, req *mcp.CallToolRequest, input createTemplateInput) (*mcp.CallToolResult, any, error) {
	tmpl, err := s.repo.CreateTemplate(ctx, s.opts.UserID, input.Name, templateExercises(input.Exercises))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create template: %w", err)
	}
	return nil, tmpl, nil
}

func (s *Server) handleListTemplates(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list templates: %w", err)
	}

	if len(templates) == 0 {
		return nil, map[string]any{"message": "No templates found."}, nil
	}

	return nil, map[string]any{"templates": templates}, nil
}

func (s *Server) handleDeleteTemplate(ctx context.Context, req *mcp.CallToolRequest, input idInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.repo.DeleteTemplate(ctx, input.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete template: %w", err)
	}

	return nil, simpleOutput{
		Message: fmt.Sprintf("Deleted template: %d", input.ID),
	}, nil
}

func (s *Server) handleStartWorkout(ctx context.Context, req *mcp.CallToolRequest, input startWorkoutInput) (*mcp.CallToolResult, any, error) {
	date, err := parseTimeInput(input.Date)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.tracker.Start(ctx, input.TemplateID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start workout: %w", err)
	}
	return nil, session, nil
}

func (s *Server) handleRecordSet(ctx context.Context, req *mcp.CallToolRequest, input recordSetInput) (*mcp.CallToolResult, any, error) {
	set, err := s.repo.RecordSet(ctx, input.SessionExerciseID, input.SetIndex, models.MetricBag(input.Metrics))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record set: %w", err)
	}
	return nil, set, nil
}

func (s *Server) handleFinishWorkout(ctx context.Context, req *mcp.CallToolRequest, input finishWorkoutInput) (*mcp.CallToolResult, any, error) {
	endedAt, err := parseTimeInput(input.EndedAt)
	if err != nil {
		return nil, nil, err
	}

	sessionID := input.SessionID
	if sessionID == 0 {
		active, err := s.tracker.ActiveSession(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to find active workout: %w", err)
		}
		sessionID = active.ID
	}

	session, err := s.tracker.Stop(ctx, sessionID, endedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to finish workout: %w", err)
	}
	return nil, session, nil
}

func (s *Server) handleGetState(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	state, err := s.tracker.Current(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read state: %w", err)
	}
	return nil, state, nil
}

func (s *Server) handleListSessions(ctx context.Context, req *mcp.CallToolRequest, input listSessionsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	filter, err := sessionFilter(input.TemplateName, input.From, input.To, input.Limit)
	if err != nil {
		return nil, nil, err
	}

	sessions, err := s.repo.ListSessions(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		return nil, map[string]any{"message": "No sessions found."}, nil
	}

	return nil, map[string]any{"sessions": sessions}, nil
}

func (s *Server) handleGetSession(ctx context.Context, req *mcp.CallToolRequest, input idInput) (*mcp.CallToolResult, any, error) {
	session, err := s.repo.GetSessionDetail(ctx, input.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("session not found: %d: %w", input.ID, err)
	}

	volumes, err := s.repo.ListMuscleVolume(ctx, input.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load muscle volume: %w", err)
	}

	return nil, newSessionDetail(session, volumes), nil
}

func (s *Server) handleWeeklyVolume(ctx context.Context, req *mcp.CallToolRequest, input weeklyVolumeInput) (*mcp.CallToolResult, any, error) {
	if input.Weeks <= 0 {
		input.Weeks = s.opts.WeekCount
	}

	buckets, err := s.analyzer.WeeklyVolume(ctx, input.Weeks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute weekly volume: %w", err)
	}
	return nil, map[string]any{"weeks": buckets}, nil
}

func (s *Server) handleProgressiveOverload(ctx context.Context, req *mcp.CallToolRequest, input progressiveOverloadInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Exercise) == "" {
		return nil, nil, fmt.Errorf("exercise is required")
	}
	if input.Points <= 0 {
		input.Points = s.opts.OverloadPoints
	}

	points, err := s.analyzer.ProgressiveOverload(ctx, input.Exercise, input.Points)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute overload series: %w", err)
	}
	return nil, map[string]any{"exercise": input.Exercise, "points": points}, nil
}

func (s *Server) handleCompletionRate(ctx context.Context, req *mcp.CallToolRequest, input completionRateInput) (*mcp.CallToolResult, any, error) {
	filter, err := sessionFilter(input.TemplateName, input.From, input.To, 0)
	if err != nil {
		return nil, nil, err
	}

	completion, err := s.analyzer.CompletionRate(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute completion rate: %w", err)
	}
	return nil, completion, nil
}

func (s *Server) handleTopExercises(ctx context.Context, req *mcp.CallToolRequest, input topExercisesInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 5
	}

	top, err := s.analyzer.TopExercises(ctx, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rank exercises: %w", err)
	}
	return nil, map[string]any{"exercises": top}, nil
}
