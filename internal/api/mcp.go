package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/portal/internal/query"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/store"
)

const (
	mcpDefaultLimit = 20
	mcpMaxLimit     = 100
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Tasks    *store.Store[record.Task]
	Meetings *store.Store[record.Meeting]
}

// NewMCPServer creates an MCP server with the portal tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"portal",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("portal: project tasks and client meetings. Search, read and edit records."),
		server.WithRecovery(),
	)

	kindArg := mcp.WithString("kind",
		mcp.Description("Record kind"),
		mcp.Required(),
		mcp.Enum("task", "meeting"),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_records",
			mcp.WithDescription("Search, filter and sort tasks or meetings."),
			kindArg,
			mcp.WithString("search", mcp.Description("Case-insensitive text matched against the kind's search fields")),
			mcp.WithString("sort", mcp.Description("Field to sort by (e.g. name, subject, lagDays)")),
			mcp.WithString("direction", mcp.Description("asc or desc"), mcp.Enum("asc", "desc")),
			mcp.WithString("filter", mcp.Description(`JSON object of field criteria, e.g. {"priority":"High"}`)),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListRecords(deps),
	)

	s.AddTool(
		mcp.NewTool("get_record",
			mcp.WithDescription("Fetch a single task or meeting by id."),
			kindArg,
			mcp.WithString("id", mcp.Description("Record id"), mcp.Required()),
		),
		mcpGetRecord(deps),
	)

	s.AddTool(
		mcp.NewTool("add_task",
			mcp.WithDescription("Create a task. Omitted fields get their defaults."),
			mcp.WithString("name", mcp.Description("Task name"), mcp.Required()),
			mcp.WithString("project_name", mcp.Description("Project the task belongs to")),
			mcp.WithString("parent", mcp.Description("Id of the parent task")),
			mcp.WithString("assigned_to", mcp.Description("Assignee")),
			mcp.WithString("assigned_by", mcp.Description("Assigner")),
			mcp.WithString("priority", mcp.Description("Task priority"), mcp.Enum(enumValues(record.Priorities)...)),
			mcp.WithString("lag_type", mcp.Description("Dependency lag type"), mcp.Enum(enumValues(record.LagTypes)...)),
			mcp.WithString("lag_days", mcp.Description("Lag in days")),
			mcp.WithString("top_down_duration", mcp.Description("Planned duration in days")),
			mcp.WithNumber("percent_complete", mcp.Description("0 to 100")),
			mcp.WithString("estimated_start", mcp.Description("YYYY-MM-DD")),
			mcp.WithString("estimated_end", mcp.Description("YYYY-MM-DD")),
		),
		mcpAddTask(deps),
	)

	s.AddTool(
		mcp.NewTool("add_meeting",
			mcp.WithDescription("Create a meeting. Omitted fields get their defaults."),
			mcp.WithString("subject", mcp.Description("Meeting subject"), mcp.Required()),
			mcp.WithString("type", mcp.Description("Meeting type"), mcp.Enum(enumValues(record.MeetingTypes)...)),
			mcp.WithString("engagement_type", mcp.Description("Engagement type"), mcp.Enum(enumValues(record.EngagementTypes)...)),
			mcp.WithString("engagement", mcp.Description("Engagement name")),
			mcp.WithString("relationship", mcp.Description("Relationship"), mcp.Enum(enumValues(record.Relationships)...)),
			mcp.WithString("customer_department", mcp.Description("Customer department")),
			mcp.WithString("assigned_to", mcp.Description("Assignee")),
			mcp.WithString("status", mcp.Description("Meeting status"), mcp.Enum(enumValues(record.MeetingStatuses)...)),
			mcp.WithString("start_date", mcp.Description("YYYY-MM-DD")),
			mcp.WithString("end_date", mcp.Description("YYYY-MM-DD")),
			mcp.WithArray("minutes", mcp.Description("Minute entries"), mcp.WithStringItems()),
		),
		mcpAddMeeting(deps),
	)

	s.AddTool(
		mcp.NewTool("update_record",
			mcp.WithDescription("Overwrite fields of an existing task or meeting."),
			kindArg,
			mcp.WithString("id", mcp.Description("Record id"), mcp.Required()),
			mcp.WithString("fields", mcp.Description(`JSON object of fields to change, using the record's JSON names, e.g. {"percentComplete":50}`), mcp.Required()),
		),
		mcpUpdateRecord(deps),
	)

	s.AddTool(
		mcp.NewTool("add_minute",
			mcp.WithDescription("Append a minute entry to a meeting."),
			mcp.WithString("id", mcp.Description("Meeting id"), mcp.Required()),
			mcp.WithString("text", mcp.Description("Minute text"), mcp.Required()),
		),
		mcpAddMinute(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"portal://tasks",
			"Tasks",
			mcp.WithResourceDescription("All tasks as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCollection(func(ctx context.Context) (any, error) {
			snap, err := deps.Tasks.All(ctx)
			return snap.Items, err
		}),
	)

	s.AddResource(
		mcp.NewResource(
			"portal://meetings",
			"Meetings",
			mcp.WithResourceDescription("All meetings as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceCollection(func(ctx context.Context) (any, error) {
			snap, err := deps.Meetings.All(ctx)
			return snap.Items, err
		}),
	)

	return s
}

// enumValues lists a record enum for a tool schema.
func enumValues[S ~string](vals []S) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func mcpKind(req mcp.CallToolRequest) (record.Kind, *mcp.CallToolResult) {
	raw, err := req.RequireString("kind")
	if err != nil {
		return "", mcpError("kind is required")
	}
	kind, err := record.ParseKind(raw)
	if err != nil {
		return "", mcpError(err.Error())
	}
	return kind, nil
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpListRecords(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, res := mcpKind(req)
		if res != nil {
			return res, nil
		}

		p := query.Params{
			Search: req.GetString("search", ""),
			Sort: query.SortSpec{
				Key:       req.GetString("sort", ""),
				Direction: query.Direction(req.GetString("direction", "")),
			},
		}
		if raw := req.GetString("filter", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &p.Filter); err != nil {
				return mcpError(fmt.Sprintf("invalid filter JSON: %v", err)), nil
			}
		}

		limit := req.GetInt("limit", mcpDefaultLimit)
		if limit <= 0 {
			limit = mcpDefaultLimit
		}
		if limit > mcpMaxLimit {
			limit = mcpMaxLimit
		}

		switch kind {
		case record.KindMeeting:
			return listRecords(ctx, deps.Meetings, query.MeetingCatalog(), p, limit), nil
		default:
			return listRecords(ctx, deps.Tasks, query.TaskCatalog(), p, limit), nil
		}
	}
}

func listRecords[E store.Entity[E]](ctx context.Context, s *store.Store[E], c *query.Catalog[E], p query.Params, limit int) *mcp.CallToolResult {
	if p.Sort.Key == "" {
		p.Sort = c.DefaultSort
	}
	if err := c.Validate(p); err != nil {
		return mcpError(err.Error())
	}
	snap, err := s.All(ctx)
	if err != nil {
		return mcpError(fmt.Sprintf("list failed: %v", err))
	}
	items := query.Run(c, snap.Items, p)
	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return mcpJSON(listResponse[E]{Items: items, Total: total, Revision: snap.Revision})
}

func mcpGetRecord(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, res := mcpKind(req)
		if res != nil {
			return res, nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		switch kind {
		case record.KindMeeting:
			return getRecord(ctx, deps.Meetings, id), nil
		default:
			return getRecord(ctx, deps.Tasks, id), nil
		}
	}
}

func getRecord[E store.Entity[E]](ctx context.Context, s *store.Store[E], id string) *mcp.CallToolResult {
	e, ok, err := s.Get(ctx, id)
	if err != nil {
		return mcpError(fmt.Sprintf("get failed: %v", err))
	}
	if !ok {
		return mcpError(fmt.Sprintf("%s %s not found", s.Kind(), id))
	}
	return mcpJSON(e)
}

// optionalDate returns nil for an absent argument so the kind's default applies.
func optionalDate(req mcp.CallToolRequest, key string) *string {
	v := req.GetString(key, "")
	if v == "" {
		return nil
	}
	return &v
}

func mcpAddTask(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		draft := record.Task{
			Name:            name,
			ProjectName:     req.GetString("project_name", ""),
			Parent:          req.GetString("parent", ""),
			AssignedTo:      req.GetString("assigned_to", ""),
			AssignedBy:      req.GetString("assigned_by", ""),
			Priority:        record.Priority(req.GetString("priority", "")),
			LagType:         record.LagType(req.GetString("lag_type", "")),
			LagDays:         req.GetString("lag_days", ""),
			TopDownDuration: req.GetString("top_down_duration", ""),
			PercentComplete: req.GetFloat("percent_complete", 0),
			EstimatedStart:  optionalDate(req, "estimated_start"),
			EstimatedEnd:    optionalDate(req, "estimated_end"),
		}
		if err := record.ValidateTask(draft.WithDefaults().Normalized()); err != nil {
			return mcpError(err.Error()), nil
		}
		t, err := deps.Tasks.Add(ctx, draft)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to add task: %v", err)), nil
		}
		return mcpJSON(t), nil
	}
}

func mcpAddMeeting(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		subject, err := req.RequireString("subject")
		if err != nil {
			return mcpError("subject is required"), nil
		}

		draft := record.Meeting{
			Subject:            subject,
			Type:               record.MeetingType(req.GetString("type", "")),
			EngagementType:     record.EngagementType(req.GetString("engagement_type", "")),
			Engagement:         req.GetString("engagement", ""),
			Relationship:       record.Relationship(req.GetString("relationship", "")),
			CustomerDepartment: req.GetString("customer_department", ""),
			AssignedTo:         req.GetString("assigned_to", ""),
			Status:             record.MeetingStatus(req.GetString("status", "")),
			StartDate:          optionalDate(req, "start_date"),
			EndDate:            optionalDate(req, "end_date"),
			Minutes:            req.GetStringSlice("minutes", nil),
		}
		if err := record.ValidateMeeting(draft.WithDefaults().Normalized()); err != nil {
			return mcpError(err.Error()), nil
		}
		m, err := deps.Meetings.Add(ctx, draft)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to add meeting: %v", err)), nil
		}
		return mcpJSON(m), nil
	}
}

func mcpUpdateRecord(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, res := mcpKind(req)
		if res != nil {
			return res, nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		fields, err := req.RequireString("fields")
		if err != nil {
			return mcpError("fields is required"), nil
		}

		switch kind {
		case record.KindMeeting:
			return updateRecord(ctx, deps.Meetings, record.ValidateMeeting, id, fields), nil
		default:
			return updateRecord(ctx, deps.Tasks, record.ValidateTask, id, fields), nil
		}
	}
}

func updateRecord[E store.Entity[E]](ctx context.Context, s *store.Store[E], validate func(E) error, id, fields string) *mcp.CallToolResult {
	cur, ok, err := s.Get(ctx, id)
	if err != nil {
		return mcpError(fmt.Sprintf("get failed: %v", err))
	}
	if !ok {
		return mcpError(fmt.Sprintf("%s %s not found", s.Kind(), id))
	}
	cur, err = mergeJSON(cur, []byte(fields))
	if err != nil {
		return mcpError(fmt.Sprintf("invalid fields JSON: %v", err))
	}
	cur = cur.WithID(id)
	if err := validate(cur.Normalized()); err != nil {
		return mcpError(err.Error())
	}
	e, err := s.Update(ctx, cur)
	if err != nil {
		return mcpError(fmt.Sprintf("update failed: %v", err))
	}
	return mcpJSON(e)
}

func mcpAddMinute(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		m, err := store.AppendMinute(ctx, deps.Meetings, id, text)
		if errors.Is(err, store.ErrNotFound) {
			return mcpError(fmt.Sprintf("meeting %s not found", id)), nil
		}
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(m), nil
	}
}

func mcpResourceCollection(load func(ctx context.Context) (any, error)) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", req.Params.URI, err)
		}

		b, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", req.Params.URI, err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
