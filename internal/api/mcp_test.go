package api

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/portal/internal/record"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	tasks, meetings := newTestStores(t, nil)
	return MCPDeps{Tasks: tasks, Meetings: meetings}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func callOK(t *testing.T, result *mcp.CallToolResult, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	return toolText(t, result)
}

// --- tests ---

func TestMCPTool_ListRecords(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpListRecords(deps)

	result, err := handler(context.Background(), makeCallToolRequest("list_records", map[string]interface{}{
		"kind":      "task",
		"search":    "testing",
		"sort":      "name",
		"direction": "desc",
		"limit":     2,
	}))
	text := callOK(t, result, err)

	var resp listResponse[record.Task]
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	var ids []string
	for _, task := range resp.Items {
		ids = append(ids, task.ID)
	}
	if want := []string{"10", "7"}; !slices.Equal(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestMCPTool_ListRecords_Filter(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpListRecords(deps)

	result, err := handler(context.Background(), makeCallToolRequest("list_records", map[string]interface{}{
		"kind":   "meetings",
		"filter": `{"status":"Completed"}`,
	}))
	text := callOK(t, result, err)

	var resp listResponse[record.Meeting]
	json.Unmarshal([]byte(text), &resp)
	if len(resp.Items) != 1 || resp.Items[0].Subject != "Weekly Sync" {
		t.Errorf("items = %+v, want only Weekly Sync", resp.Items)
	}
}

func TestMCPTool_ListRecords_Errors(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpListRecords(deps)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing kind", map[string]interface{}{}},
		{"unknown kind", map[string]interface{}{"kind": "invoice"}},
		{"bad filter JSON", map[string]interface{}{"kind": "task", "filter": "{"}},
		{"unknown filter field", map[string]interface{}{"kind": "task", "filter": `{"colour":"red"}`}},
		{"unknown sort field", map[string]interface{}{"kind": "task", "sort": "colour"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(context.Background(), makeCallToolRequest("list_records", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected error result, got %q", toolText(t, result))
			}
		})
	}
}

func TestMCPTool_GetRecord(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpGetRecord(deps)

	result, err := handler(context.Background(), makeCallToolRequest("get_record", map[string]interface{}{
		"kind": "meeting",
		"id":   "1",
	}))
	text := callOK(t, result, err)
	if !strings.Contains(text, "Sprint Review vs Client") {
		t.Errorf("result = %q, want meeting 1", text)
	}

	result, err = handler(context.Background(), makeCallToolRequest("get_record", map[string]interface{}{
		"kind": "task",
		"id":   "404",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(toolText(t, result), "not found") {
		t.Errorf("expected not found error, got %q", toolText(t, result))
	}
}

func TestMCPTool_AddTask(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAddTask(deps)

	result, err := handler(context.Background(), makeCallToolRequest("add_task", map[string]interface{}{
		"name":             "Load testing",
		"project_name":     "Delta",
		"priority":         "High",
		"percent_complete": 25.0,
		"estimated_start":  "2024-07-01",
	}))
	text := callOK(t, result, err)

	var got record.Task
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.ID != "11" || got.PercentComplete != 25 || got.Priority != record.PriorityHigh {
		t.Errorf("task = %+v", got)
	}
	if got.AssignedTo != "Unassigned" {
		t.Errorf("assignedTo = %q, want default", got.AssignedTo)
	}

	stored, ok, _ := deps.Tasks.Get(context.Background(), "11")
	if !ok || stored.Name != "Load testing" {
		t.Errorf("stored task = %+v, ok = %v", stored, ok)
	}
}

func TestMCPTool_AddTask_Invalid(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAddTask(deps)

	for _, args := range []map[string]interface{}{
		{"project_name": "Delta"},
		{"name": "x", "percent_complete": 101.0},
		{"name": "x", "lag_days": "two"},
	} {
		result, err := handler(context.Background(), makeCallToolRequest("add_task", args))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("args %v: expected error result", args)
		}
	}
	snap, _ := deps.Tasks.All(context.Background())
	if len(snap.Items) != 10 {
		t.Errorf("store has %d tasks, want 10", len(snap.Items))
	}
}

func TestMCPTool_AddMeeting(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAddMeeting(deps)

	result, err := handler(context.Background(), makeCallToolRequest("add_meeting", map[string]interface{}{
		"subject":      "Quarterly planning",
		"relationship": "Client",
		"minutes":      []interface{}{"Set goals", "Assigned owners"},
	}))
	text := callOK(t, result, err)

	var got record.Meeting
	json.Unmarshal([]byte(text), &got)
	if got.ID != "4" || got.Relationship != record.RelationshipClient {
		t.Errorf("meeting = %+v", got)
	}
	if !slices.Equal(got.Minutes, []string{"Set goals", "Assigned owners"}) {
		t.Errorf("minutes = %q", got.Minutes)
	}
}

func TestMCPTool_UpdateRecord(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpUpdateRecord(deps)

	result, err := handler(context.Background(), makeCallToolRequest("update_record", map[string]interface{}{
		"kind":   "task",
		"id":     "3",
		"fields": `{"percentComplete":75,"assignedTo":"Asha"}`,
	}))
	callOK(t, result, err)

	got, _, _ := deps.Tasks.Get(context.Background(), "3")
	if got.PercentComplete != 75 || got.AssignedTo != "Asha" {
		t.Errorf("task = %+v", got)
	}
	if got.Name != "Design Database Schema" {
		t.Errorf("name = %q, want it preserved", got.Name)
	}

	tests := []struct {
		name   string
		id     string
		fields string
	}{
		{"missing record", "99", `{"name":"x"}`},
		{"bad JSON", "3", `{"name":`},
		{"invalid value", "3", `{"priority":"Urgent"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(context.Background(), makeCallToolRequest("update_record", map[string]interface{}{
				"kind":   "task",
				"id":     tt.id,
				"fields": tt.fields,
			}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected error result, got %q", toolText(t, result))
			}
		})
	}
}

func TestMCPTool_AddMinute(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpAddMinute(deps)

	result, err := handler(context.Background(), makeCallToolRequest("add_minute", map[string]interface{}{
		"id":   "2",
		"text": "Follow up on blockers",
	}))
	callOK(t, result, err)

	got, _, _ := deps.Meetings.Get(context.Background(), "2")
	if want := []string{"Team updates", "Blockers identified", "Follow up on blockers"}; !slices.Equal(got.Minutes, want) {
		t.Errorf("minutes = %q, want %q", got.Minutes, want)
	}

	result, err = handler(context.Background(), makeCallToolRequest("add_minute", map[string]interface{}{
		"id":   "9",
		"text": "x",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error for missing meeting")
	}
}

func TestMCPResource_Collections(t *testing.T) {
	deps := newTestMCPDeps(t)

	tests := []struct {
		uri  string
		load func(ctx context.Context) (any, error)
		want int
	}{
		{"portal://tasks", func(ctx context.Context) (any, error) {
			snap, err := deps.Tasks.All(ctx)
			return snap.Items, err
		}, 10},
		{"portal://meetings", func(ctx context.Context) (any, error) {
			snap, err := deps.Meetings.All(ctx)
			return snap.Items, err
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			contents, err := mcpResourceCollection(tt.load)(context.Background(), makeReadResourceRequest(tt.uri))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(contents) != 1 {
				t.Fatalf("expected 1 content, got %d", len(contents))
			}
			tc, ok := contents[0].(mcp.TextResourceContents)
			if !ok {
				t.Fatalf("expected TextResourceContents, got %T", contents[0])
			}
			if tc.URI != tt.uri {
				t.Errorf("URI = %q, want %q", tc.URI, tt.uri)
			}
			var items []json.RawMessage
			if err := json.Unmarshal([]byte(tc.Text), &items); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
		})
	}
}

func TestMCPServer_Registers(t *testing.T) {
	s := NewMCPServer(newTestMCPDeps(t))
	if s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestMCPServer_EnumsMatchRecordValues(t *testing.T) {
	s := NewMCPServer(newTestMCPDeps(t))

	tests := []struct {
		tool, arg string
		want      []string
	}{
		{"add_task", "priority", enumValues(record.Priorities)},
		{"add_task", "lag_type", enumValues(record.LagTypes)},
		{"add_meeting", "type", enumValues(record.MeetingTypes)},
		{"add_meeting", "engagement_type", enumValues(record.EngagementTypes)},
		{"add_meeting", "relationship", enumValues(record.Relationships)},
		{"add_meeting", "status", enumValues(record.MeetingStatuses)},
	}
	for _, tt := range tests {
		t.Run(tt.tool+"/"+tt.arg, func(t *testing.T) {
			st := s.GetTool(tt.tool)
			if st == nil {
				t.Fatalf("tool %s not registered", tt.tool)
			}
			prop, ok := st.Tool.InputSchema.Properties[tt.arg].(map[string]any)
			if !ok {
				t.Fatalf("property %s missing", tt.arg)
			}
			got, _ := prop["enum"].([]string)
			if !slices.Equal(got, tt.want) {
				t.Errorf("enum = %v, want %v", got, tt.want)
			}
		})
	}
	if !slices.Contains(enumValues(record.Priorities), "Critical") {
		t.Error("priorities missing Critical")
	}

	req := makeCallToolRequest("add_task", map[string]interface{}{"name": "n", "lag_type": "SS", "priority": "Critical"})
	result, err := mcpAddTask(newTestMCPDeps(t))(context.Background(), req)
	text := callOK(t, result, err)
	var task record.Task
	if err := json.Unmarshal([]byte(text), &task); err != nil {
		t.Fatal(err)
	}
	if task.LagType != record.LagStartToStart || task.Priority != "Critical" {
		t.Errorf("task = %+v", task)
	}
}

func TestMCPServer_ConcurrentCalls(t *testing.T) {
	deps := newTestMCPDeps(t)

	addHandler := mcpAddTask(deps)
	listHandler := mcpListRecords(deps)

	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := makeCallToolRequest("add_task", map[string]interface{}{
				"name": fmt.Sprintf("concurrent %d", i),
			})
			res, err := addHandler(context.Background(), req)
			if err != nil {
				errs <- err
			} else if res.IsError {
				errs <- fmt.Errorf("add_task: %s", res.Content[0].(mcp.TextContent).Text)
			}
		}(i)
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := makeCallToolRequest("list_records", map[string]interface{}{
				"kind": "task",
			})
			_, err := listHandler(context.Background(), req)
			if err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent call failed: %v", err)
	}

	snap, _ := deps.Tasks.All(context.Background())
	if len(snap.Items) != 15 {
		t.Errorf("store has %d tasks, want 15", len(snap.Items))
	}
}
