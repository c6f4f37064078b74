package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/portal/internal/config"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/viewmodel"
)

// fieldFlag binds a CLI flag to a record's JSON field.
type fieldFlag struct {
	flag  string
	field string
	usage string
	float bool
}

var taskFields = []fieldFlag{
	{flag: "name", field: "name", usage: "task name"},
	{flag: "project", field: "projectName", usage: "project name"},
	{flag: "parent", field: "parent", usage: "parent task id"},
	{flag: "assigned-to", field: "assignedTo", usage: "assignee"},
	{flag: "assigned-by", field: "assignedBy", usage: "assigner"},
	{flag: "priority", field: "priority", usage: "Low, Medium, High or Critical"},
	{flag: "lag-type", field: "lagType", usage: "lag type, e.g. Finish-to-Start"},
	{flag: "lag-days", field: "lagDays", usage: "lag in days"},
	{flag: "duration", field: "topDownDuration", usage: "top-down duration in days"},
	{flag: "percent", field: "percentComplete", usage: "percent complete (0-100)", float: true},
	{flag: "estimated-start", field: "estimatedStart", usage: "estimated start date (YYYY-MM-DD)"},
	{flag: "estimated-end", field: "estimatedEnd", usage: "estimated end date (YYYY-MM-DD)"},
	{flag: "revised-start", field: "revisedStart", usage: "revised start date"},
	{flag: "revised-end", field: "revisedEnd", usage: "revised end date"},
	{flag: "actual-start", field: "actualStart", usage: "actual start date"},
	{flag: "actual-end", field: "actualEnd", usage: "actual end date"},
}

var meetingFields = []fieldFlag{
	{flag: "subject", field: "subject", usage: "meeting subject"},
	{flag: "type", field: "type", usage: "Online or Offline"},
	{flag: "engagement-type", field: "engagementType", usage: "Internal or External"},
	{flag: "engagement", field: "engagement", usage: "engagement name"},
	{flag: "relationship", field: "relationship", usage: "Vendor, Partner or Client"},
	{flag: "department", field: "customerDepartment", usage: "customer department"},
	{flag: "assigned-to", field: "assignedTo", usage: "assignee"},
	{flag: "status", field: "status", usage: "Scheduled, Completed or Cancelled"},
	{flag: "start", field: "startDate", usage: "start date (YYYY-MM-DD)"},
	{flag: "end", field: "endDate", usage: "end date (YYYY-MM-DD)"},
}

func registerFieldFlags(cmd *cobra.Command, fields []fieldFlag) {
	for _, f := range fields {
		if f.float {
			cmd.Flags().Float64(f.flag, 0, f.usage)
			continue
		}
		cmd.Flags().String(f.flag, "", f.usage)
	}
}

// changedFields collects the flags the user actually set, keyed by JSON field.
func changedFields(cmd *cobra.Command, fields []fieldFlag) (map[string]any, error) {
	body := make(map[string]any)
	for _, f := range fields {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		if f.float {
			v, err := cmd.Flags().GetFloat64(f.flag)
			if err != nil {
				return nil, err
			}
			body[f.field] = v
			continue
		}
		v, err := cmd.Flags().GetString(f.flag)
		if err != nil {
			return nil, err
		}
		body[f.field] = v
	}
	return body, nil
}

// listPath builds the list endpoint query. filters are key=value pairs.
func listPath(kind record.Kind, search, sort string, desc bool, filters []string, limit int) (string, error) {
	v := url.Values{}
	if search != "" {
		v.Set("q", search)
	}
	if sort != "" {
		v.Set("sort", sort)
	}
	if desc {
		v.Set("dir", "desc")
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return "", fmt.Errorf("invalid filter %q, want key=value", f)
		}
		v.Set(strings.TrimSpace(key), value)
	}
	path := "/" + kind.Plural()
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}
	return path, nil
}

// dateFormat renders dates the way list views do, falling back to the
// default locale when config cannot be read.
func dateFormat() viewmodel.DateFormat {
	locale := viewmodel.DefaultLocale
	if cfg, err := config.Load(); err == nil {
		locale = cfg.List.Locale
	}
	return viewmodel.NewDateFormat(locale, time.Local)
}

// kindCLI holds what differs between the task and meeting command trees.
type kindCLI struct {
	kind      record.Kind
	short     string
	fields    []fieldFlag
	required  string
	printList func(w io.Writer, resp *http.Response) error
	printOne  func(w io.Writer, resp *http.Response) error
}

type listBody[E any] struct {
	Items []E `json:"items"`
	Total int `json:"total"`
}

var taskColumns = []string{"name", "projectName", "assignedTo", "priority", "percentComplete", "estimatedStart", "estimatedEnd"}

var meetingColumns = []string{"subject", "engagement", "type", "assignedTo", "status", "startDate"}

var tasksCLI = kindCLI{
	kind:     record.KindTask,
	short:    "Manage project tasks",
	fields:   taskFields,
	required: "name",
	printList: func(w io.Writer, resp *http.Response) error {
		var body listBody[record.Task]
		if err := decodeJSON(resp, &body); err != nil {
			return err
		}
		table := viewmodel.TaskTable(dateFormat(), viewmodel.ParentNames(body.Items))
		printRows(w, table, body.Items, taskColumns)
		fmt.Fprintln(w, dim(fmt.Sprintf("%d of %d tasks", len(body.Items), body.Total)))
		return nil
	},
	printOne: func(w io.Writer, resp *http.Response) error {
		var t record.Task
		if err := decodeJSON(resp, &t); err != nil {
			return err
		}
		table := viewmodel.TaskTable(dateFormat(), func(string) (string, bool) { return "", false })
		var extra []viewmodel.Field
		for _, key := range []string{"assignedTo", "assignedBy", "lagType", "parent", "estimatedStart", "estimatedEnd", "revisedStart", "revisedEnd", "actualStart", "actualEnd"} {
			if c, ok := table.Column(key); ok {
				extra = append(extra, viewmodel.Field{Label: c.Header, Value: c.Cell(t)})
			}
		}
		printCard(w, table.Card(t), extra...)
		return nil
	},
}

var meetingsCLI = kindCLI{
	kind:     record.KindMeeting,
	short:    "Manage client meetings",
	fields:   meetingFields,
	required: "subject",
	printList: func(w io.Writer, resp *http.Response) error {
		var body listBody[record.Meeting]
		if err := decodeJSON(resp, &body); err != nil {
			return err
		}
		printRows(w, viewmodel.MeetingTable(dateFormat()), body.Items, meetingColumns)
		fmt.Fprintln(w, dim(fmt.Sprintf("%d of %d meetings", len(body.Items), body.Total)))
		return nil
	},
	printOne: func(w io.Writer, resp *http.Response) error {
		var m record.Meeting
		if err := decodeJSON(resp, &m); err != nil {
			return err
		}
		table := viewmodel.MeetingTable(dateFormat())
		var extra []viewmodel.Field
		for _, key := range []string{"engagementType", "customerDepartment", "endDate"} {
			if c, ok := table.Column(key); ok {
				extra = append(extra, viewmodel.Field{Label: c.Header, Value: c.Cell(m)})
			}
		}
		printCard(w, table.Card(m), extra...)
		printMinutes(w, m.Minutes)
		return nil
	},
}

func printMinutes(w io.Writer, minutes []string) {
	if len(minutes) == 0 {
		fmt.Fprintf(w, "  %s %s\n", bold("Minutes:"), viewmodel.Placeholder)
		return
	}
	fmt.Fprintf(w, "  %s\n", bold("Minutes:"))
	for i, text := range minutes {
		fmt.Fprintf(w, "    %s %s\n", dim(fmt.Sprintf("[%d]", i)), text)
	}
}

func newKindCmd(k kindCLI) *cobra.Command {
	root := &cobra.Command{
		Use:   k.kind.Plural(),
		Short: k.short,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Search, filter and sort " + k.kind.Plural(),
		Example: fmt.Sprintf("  portal %s list --search alpha --sort %s --desc --filter assignedTo=asha",
			k.kind.Plural(), k.required),
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			sort, _ := cmd.Flags().GetString("sort")
			desc, _ := cmd.Flags().GetBool("desc")
			filters, _ := cmd.Flags().GetStringArray("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			path, err := listPath(k.kind, search, sort, desc, filters, limit)
			if err != nil {
				return err
			}
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), path)
			if err != nil {
				return err
			}
			return k.printList(os.Stdout, resp)
		},
	}
	list.Flags().StringP("search", "q", "", "case-insensitive text search")
	list.Flags().String("sort", "", "field to sort by")
	list.Flags().Bool("desc", false, "sort descending")
	list.Flags().StringArray("filter", nil, "field=value criterion (repeatable)")
	list.Flags().Int("limit", 20, "maximum number of rows (0 for all)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single " + string(k.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), "/"+k.kind.Plural()+"/"+url.PathEscape(args[0]))
			if err != nil {
				return err
			}
			return k.printOne(os.Stdout, resp)
		},
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Create a " + string(k.kind) + "; omitted fields get defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := changedFields(cmd, k.fields)
			if err != nil {
				return err
			}
			if v, _ := body[k.required].(string); strings.TrimSpace(v) == "" {
				return fmt.Errorf("--%s is required", k.required)
			}
			if cmd.Flags().Lookup("minute") != nil {
				if minutes, _ := cmd.Flags().GetStringArray("minute"); len(minutes) > 0 {
					body["minutes"] = minutes
				}
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.post(cmd.Context(), "/"+k.kind.Plural(), body)
			if err != nil {
				return err
			}
			var created struct {
				ID string `json:"id"`
			}
			if err := decodeJSON(resp, &created); err != nil {
				return err
			}
			printSuccess("Created %s %s", k.kind, created.ID)
			return nil
		},
	}
	registerFieldFlags(add, k.fields)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing " + string(k.kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := changedFields(cmd, k.fields)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update, pass at least one field flag")
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			resp, err := client.put(cmd.Context(), "/"+k.kind.Plural()+"/"+url.PathEscape(args[0]), body)
			if err != nil {
				return err
			}
			var updated map[string]any
			if err := decodeJSON(resp, &updated); err != nil {
				return err
			}
			printSuccess("Updated %s %s", k.kind, args[0])
			return nil
		},
	}
	registerFieldFlags(update, k.fields)

	root.AddCommand(list, show, add, update)
	return root
}

var (
	tasksCmd    = newKindCmd(tasksCLI)
	meetingsCmd = newKindCmd(meetingsCLI)
)

// --- meeting minutes ---

var minuteCmd = &cobra.Command{
	Use:   "minute",
	Short: "Append or remove meeting minutes",
}

var minuteAddCmd = &cobra.Command{
	Use:   "add <meeting-id> <text>",
	Short: "Append a minute entry",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/meetings/"+url.PathEscape(args[0])+"/minutes", map[string]string{"text": text})
		if err != nil {
			return err
		}
		var m record.Meeting
		if err := decodeJSON(resp, &m); err != nil {
			return err
		}
		printSuccess("Meeting %s now has %d minutes", m.ID, len(m.Minutes))
		return nil
	},
}

var minuteRmCmd = &cobra.Command{
	Use:   "rm <meeting-id> <index>",
	Short: "Remove the minute entry at index (see meetings show)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("index must be an integer, got %q", args[1])
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/meetings/"+url.PathEscape(args[0])+"/minutes/"+args[1])
		if err != nil {
			return err
		}
		var m record.Meeting
		if err := decodeJSON(resp, &m); err != nil {
			return err
		}
		printSuccess("Removed minute %s from meeting %s", args[1], m.ID)
		return nil
	},
}

func init() {
	for _, c := range meetingsCmd.Commands() {
		if c.Name() == "add" {
			c.Flags().StringArray("minute", nil, "minute entry (repeatable)")
		}
	}
	minuteCmd.AddCommand(minuteAddCmd, minuteRmCmd)
	meetingsCmd.AddCommand(minuteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s %s\n", bold(k.Key), k.Value, dim("("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
