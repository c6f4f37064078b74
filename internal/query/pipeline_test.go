package query

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/kalambet/portal/internal/record"
)

func names(ts []record.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func TestSearchScenario(t *testing.T) {
	c := TaskCatalog()
	tasks := []record.Task{
		{ID: "1", Name: "Alpha"},
		{ID: "2", Name: "Beta"},
		{ID: "3", Name: "Gamma"},
	}

	if got := Run(c, tasks, Params{Search: "a"}); len(got) != 3 {
		t.Errorf("search a: got %v, want all 3", names(got))
	}
	got := Run(c, tasks, Params{Search: "alpha"})
	if len(got) != 1 || got[0].Name != "Alpha" {
		t.Errorf("search alpha: got %v", names(got))
	}
	if got := Run(c, tasks, Params{Search: "   "}); len(got) != 3 {
		t.Errorf("blank search should match all, got %d", len(got))
	}
}

func TestSearchFields(t *testing.T) {
	c := MeetingCatalog()
	meetings := []record.Meeting{
		{ID: "1", Subject: "Sync", Engagement: "Project Beta", AssignedTo: "Asha"},
		{ID: "2", Subject: "Review", Engagement: "Alpha", AssignedTo: "Ravi", CustomerDepartment: "beta dept"},
	}
	got := Run(c, meetings, Params{Search: "BETA"})
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("customerDepartment must not be searched, got %+v", got)
	}
	if got := Run(c, meetings, Params{Search: "ravi"}); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("assignee search: got %+v", got)
	}
}

func TestFilter(t *testing.T) {
	c := TaskCatalog()
	tasks := []record.Task{
		{ID: "1", Name: "Write docs", Priority: record.PriorityHigh, LagDays: "12"},
		{ID: "2", Name: "Write tests", Priority: record.PriorityLow, LagDays: "2"},
		{ID: "3", Name: "Deploy", Priority: record.PriorityHigh, LagDays: "0"},
	}
	cases := []struct {
		name   string
		filter map[string]string
		want   []string
	}{
		{"empty criteria match all", map[string]string{"priority": "", "name": " "}, []string{"1", "2", "3"}},
		{"contains is case-insensitive", map[string]string{"name": "WRITE"}, []string{"1", "2"}},
		{"exact match", map[string]string{"priority": "High"}, []string{"1", "3"}},
		{"exact is not substring", map[string]string{"priority": "Hig"}, nil},
		{"numeric uses containment", map[string]string{"lagDays": "2"}, []string{"1", "2"}},
		{"AND across fields", map[string]string{"name": "write", "priority": "High"}, []string{"1"}},
		{"unknown field ignored", map[string]string{"bogus": "x"}, []string{"1", "2", "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ids []string
			for _, it := range Run(c, tasks, Params{Filter: tc.filter}) {
				ids = append(ids, it.ID)
			}
			if !reflect.DeepEqual(ids, tc.want) {
				t.Errorf("got %v, want %v", ids, tc.want)
			}
		})
	}
}

func TestSortStringIsCaseInsensitive(t *testing.T) {
	c := TaskCatalog()
	tasks := []record.Task{{Name: "banana"}, {Name: "Apple"}, {Name: "cherry"}}
	got := names(Run(c, tasks, Params{Sort: SortSpec{Key: "name", Direction: Asc}}))
	if want := []string{"Apple", "banana", "cherry"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSortNumeric(t *testing.T) {
	c := TaskCatalog()
	tasks := []record.Task{
		{ID: "a", LagDays: "10"},
		{ID: "b", LagDays: "9"},
		{ID: "c", LagDays: "x"},
		{ID: "d", LagDays: "-1"},
	}
	var ids []string
	for _, it := range Run(c, tasks, Params{Sort: SortSpec{Key: "lagDays", Direction: Asc}}) {
		ids = append(ids, it.ID)
	}
	if want := []string{"d", "b", "a", "c"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("got %v, want %v", ids, want)
	}
}

func TestSortToggleReverses(t *testing.T) {
	c := TaskCatalog()
	var tasks []record.Task
	for i := range 15 {
		tasks = append(tasks, record.Task{ID: fmt.Sprint(i), Name: fmt.Sprintf("task %02d", (i*7)%15), PercentComplete: float64((i * 11) % 15)})
	}
	for _, key := range []string{"name", "percentComplete"} {
		spec := SortSpec{}.Toggle(key)
		asc := Run(c, tasks, Params{Sort: spec})
		desc := Run(c, tasks, Params{Sort: spec.Toggle(key)})
		rev := slices.Clone(desc)
		slices.Reverse(rev)
		if !reflect.DeepEqual(asc, rev) {
			t.Errorf("%s: desc is not the reverse of asc", key)
		}
	}
}

func TestSortIsStable(t *testing.T) {
	c := TaskCatalog()
	tasks := []record.Task{
		{ID: "1", Priority: record.PriorityHigh},
		{ID: "2", Priority: record.PriorityLow},
		{ID: "3", Priority: record.PriorityHigh},
		{ID: "4", Priority: record.PriorityHigh},
	}
	for range 5 {
		var ids []string
		for _, it := range Run(c, tasks, Params{Sort: SortSpec{Key: "priority", Direction: Asc}}) {
			ids = append(ids, it.ID)
		}
		if want := []string{"1", "3", "4", "2"}; !reflect.DeepEqual(ids, want) {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

func TestToggle(t *testing.T) {
	s := SortSpec{Key: "name", Direction: Asc}
	if got := s.Toggle("name"); got.Direction != Desc {
		t.Errorf("same key should flip to desc, got %+v", got)
	}
	if got := s.Toggle("name").Toggle("name"); got.Direction != Asc {
		t.Errorf("double toggle should return to asc, got %+v", got)
	}
	if got := (SortSpec{Key: "name", Direction: Desc}).Toggle("priority"); got != (SortSpec{Key: "priority", Direction: Asc}) {
		t.Errorf("new key should sort asc, got %+v", got)
	}
}

func TestCompositionIsSubset(t *testing.T) {
	c := TaskCatalog()
	all := record.InitialTasks(fixedTime())
	p := Params{
		Search: "a",
		Filter: map[string]string{"priority": "High", "projectName": "alp"},
		Sort:   SortSpec{Key: "percentComplete", Direction: Desc},
	}
	got := Run(c, all, p)
	if len(got) > len(all) {
		t.Fatalf("result larger than input")
	}
	if len(got) == 0 {
		t.Fatal("expected some matches in seed data")
	}
	for _, it := range got {
		if it.Priority != record.PriorityHigh || !strings.Contains(strings.ToLower(it.ProjectName), "alp") {
			t.Errorf("%s fails filter", it.ID)
		}
		hay := strings.ToLower(it.Name + "|" + it.ProjectName + "|" + it.AssignedTo)
		if !strings.Contains(hay, "a") {
			t.Errorf("%s fails search", it.ID)
		}
		if !slices.ContainsFunc(all, func(o record.Task) bool { return o.ID == it.ID }) {
			t.Errorf("%s not in input", it.ID)
		}
	}
}

func TestRunNilInput(t *testing.T) {
	got := Run(TaskCatalog(), nil, Params{Search: "x"})
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty slice", got)
	}
}

func TestRunDoesNotReorderInput(t *testing.T) {
	tasks := []record.Task{{Name: "b"}, {Name: "a"}}
	Run(TaskCatalog(), tasks, Params{Sort: SortSpec{Key: "name"}})
	if tasks[0].Name != "b" {
		t.Error("input slice was sorted in place")
	}
}

func TestValidate(t *testing.T) {
	c := MeetingCatalog()
	if err := c.Validate(Params{Filter: map[string]string{"status": "Scheduled"}, Sort: SortSpec{Key: "startDate", Direction: Desc}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := []Params{
		{Filter: map[string]string{"priority": "High"}},
		{Sort: SortSpec{Key: "name"}},
		{Sort: SortSpec{Key: "subject", Direction: "sideways"}},
	}
	for _, p := range bad {
		if err := c.Validate(p); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidParams", p, err)
		}
	}
}

func TestDistinct(t *testing.T) {
	c := MeetingCatalog()
	meetings := record.InitialMeetings(fixedTime())
	meetings = append(meetings, record.Meeting{Type: record.MeetingOnline}, record.Meeting{})

	got, err := Distinct(c, meetings, "type")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Offline", "Online"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := Distinct(c, meetings, "nope"); err == nil {
		t.Error("expected error for unknown field")
	}

	nums, _ := Distinct(TaskCatalog(), []record.Task{{LagDays: "10"}, {LagDays: "2"}, {LagDays: "2"}}, "lagDays")
	if want := []string{"2", "10"}; !reflect.DeepEqual(nums, want) {
		t.Errorf("numeric distinct = %v, want %v", nums, want)
	}
}
