package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/techrealm/programdex/internal/domain"
	domanalytics "github.com/techrealm/programdex/internal/domain/analytics"
)

func TestLogEvent(t *testing.T) {
	d := newDeps()

	rr := do(t, d.router(), "POST", "/api/log-event", `{"project_id":"web","event_type":"click","user_id":"u9"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp logEventResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Event.ID != "ev-1" || resp.Event.UserID != "u9" || resp.Event.ProjectID != "web" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestLogEvent_Invalid(t *testing.T) {
	d := newDeps()
	d.analytics.err = errors.Join(domain.ErrInvalidArgument, errors.New("project_id must match"))

	rr := do(t, d.router(), "POST", "/api/log-event", `{"event_type":"click"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestListEvents_PassesFilter(t *testing.T) {
	d := newDeps()
	d.analytics.events = []domanalytics.Event{{ID: "e1", ProjectID: "web", EventType: "view", UserID: "u1"}}

	rr := do(t, d.router(), "GET", "/api/get-data?event_type=view&user_id=u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.analytics.gotFilter != (domanalytics.Filter{EventType: "view", UserID: "u1"}) {
		t.Errorf("filter = %+v", d.analytics.gotFilter)
	}
	var resp eventListResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Total != 1 || resp.Events[0].UserID != "u1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAnalyticsSummary(t *testing.T) {
	d := newDeps()
	d.analytics.summary = domanalytics.Summary{
		Total:       3,
		ByEventType: map[string]int{"view": 3},
		ByProject:   map[string]int{"web": 2, "app": 1},
		TopProjects: []domanalytics.ProjectCount{{ProjectID: "web", Events: 2}, {ProjectID: "app", Events: 1}},
		ByDate:      map[string]int{"2025-03-14": 3},
	}

	rr := do(t, d.router(), "GET", "/api/analytics/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp summaryResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.TotalEvents != 3 || resp.ByProject["web"] != 2 || resp.EventsByDate["2025-03-14"] != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.TopProjects) != 2 || resp.TopProjects[0].ProjectID != "web" || resp.TopProjects[0].EventCount != 2 {
		t.Errorf("top = %+v", resp.TopProjects)
	}
}

func TestAnalyticsSummary_EmptyMapsAreObjects(t *testing.T) {
	rr := do(t, newDeps().router(), "GET", "/api/analytics/summary", "")
	body := rr.Body.String()
	for _, want := range []string{`"by_event_type":{}`, `"by_project":{}`, `"events_by_date":{}`, `"top_projects":[]`} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %s in %s", want, body)
		}
	}
}

func TestProjectAnalytics(t *testing.T) {
	d := newDeps()
	d.analytics.activity = domanalytics.Activity{
		Total:     2,
		Breakdown: map[string]int{"click": 2},
		Events:    []domanalytics.Event{{ID: "e1"}, {ID: "e2"}},
	}

	rr := do(t, d.router(), "GET", "/api/analytics/project/web", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.analytics.gotProjectID != "web" {
		t.Errorf("project id = %q", d.analytics.gotProjectID)
	}
	var resp projectActivityResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.ProjectID != "web" || resp.TotalEvents != 2 || resp.EventBreakdown["click"] != 2 || len(resp.Events) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestUserAnalytics(t *testing.T) {
	d := newDeps()
	d.analytics.activity = domanalytics.Activity{
		Total:     3,
		Projects:  2,
		Breakdown: map[string]int{"view": 3},
		Events:    []domanalytics.Event{{ID: "e1", UserID: "u1"}, {ID: "e2", UserID: "u1"}, {ID: "e3", UserID: "u1"}},
	}

	rr := do(t, d.router(), "GET", "/api/analytics/user/u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if d.analytics.gotUserID != "u1" {
		t.Errorf("user id = %q", d.analytics.gotUserID)
	}
	var resp userActivityResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.UserID != "u1" || resp.TotalEvents != 3 || resp.ProjectsViewed != 2 || resp.Events[2].UserID != "u1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestExportAnalytics(t *testing.T) {
	d := newDeps()
	d.analytics.events = []domanalytics.Event{{
		ID: "e1", ProjectID: "web", EventType: "view", UserID: "u1",
		Timestamp: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}}

	rr := do(t, d.router(), "GET", "/api/analytics/export", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "analytics_export_") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "e1,web,view,u1,2025-03-14T10:00:00Z") {
		t.Errorf("body = %s", rr.Body)
	}
	if d.analytics.gotFilter != (domanalytics.Filter{}) {
		t.Errorf("export should not filter: %+v", d.analytics.gotFilter)
	}
}

func TestClearAnalytics(t *testing.T) {
	d := newDeps()
	d.analytics.cleared = 7

	rr := do(t, d.router(), "DELETE", "/api/analytics/clear", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp clearResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Cleared != 7 {
		t.Errorf("cleared = %d", resp.Cleared)
	}
}
