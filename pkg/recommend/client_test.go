package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestShowJobsMapsAndSorts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/show_jobs" || r.URL.Query().Get("user_id") != "u1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"recommendations":[
			{"JobTitle":"Data Analyst","Company":"Beta","Remote":"Not remote","Salary":"","Responsibility":"dashboards","Matching Score":61},
			{"JobTitle":"Go Engineer","Company":"Acme","Remote":"Fully remote","Salary":"100k","Matching Score":92},
			{"Company":""}
		]}`))
	}))
	defer server.Close()

	jobs, err := NewClient(server.URL, time.Second).ShowJobs(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ShowJobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs", len(jobs))
	}

	if jobs[0].ID != jobID("Go Engineer", "Acme", "") || jobs[0].MatchScore != 92 || jobs[0].Location != "Remote" {
		t.Fatalf("first job = %+v", jobs[0])
	}
	// missing score defaults to 80 and sorts between the two
	if jobs[1].ID != jobID("Unknown Role", "Unknown Company", "") || jobs[1].MatchScore != 80 || jobs[1].Title != "Unknown Role" || jobs[1].Company != "Unknown Company" {
		t.Fatalf("second job = %+v", jobs[1])
	}
	if jobs[2].Location != "On-site" || jobs[2].Salary != "Not specified" {
		t.Fatalf("third job = %+v", jobs[2])
	}
}

func TestShowJobsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, time.Second).ShowJobs(context.Background(), "u1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestShowJobsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	jobs, err := NewClient(server.URL, time.Second).ShowJobs(context.Background(), "u1")
	if err != nil || len(jobs) != 0 {
		t.Fatalf("jobs = %v, err = %v", jobs, err)
	}
}

func TestShowJobsIDsFollowTheListing(t *testing.T) {
	lists := []string{
		`{"recommendations":[{"JobTitle":"Backend Engineer","Company":"Acme","Responsibility":"APIs"},{"JobTitle":"Backend Engineer","Company":"Globex","Responsibility":"APIs"}]}`,
		`{"recommendations":[{"JobTitle":"Backend Engineer","Company":"Globex","Responsibility":"APIs"},{"JobTitle":"Backend Engineer","Company":"Acme","Responsibility":"APIs"}]}`,
	}
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(lists[call]))
		call++
	}))
	defer server.Close()
	client := NewClient(server.URL, time.Second)

	ids := func() map[string]string {
		jobs, err := client.ShowJobs(context.Background(), "u1")
		if err != nil {
			t.Fatalf("ShowJobs: %v", err)
		}
		out := map[string]string{}
		for _, j := range jobs {
			if j.ID != j.JobID {
				t.Fatalf("ID %q and JobID %q differ", j.ID, j.JobID)
			}
			out[j.Company] = j.ID
		}
		return out
	}
	first, second := ids(), ids()

	if first["Acme"] == first["Globex"] {
		t.Fatal("different companies got the same id")
	}
	if first["Acme"] != second["Acme"] || first["Globex"] != second["Globex"] {
		t.Fatalf("ids changed with order: %v vs %v", first, second)
	}
}
