package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUserCreated()
	c.RecordUserCreated()
	c.RecordSkillsUpdated()
	c.RecordRequestCreated()
	c.RecordRequestRejected("conflict")
	c.RecordRequestRejected("")
	c.RecordTransition("accepted")
	c.RecordTransition("accepted")
	c.RecordTransition("declined")

	if got := testutil.ToFloat64(c.usersCreated); got != 2 {
		t.Errorf("users_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.skillsUpdated); got != 1 {
		t.Errorf("skill_updates_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.requestsRejected.WithLabelValues("conflict")); got != 1 {
		t.Errorf("rejected{conflict} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.requestsRejected.WithLabelValues("internal")); got != 1 {
		t.Errorf("rejected{internal} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.transitions.WithLabelValues("accepted")); got != 2 {
		t.Errorf("transitions{accepted} = %v, want 2", got)
	}
}

func TestCollector_SearchAndRebuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSearch("exact", 3, 10*time.Millisecond)
	c.RecordSearch("browse", 0, time.Millisecond)
	c.RecordIndexRebuild(42, time.Second)

	if got := testutil.ToFloat64(c.searches.WithLabelValues("exact")); got != 1 {
		t.Errorf("searches{exact} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.indexedUsers); got != 42 {
		t.Errorf("index_rebuild_users = %v, want 42", got)
	}
	if got := testutil.CollectAndCount(c.searchLatency); got != 1 {
		t.Errorf("search latency series = %d, want 1", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest("GET", "/api/v1/users/search", 200, 5*time.Millisecond)
	c.RecordHTTPRequest("GET", "", 404, time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`skillswap_http_requests_total{method="GET",route="/api/v1/users/search",status_code="200"} 1`,
		`route="unmatched"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
