package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/actgraph/pkg/cache"
	"github.com/matzehuels/actgraph/pkg/datamodel"
	"github.com/matzehuels/actgraph/pkg/integrations/act"
	"github.com/matzehuels/actgraph/pkg/pipeline"
)

func newTestServer(t *testing.T, actURL string) *httptest.Server {
	t.Helper()
	logger := newLogger(io.Discard, log.InfoLevel)
	opts := pipeline.Options{
		ACT:       act.Config{BaseURL: actURL},
		SchemaTTL: cache.TTLSchema,
		Logger:    logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	srv := newServer(pipeline.NewRunner(cache.NewMemoryCache(0), logger), opts, logger)
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestServeHealthz(t *testing.T) {
	actSrv, _ := fakeACT(t)
	ts := newTestServer(t, actSrv.URL)

	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || body != "ok\n" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestServeSchemaIsCached(t *testing.T) {
	actSrv, hits := fakeACT(t)
	ts := newTestServer(t, actSrv.URL)

	for i := 0; i < 2; i++ {
		resp, body := get(t, ts.URL+"/schema")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("schema status = %d: %s", resp.StatusCode, body)
		}
		var schema datamodel.Schema
		if err := json.Unmarshal([]byte(body), &schema); err != nil {
			t.Fatalf("decode schema: %v", err)
		}
		if len(schema.ObjectTypes) != 3 || len(schema.FactTypes) != 3 {
			t.Errorf("schema = %+v", schema)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("platform requests = %d, want 2 (one fetch)", got)
	}
}

func TestServeView(t *testing.T) {
	actSrv, _ := fakeACT(t)
	ts := newTestServer(t, actSrv.URL)

	resp, body := get(t, ts.URL+"/views/double/dot")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(body, `label="sends"`) || strings.Contains(body, "mentions") {
		t.Errorf("double view body = %s", body)
	}

	resp, body = get(t, ts.URL+"/views/single/json")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "fact:name") {
		t.Errorf("single json = %d %s", resp.StatusCode, body)
	}
}

func TestServeViews(t *testing.T) {
	actSrv, _ := fakeACT(t)
	ts := newTestServer(t, actSrv.URL)

	_, body := get(t, ts.URL+"/views")
	var views []struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(body), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 || views[0].Name != "complete" {
		t.Errorf("views = %+v", views)
	}
}

func TestServeErrors(t *testing.T) {
	actSrv, _ := fakeACT(t)
	ts := newTestServer(t, actSrv.URL)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer down.Close()
	tsDown := newTestServer(t, down.URL)

	tests := []struct {
		url  string
		want int
	}{
		{ts.URL + "/views/tower/svg", http.StatusNotFound},
		{ts.URL + "/views/complete/pdf", http.StatusBadRequest},
		{ts.URL + "/nope", http.StatusNotFound},
		{tsDown.URL + "/schema", http.StatusBadGateway},
		{tsDown.URL + "/views/complete/dot", http.StatusBadGateway},
	}
	for _, tt := range tests {
		resp, body := get(t, tt.url)
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d (%s)", tt.url, resp.StatusCode, tt.want, body)
		}
	}
}
