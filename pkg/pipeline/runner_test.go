package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/actgraph/pkg/cache"
	"github.com/matzehuels/actgraph/pkg/datamodel"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/integrations/act"
	"github.com/matzehuels/actgraph/pkg/integrations/confluence"
	"github.com/matzehuels/actgraph/pkg/observability"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

type fakeFetcher struct {
	schema datamodel.Schema
	err    error
	calls  int
}

func (f *fakeFetcher) FetchSchema(context.Context) (datamodel.Schema, error) {
	f.calls++
	return f.schema, f.err
}

func ref(name string) *datamodel.TypeRef { return &datamodel.TypeRef{Name: name} }

func testSchema() datamodel.Schema {
	return datamodel.Schema{
		ObjectTypes: []datamodel.ObjectType{
			{ID: "1", Name: "person"},
			{ID: "2", Name: "email"},
			{ID: "3", Name: "report"},
		},
		FactTypes: []datamodel.FactType{
			{ID: "a", Name: "sends", Bindings: []datamodel.Binding{
				{Source: datamodel.TypeRef{Name: "person"}, Destination: ref("email")},
			}},
			{ID: "b", Name: "mentions", Bindings: []datamodel.Binding{
				{Source: datamodel.TypeRef{Name: "report"}, Destination: ref("person")},
			}},
			{ID: "c", Name: "name", Bindings: []datamodel.Binding{
				{Source: datamodel.TypeRef{Name: "person"}},
			}},
		},
	}
}

func testOptions(f Fetcher) Options {
	return Options{
		ACT:     act.Config{BaseURL: "https://act.example.com"},
		Formats: []string{FormatDOT, FormatJSON},
		Fetcher: f,
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(0), nil)
	result, err := runner.Execute(context.Background(), testOptions(&fakeFetcher{schema: testSchema()}))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if !result.Changed {
		t.Fatal("first run should report a change")
	}
	if result.Stats.ObjectTypes != 3 || result.Stats.FactTypes != 3 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if len(result.Graphs) != 3 {
		t.Fatalf("graphs = %d, want 3", len(result.Graphs))
	}

	complete := result.Graphs[typegraph.ViewComplete]
	if complete.NodeCount() != 3 || complete.EdgeCount() != 2 {
		t.Errorf("complete = %d nodes %d edges, want 3/2", complete.NodeCount(), complete.EdgeCount())
	}
	double := result.Graphs[typegraph.ViewDouble]
	if double.NodeCount() != 2 || double.EdgeCount() != 1 {
		t.Errorf("double = %d nodes %d edges, want 2/1 (mentions excluded)", double.NodeCount(), double.EdgeCount())
	}
	single := result.Graphs[typegraph.ViewSingle]
	if !single.HasNode(typegraph.FactNodePrefix + "name") {
		t.Error("single view should contain the name fact node")
	}

	for _, v := range typegraph.Views {
		if _, ok := result.Artifacts[v][FormatDOT]; !ok {
			t.Errorf("%s: missing dot artifact", v)
		}
		if _, ok := result.Artifacts[v][FormatJSON]; !ok {
			t.Errorf("%s: missing json artifact", v)
		}
		if !strings.Contains(result.Sources[v], "digraph") {
			t.Errorf("%s: source is not DOT: %q", v, result.Sources[v])
		}
	}
	if !strings.Contains(string(result.Artifacts[typegraph.ViewComplete][FormatDOT]), `label="sends"`) {
		t.Error("complete DOT should label the sends edge")
	}
}

func TestExecuteSkipsUnchanged(t *testing.T) {
	c := cache.NewMemoryCache(0)
	runner := NewRunner(c, nil)
	fetcher := &fakeFetcher{schema: testSchema()}

	first, err := runner.Execute(context.Background(), testOptions(fetcher))
	if err != nil {
		t.Fatal(err)
	}

	second, err := runner.Execute(context.Background(), testOptions(fetcher))
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed {
		t.Error("unchanged schema should be skipped")
	}
	if second.Graphs != nil || second.Artifacts != nil {
		t.Error("skipped run should not build or render")
	}
	if second.Fingerprint != first.Fingerprint {
		t.Error("fingerprints differ for identical schemas")
	}

	forced := testOptions(fetcher)
	forced.Force = true
	third, err := runner.Execute(context.Background(), forced)
	if err != nil {
		t.Fatal(err)
	}
	if !third.Changed {
		t.Error("Force should render an unchanged schema")
	}

	// A modified schema renders again.
	fetcher.schema.ObjectTypes = append(fetcher.schema.ObjectTypes, datamodel.ObjectType{ID: "4", Name: "host"})
	fourth, err := runner.Execute(context.Background(), testOptions(fetcher))
	if err != nil {
		t.Fatal(err)
	}
	if !fourth.Changed {
		t.Error("modified schema should render")
	}
}

func TestExecuteNullCacheAlwaysRenders(t *testing.T) {
	runner := NewRunner(nil, nil)
	fetcher := &fakeFetcher{schema: testSchema()}
	for i := 0; i < 2; i++ {
		result, err := runner.Execute(context.Background(), testOptions(fetcher))
		if err != nil {
			t.Fatal(err)
		}
		if !result.Changed {
			t.Errorf("run %d: without a cache every run should render", i)
		}
	}
}

func TestExecuteForget(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(0), nil)
	fetcher := &fakeFetcher{schema: testSchema()}
	if _, err := runner.Execute(context.Background(), testOptions(fetcher)); err != nil {
		t.Fatal(err)
	}
	if err := runner.Forget(context.Background(), "https://act.example.com/"); err != nil {
		t.Fatal(err)
	}
	result, err := runner.Execute(context.Background(), testOptions(fetcher))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Error("Forget should force the next run to render")
	}
}

func TestExecuteFetchError(t *testing.T) {
	runner := NewRunner(nil, nil)
	wantErr := apperrors.New(apperrors.ErrCodeUnauthorized, "status 401")
	_, err := runner.Execute(context.Background(), testOptions(&fakeFetcher{err: wantErr}))
	if !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestExecuteUnknownObjectType(t *testing.T) {
	schema := testSchema()
	schema.FactTypes = append(schema.FactTypes, datamodel.FactType{
		Name:     "resolvesTo",
		Bindings: []datamodel.Binding{{Source: datamodel.TypeRef{Name: "fqdn"}, Destination: ref("ipv4")}},
	})

	c := cache.NewMemoryCache(0)
	runner := NewRunner(c, nil)
	_, err := runner.Execute(context.Background(), testOptions(&fakeFetcher{schema: schema}))
	if !errors.Is(err, typegraph.ErrUnknownObjectType) {
		t.Fatalf("Execute() error = %v, want ErrUnknownObjectType", err)
	}
	if !apperrors.Is(err, apperrors.ErrCodeUnknownObjectType) {
		t.Errorf("code = %q, want UNKNOWN_OBJECT_TYPE", apperrors.GetCode(err))
	}

	// A failed run does not record the fingerprint.
	if _, hit, _ := c.Get(context.Background(), cache.FingerprintKey("https://act.example.com")); hit {
		t.Error("fingerprint stored after failed build")
	}
}

func TestFetchSchemaCached(t *testing.T) {
	runner := NewRunner(cache.NewMemoryCache(0), nil)
	fetcher := &fakeFetcher{schema: testSchema()}
	opts := testOptions(fetcher)
	opts.SchemaTTL = cache.TTLSchema

	_, hit, err := runner.FetchSchemaWithCacheInfo(context.Background(), opts)
	if err != nil || hit {
		t.Fatalf("first fetch: hit=%v err=%v", hit, err)
	}
	schema, hit, err := runner.FetchSchemaWithCacheInfo(context.Background(), opts)
	if err != nil || !hit {
		t.Fatalf("second fetch: hit=%v err=%v", hit, err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", fetcher.calls)
	}
	if len(schema.ObjectTypes) != 3 {
		t.Errorf("cached schema object types = %d, want 3", len(schema.ObjectTypes))
	}
}

type readOnlyCache struct{ cache.NullCache }

func (readOnlyCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("read-only")
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	sets int
}

func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestFetchSchemaCacheWriteFails(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(func() { observability.SetCacheHooks(observability.NoopCacheHooks{}) })

	runner := NewRunner(readOnlyCache{}, nil)
	opts := testOptions(&fakeFetcher{schema: testSchema()})
	opts.SchemaTTL = cache.TTLSchema

	if _, _, err := runner.FetchSchemaWithCacheInfo(context.Background(), opts); err != nil {
		t.Fatalf("FetchSchemaWithCacheInfo() error: %v", err)
	}
	if hooks.sets != 0 {
		t.Errorf("OnCacheSet fired %d times for a failed write", hooks.sets)
	}
}

type fakeAttacher struct {
	names    []string
	comments []string
	failOn   string
}

func (f *fakeAttacher) Attach(_ context.Context, pageID, name string, data []byte, comment string) (*confluence.Attachment, error) {
	if name == f.failOn {
		return nil, apperrors.New(apperrors.ErrCodePublish, "upload rejected")
	}
	f.names = append(f.names, name)
	f.comments = append(f.comments, comment)
	return &confluence.Attachment{ID: "x", Title: name}, nil
}

func publishedResult() *Result {
	views := map[typegraph.View]map[string][]byte{}
	sources := map[typegraph.View]string{}
	for _, v := range typegraph.Views {
		views[v] = map[string][]byte{FormatPNG: []byte("png"), FormatJSON: []byte("{}")}
		sources[v] = "digraph G {}"
	}
	return &Result{Changed: true, Artifacts: views, Sources: sources}
}

func TestPublish(t *testing.T) {
	runner := NewRunner(nil, nil)
	attacher := &fakeAttacher{}

	names, err := runner.Publish(context.Background(), publishedResult(), PublishOptions{
		PageID:         "42",
		IncludeSources: true,
		Attacher:       attacher,
	})
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	want := []string{"complete.png", "double.png", "single.png", "complete.dot", "double.dot", "single.dot"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("published = %v, want %v", names, want)
	}
	if attacher.comments[0] != "All Double Edged Facts" || attacher.comments[3] != "complete source" {
		t.Errorf("comments = %v", attacher.comments)
	}
}

func TestPublishWithoutSources(t *testing.T) {
	runner := NewRunner(nil, nil)
	attacher := &fakeAttacher{}
	names, err := runner.Publish(context.Background(), publishedResult(), PublishOptions{PageID: "42", Attacher: attacher})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 {
		t.Errorf("published = %v, want only images", names)
	}
}

func TestPublishSkipsUnchanged(t *testing.T) {
	runner := NewRunner(nil, nil)
	attacher := &fakeAttacher{}
	names, err := runner.Publish(context.Background(), &Result{Changed: false}, PublishOptions{PageID: "42", Attacher: attacher})
	if err != nil || len(names) != 0 {
		t.Errorf("Publish(unchanged) = %v, %v", names, err)
	}
}

func TestPublishErrors(t *testing.T) {
	runner := NewRunner(nil, nil)

	_, err := runner.Publish(context.Background(), publishedResult(), PublishOptions{PageID: "abc", Attacher: &fakeAttacher{}})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("bad page id error = %v, want INVALID_INPUT", err)
	}

	attacher := &fakeAttacher{failOn: "double.png"}
	names, err := runner.Publish(context.Background(), publishedResult(), PublishOptions{PageID: "42", Attacher: attacher})
	if !apperrors.Is(err, apperrors.ErrCodePublish) {
		t.Errorf("upload failure error = %v, want PUBLISH_FAILED", err)
	}
	if len(names) != 1 || names[0] != "complete.png" {
		t.Errorf("published before failure = %v", names)
	}
}
