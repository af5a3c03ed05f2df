package cli

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const (
	testObjectTypes = `{"data":[
		{"id":"1","name":"person"},
		{"id":"2","name":"email"},
		{"id":"3","name":"report"}
	]}`
	testFactTypes = `{"data":[
		{"id":"a","name":"sends","relevantObjectBindings":[
			{"sourceObjectType":{"id":"1","name":"person"},"destinationObjectType":{"id":"2","name":"email"},"bidirectionalBinding":false}
		]},
		{"id":"b","name":"mentions","relevantObjectBindings":[
			{"sourceObjectType":{"id":"3","name":"report"},"destinationObjectType":{"id":"1","name":"person"},"bidirectionalBinding":false}
		]},
		{"id":"c","name":"name","relevantObjectBindings":[
			{"sourceObjectType":{"id":"1","name":"person"},"destinationObjectType":null,"bidirectionalBinding":false}
		]}
	]}`
)

// fakeACT serves a small data model and counts requests.
func fakeACT(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/v1/objectType":
			w.Write([]byte(testObjectTypes))
		case "/v1/factType":
			w.Write([]byte(testFactTypes))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

// isolate points every per-user directory at a temporary location.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}
