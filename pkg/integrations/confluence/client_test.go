package confluence

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/matzehuels/actgraph/pkg/errors"
)

type upload struct {
	path, file, filename, comment, token string
}

func fakeConfluence(t *testing.T, existing string) (*Client, *[]upload, *string) {
	t.Helper()
	var uploads []upload
	var query string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); !ok || u != "bot" || p != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodGet:
			query = r.URL.Query().Get("filename")
			if existing != "" {
				w.Write([]byte(`{"results":[{"id":"att9","title":"` + existing + `"}]}`))
				return
			}
			w.Write([]byte(`{"results":[]}`))
		case http.MethodPost:
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm() error: %v", err)
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				t.Errorf("FormFile() error: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(f)
			uploads = append(uploads, upload{
				path:     r.URL.Path,
				file:     string(data),
				filename: hdr.Filename,
				comment:  r.FormValue("comment"),
				token:    r.Header.Get("X-Atlassian-Token"),
			})
			if existing != "" {
				w.Write([]byte(`{"id":"att9","title":"` + existing + `"}`))
				return
			}
			w.Write([]byte(`{"results":[{"id":"att1","title":"` + hdr.Filename + `"}]}`))
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Username: "bot", Password: "pw"})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client, &uploads, &query
}

func TestAttachCreates(t *testing.T) {
	client, uploads, query := fakeConfluence(t, "")

	att, err := client.Attach(context.Background(), "12345", "complete.png", []byte("PNG"), "All Double Edged Facts")
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	if att.ID != "att1" {
		t.Errorf("attachment id = %q, want att1", att.ID)
	}
	if *query != "complete.png" {
		t.Errorf("lookup filename = %q", *query)
	}
	if len(*uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(*uploads))
	}
	up := (*uploads)[0]
	if up.path != "/rest/api/content/12345/child/attachment" {
		t.Errorf("upload path = %q", up.path)
	}
	if up.file != "PNG" || up.filename != "complete.png" {
		t.Errorf("upload = %+v", up)
	}
	if up.comment != "All Double Edged Facts" {
		t.Errorf("comment = %q", up.comment)
	}
	if up.token != "no-check" {
		t.Errorf("X-Atlassian-Token = %q, want no-check", up.token)
	}
}

func TestAttachUpdatesExisting(t *testing.T) {
	client, uploads, _ := fakeConfluence(t, "double.png")

	att, err := client.Attach(context.Background(), "12345", "double.png", []byte("v2"), "")
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	if att.ID != "att9" {
		t.Errorf("attachment id = %q, want att9", att.ID)
	}
	if got := (*uploads)[0].path; got != "/rest/api/content/12345/child/attachment/att9/data" {
		t.Errorf("upload path = %q", got)
	}
}

func TestAttachIgnoresOtherTitles(t *testing.T) {
	// Some servers ignore the filename query and list every attachment.
	client, uploads, _ := fakeConfluence(t, "budget.xlsx")

	found, err := client.FindAttachment(context.Background(), "123", "complete.png")
	if err != nil {
		t.Fatalf("FindAttachment() error: %v", err)
	}
	if found != nil {
		t.Errorf("FindAttachment() = %+v, want nil", found)
	}

	if _, err := client.Attach(context.Background(), "123", "complete.png", []byte("PNG"), ""); err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	if len(*uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(*uploads))
	}
	if got := (*uploads)[0].path; got != "/rest/api/content/123/child/attachment" {
		t.Errorf("upload path = %q, want create path", got)
	}
}

func TestAttachValidation(t *testing.T) {
	client, uploads, _ := fakeConfluence(t, "")

	for _, page := range []string{"", "abc", "0"} {
		_, err := client.Attach(context.Background(), page, "x.png", nil, "")
		if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("Attach(page %q) error = %v, want INVALID_INPUT", page, err)
		}
	}
	if _, err := client.Attach(context.Background(), "1", "", nil, ""); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("Attach(empty name) error = %v, want INVALID_INPUT", err)
	}
	if len(*uploads) != 0 {
		t.Errorf("uploads = %d, want 0", len(*uploads))
	}
}

func TestAttachUnauthorized(t *testing.T) {
	client, _, _ := fakeConfluence(t, "")
	client2, err := NewClient(Config{BaseURL: client.BaseURL(), Username: "bot", Password: "wrong"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client2.Attach(context.Background(), "1", "a.png", []byte("x"), "")
	if !apperrors.Is(err, apperrors.ErrCodeUnauthorized) {
		t.Errorf("Attach() error = %v, want UNAUTHORIZED", err)
	}
}

func TestAttachServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Attach(context.Background(), "1", "a.png", []byte("x"), "")
	if !apperrors.Is(err, apperrors.ErrCodePublish) {
		t.Errorf("Attach() error = %v, want PUBLISH_FAILED", err)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.png":  "image/png",
		"a.svg":  "image/svg+xml",
		"a.json": "application/json",
		"a.dot":  "text/plain",
	}
	for name, want := range tests {
		if got := contentType(name); got != want {
			t.Errorf("contentType(%q) = %q, want %q", name, got, want)
		}
	}
}
