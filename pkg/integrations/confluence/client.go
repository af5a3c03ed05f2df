package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"time"

	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/integrations"
	"github.com/matzehuels/actgraph/pkg/observability"
)

// Config holds the connection settings for a Confluence site.
type Config struct {
	BaseURL  string
	Username string
	Password string
	CACert   string
	Timeout  time.Duration
}

// Attachment is the subset of the attachment resource actgraph uses.
type Attachment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Client uploads attachments to Confluence pages.
type Client struct {
	*integrations.Client
}

// NewClient creates a client for the Confluence site described by cfg.
func NewClient(cfg Config) (*Client, error) {
	c, err := integrations.NewClient(cfg.BaseURL, integrations.Options{
		Timeout:  cfg.Timeout,
		Username: cfg.Username,
		Password: cfg.Password,
		CACert:   cfg.CACert,
		NoProxy:  true,
		Headers: map[string]string{
			"Accept":            "application/json",
			"X-Atlassian-Token": "no-check",
		},
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: c}, nil
}

type attachmentList struct {
	Results []Attachment `json:"results"`
}

// FindAttachment returns the attachment called name on the page, or nil.
func (c *Client) FindAttachment(ctx context.Context, pageID, name string) (*Attachment, error) {
	q := url.Values{"filename": {name}}
	var list attachmentList
	if err := c.Get(ctx, attachmentsPath(pageID)+"?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	for _, a := range list.Results {
		if a.Title == name {
			return &a, nil
		}
	}
	return nil, nil
}

// Attach uploads data as the attachment name on page pageID, replacing the
// content of an existing attachment with that name. Errors are reported with
// code PUBLISH_FAILED unless the server rejected the credentials.
func (c *Client) Attach(ctx context.Context, pageID, name string, data []byte, comment string) (*Attachment, error) {
	att, err := c.attach(ctx, pageID, name, data, comment)
	observability.Pipeline().OnPublishComplete(ctx, pageID, name, err)
	return att, err
}

func (c *Client) attach(ctx context.Context, pageID, name string, data []byte, comment string) (*Attachment, error) {
	if err := apperrors.ValidatePageID(pageID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "attachment name cannot be empty")
	}

	existing, err := c.FindAttachment(ctx, pageID, name)
	if err != nil {
		return nil, publishError(err, pageID, name)
	}

	target := attachmentsPath(pageID)
	if existing != nil {
		target += "/" + url.PathEscape(existing.ID) + "/data"
	}

	body, contentType, err := multipartBody(name, data, comment)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "encode %s", name)
	}

	resp, err := c.Do(ctx, http.MethodPost, target, body, map[string]string{"Content-Type": contentType})
	if err != nil {
		return nil, publishError(err, pageID, name)
	}
	defer resp.Body.Close()

	return decodeAttachment(resp.Body, name)
}

// decodeAttachment accepts both the list returned on create and the single
// resource returned on update.
func decodeAttachment(r io.Reader, name string) (*Attachment, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodePublish, err, "read upload response")
	}
	var list attachmentList
	if json.Unmarshal(raw, &list) == nil && len(list.Results) > 0 {
		return &list.Results[0], nil
	}
	var single Attachment
	if json.Unmarshal(raw, &single) == nil && single.ID != "" {
		return &single, nil
	}
	return &Attachment{Title: name}, nil
}

func multipartBody(name string, data []byte, comment string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": name,
	}))
	h.Set("Content-Type", contentType(name))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if comment != "" {
		if err := w.WriteField("comment", comment); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("minorEdit", "true"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".json":
		return "application/json"
	default:
		return "text/plain"
	}
}

func attachmentsPath(pageID string) string {
	return "/rest/api/content/" + url.PathEscape(pageID) + "/child/attachment"
}

func publishError(err error, pageID, name string) error {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeForbidden:
		return err
	}
	return apperrors.Wrap(apperrors.ErrCodePublish, err, "attach %s to page %s", name, pageID)
}
