package act

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/actgraph/pkg/datamodel"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/integrations"
	"github.com/matzehuels/actgraph/pkg/observability"
)

const (
	objectTypePath = "/v1/objectType"
	factTypePath   = "/v1/factType"
	originPath     = "/v1/origin"
)

// DefaultUserID is the default of the --uid flag. Config.UserID is sent as
// given, including 0.
const DefaultUserID = 1

// Config holds the connection settings for an ACT instance.
type Config struct {
	BaseURL  string
	UserID   int
	Username string // HTTP basic auth, optional
	Password string
	CACert   string // PEM file, optional
	Timeout  time.Duration
}

// Client talks to an ACT instance.
type Client struct {
	*integrations.Client
}

// NewClient creates a client for the instance described by cfg.
func NewClient(cfg Config) (*Client, error) {
	c, err := integrations.NewClient(cfg.BaseURL, integrations.Options{
		Timeout:  cfg.Timeout,
		Username: cfg.Username,
		Password: cfg.Password,
		CACert:   cfg.CACert,
		Headers: map[string]string{
			"ACT-User-ID": strconv.Itoa(cfg.UserID),
			"Accept":      "application/json",
		},
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: c}, nil
}

// FetchObjectTypes lists every object type of the instance.
func (c *Client) FetchObjectTypes(ctx context.Context) ([]datamodel.ObjectType, error) {
	var out []datamodel.ObjectType
	err := c.GetFunc(ctx, objectTypePath, func(r io.Reader) (err error) {
		out, err = datamodel.DecodeObjectTypes(r)
		return err
	})
	return out, err
}

// FetchFactTypes lists every fact type of the instance.
func (c *Client) FetchFactTypes(ctx context.Context) ([]datamodel.FactType, error) {
	var out []datamodel.FactType
	err := c.GetFunc(ctx, factTypePath, func(r io.Reader) (err error) {
		out, err = datamodel.DecodeFactTypes(r)
		return err
	})
	return out, err
}

// FetchSchema downloads the object types and then the fact types. Either
// request failing fails the whole fetch.
func (c *Client) FetchSchema(ctx context.Context) (datamodel.Schema, error) {
	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, c.BaseURL())
	start := time.Now()

	schema, err := c.fetchSchema(ctx)
	hooks.OnFetchComplete(ctx, c.BaseURL(), len(schema.ObjectTypes), len(schema.FactTypes), time.Since(start), err)
	return schema, err
}

func (c *Client) fetchSchema(ctx context.Context) (datamodel.Schema, error) {
	objects, err := c.FetchObjectTypes(ctx)
	if err != nil {
		return datamodel.Schema{}, err
	}
	facts, err := c.FetchFactTypes(ctx)
	if err != nil {
		return datamodel.Schema{}, err
	}
	return datamodel.Schema{ObjectTypes: objects, FactTypes: facts}, nil
}

// ListOrigins lists the origins registered with the instance.
func (c *Client) ListOrigins(ctx context.Context) ([]datamodel.Origin, error) {
	var out []datamodel.Origin
	err := c.GetFunc(ctx, originPath, func(r io.Reader) (err error) {
		out, err = datamodel.DecodeOrigins(r)
		return err
	})
	return out, err
}

// AddOrigin registers a new origin and returns it as stored by the platform.
// Trust must lie in [0, 1]; Organization, when set, must be a UUID.
func (c *Client) AddOrigin(ctx context.Context, o datamodel.Origin) (datamodel.Origin, error) {
	if o.Name == "" {
		return datamodel.Origin{}, apperrors.New(apperrors.ErrCodeInvalidInput, "origin name cannot be empty")
	}
	if err := apperrors.ValidateTrust(o.Trust); err != nil {
		return datamodel.Origin{}, err
	}
	if o.Organization != "" {
		if err := apperrors.ValidateUUID(o.Organization); err != nil {
			return datamodel.Origin{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "organization must be a valid UUID")
		}
	}

	req := originRequest{
		Name:         o.Name,
		Description:  o.Description,
		Trust:        o.Trust,
		Organization: o.Organization,
	}
	var resp struct {
		Data *datamodel.Origin `json:"data"`
	}
	if err := c.PostJSON(ctx, originPath, req, &resp); err != nil {
		return datamodel.Origin{}, err
	}
	if resp.Data == nil {
		return o, nil
	}
	return *resp.Data, nil
}

// DeleteOrigin removes the origin with the given id.
func (c *Client) DeleteOrigin(ctx context.Context, id string) error {
	if err := apperrors.ValidateUUID(id); err != nil {
		return err
	}
	return c.Delete(ctx, originPath+"/uuid/"+url.PathEscape(id))
}

type originRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Trust        float64 `json:"trust"`
	Organization string  `json:"organization,omitempty"`
}
