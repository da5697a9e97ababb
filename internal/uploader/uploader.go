// Package uploader implements the client side of the presigned upload
// workflow: classify the file, obtain an upload grant, PUT the binary
// straight to object storage, register the metadata, then attach the
// resulting file to its entity as a material.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"materialapi/internal/fileclass"
	"materialapi/internal/model"
)

// State tracks where a single upload chain currently stands. Each chain owns
// its own state; concurrent chains never share one.
type State string

const (
	StateIdle     State = "IDLE"
	StateGranted  State = "GRANTED"
	StateUploaded State = "UPLOADED"
	StateNotified State = "NOTIFIED"
	StateLinked   State = "LINKED"
	StateFailed   State = "FAILED"
)

// Stage names the step of the chain an error belongs to.
type Stage string

const (
	StageGrant  Stage = "grant"
	StageUpload Stage = "upload"
	StageNotify Stage = "notify"
	StageLink   Stage = "link"
)

// Session carries the caller's identity. It is passed in explicitly rather
// than read from ambient process state so two clients can act as two users.
type Session struct {
	UserID string
	Cookie *http.Cookie
}

// Target identifies who owns the file and which entity the material attaches to.
type Target struct {
	OwnerID    string
	OwnerType  model.OwnerType
	EntityKind model.EntityKind
	EntityID   string
}

// File is an in-memory payload queued for upload.
type File struct {
	Name     string
	MIMEType string
	Content  []byte
}

// Result is the outcome of one upload chain.
type Result struct {
	Name     string
	State    State
	Stage    Stage // set only when State is FAILED
	Material *model.Material
	Err      error
}

const (
	defaultConcurrency     = 4
	defaultDownloadTimeout = 2 * time.Minute
)

// Client drives upload and download chains against a material backend.
type Client struct {
	baseURL         string
	http            *http.Client
	session         Session
	logger          *log.Logger
	concurrency     int
	downloadTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConcurrency bounds how many upload chains UploadAll runs at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger replaces the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithDownloadTimeout sets the wall-clock limit for a single download.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.downloadTimeout = d
		}
	}
}

// New returns a Client for the backend at baseURL acting as the given session.
func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		session:         session,
		logger:          log.Default(),
		concurrency:     defaultConcurrency,
		downloadTimeout: defaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload runs the full chain for one file and returns the linked material.
// The chain halts at the first failure; nothing is retried and no partial
// state is rolled back (an orphaned storage object is acceptable, a material
// row pointing at a missing binary is not).
func (c *Client) Upload(ctx context.Context, target Target, f File) (*model.Material, error) {
	res := c.upload(ctx, target, f)
	return res.Material, res.Err
}

func (c *Client) upload(ctx context.Context, target Target, f File) Result {
	res := Result{Name: f.Name, State: StateIdle}

	category := fileclass.Classify(f.MIMEType, f.Name)

	grant, err := c.requestGrant(ctx, f.Name, target)
	if err != nil {
		res.State, res.Stage, res.Err = StateFailed, StageGrant, err
		return res
	}
	res.State = StateGranted

	if err := c.putBinary(ctx, grant.UploadURL, f); err != nil {
		res.State, res.Stage, res.Err = StateFailed, StageUpload, err
		return res
	}
	res.State = StateUploaded

	width, height := probeDimensions(category, f.Content)

	fileID, err := c.notifyComplete(ctx, grant.StorageKey, f, category, width, height, target)
	if err != nil {
		res.State, res.Stage, res.Err = StateFailed, StageNotify, err
		return res
	}
	res.State = StateNotified

	material, err := c.linkMaterial(ctx, target, fileID, grant.StorageKey, f, category)
	if err != nil {
		res.State, res.Stage, res.Err = StateFailed, StageLink, err
		return res
	}
	res.State, res.Material = StateLinked, material
	return res
}

// UploadAll runs one chain per file with bounded concurrency. Chains are
// independent: one failing does not stop the others, and results come back
// in input order regardless of completion order.
func (c *Client) UploadAll(ctx context.Context, target Target, files []File) []Result {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = c.upload(ctx, target, f)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // per-chain errors live in results
	return results
}

func (c *Client) requestGrant(ctx context.Context, fileName string, target Target) (*model.UploadGrant, error) {
	q := url.Values{}
	q.Set("ownerId", target.OwnerID)
	q.Set("memberType", string(target.OwnerType))
	q.Set("userId", c.session.UserID)
	endpoint := fmt.Sprintf("%s/api/v2/file/upload/%s?%s", c.baseURL, url.PathEscape(fileName), q.Encode())

	status, body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Printf("upload grant request failed: url=%s err=%v", endpoint, err)
		return nil, &UploadGrantError{Err: err}
	}
	if status != http.StatusOK {
		c.logger.Printf("upload grant rejected: url=%s status=%d body=%s", endpoint, status, body)
		return nil, &UploadGrantError{Status: status, Body: string(body)}
	}

	var resp struct {
		Data model.UploadGrant `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &UploadGrantError{Status: status, Err: fmt.Errorf("decode grant: %w", err)}
	}
	if resp.Data.UploadURL == "" || resp.Data.StorageKey == "" {
		c.logger.Printf("upload grant incomplete: url=%s body=%s", endpoint, body)
		return nil, &UploadGrantError{Status: status, Err: fmt.Errorf("grant missing url or key")}
	}
	return &resp.Data, nil
}

// putBinary sends the file straight to object storage. The presigned URL is
// the credential, so the session cookie is deliberately not attached.
func (c *Client) putBinary(ctx context.Context, presignedURL string, f File) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(f.Content))
	if err != nil {
		return &StorageUploadError{Err: err}
	}
	if f.MIMEType != "" {
		req.Header.Set("Content-Type", f.MIMEType)
	}
	req.ContentLength = int64(len(f.Content))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("storage upload failed: url=%s err=%v", presignedURL, err)
		return &StorageUploadError{Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Printf("storage upload rejected: url=%s status=%d", presignedURL, resp.StatusCode)
		return &StorageUploadError{Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) notifyComplete(ctx context.Context, key string, f File, category model.Category, width, height int, target Target) (string, error) {
	payload := map[string]any{
		"key":       key,
		"name":      f.Name,
		"size":      len(f.Content),
		"type":      category,
		"width":     width,
		"height":    height,
		"duration":  0,
		"index":     0,
		"active":    true,
		"ownerId":   target.OwnerID,
		"ownerType": target.OwnerType,
	}
	if fileclass.HasThumbnail(f.Name) {
		payload["thumbnailKey"] = key
	}

	endpoint := c.baseURL + "/api/v2/file/upload/complete"
	status, body, err := c.doJSON(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		c.logger.Printf("upload completion failed: url=%s err=%v", endpoint, err)
		return "", &UploadCompletionError{Err: err}
	}
	if status != http.StatusCreated && status != http.StatusOK {
		c.logger.Printf("upload completion rejected: url=%s status=%d body=%s", endpoint, status, body)
		return "", &UploadCompletionError{Status: status, Body: string(body)}
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &UploadCompletionError{Status: status, Err: fmt.Errorf("decode completion: %w", err)}
	}
	return resp.Data.ID, nil
}

func (c *Client) linkMaterial(ctx context.Context, target Target, fileID, key string, f File, category model.Category) (*model.Material, error) {
	payload := map[string]any{
		"fileId":    fileID,
		"fileKey":   key,
		"title":     f.Name,
		"fileName":  f.Name,
		"fileSize":  len(f.Content),
		"fileType":  category,
		"ownerId":   target.OwnerID,
		"ownerType": target.OwnerType,
	}
	if fileclass.HasThumbnail(f.Name) {
		payload["thumbnailUrl"] = c.thumbnailURL(key)
	}

	endpoint := fmt.Sprintf("%s/api/v2/%s/%s/materials", c.baseURL, target.EntityKind, url.PathEscape(target.EntityID))
	status, body, err := c.doJSON(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		c.logger.Printf("material link failed: url=%s err=%v", endpoint, err)
		return nil, &MaterialLinkError{Err: err}
	}
	if status != http.StatusCreated && status != http.StatusOK {
		c.logger.Printf("material link rejected: url=%s status=%d body=%s payload=%v", endpoint, status, body, payload)
		return nil, &MaterialLinkError{Status: status, Body: string(body)}
	}

	var material model.Material
	if err := json.Unmarshal(body, &material); err != nil {
		return nil, &MaterialLinkError{Status: status, Err: fmt.Errorf("decode material: %w", err)}
	}
	return &material, nil
}

// ListMaterials fetches the materials attached to the target's entity. Any
// failure degrades to an empty collection so the surrounding view renders.
func (c *Client) ListMaterials(ctx context.Context, target Target) []model.Material {
	endpoint := fmt.Sprintf("%s/api/v2/%s/%s/materials", c.baseURL, target.EntityKind, url.PathEscape(target.EntityID))
	status, body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil || status != http.StatusOK {
		c.logger.Printf("material list unavailable: url=%s status=%d err=%v", endpoint, status, err)
		return []model.Material{}
	}

	var resp struct {
		Items []model.Material `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Printf("material list undecodable: url=%s err=%v", endpoint, err)
		return []model.Material{}
	}
	if resp.Items == nil {
		return []model.Material{}
	}
	return resp.Items
}

// DeleteMaterial removes one material from the target's entity.
func (c *Client) DeleteMaterial(ctx context.Context, target Target, materialID string) error {
	endpoint := fmt.Sprintf("%s/api/v2/%s/%s/materials/%s",
		c.baseURL, target.EntityKind, url.PathEscape(target.EntityID), url.PathEscape(materialID))
	status, body, err := c.doJSON(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	switch {
	case status == http.StatusNoContent || status == http.StatusOK:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	}
	return fmt.Errorf("delete material: backend returned %d: %s", status, body)
}

// thumbnailURL derives the address a thumbnail renders from: the public
// download endpoint with the storage key appended.
func (c *Client) thumbnailURL(key string) string {
	return c.baseURL + "/api/v2/file/download/" + key
}

// doJSON performs an authenticated backend request and returns the status
// and raw body. Transport errors come back as errors; HTTP error statuses
// do not, since each stage maps them to its own error type.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Cookie != nil {
		req.AddCookie(c.session.Cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}
