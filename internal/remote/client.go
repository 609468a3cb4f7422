// Package remote talks to the spreadsheet-backed task endpoint.
//
// Every call is a GET against a single URL with the action and its
// parameters in the query string. Responses are a JSON envelope:
// { success, task?, tasks?, error? }.
package remote

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Makepad-fr/taskboard/internal/model"
)

// ErrRemote is wrapped by every failure: transport errors, non-2xx answers,
// malformed payloads and explicit error envelopes all look the same to callers.
var ErrRemote = errors.New("remote operation failed")

// CacheBusterParam is attached to every request so intermediaries never serve a stale answer.
const CacheBusterParam = "_t"

const (
	ActionList   = "list"
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

//go:embed response.schema.json
var responseSchemaJSON string

var responseSchema = jsonschema.MustCompileString("response.schema.json", responseSchemaJSON)

// Result is the decoded response envelope.
type Result struct {
	Success *bool        `json:"success"`
	Task    *model.Task  `json:"task"`
	Tasks   []model.Task `json:"tasks"`
	Error   string       `json:"error"`
}

// Failed reports whether the server itself said the call did not go through.
func (r Result) Failed() bool {
	return r.Error != "" || (r.Success != nil && !*r.Success)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport. The default client has no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client issues actions against the remote endpoint.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	log      *log.Logger
	seq      atomic.Uint64
	now      func() time.Time
}

// New builds a client for the endpoint at rawURL.
func New(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse api url: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		endpoint: u,
		http:     &http.Client{},
		log:      log.New(io.Discard),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Call runs one action and returns the decoded envelope.
func (c *Client) Call(ctx context.Context, action string, params map[string]string) (Result, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set(CacheBusterParam, c.cacheBuster())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrRemote, action, err)
	}
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("remote call failed", "action", action, "err", err)
		return Result{}, fmt.Errorf("%w: %s: %w", ErrRemote, action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: read body: %w", ErrRemote, action, err)
	}
	c.log.Debug("remote call", "action", action, "status", resp.StatusCode, "took", c.now().Sub(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: %s: http %d", ErrRemote, action, resp.StatusCode)
	}
	res, err := decode(body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrRemote, action, err)
	}
	if res.Failed() {
		msg := res.Error
		if msg == "" {
			msg = "success=false"
		}
		return res, fmt.Errorf("%w: %s: %s", ErrRemote, action, msg)
	}
	return res, nil
}

// List fetches every task.
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	res, err := c.Call(ctx, ActionList, nil)
	if err != nil {
		return nil, err
	}
	if res.Tasks == nil {
		return nil, fmt.Errorf("%w: %s: response has no tasks", ErrRemote, ActionList)
	}
	for _, t := range res.Tasks {
		if t.CreatedAt.Unparsed() || t.UpdatedAt.Unparsed() {
			c.log.Warn("unreadable timestamp", "id", t.ID, "createdAt", t.CreatedAt.Raw, "updatedAt", t.UpdatedAt.Raw)
		}
	}
	return res.Tasks, nil
}

// Add creates a task and returns the server's copy (with its id).
func (c *Client) Add(ctx context.Context, f model.Fields) (model.Task, error) {
	res, err := c.Call(ctx, ActionAdd, map[string]string{
		"title":       f.Title,
		"description": f.Description,
		"assignee":    string(f.Assignee),
		"priority":    string(f.Priority),
		"status":      string(f.Status),
	})
	if err != nil {
		return model.Task{}, err
	}
	if res.Task == nil || res.Task.ID == "" {
		return model.Task{}, fmt.Errorf("%w: %s: response has no task", ErrRemote, ActionAdd)
	}
	return *res.Task, nil
}

// Update sends the id and the changed fields.
func (c *Client) Update(ctx context.Context, id model.ID, p model.Patch) error {
	params := p.Values()
	params["id"] = id.String()
	_, err := c.Call(ctx, ActionUpdate, params)
	return err
}

func (c *Client) Delete(ctx context.Context, id model.ID) error {
	_, err := c.Call(ctx, ActionDelete, map[string]string{"id": id.String()})
	return err
}

func (c *Client) cacheBuster() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + strconv.FormatUint(c.seq.Add(1), 10)
}

func decode(body []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Result{}, fmt.Errorf("json decode: %w", err)
	}
	if err := responseSchema.Validate(raw); err != nil {
		return Result{}, fmt.Errorf("unexpected payload: %w", err)
	}
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Result{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return res, nil
}
