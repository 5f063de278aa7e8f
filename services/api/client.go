package apisvc

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/core/forms"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	// Query holds the query parameters of a call; blank values are dropped.
	Query map[string]string

	// Envelope is a decoded server response: `{success, message?, ...payload}`.
	Envelope struct {
		Success    bool
		Message    string
		StatusCode int
		fields     map[string]jsoniter.RawMessage
	}

	Option func(*Client)

	// Client talks to the portal's JSON endpoints. Its cookie jar keeps the session
	// cookie so every request is sent with the user's credentials.
	Client struct {
		rest    *rest.Client
		baseURL string
		timeout time.Duration
		logger  core.Logger
	}
)

// WithHTTPClient sends the requests through a copy of hc; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		cp := *hc
		c.rest = &rest.Client{HTTPClient: &cp}
	}
}

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func NewClient(conf *core.Config, logger core.Logger, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	c := &Client{
		rest:    &rest.Client{HTTPClient: &http.Client{Jar: jar}},
		baseURL: conf.BaseURL,
		timeout: conf.RequestTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rest.HTTPClient.Jar == nil {
		c.rest.HTTPClient.Jar = jar
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, query Query) (Envelope, error) {
	return c.Do(ctx, Call{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) PostForm(ctx context.Context, path string, query Query, form *forms.Form) (Envelope, error) {
	return c.Do(ctx, Call{Method: http.MethodPost, Path: path, Query: query, Form: form})
}

// Do sends call and classifies the outcome: a nil error means `success: true`,
// a *core.AppError means the server answered `success: false` and anything
// else is a *core.TransportError.
func (c *Client) Do(ctx context.Context, call Call) (Envelope, error) {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}
	req := rest.Request{
		Method:      rest.Method(method),
		BaseURL:     c.baseURL + call.Path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: call.Query.params(),
	}
	if call.Form != nil {
		body, contentType, err := call.Form.Encode()
		if err != nil {
			return Envelope{}, core.NewTransportError(method, call.Path, 0, errors.Wrap(err, "encoding form"))
		}
		req.Body = body
		req.Headers["Content-Type"] = contentType
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.logger.Error("request failed: "+method+" "+call.Path, err)
		return Envelope{}, core.NewTransportError(method, call.Path, 0, err)
	}

	env, decodeErr := decodeEnvelope(resp.StatusCode, resp.Body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	switch {
	case !ok && (decodeErr != nil || call.StrictStatus):
		c.logger.Error("unexpected status: "+method+" "+call.Path, map[string]interface{}{"status": resp.StatusCode})
		return env, core.NewTransportError(method, call.Path, resp.StatusCode, nil)
	case decodeErr != nil:
		c.logger.Error("undecodable response: "+method+" "+call.Path, decodeErr)
		return env, core.NewTransportError(method, call.Path, resp.StatusCode, decodeErr)
	case !env.Success:
		c.logger.Debug("request unsuccessful: "+method+" "+call.Path, map[string]interface{}{
			"status":  resp.StatusCode,
			"message": env.Message,
		})
		return env, core.NewAppError(env.Message)
	}
	return env, nil
}

func (q Query) params() map[string]string {
	if len(q) == 0 {
		return nil
	}
	params := make(map[string]string, len(q))
	for k, v := range q {
		if v != "" {
			params[k] = v
		}
	}
	return params
}

func decodeEnvelope(status int, body string) (Envelope, error) {
	env := Envelope{StatusCode: status}
	if err := json.UnmarshalFromString(body, &env.fields); err != nil {
		return env, errors.Wrap(err, "decoding response")
	}
	if env.fields == nil {
		return env, errors.New("decoding response: not an object")
	}
	if raw, ok := env.fields["success"]; ok {
		if err := json.Unmarshal(raw, &env.Success); err != nil {
			return env, errors.Wrap(err, "decoding success flag")
		}
	}
	if raw, ok := env.fields["message"]; ok {
		// a non string message is ignored like any other absent one
		_ = json.Unmarshal(raw, &env.Message)
	}
	return env, nil
}

// Has reports whether the payload carries key.
func (env Envelope) Has(key string) bool {
	_, ok := env.fields[key]
	return ok
}

// Raw returns the undecoded value of key.
func (env Envelope) Raw(key string) []byte {
	return env.fields[key]
}

// Decode fills v with the payload value of key; absent or null values leave v untouched.
func (env Envelope) Decode(key string, v interface{}) error {
	raw, ok := env.fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(raw, v), "decoding %q", key)
}

// DecodeAll fills v with the whole response body.
func (env Envelope) DecodeAll(v interface{}) error {
	body, err := json.Marshal(env.fields)
	if err != nil {
		return errors.Wrap(err, "re-encoding response")
	}
	return errors.Wrap(json.Unmarshal(body, v), "decoding response")
}

// String returns the payload value of key when it is a string.
func (env Envelope) String(key string) string {
	var s string
	if err := env.Decode(key, &s); err != nil {
		return ""
	}
	return s
}
