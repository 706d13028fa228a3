// Package client talks to the dating API over HTTP and opens the local
// session database.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/goccy/go-json"
)

// TokenStore keeps the current token pair between requests.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	SaveTokens(ctx context.Context, access, refresh string) error
}

type APIClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

func NewAPIClient(baseURL string, timeout time.Duration, tokens TokenStore) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
}

func jsonRequest(method, path string, v any, auth bool) (request, error) {
	rq := request{method: method, path: path, auth: auth}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return rq, err
		}
		rq.body, rq.contentType = b, "application/json"
	}
	return rq, nil
}

func (c *APIClient) send(ctx context.Context, rq request) (*http.Response, error) {
	var body io.Reader
	if rq.body != nil {
		body = bytes.NewReader(rq.body)
	}
	req, err := http.NewRequestWithContext(ctx, rq.method, c.baseURL+rq.path, body)
	if err != nil {
		return nil, err
	}
	if rq.contentType != "" {
		req.Header.Set("Content-Type", rq.contentType)
	}
	if rq.auth {
		access, _, err := c.tokens.Tokens(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// do sends rq and decodes a JSON answer into out. An authenticated request
// answered with 401 is retried once after refreshing the token pair.
func (c *APIClient) do(ctx context.Context, rq request, out any) (http.Header, error) {
	resp, err := c.send(ctx, rq)
	if err != nil {
		return nil, err
	}

	if rq.auth && resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.send(ctx, rq); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(b, apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	apiErr.StatusCode = resp.StatusCode
	if resp.StatusCode == http.StatusUnauthorized {
		return errors.Join(ErrUnauthorized, apiErr)
	}
	return apiErr
}

func (c *APIClient) refresh(ctx context.Context) error {
	access, refresh, err := c.tokens.Tokens(ctx)
	if err != nil {
		return err
	}
	user, err := c.Refresh(ctx, access, refresh)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	return c.tokens.SaveTokens(ctx, user.Token, user.RefreshToken)
}

func (c *APIClient) session(ctx context.Context, path string, v any) (*User, error) {
	rq, err := jsonRequest(http.MethodPost, path, v, false)
	if err != nil {
		return nil, err
	}
	var u User
	if _, err := c.do(ctx, rq, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *APIClient) Register(ctx context.Context, in RegisterRequest) (*User, error) {
	return c.session(ctx, "/api/account/register", in)
}

func (c *APIClient) Login(ctx context.Context, username, password string) (*User, error) {
	return c.session(ctx, "/api/account/login", map[string]string{"username": username, "password": password})
}

func (c *APIClient) Refresh(ctx context.Context, access, refresh string) (*User, error) {
	return c.session(ctx, "/api/account/refreshToken", map[string]string{"token": access, "refreshToken": refresh})
}

func (c *APIClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/api/health"}, nil)
	return err
}

func (c *APIClient) Member(ctx context.Context, username string) (*Member, error) {
	var m Member
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/users/" + url.PathEscape(username), auth: true}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *APIClient) AddPhoto(ctx context.Context, filename string, data []byte) (*Photo, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	rq := request{
		method:      http.MethodPost,
		path:        "/api/users/add-photo",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
		auth:        true,
	}
	var p Photo
	if _, err := c.do(ctx, rq, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *APIClient) SetMainPhoto(ctx context.Context, id int64) error {
	path := "/api/users/set-main-photo/" + strconv.FormatInt(id, 10)
	_, err := c.do(ctx, request{method: http.MethodPut, path: path, auth: true}, nil)
	return err
}

func (c *APIClient) DeletePhoto(ctx context.Context, id int64) error {
	path := "/api/users/delete-photo/" + strconv.FormatInt(id, 10)
	_, err := c.do(ctx, request{method: http.MethodDelete, path: path, auth: true}, nil)
	return err
}

func (c *APIClient) SendMessage(ctx context.Context, recipient, content string) (*Message, error) {
	rq, err := jsonRequest(http.MethodPost, "/api/messages", map[string]string{
		"recipientUsername": recipient,
		"content":           content,
	}, true)
	if err != nil {
		return nil, err
	}
	var m Message
	if _, err := c.do(ctx, rq, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Messages lists one page of a container (Unread, Inbox or Outbox).
func (c *APIClient) Messages(ctx context.Context, container string, page int) ([]Message, *Pagination, error) {
	q := url.Values{}
	q.Set("container", container)
	q.Set("pageNumber", strconv.Itoa(page))

	var msgs []Message
	hdr, err := c.do(ctx, request{method: http.MethodGet, path: "/api/messages?" + q.Encode(), auth: true}, &msgs)
	if err != nil {
		return nil, nil, err
	}

	var p Pagination
	if v := hdr.Get(common.PaginationHeaderName); v != "" {
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, nil, fmt.Errorf("decode pagination: %w", err)
		}
	}
	return msgs, &p, nil
}

func (c *APIClient) Thread(ctx context.Context, username string) ([]Message, error) {
	var msgs []Message
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/api/messages/thread/" + url.PathEscape(username), auth: true}, &msgs)
	return msgs, err
}
