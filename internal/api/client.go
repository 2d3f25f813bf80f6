package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Credentials supplies the bearer token attached to outgoing requests.
// An empty token sends the request anonymously.
type Credentials interface {
	Token() string
}

// Discussions is the subset of the API the discussion room needs.
type Discussions interface {
	GetDiscussion(ctx context.Context, id string) (*Discussion, error)
	JoinDiscussion(ctx context.Context, bookID string) (*Discussion, error)
	SendMessage(ctx context.Context, discussionID, content string) (*Discussion, error)
	DeleteMessage(ctx context.Context, discussionID, messageID string) (*Discussion, error)
}

// Ensure Client implements Discussions at compile time.
var _ Discussions = (*Client)(nil)

// Client talks to the book-sharing REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	creds     Credentials
}

// Version is reported in the User-Agent header.
const Version = "0.1.0"

const (
	defaultBaseURL = "http://localhost:5000/api"
	requestTimeout = 10 * time.Second
)

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: "folio/" + Version,
	}, nil
}

// SetCredentials installs the token source used for every later request.
func (c *Client) SetCredentials(creds Credentials) {
	c.creds = creds
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// BookQuery filters GET /books. Empty fields are omitted.
type BookQuery struct {
	Search   string
	Category string // "all" is treated as no filter
	Sort     string
	Limit    int
	Page     int
}

// Values encodes the query parameters.
func (q BookQuery) Values() url.Values {
	values := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("search", s)
	}
	if cat := strings.TrimSpace(q.Category); cat != "" && !strings.EqualFold(cat, "all") {
		values.Set("category", cat)
	}
	if s := strings.TrimSpace(q.Sort); s != "" {
		values.Set("sort", s)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// ListBooks retrieves books matching query.
func (c *Client) ListBooks(ctx context.Context, query BookQuery) (BookList, error) {
	var payload BookList
	rel := &url.URL{Path: "books", RawQuery: query.Values().Encode()}
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return BookList{}, err
	}
	return payload, nil
}

// GetBook retrieves a single book.
func (c *Client) GetBook(ctx context.Context, id string) (*Book, error) {
	if err := requireID("book", id); err != nil {
		return nil, err
	}
	var payload Book
	if err := c.do(ctx, http.MethodGet, join("books", id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateBook uploads a new book. When the input names local files the request
// is sent as multipart/form-data.
func (c *Client) CreateBook(ctx context.Context, input BookInput) (*Book, error) {
	return c.writeBook(ctx, http.MethodPost, "books", input)
}

// UpdateBook replaces the editable fields of a book the caller uploaded. Local
// cover and file paths are sent as multipart/form-data, as in CreateBook.
func (c *Client) UpdateBook(ctx context.Context, id string, input BookInput) (*Book, error) {
	if err := requireID("book", id); err != nil {
		return nil, err
	}
	return c.writeBook(ctx, http.MethodPut, join("books", id), input)
}

func (c *Client) writeBook(ctx context.Context, method, path string, input BookInput) (*Book, error) {
	var payload Book
	if input.CoverPath == "" && input.FilePath == "" {
		if err := c.do(ctx, method, path, input, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	body, contentType, err := multipartBook(input)
	if err != nil {
		return nil, err
	}
	if err := c.send(ctx, method, rel, body, contentType, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id string) error {
	if err := requireID("book", id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, join("books", id), nil, nil)
}

// DownloadBook records a download intent and returns the file location.
func (c *Client) DownloadBook(ctx context.Context, id string) (Download, error) {
	if err := requireID("book", id); err != nil {
		return Download{}, err
	}
	var payload Download
	if err := c.do(ctx, http.MethodPost, join("books", id, "download"), nil, &payload); err != nil {
		return Download{}, err
	}
	return payload, nil
}

// ListReviews retrieves the reviews for a book.
func (c *Client) ListReviews(ctx context.Context, bookID string) ([]Review, error) {
	if err := requireID("book", bookID); err != nil {
		return nil, err
	}
	var payload []Review
	if err := c.do(ctx, http.MethodGet, join("reviews", "book", bookID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CreateReview posts a review.
func (c *Client) CreateReview(ctx context.Context, input ReviewInput) (*Review, error) {
	if err := requireID("book", input.BookID); err != nil {
		return nil, err
	}
	var payload Review
	if err := c.do(ctx, http.MethodPost, "reviews", input, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListDiscussions retrieves every discussion.
func (c *Client) ListDiscussions(ctx context.Context) ([]Discussion, error) {
	var payload []Discussion
	if err := c.do(ctx, http.MethodGet, "discussions", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetDiscussion retrieves a discussion by id. The discussion-returning
// methods below give nil, nil when the server answers without a body.
func (c *Client) GetDiscussion(ctx context.Context, id string) (*Discussion, error) {
	if err := requireID("discussion", id); err != nil {
		return nil, err
	}
	var payload Discussion
	if err := c.do(ctx, http.MethodGet, join("discussions", id), nil, &payload); err != nil {
		return nil, err
	}
	return discussionOrNil(payload), nil
}

// GetBookDiscussion retrieves the discussion bound to a book.
func (c *Client) GetBookDiscussion(ctx context.Context, bookID string) (*Discussion, error) {
	if err := requireID("book", bookID); err != nil {
		return nil, err
	}
	var payload Discussion
	if err := c.do(ctx, http.MethodGet, join("discussions", "book", bookID), nil, &payload); err != nil {
		return nil, err
	}
	return discussionOrNil(payload), nil
}

// JoinDiscussion adds the current user to the book's discussion.
func (c *Client) JoinDiscussion(ctx context.Context, bookID string) (*Discussion, error) {
	if err := requireID("book", bookID); err != nil {
		return nil, err
	}
	var payload Discussion
	if err := c.do(ctx, http.MethodPost, join("discussions", "book", bookID), nil, &payload); err != nil {
		return nil, err
	}
	return discussionOrNil(payload), nil
}

// SendMessage appends a message and returns the updated discussion.
func (c *Client) SendMessage(ctx context.Context, discussionID, content string) (*Discussion, error) {
	if err := requireID("discussion", discussionID); err != nil {
		return nil, err
	}
	var payload Discussion
	if err := c.do(ctx, http.MethodPost, join("discussions", discussionID, "messages"), messageBody{Content: content}, &payload); err != nil {
		return nil, err
	}
	return discussionOrNil(payload), nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, discussionID, messageID string) (*Discussion, error) {
	if err := requireID("discussion", discussionID); err != nil {
		return nil, err
	}
	if err := requireID("message", messageID); err != nil {
		return nil, err
	}
	var payload Discussion
	if err := c.do(ctx, http.MethodDelete, join("discussions", discussionID, "messages", messageID), nil, &payload); err != nil {
		return nil, err
	}
	return discussionOrNil(payload), nil
}

// discussionOrNil maps an empty payload to nil so callers keep the state they
// have instead of storing a blank discussion.
func discussionOrNil(d Discussion) *Discussion {
	if d.ID == "" {
		return nil
	}
	return &d
}

// Profile retrieves the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var payload Profile
	if err := c.do(ctx, http.MethodGet, "users/profile", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateProfile edits the authenticated user's profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var payload Profile
	if err := c.do(ctx, http.MethodPut, "users/profile", update, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AddFavorite marks a book as favorite.
func (c *Client) AddFavorite(ctx context.Context, bookID string) error {
	if err := requireID("book", bookID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, join("users", "favorites", bookID), nil, nil)
}

// RemoveFavorite unmarks a favorite book.
func (c *Client) RemoveFavorite(ctx context.Context, bookID string) error {
	if err := requireID("book", bookID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, join("users", "favorites", bookID), nil, nil)
}

// IsFavorite reports whether the book is a favorite. Any failure, including
// an anonymous session, reads as false.
func (c *Client) IsFavorite(ctx context.Context, bookID string) bool {
	if requireID("book", bookID) != nil {
		return false
	}
	var payload favoriteStatus
	if err := c.do(ctx, http.MethodGet, join("users", "favorites", bookID, "check"), nil, &payload); err != nil {
		return false
	}
	return payload.IsFavorite
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var payload AuthResponse
	if err := c.do(ctx, http.MethodPost, "auth/login", credentials{Email: email, Password: password}, &payload); err != nil {
		return nil, err
	}
	if payload.Token == "" {
		return nil, fmt.Errorf("login response missing token")
	}
	return &payload, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	var payload AuthResponse
	body := credentials{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "auth/register", body, &payload); err != nil {
		return nil, err
	}
	if payload.Token == "" {
		return nil, fmt.Errorf("register response missing token")
	}
	return &payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if body == nil {
		return c.send(ctx, method, rel, nil, "", dest)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.send(ctx, method, rel, bytes.NewReader(encoded), "application/json", dest)
}

func (c *Client) send(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &Error{
			Method:     method,
			Path:       "/" + strings.TrimPrefix(rel.Path, "/"),
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(raw),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func multipartBook(input BookInput) (io.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"title", input.Title},
		{"author", input.Author},
		{"category", input.Category},
		{"description", input.Description},
		{"cover", input.Cover},
		{"fileUrl", input.FileURL},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := form.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	files := []struct{ field, path string }{
		{"cover", input.CoverPath},
		{"file", input.FilePath},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if err := attachFile(form, f.field, f.path); err != nil {
			return nil, "", err
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, form.FormDataContentType(), nil
}

func attachFile(form *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer file.Close()

	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	return nil
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s id required", kind)
	}
	return nil
}

// join builds an escaped relative path from its segments.
func join(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.Join(escaped, "/")
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	// Relative references resolve under the base path only with a trailing slash.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}
