package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// User is the identity attached to sessions, reviews, messages and participants.
// The backend sometimes sends only the user's id; that decodes into a User with
// just ID set.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Bio       string `json:"bio,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts either a user object or a bare id string and coalesces
// "_id" onto ID.
func (u *User) UnmarshalJSON(data []byte) error {
	if id, ok, err := bareID(data); ok || err != nil {
		*u = User{ID: id}
		return err
	}
	type wire User
	var raw struct {
		wire
		AltID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.wire)
	u.ID = coalesceID(u.ID, raw.AltID)
	return nil
}

// Initial returns the upper-cased first rune of the username, or "U".
func (u User) Initial() string {
	name := strings.TrimSpace(u.Username)
	if name == "" {
		return "U"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

// DisplayName returns the username or a placeholder for unknown users.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return "Unknown User"
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (u User) ParsedCreatedAt() time.Time {
	return parseTime(u.CreatedAt)
}

// Profile is the payload of GET /users/profile.
type Profile struct {
	User
	UploadedBooks []Book `json:"uploadedBooks"`
	Favorites     []Book `json:"favorites"`
}

// UnmarshalJSON decodes the embedded user (with id normalization) and the book lists.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return err
	}
	var lists struct {
		UploadedBooks []Book `json:"uploadedBooks"`
		Favorites     []Book `json:"favorites"`
	}
	if err := json.Unmarshal(data, &lists); err != nil {
		return err
	}
	*p = Profile{User: user, UploadedBooks: lists.UploadedBooks, Favorites: lists.Favorites}
	return nil
}

// ProfileUpdate is the body of PUT /users/profile.
type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Book describes a shared book.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Cover       string  `json:"cover"`
	FileURL     string  `json:"fileUrl"`
	Rating      float64 `json:"rating"`
	Votes       int     `json:"votes"`
	Downloads   int     `json:"downloads"`
	UploadedBy  User    `json:"uploadedBy"`
	CreatedAt   string  `json:"createdAt"`
}

// UnmarshalJSON accepts a book object or a bare id string and coalesces "_id".
func (b *Book) UnmarshalJSON(data []byte) error {
	if id, ok, err := bareID(data); ok || err != nil {
		*b = Book{ID: id}
		return err
	}
	type wire Book
	var raw struct {
		wire
		AltID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Book(raw.wire)
	b.ID = coalesceID(b.ID, raw.AltID)
	return nil
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (b Book) ParsedCreatedAt() time.Time {
	return parseTime(b.CreatedAt)
}

// BookList is the payload of GET /books.
type BookList struct {
	Books []Book `json:"books"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Pages int    `json:"pages"`
}

// UnmarshalJSON accepts both the paginated envelope and a bare array.
func (l *BookList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var books []Book
		if err := json.Unmarshal(trimmed, &books); err != nil {
			return err
		}
		*l = BookList{Books: books, Total: len(books), Page: 1, Pages: 1}
		return nil
	}
	type wire BookList
	var raw wire
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*l = BookList(raw)
	return nil
}

// BookInput is the body used to create or update a book. CoverPath and
// FilePath, when set, switch creation to a multipart upload.
type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Cover       string `json:"cover,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`

	CoverPath string `json:"-"`
	FilePath  string `json:"-"`
}

// Download is returned by the download-intent endpoint.
type Download struct {
	FileURL   string `json:"fileUrl"`
	Downloads int    `json:"downloads"`
}

// Review is a rating plus comment left on a book.
type Review struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	User      User   `json:"user"`
	CreatedAt string `json:"createdAt"`
}

// UnmarshalJSON coalesces "_id" and accepts "book" as an alias of "bookId".
func (r *Review) UnmarshalJSON(data []byte) error {
	type wire Review
	var raw struct {
		wire
		AltID string          `json:"_id"`
		Book  json.RawMessage `json:"book"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Review(raw.wire)
	r.ID = coalesceID(r.ID, raw.AltID)
	if r.BookID == "" && len(raw.Book) > 0 {
		var book Book
		if err := json.Unmarshal(raw.Book, &book); err == nil {
			r.BookID = book.ID
		}
	}
	return nil
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (r Review) ParsedCreatedAt() time.Time {
	return parseTime(r.CreatedAt)
}

// ReviewInput is the body of POST /reviews.
type ReviewInput struct {
	BookID  string `json:"bookId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Discussion is the chat room bound to one book.
type Discussion struct {
	ID           string    `json:"id"`
	Book         Book      `json:"book"`
	Participants []User    `json:"participants"`
	Messages     []Message `json:"messages"`
	IsActive     bool      `json:"isActive"`
	LastActivity string    `json:"lastActivity"`
}

// UnmarshalJSON coalesces "_id" onto ID.
func (d *Discussion) UnmarshalJSON(data []byte) error {
	type wire Discussion
	var raw struct {
		wire
		AltID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Discussion(raw.wire)
	d.ID = coalesceID(d.ID, raw.AltID)
	return nil
}

// HasParticipant reports whether userID appears in the participant list.
func (d Discussion) HasParticipant(userID string) bool {
	if strings.TrimSpace(userID) == "" {
		return false
	}
	for _, p := range d.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// ParsedLastActivity returns the parsed LastActivity timestamp.
func (d Discussion) ParsedLastActivity() time.Time {
	return parseTime(d.LastActivity)
}

// Message is one chat line in a discussion.
type Message struct {
	ID        string `json:"id"`
	User      User   `json:"user"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// UnmarshalJSON coalesces "_id" onto ID.
func (m *Message) UnmarshalJSON(data []byte) error {
	type wire Message
	var raw struct {
		wire
		AltID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message(raw.wire)
	m.ID = coalesceID(m.ID, raw.AltID)
	return nil
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (m Message) ParsedCreatedAt() time.Time {
	return parseTime(m.CreatedAt)
}

type favoriteStatus struct {
	IsFavorite bool `json:"isFavorite"`
}

type messageBody struct {
	Content string `json:"content"`
}

type credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func coalesceID(id, alt string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return alt
}

// bareID decodes data as a JSON string when it is one.
func bareID(data []byte) (string, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false, nil
	}
	var id string
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return "", true, err
	}
	return id, true, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
