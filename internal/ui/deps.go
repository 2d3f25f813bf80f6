package ui

import (
	"context"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/assistant"
	"github.com/five82/folio/internal/session"
)

// Backend is the part of the REST client the views call.
type Backend interface {
	api.Discussions

	ListBooks(ctx context.Context, query api.BookQuery) (api.BookList, error)
	GetBook(ctx context.Context, id string) (*api.Book, error)
	CreateBook(ctx context.Context, input api.BookInput) (*api.Book, error)
	UpdateBook(ctx context.Context, id string, input api.BookInput) (*api.Book, error)
	DeleteBook(ctx context.Context, id string) error
	DownloadBook(ctx context.Context, id string) (api.Download, error)
	ListReviews(ctx context.Context, bookID string) ([]api.Review, error)
	CreateReview(ctx context.Context, input api.ReviewInput) (*api.Review, error)

	ListDiscussions(ctx context.Context) ([]api.Discussion, error)
	GetBookDiscussion(ctx context.Context, bookID string) (*api.Discussion, error)

	Profile(ctx context.Context) (*api.Profile, error)
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) (*api.Profile, error)
	AddFavorite(ctx context.Context, bookID string) error
	RemoveFavorite(ctx context.Context, bookID string) error
	IsFavorite(ctx context.Context, bookID string) bool
}

// Auth is the session as seen by the views.
type Auth interface {
	Bootstrap(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout()
	HandleError(err error) bool
	SetUser(u api.User)

	User() api.User
	Loading() bool
	Authenticated() bool
}

// Recommender answers assistant prompts.
type Recommender interface {
	Recommend(ctx context.Context, history []assistant.Turn, prompt string) (string, error)
}

var (
	_ Backend     = (*api.Client)(nil)
	_ Recommender = (*assistant.Client)(nil)
	_ Auth        = (*session.Session)(nil)
)
