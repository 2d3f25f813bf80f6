package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/app"
	"github.com/five82/folio/internal/assistant"
)

const commandTimeout = 30 * time.Second

// openEnv builds the client stack for a one-shot subcommand and routes the
// standard logger to folio's log file.
func openEnv(flags *rootFlags) (*app.Env, io.Closer, error) {
	env, err := app.Open(flags.options())
	if err != nil {
		return nil, nil, err
	}
	logFile, err := app.LogToFile(env.Config)
	if err != nil {
		return nil, nil, err
	}
	return env, logFile, nil
}

func newLoginCommand(flags *rootFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd.OutOrStdout(), "Password: ")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := env.Session.Login(ctx, email, password); err != nil {
				return fmt.Errorf("login: %s", api.Reason(err, err.Error()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", env.Session.User().DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newRegisterCommand(flags *rootFlags) *cobra.Command {
	var email, username string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				if username, err = prompt(cmd.OutOrStdout(), in, "Username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
					return err
				}
			}
			password, err := readPassword(cmd.OutOrStdout(), "Password: ")
			if err != nil {
				return err
			}
			if len(password) < 6 {
				return errors.New("password must be at least 6 characters")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := env.Session.Register(ctx, username, email, password); err != nil {
				return fmt.Errorf("register: %s", api.Reason(err, err.Error()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", env.Session.User().DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&username, "username", "u", "", "display name")
	return cmd
}

func newLogoutCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()
			env.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Validate the saved session and print the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := env.Session.Bootstrap(ctx); err != nil {
				return err
			}
			if !env.Session.Authenticated() {
				return errors.New("not logged in")
			}
			u := env.Session.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.DisplayName(), u.Email)
			if exp := env.Session.ExpiresAt(); !exp.IsZero() {
				fmt.Fprintf(out, "session expires %s\n", exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func newBooksCommand(flags *rootFlags) *cobra.Command {
	var query api.BookQuery
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List library books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			list, err := env.Client.ListBooks(ctx, query)
			if err != nil {
				return fmt.Errorf("list books: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tRATING")
			for _, b := range list.Books {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f (%d)\n", b.ID, b.Title, b.Author, b.Category, b.Rating, b.Votes)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if list.Pages > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d books\n", list.Page, list.Pages, list.Total)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&query.Search, "search", "s", "", "title or author contains")
	f.StringVarP(&query.Category, "category", "c", "", "category filter")
	f.StringVar(&query.Sort, "sort", "-createdAt", "sort order")
	f.IntVar(&query.Page, "page", 1, "page number")
	f.IntVar(&query.Limit, "limit", 20, "books per page")
	return cmd
}

func newUploadCommand(flags *rootFlags) *cobra.Command {
	var input api.BookInput
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Share a book with the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.Title == "" || input.Author == "" || input.Category == "" || input.Description == "" {
				return errors.New("--title, --author, --category and --description are required")
			}
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()

			input.Cover, input.CoverPath = splitSource(input.Cover)
			input.FileURL, input.FilePath = splitSource(input.FileURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := env.Session.Bootstrap(ctx); err != nil {
				return err
			}
			if !env.Session.Authenticated() {
				return errors.New("not logged in; run folio login first")
			}
			book, err := env.Client.CreateBook(ctx, input)
			if err != nil {
				return fmt.Errorf("upload: %s", api.Reason(err, err.Error()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %q (%s)\n", book.Title, book.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&input.Title, "title", "", "book title")
	f.StringVar(&input.Author, "author", "", "author name")
	f.StringVar(&input.Category, "category", "", "library category")
	f.StringVar(&input.Description, "description", "", "short description")
	f.StringVar(&input.Cover, "cover", "", "cover image URL or local file")
	f.StringVar(&input.FileURL, "file", "", "book URL or local file")
	return cmd
}

func newEditCommand(flags *rootFlags) *cobra.Command {
	var input api.BookInput
	cmd := &cobra.Command{
		Use:   "edit <book-id>",
		Short: "Change the details of a book you uploaded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logFile, err := openEnv(flags)
			if err != nil {
				return err
			}
			defer logFile.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()
			if err := env.Session.Bootstrap(ctx); err != nil {
				return err
			}
			if !env.Session.Authenticated() {
				return errors.New("not logged in; run folio login first")
			}
			current, err := env.Client.GetBook(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load book: %s", api.Reason(err, err.Error()))
			}
			if self := env.Session.User().ID; self == "" || current.UploadedBy.ID != self {
				return errors.New("only the uploader can edit this book")
			}
			update := editedBook(*current, input, cmd.Flags().Changed)
			book, err := env.Client.UpdateBook(ctx, current.ID, update)
			if err != nil {
				return fmt.Errorf("edit: %s", api.Reason(err, err.Error()))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q (%s)\n", book.Title, book.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&input.Title, "title", "", "new title")
	f.StringVar(&input.Author, "author", "", "new author")
	f.StringVar(&input.Category, "category", "", "new category")
	f.StringVar(&input.Description, "description", "", "new description")
	f.StringVar(&input.Cover, "cover", "", "new cover image URL or local file")
	f.StringVar(&input.FileURL, "file", "", "new book URL or local file")
	return cmd
}

// editedBook starts from the stored book and applies the flags the user set.
func editedBook(current api.Book, flagged api.BookInput, changed func(name string) bool) api.BookInput {
	input := api.BookInput{
		Title:       current.Title,
		Author:      current.Author,
		Category:    current.Category,
		Description: current.Description,
		Cover:       current.Cover,
		FileURL:     current.FileURL,
	}
	if changed("title") {
		input.Title = flagged.Title
	}
	if changed("author") {
		input.Author = flagged.Author
	}
	if changed("category") {
		input.Category = flagged.Category
	}
	if changed("description") {
		input.Description = flagged.Description
	}
	if changed("cover") {
		input.Cover, input.CoverPath = splitSource(flagged.Cover)
	}
	if changed("file") {
		input.FileURL, input.FilePath = splitSource(flagged.FileURL)
	}
	return input
}

func newAssistantProxyCommand(flags *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "assistant-proxy",
		Short: "Serve the recommendation proxy that holds the model API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := app.Open(flags.options())
			if err != nil {
				return err
			}
			cfg := env.Config.Assistant
			key := env.Config.AssistantKey()
			if key == "" {
				return fmt.Errorf("set %s to the model API key", cfg.APIKeyEnv)
			}
			if listen == "" {
				listen = cfg.Listen
			}
			log.SetOutput(cmd.ErrOrStderr())
			proxy := assistant.NewProxy(assistant.ProxyConfig{
				Upstream: cfg.Upstream,
				Model:    cfg.Model,
				APIKey:   key,
			})
			return proxy.ListenAndServe(cmd.Context(), listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "bind address (default from config)")
	return cmd
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// splitSource returns value as a URL, or as a path when it names a file on
// disk.
func splitSource(value string) (url, path string) {
	if value == "" || strings.Contains(value, "://") {
		return value, ""
	}
	if info, err := os.Stat(value); err == nil && info.Mode().IsRegular() {
		return "", value
	}
	return value, ""
}
