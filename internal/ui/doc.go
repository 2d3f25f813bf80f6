// Package ui provides folio's terminal user interface.
//
// # Architecture Overview
//
// The UI is a single Bubble Tea model (Model) with one sub-state per view.
// Update never blocks: every network call runs inside a tea.Cmd with its own
// timeout and comes back as a message. Results tagged with a sequence number
// or a room pointer are dropped when they no longer match the current state,
// so a slow response cannot overwrite a newer one.
//
// # Views
//
//   - Library: paginated book list with debounced search, category and sort
//   - Book: details, reviews, favorite toggle, download link, review form
//   - Upload: form for sharing a new book (auth required)
//   - Profile: the user's details, uploads and favorites (auth required)
//   - Community: all discussions; enter joins and opens the room
//   - Discussion: a polled room; the input is only offered to participants
//   - Assistant: conversation with the recommendation proxy
//   - Login: login or register, then resume the view that asked for it
//
// Overlays (help, confirm dialogs, the diagnostics log) take every key until
// closed.
//
// # Session Handling
//
// Views that need a session render a spinner while the stored token is being
// validated and redirect to Login once it is known to be missing. Any request
// rejected with 401 ends the session, closes the open room and returns to
// Login.
//
// # Files
//
//   - app.go: Model, Update/View, navigation and session transitions
//   - library.go, book.go, upload.go, profile.go, community.go, room.go,
//     chat.go, login.go: one file per view
//   - form.go, modal.go, box.go, style_helpers.go: shared widgets
//   - header.go, help.go, logs.go: chrome and overlays
//   - theme.go, keys.go, layout.go: appearance, bindings and sizing
package ui
