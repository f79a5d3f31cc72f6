// Package blog is the data layer behind the example blog schema: posts,
// users and comments kept in badger, and the GraphQL schema that exposes
// them.
package blog

import "fmt"

type Post struct {
	ID       int64  `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Body     string `json:"body" yaml:"body"`
	AuthorID int64  `json:"authorId,omitempty" yaml:"authorId,omitempty"`
}

type User struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

type Comment struct {
	ID       int64  `json:"id" yaml:"id"`
	PostID   int64  `json:"postId" yaml:"postId"`
	AuthorID int64  `json:"authorId,omitempty" yaml:"authorId,omitempty"`
	Body     string `json:"body" yaml:"body"`
}

// CommentInput is what addComment needs to create a comment.
type CommentInput struct {
	PostID   int64
	AuthorID int64
	Body     string
}

// NotFoundError reports a reference to a record that does not exist.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Kind, e.ID)
}

// InvalidInputError reports a value a write cannot accept.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
