package blog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	engine "github.com/hanpama/graphcore/internal/engine"
	schema "github.com/hanpama/graphcore/internal/schema"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	s, err := NewSchema(seededStore(t))
	require.NoError(t, err)
	return engine.New(s)
}

func run(t *testing.T, e *engine.Engine, query string, vars map[string]any) string {
	t.Helper()
	res := e.Execute(context.Background(), engine.Request{Query: query, Variables: vars}, nil)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	return string(b)
}

func TestSchema_SDL(t *testing.T) {
	s, err := NewSchema(newStore(t))
	require.NoError(t, err)

	sdl := schema.Render(s)
	require.Contains(t, sdl, "type Query {")
	require.Contains(t, sdl, "  post(id: ID!): Post\n")
	require.Contains(t, sdl, "  createPost(title: String!, body: String!, authorId: ID): Post!\n")
	require.Contains(t, sdl, "input CommentInput {")
	require.Contains(t, sdl, "  comments: [Comment!]!\n")
}

func TestSchema_Queries(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "post by id",
			query: `{ post(id:1){ id title body } }`,
			want:  `{"data":{"post":{"id":"1","title":"My First Post","body":"GraphQL is pretty rad!"}}}`,
		},
		{
			name:  "unknown field",
			query: `{ post(id:1){ id nope } }`,
			want:  `{"errors":[{"message":"Field 'nope' doesn't exist on type 'Post'","path":["post","nope"]}]}`,
		},
		{
			name:  "missing post",
			query: `{ post(id: 404) { id } }`,
			want:  `{"data":{"post":null}}`,
		},
		{
			name:  "cyclic references",
			query: `{ user(id: 1) { name posts { title author { name } } } }`,
			want:  `{"data":{"user":{"name":"Ada","posts":[{"title":"My First Post","author":{"name":"Ada"}},{"title":"Second thoughts","author":{"name":"Ada"}}]}}}`,
		},
		{
			name:  "comments",
			query: `{ post(id: 1) { comments { body author { name email } post { id } } } }`,
			want:  `{"data":{"post":{"comments":[{"body":"Agreed!","author":{"name":"Brian","email":null},"post":{"id":"1"}}]}}}`,
		},
		{
			name:  "users",
			query: `{ users { id email } }`,
			want:  `{"data":{"users":[{"id":"1","email":"ada@example.com"},{"id":"2","email":null}]}}`,
		},
		{
			name:  "invalid id",
			query: `{ post(id: "abc") { id } }`,
			want:  `{"data":{"post":null},"errors":[{"message":"invalid id: \"abc\" is not a valid id","path":["post"],"locations":[{"line":1,"column":3}]}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, run(t, e, tt.query, nil))
		})
	}
}

func TestSchema_CreateThenList(t *testing.T) {
	e := newEngine(t)

	got := run(t, e, `mutation { createPost(title: "Third", body: "Hello", authorId: 2) { id author { name } } }`, nil)
	require.Equal(t, `{"data":{"createPost":{"id":"3","author":{"name":"Brian"}}}}`, got)

	got = run(t, e, `{ posts { id } }`, nil)
	require.Equal(t, `{"data":{"posts":[{"id":"1"},{"id":"2"},{"id":"3"}]}}`, got)
}

func TestSchema_CreatePostFailureIsAnError(t *testing.T) {
	e := newEngine(t)

	got := run(t, e, `mutation { createPost(title: "Lost", body: "x", authorId: 99) { id } }`, nil)

	require.Equal(t, `{"data":null,"errors":[{"message":"create post: user 99 does not exist","path":["createPost"],"locations":[{"line":1,"column":12}]}]}`, got)
	require.Equal(t, `{"data":{"posts":[{"id":"1"},{"id":"2"}]}}`, run(t, e, `{ posts { id } }`, nil))
}

func TestSchema_AddComment(t *testing.T) {
	e := newEngine(t)

	got := run(t, e, `mutation Add($input: CommentInput!) { addComment(input: $input) { id body post { title } } }`,
		map[string]any{"input": map[string]any{"postId": "2", "body": "Nice"}})
	require.Equal(t, `{"data":{"addComment":{"id":"2","body":"Nice","post":{"title":"Second thoughts"}}}}`, got)

	got = run(t, e, `{ post(id: 2) { comments { body author { name } } } }`, nil)
	require.Equal(t, `{"data":{"post":{"comments":[{"body":"Nice","author":null}]}}}`, got)
}
