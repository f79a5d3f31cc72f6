package blog

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := newStore(t)
	data, err := LoadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)
	require.NoError(t, s.Seed(data))
	return s
}

func TestStore_NotFoundIsNil(t *testing.T) {
	s := newStore(t)

	p, err := s.Post(1)
	require.NoError(t, err)
	require.Nil(t, p)

	u, err := s.User(1)
	require.NoError(t, err)
	require.Nil(t, u)

	posts, err := s.Posts()
	require.NoError(t, err)
	require.Empty(t, posts)
	require.NotNil(t, posts)
}

func TestStore_CreatePostAllocatesSequentialIDs(t *testing.T) {
	s := newStore(t)

	first, err := s.CreatePost("one", "body", 0)
	require.NoError(t, err)
	second, err := s.CreatePost("two", "body", 0)
	require.NoError(t, err)

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)

	got, err := s.Post(2)
	require.NoError(t, err)
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_CreatePostConcurrent(t *testing.T) {
	s := newStore(t)

	const n = 20
	var wg sync.WaitGroup
	ids := make([]int64, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.CreatePost("title", "body", 0)
			errs[i] = err
			if p != nil {
				ids[i] = p.ID
			}
		}()
	}
	wg.Wait()

	seen := map[int64]bool{}
	created := 0
	for i := range ids {
		if errs[i] != nil {
			continue
		}
		require.False(t, seen[ids[i]], "duplicate id %d", ids[i])
		seen[ids[i]] = true
		created++
	}
	posts, err := s.Posts()
	require.NoError(t, err)
	require.Len(t, posts, created)
}

func TestStore_CreatePostRejectsBadInput(t *testing.T) {
	s := newStore(t)

	_, err := s.CreatePost("  ", "body", 0)
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "title", invalid.Field)

	_, err = s.CreatePost("title", "body", 42)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "create post: user 42 does not exist", err.Error())

	posts, err := s.Posts()
	require.NoError(t, err)
	require.Empty(t, posts, "failed writes must not leave records behind")
}

func TestStore_Seed(t *testing.T) {
	s := seededStore(t)

	posts, err := s.Posts()
	require.NoError(t, err)
	want := []*Post{
		{ID: 1, Title: "My First Post", Body: "GraphQL is pretty rad!", AuthorID: 1},
		{ID: 2, Title: "Second thoughts", Body: "Still rad.", AuthorID: 1},
	}
	if diff := cmp.Diff(want, posts); diff != "" {
		t.Fatalf("posts mismatch (-want +got):\n%s", diff)
	}

	byAuthor, err := s.PostsByAuthor(1)
	require.NoError(t, err)
	require.Len(t, byAuthor, 2)
	none, err := s.PostsByAuthor(2)
	require.NoError(t, err)
	require.Empty(t, none)

	comments, err := s.CommentsByPost(1)
	require.NoError(t, err)
	require.Equal(t, []*Comment{{ID: 1, PostID: 1, AuthorID: 2, Body: "Agreed!"}}, comments)

	// Sequences continue after the seeded ids.
	p, err := s.CreatePost("third", "body", 2)
	require.NoError(t, err)
	require.Equal(t, int64(3), p.ID)
	byAuthor, err = s.PostsByAuthor(2)
	require.NoError(t, err)
	require.Equal(t, []*Post{p}, byAuthor)
}

func TestStore_SeedDanglingReferenceAborts(t *testing.T) {
	s := newStore(t)

	err := s.Seed(&SeedData{
		Users: []User{{ID: 1, Name: "Ada"}},
		Posts: []Post{{Title: "orphan", AuthorID: 7}},
	})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	u, err := s.User(1)
	require.NoError(t, err)
	require.Nil(t, u, "seed must be all or nothing")
}

func TestStore_CreateComment(t *testing.T) {
	s := seededStore(t)

	c, err := s.CreateComment(CommentInput{PostID: 2, Body: "First!"})
	require.NoError(t, err)
	require.Equal(t, int64(2), c.ID)

	comments, err := s.CommentsByPost(2)
	require.NoError(t, err)
	require.Equal(t, []*Comment{c}, comments)

	_, err = s.CreateComment(CommentInput{PostID: 99, Body: "hello"})
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	require.Equal(t, NotFoundError{Kind: "post", ID: 99}, *notFound)

	_, err = s.CreateComment(CommentInput{PostID: 1})
	var invalid *InvalidInputError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadSeed(t *testing.T) {
	data, err := LoadSeed(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, data.Posts)

	_, err = LoadSeed(strings.NewReader("posts:\n  - title: x\n    colour: red\n"))
	require.Error(t, err)

	data, err = LoadSeed(strings.NewReader("users:\n  - name: Ada\n"))
	require.NoError(t, err)
	require.Equal(t, []User{{Name: "Ada"}}, data.Users)
}
