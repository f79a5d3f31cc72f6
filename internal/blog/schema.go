package blog

import (
	"context"
	"strconv"

	schema "github.com/hanpama/graphcore/internal/schema"
)

var (
	idType     = schema.NamedType("ID")
	stringType = schema.NamedType("String")
	postType   = schema.NamedType("Post")
	userType   = schema.NamedType("User")
)

func nonNull(t *schema.TypeRef) *schema.TypeRef { return schema.NonNullType(t) }

func listOf(t *schema.TypeRef) *schema.TypeRef { return nonNull(schema.ListType(nonNull(t))) }

// NewSchema builds the blog schema with resolvers backed by store.
func NewSchema(store *Store) (*schema.Schema, error) {
	r := &resolvers{store: store}
	reg := schema.NewRegistry()

	// Post, User and Comment refer to each other.
	for _, name := range []string{"Post", "User", "Comment"} {
		if err := reg.Declare(name); err != nil {
			return nil, err
		}
	}

	types := []*schema.Type{
		schema.NewObject("Query", "Entry points for reading the blog.").
			AddField(schema.NewField("post", "Looks up a post by id.", postType).
				AddArgument(schema.NewInputValue("id", "", nonNull(idType))).
				SetResolver(r.post)).
			AddField(schema.NewField("posts", "All posts, oldest first.", listOf(postType)).
				SetResolver(r.posts)).
			AddField(schema.NewField("user", "Looks up a user by id.", userType).
				AddArgument(schema.NewInputValue("id", "", nonNull(idType))).
				SetResolver(r.user)).
			AddField(schema.NewField("users", "All users.", listOf(userType)).
				SetResolver(r.users)),

		schema.NewObject("Mutation", "").
			AddField(schema.NewField("createPost", "Publishes a new post.", nonNull(postType)).
				AddArgument(schema.NewInputValue("title", "", nonNull(stringType))).
				AddArgument(schema.NewInputValue("body", "", nonNull(stringType))).
				AddArgument(schema.NewInputValue("authorId", "", idType)).
				SetResolver(r.createPost)).
			AddField(schema.NewField("addComment", "", nonNull(schema.NamedType("Comment"))).
				AddArgument(schema.NewInputValue("input", "", nonNull(schema.NamedType("CommentInput")))).
				SetResolver(r.addComment)),

		schema.NewObject("Post", "A blog post.").
			AddField(schema.NewField("id", "", nonNull(idType))).
			AddField(schema.NewField("title", "", nonNull(stringType))).
			AddField(schema.NewField("body", "", nonNull(stringType))).
			AddField(schema.NewField("author", "", userType).SetResolver(r.postAuthor)).
			AddField(schema.NewField("comments", "", listOf(schema.NamedType("Comment"))).SetResolver(r.postComments)),

		schema.NewObject("User", "").
			AddField(schema.NewField("id", "", nonNull(idType))).
			AddField(schema.NewField("name", "", nonNull(stringType))).
			AddField(schema.NewField("email", "", stringType).SetResolver(r.userEmail)).
			AddField(schema.NewField("posts", "", listOf(postType)).SetResolver(r.userPosts)),

		schema.NewObject("Comment", "").
			AddField(schema.NewField("id", "", nonNull(idType))).
			AddField(schema.NewField("body", "", nonNull(stringType))).
			AddField(schema.NewField("author", "", userType).SetResolver(r.commentAuthor)).
			AddField(schema.NewField("post", "", postType).SetResolver(r.commentPost)),

		schema.NewInputObject("CommentInput", "").
			AddInputField(schema.NewInputValue("postId", "", nonNull(idType))).
			AddInputField(schema.NewInputValue("authorId", "", idType)).
			AddInputField(schema.NewInputValue("body", "", nonNull(stringType))),
	}
	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return schema.Build(reg, "Query", "Mutation")
}

type resolvers struct {
	store *Store
}

// parseID converts a coerced ID argument to a record id. Absent and null
// values are 0.
func parseID(field string, v any) (int64, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, &InvalidInputError{Field: field, Reason: strconv.Quote(s) + " is not a valid id"}
	}
	return id, nil
}

// nilIfMissing keeps a typed nil pointer from reaching the executor as a
// non-nil interface.
func nilIfMissing[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

func (r *resolvers) post(_ context.Context, _ any, args map[string]any) (any, error) {
	id, err := parseID("id", args["id"])
	if err != nil {
		return nil, err
	}
	return nilIfMissing(r.store.Post(id))
}

func (r *resolvers) posts(context.Context, any, map[string]any) (any, error) {
	return r.store.Posts()
}

func (r *resolvers) user(_ context.Context, _ any, args map[string]any) (any, error) {
	id, err := parseID("id", args["id"])
	if err != nil {
		return nil, err
	}
	return nilIfMissing(r.store.User(id))
}

func (r *resolvers) users(context.Context, any, map[string]any) (any, error) {
	return r.store.Users()
}

func (r *resolvers) createPost(_ context.Context, _ any, args map[string]any) (any, error) {
	authorID, err := parseID("authorId", args["authorId"])
	if err != nil {
		return nil, err
	}
	title, _ := args["title"].(string)
	body, _ := args["body"].(string)
	return nilIfMissing(r.store.CreatePost(title, body, authorID))
}

func (r *resolvers) addComment(_ context.Context, _ any, args map[string]any) (any, error) {
	input, _ := args["input"].(map[string]any)
	postID, err := parseID("postId", input["postId"])
	if err != nil {
		return nil, err
	}
	authorID, err := parseID("authorId", input["authorId"])
	if err != nil {
		return nil, err
	}
	body, _ := input["body"].(string)
	return nilIfMissing(r.store.CreateComment(CommentInput{PostID: postID, AuthorID: authorID, Body: body}))
}

func (r *resolvers) postAuthor(_ context.Context, src any, _ map[string]any) (any, error) {
	p := src.(*Post)
	if p.AuthorID == 0 {
		return nil, nil
	}
	return nilIfMissing(r.store.User(p.AuthorID))
}

func (r *resolvers) postComments(_ context.Context, src any, _ map[string]any) (any, error) {
	return r.store.CommentsByPost(src.(*Post).ID)
}

func (r *resolvers) userEmail(_ context.Context, src any, _ map[string]any) (any, error) {
	if email := src.(*User).Email; email != "" {
		return email, nil
	}
	return nil, nil
}

func (r *resolvers) userPosts(_ context.Context, src any, _ map[string]any) (any, error) {
	return r.store.PostsByAuthor(src.(*User).ID)
}

func (r *resolvers) commentAuthor(_ context.Context, src any, _ map[string]any) (any, error) {
	c := src.(*Comment)
	if c.AuthorID == 0 {
		return nil, nil
	}
	return nilIfMissing(r.store.User(c.AuthorID))
}

func (r *resolvers) commentPost(_ context.Context, src any, _ map[string]any) (any, error) {
	return nilIfMissing(r.store.Post(src.(*Comment).PostID))
}
