package blog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	kindPost    = "post"
	kindUser    = "user"
	kindComment = "comment"

	// conflictRetries bounds how often a write is retried after badger
	// reports a transaction conflict.
	conflictRetries = 5
)

// Store keeps blog records in badger. Records are JSON values under
// "<kind>/<id>" keys; ids come from a per-kind sequence stored under
// "seq/<kind>" and advanced in the same transaction as the insert.
// Secondary indexes map an author to posts and a post to comments.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens a store in dir, or an in-memory store when dir is empty.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{logger.Sugar()})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	logger.Debug("blog store opened", zap.String("dir", dir), zap.Bool("in_memory", dir == ""))
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "close badger")
}

func recordKey(kind string, id int64) []byte {
	return []byte(fmt.Sprintf("%s/%020d", kind, id))
}

func seqKey(kind string) []byte { return []byte("seq/" + kind) }

func indexPrefix(index string, owner int64) []byte {
	return []byte(fmt.Sprintf("idx/%s/%020d/", index, owner))
}

func indexKey(index string, owner, id int64) []byte {
	return append(indexPrefix(index, owner), fmt.Sprintf("%020d", id)...)
}

const (
	indexPostsByAuthor  = "posts_by_author"
	indexCommentsByPost = "comments_by_post"
)

// update runs fn in a read-write transaction, retrying on conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("badger transaction conflict, retrying", zap.Int("attempt", attempt+1))
	}
	return err
}

func get[T any](txn *badger.Txn, kind string, id int64) (*T, error) {
	item, err := txn.Get(recordKey(kind, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %s %d", kind, id)
	}
	var out T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &out)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s %d", kind, id)
	}
	return &out, nil
}

func put(txn *badger.Txn, kind string, id int64, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s %d", kind, id)
	}
	return errors.Wrapf(txn.Set(recordKey(kind, id), val), "put %s %d", kind, id)
}

// list decodes every record of kind in id order.
func list[T any](txn *badger.Txn, kind string) ([]*T, error) {
	prefix := []byte(kind + "/")
	opt := badger.DefaultIteratorOptions
	opt.Prefix = prefix
	itr := txn.NewIterator(opt)
	defer itr.Close()

	out := []*T{}
	for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
		item := itr.Item()
		var v T
		err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", item.Key())
		}
		out = append(out, &v)
	}
	return out, nil
}

// indexed returns the ids stored under an index prefix, in id order.
func indexed(txn *badger.Txn, index string, owner int64) ([]int64, error) {
	prefix := indexPrefix(index, owner)
	opt := badger.DefaultIteratorOptions
	opt.Prefix = prefix
	opt.PrefetchValues = false
	itr := txn.NewIterator(opt)
	defer itr.Close()

	var ids []int64
	for itr.Seek(prefix); itr.ValidForPrefix(prefix); itr.Next() {
		suffix := strings.TrimPrefix(string(itr.Item().Key()), string(prefix))
		id, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse index key %s", itr.Item().Key())
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// nextID advances the sequence of kind and returns the new value.
func nextID(txn *badger.Txn, kind string) (int64, error) {
	current, err := readSeq(txn, kind)
	if err != nil {
		return 0, err
	}
	next := current + 1
	return next, writeSeq(txn, kind, next)
}

func readSeq(txn *badger.Txn, kind string) (int64, error) {
	item, err := txn.Get(seqKey(kind))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read %s sequence", kind)
	}
	var n int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return errors.Errorf("corrupt %s sequence", kind)
		}
		n = int64(binary.BigEndian.Uint64(val))
		return nil
	})
	return n, err
}

func writeSeq(txn *badger.Txn, kind string, n int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(n))
	return errors.Wrapf(txn.Set(seqKey(kind), buf[:]), "write %s sequence", kind)
}

// bumpSeq raises the sequence of kind to at least n.
func bumpSeq(txn *badger.Txn, kind string, n int64) error {
	current, err := readSeq(txn, kind)
	if err != nil {
		return err
	}
	if n <= current {
		return nil
	}
	return writeSeq(txn, kind, n)
}

func (s *Store) Post(id int64) (p *Post, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		p, err = get[Post](txn, kindPost, id)
		return err
	})
	return p, err
}

func (s *Store) Posts() (posts []*Post, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		posts, err = list[Post](txn, kindPost)
		return err
	})
	return posts, err
}

// PostsByAuthor returns the posts written by the user, oldest first.
func (s *Store) PostsByAuthor(authorID int64) (posts []*Post, err error) {
	posts = []*Post{}
	err = s.db.View(func(txn *badger.Txn) error {
		ids, err := indexed(txn, indexPostsByAuthor, authorID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			p, err := get[Post](txn, kindPost, id)
			if err != nil {
				return err
			}
			if p != nil {
				posts = append(posts, p)
			}
		}
		return nil
	})
	return posts, err
}

// CreatePost stores a new post. authorID 0 means no author; any other value
// must name an existing user.
func (s *Store) CreatePost(title, body string, authorID int64) (*Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &InvalidInputError{Field: "title", Reason: "must not be blank"}
	}
	var p *Post
	err := s.update(func(txn *badger.Txn) error {
		if err := requireExists[User](txn, kindUser, authorID); err != nil {
			return err
		}
		id, err := nextID(txn, kindPost)
		if err != nil {
			return err
		}
		p = &Post{ID: id, Title: title, Body: body, AuthorID: authorID}
		return insertPost(txn, p)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create post")
	}
	s.logger.Debug("post created", zap.Int64("id", p.ID))
	return p, nil
}

func insertPost(txn *badger.Txn, p *Post) error {
	if err := put(txn, kindPost, p.ID, p); err != nil {
		return err
	}
	if p.AuthorID != 0 {
		return errors.Wrap(txn.Set(indexKey(indexPostsByAuthor, p.AuthorID, p.ID), nil), "index post")
	}
	return nil
}

// requireExists fails with NotFoundError unless id is 0 or names a record.
func requireExists[T any](txn *badger.Txn, kind string, id int64) error {
	if id == 0 {
		return nil
	}
	v, err := get[T](txn, kind, id)
	if err != nil {
		return err
	}
	if v == nil {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func (s *Store) User(id int64) (u *User, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		u, err = get[User](txn, kindUser, id)
		return err
	})
	return u, err
}

func (s *Store) Users() (users []*User, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		users, err = list[User](txn, kindUser)
		return err
	})
	return users, err
}

func (s *Store) CreateUser(name, email string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &InvalidInputError{Field: "name", Reason: "must not be blank"}
	}
	var u *User
	err := s.update(func(txn *badger.Txn) error {
		id, err := nextID(txn, kindUser)
		if err != nil {
			return err
		}
		u = &User{ID: id, Name: name, Email: email}
		return put(txn, kindUser, id, u)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create user")
	}
	return u, nil
}

func (s *Store) Comment(id int64) (c *Comment, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		c, err = get[Comment](txn, kindComment, id)
		return err
	})
	return c, err
}

// CommentsByPost returns the comments on a post, oldest first.
func (s *Store) CommentsByPost(postID int64) (comments []*Comment, err error) {
	comments = []*Comment{}
	err = s.db.View(func(txn *badger.Txn) error {
		ids, err := indexed(txn, indexCommentsByPost, postID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			c, err := get[Comment](txn, kindComment, id)
			if err != nil {
				return err
			}
			if c != nil {
				comments = append(comments, c)
			}
		}
		return nil
	})
	return comments, err
}

// CreateComment stores a comment on an existing post.
func (s *Store) CreateComment(in CommentInput) (*Comment, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, &InvalidInputError{Field: "body", Reason: "must not be blank"}
	}
	if in.PostID == 0 {
		return nil, &InvalidInputError{Field: "postId", Reason: "is required"}
	}
	var c *Comment
	err := s.update(func(txn *badger.Txn) error {
		if err := requireExists[Post](txn, kindPost, in.PostID); err != nil {
			return err
		}
		if err := requireExists[User](txn, kindUser, in.AuthorID); err != nil {
			return err
		}
		id, err := nextID(txn, kindComment)
		if err != nil {
			return err
		}
		c = &Comment{ID: id, PostID: in.PostID, AuthorID: in.AuthorID, Body: in.Body}
		return insertComment(txn, c)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "create comment")
	}
	return c, nil
}

func insertComment(txn *badger.Txn, c *Comment) error {
	if err := put(txn, kindComment, c.ID, c); err != nil {
		return err
	}
	return errors.Wrap(txn.Set(indexKey(indexCommentsByPost, c.PostID, c.ID), nil), "index comment")
}

// badgerLogger routes badger's logs through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}
