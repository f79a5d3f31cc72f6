package blog

import (
	"io"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedData is the content of a seed file:
//
//	users:
//	  - {id: 1, name: Ada, email: ada@example.com}
//	posts:
//	  - {id: 1, title: My First Post, body: GraphQL is pretty rad!, authorId: 1}
//	comments:
//	  - {postId: 1, authorId: 1, body: Nice}
//
// Records without an id get the next free one.
type SeedData struct {
	Users    []User    `yaml:"users"`
	Posts    []Post    `yaml:"posts"`
	Comments []Comment `yaml:"comments"`
}

// LoadSeed decodes seed data from YAML. Unknown keys are rejected. An empty
// document yields empty seed data.
func LoadSeed(r io.Reader) (*SeedData, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var data SeedData
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode seed")
	}
	return &data, nil
}

// LoadSeedFile reads seed data from a YAML file.
func LoadSeedFile(path string) (*SeedData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer f.Close()
	return LoadSeed(f)
}

// Seed writes all records in one transaction. Users are written first, then
// posts, then comments, so references may point at records in the same
// seed. A dangling reference aborts the whole seed. Records whose id is
// already taken are replaced.
func (s *Store) Seed(data *SeedData) error {
	err := s.update(func(txn *badger.Txn) error {
		for i := range data.Users {
			u := data.Users[i]
			if err := assignID(txn, kindUser, &u.ID); err != nil {
				return err
			}
			if err := put(txn, kindUser, u.ID, &u); err != nil {
				return err
			}
		}
		for i := range data.Posts {
			p := data.Posts[i]
			if err := requireExists[User](txn, kindUser, p.AuthorID); err != nil {
				return err
			}
			if err := assignID(txn, kindPost, &p.ID); err != nil {
				return err
			}
			if err := insertPost(txn, &p); err != nil {
				return err
			}
		}
		for i := range data.Comments {
			c := data.Comments[i]
			if err := requireExists[Post](txn, kindPost, c.PostID); err != nil {
				return err
			}
			if err := requireExists[User](txn, kindUser, c.AuthorID); err != nil {
				return err
			}
			if err := assignID(txn, kindComment, &c.ID); err != nil {
				return err
			}
			if err := insertComment(txn, &c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.WithMessage(err, "seed")
	}
	s.logger.Info("blog store seeded",
		zap.Int("users", len(data.Users)),
		zap.Int("posts", len(data.Posts)),
		zap.Int("comments", len(data.Comments)),
	)
	return nil
}

// assignID allocates an id when *id is 0, and otherwise moves the sequence
// past the given one.
func assignID(txn *badger.Txn, kind string, id *int64) error {
	if *id == 0 {
		next, err := nextID(txn, kind)
		if err != nil {
			return err
		}
		*id = next
		return nil
	}
	if *id < 0 {
		return &InvalidInputError{Field: kind + " id", Reason: "must be positive"}
	}
	return bumpSeq(txn, kind, *id)
}
