package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/pkg/stormcbor"
	"github.com/pkg/errors"
)

const maxInsertRetries = 4

// StormCodec is the marshaling format of the database records.
var StormCodec = storm.Codec(stormcbor.Codec)

type strm struct {
	db *storm.DB
	n  storm.Node
	tx bool
}

// StormOpen returns a new Storm database client.
func StormOpen(path string) (Client, error) {
	db, err := storm.Open(path, StormCodec)
	return &strm{db: db, n: db}, errors.Wrap(err, "could not open database")
}

// StormInit initializes the database's indexes for the given path.
func StormInit(path string) error {
	db, err := storm.Open(path, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not open database")
	}
	defer db.Close()

	for _, entity := range entities() {
		if err := db.Init(entity); err != nil {
			return errors.Wrap(err, "could not initialize index")
		}
	}
	return nil
}

// StormReIndex rebuilds the database's indexes for the given path.
func StormReIndex(path string) error {
	db, err := storm.Open(path, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not open database")
	}
	defer db.Close()

	for _, entity := range entities() {
		if err := db.ReIndex(entity); err != nil {
			return errors.Wrap(err, "could not re-index")
		}
	}
	return nil
}

func entities() []any {
	return []any{
		&model.User{},
		&model.Session{},
		&model.Profile{},
		&model.GameMeta{},
		&model.GameHash{},
		&model.Save{},
	}
}

func (c *strm) Close() error {
	if c.tx {
		return errors.New("close inside a transaction")
	}
	return c.db.Close()
}

func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

func (c *strm) IsConflict(err error) bool {
	return errors.Cause(err) == storm.ErrAlreadyExists
}

func (c *strm) WithTransaction(fn func(tx Client) error) error {
	if c.tx {
		return fn(c)
	}

	node, err := c.n.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}

	if err = fn(&strm{db: c.db, n: node, tx: true}); err != nil {
		_ = node.Rollback()
		return err
	}
	return errors.Wrap(node.Commit(), "could not commit transaction")
}

func (c *strm) node() storm.Node {
	return c.n
}

func (c *strm) write(fn func(node storm.Node) error) error {
	if c.tx {
		return fn(c.n)
	}
	return c.WithTransaction(func(tx Client) error {
		return fn(tx.node())
	})
}

// Get returns the record with the given identifier.
// It returns a nil record when none matches.
func (r *Repository[T, R]) Get(id string) (R, error) {
	record := R(new(T))

	err := r.c.node().One("ID", id, record)
	if r.c.IsNotFound(err) {
		return nil, nil
	}
	return record, errors.Wrap(err, "could not get record")
}

// First returns the first record matching the given matchers.
// It returns a nil record when none matches.
func (r *Repository[T, R]) First(matchers ...q.Matcher) (R, error) {
	record := R(new(T))

	err := r.c.node().Select(matchers...).First(record)
	if r.c.IsNotFound(err) {
		return nil, nil
	}
	return record, errors.Wrap(err, "could not get record")
}

// Fetch returns all the records matching the given matchers.
func (r *Repository[T, R]) Fetch(matchers ...q.Matcher) ([]R, error) {
	var records []R

	err := r.c.node().Select(matchers...).OrderBy("ID").Find(&records)
	if r.c.IsNotFound(err) {
		return []R{}, nil
	}
	return records, errors.Wrap(err, "could not fetch records")
}

// FetchPaged returns the page of records designated by page, ordered by the
// page's sort fields with the identifier as tiebreak. The ordering is total
// so consecutive pages never overlap nor skip a record.
func (r *Repository[T, R]) FetchPaged(page PageInfo, matchers ...q.Matcher) ([]R, error) {
	var records []R

	query := r.c.node().Select(matchers...).OrderBy(page.OrderBy()...)
	if !page.Ascending {
		query = query.Reverse()
	}

	err := query.Skip(page.Page * page.PerPage).Limit(page.PerPage).Find(&records)
	if r.c.IsNotFound(err) {
		return []R{}, nil
	}
	return records, errors.Wrap(err, "could not fetch records")
}

// Count returns the number of records matching the given matchers.
func (r *Repository[T, R]) Count(matchers ...q.Matcher) (int, error) {
	n, err := r.c.node().Select(matchers...).Count(new(T))
	return n, errors.Wrap(err, "could not count records")
}

// Insert stores a new record. A missing identifier is generated, timestamps
// are stamped, and a colliding identifier or unique index yields a conflict.
func (r *Repository[T, R]) Insert(record R) error {
	return r.c.write(func(node storm.Node) error {
		stamp(record)

		if record.GetID() != "" {
			err := node.One("ID", record.GetID(), R(new(T)))
			if err == nil {
				return errors.Wrap(storm.ErrAlreadyExists, "could not insert record")
			}
			if errors.Cause(err) != storm.ErrNotFound {
				return errors.Wrap(err, "could not insert record")
			}
		}

		return errors.Wrap(node.Save(record), "could not insert record")
	})
}

// InsertWithRetry behaves like Insert but regenerates the identifier on
// collision. Useful when the identifier was generated server-side and a
// collision carries no meaning for the caller.
func (r *Repository[T, R]) InsertWithRetry(record R) error {
	var err error
	for i := 0; i <= maxInsertRetries; i++ {
		if err = r.Insert(record); !r.c.IsConflict(err) {
			return err
		}
		record.SetID(uuid.Must(uuid.NewV4()).String())
	}
	return err
}

// Update replaces the stored record and bumps its updated timestamp.
// Updating an absent record is a silent no-op.
func (r *Repository[T, R]) Update(record R) error {
	return r.c.write(func(node storm.Node) error {
		err := node.One("ID", record.GetID(), R(new(T)))
		if errors.Cause(err) == storm.ErrNotFound {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "could not update record")
		}

		record.SetUpdatedAt(time.Now())
		return errors.Wrap(node.Save(record), "could not update record")
	})
}

// UpdateField updates a single field of the record with the given identifier
// and bumps its updated timestamp. Updating an absent record is a silent
// no-op.
func (r *Repository[T, R]) UpdateField(id, field string, value any) error {
	return r.c.write(func(node storm.Node) error {
		record := R(new(T))
		record.SetID(id)

		err := node.UpdateField(record, field, value)
		if errors.Cause(err) == storm.ErrNotFound {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "could not update record")
		}

		now := time.Now()
		return errors.Wrap(node.UpdateField(record, "UpdatedAt", &now), "could not update record")
	})
}

// UpdateFieldAll updates a single field of every record matching the given
// matchers and returns the number of affected records.
func (r *Repository[T, R]) UpdateFieldAll(field string, value any, matchers ...q.Matcher) (int, error) {
	var n int

	err := r.c.write(func(node storm.Node) error {
		var records []R
		err := node.Select(matchers...).Find(&records)
		if errors.Cause(err) == storm.ErrNotFound {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "could not fetch records")
		}

		now := time.Now()
		for _, record := range records {
			patch := R(new(T))
			patch.SetID(record.GetID())
			if err := node.UpdateField(patch, field, value); err != nil {
				return errors.Wrap(err, "could not update record")
			}
			if err := node.UpdateField(patch, "UpdatedAt", &now); err != nil {
				return errors.Wrap(err, "could not update record")
			}
			n++
		}
		return nil
	})
	return n, err
}

// Upsert stores the record, replacing any existing record with the same
// identifier. A missing identifier is generated and timestamps are stamped.
func (r *Repository[T, R]) Upsert(record R) error {
	return r.c.write(func(node storm.Node) error {
		stamp(record)

		record.SetUpdatedAt(time.Now())
		return errors.Wrap(node.Save(record), "could not upsert record")
	})
}

// Delete removes the record with the given identifier.
// Deleting an absent record is a silent no-op.
func (r *Repository[T, R]) Delete(id string) error {
	return r.c.write(func(node storm.Node) error {
		record := R(new(T))
		record.SetID(id)

		err := node.DeleteStruct(record)
		if errors.Cause(err) == storm.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "could not delete record")
	})
}

// DeleteAll removes every record matching the given matchers.
func (r *Repository[T, R]) DeleteAll(matchers ...q.Matcher) error {
	return r.c.write(func(node storm.Node) error {
		err := node.Select(matchers...).Delete(new(T))
		if errors.Cause(err) == storm.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "could not delete records")
	})
}

// stamp fills the identifier and timestamps of a record about to be stored.
func stamp(record model.Model) {
	if record.GetID() == "" {
		record.SetID(uuid.Must(uuid.NewV4()).String())
	}

	now := time.Now()
	if record.GetCreatedAt() == nil {
		record.SetCreatedAt(now)
	}
	if record.GetUpdatedAt() == nil {
		record.SetUpdatedAt(now)
	}
}
