package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/savepoint/internal/database"
	"github.com/mdouchement/savepoint/internal/model"
	"github.com/mdouchement/savepoint/pkg/stormsql"
	"github.com/mdouchement/savepoint/pkg/structs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// go run tools/console/main.go savepoint.db " SELECT name, version FROM games WHERE FamilyID = 'f2a98ab0-2c40-42b4-be08-da3b771be935' AND UpdatedAt > '2024-02-16 20:52:55';  "

func main() {
	c := &cobra.Command{
		Use:   "console",
		Short: "SQL console for savepoint database",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			//
			//
			sc, err := stormsql.ParseSelect(args[1])
			if err != nil {
				return err
			}

			//
			//
			fmt.Println("Opening", args[0])
			db, err := storm.Open(args[0], database.StormCodec)
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			//
			// Prepare request
			//

			query := db.Select(sc.Matcher)
			if sc.Skip > 0 {
				query.Skip(sc.Skip)
			}
			if sc.Limit > 0 {
				query.Limit(sc.Limit)
			}
			if len(sc.OrderBy) > 0 {
				query.OrderBy(sc.OrderBy...)
				if sc.OrderByReversed {
					query.Reverse()
				}
			}

			// Execute

			if sc.Count {
				return count(sc, query)
			}

			return list(sc, query)
		},
	}

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func count(sc *stormsql.SelectClause, query storm.Query) error {
	record, err := table(sc.Tablename)
	if err != nil {
		return err
	}

	n, err := query.Count(record)
	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	fmt.Println("Count:", n)

	return nil
}

func list(sc *stormsql.SelectClause, query storm.Query) error {
	record, err := table(sc.Tablename)
	if err != nil {
		return err
	}
	for _, field := range sc.SelectedFields {
		if !structs.HasField(record, field) {
			return errors.Errorf("unknown field %s for table %s", field, sc.Tablename)
		}
	}

	records, err := tableSlice(sc.Tablename)
	if err != nil {
		return err
	}

	err = query.Find(records)
	if err == storm.ErrNotFound {
		fmt.Println("[]")
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	jsondump(project(sc.SelectedFields, records))

	return nil
}

func table(name string) (any, error) {
	switch name {
	case "users":
		return &model.User{}, nil
	case "sessions":
		return &model.Session{}, nil
	case "profiles":
		return &model.Profile{}, nil
	case "games":
		return &model.GameMeta{}, nil
	case "game_hashes":
		return &model.GameHash{}, nil
	case "saves":
		return &model.Save{}, nil
	default:
		return nil, errors.Errorf("unknown tablename: %s", name)
	}
}

func tableSlice(name string) (any, error) {
	switch name {
	case "users":
		return &[]*model.User{}, nil
	case "sessions":
		return &[]*model.Session{}, nil
	case "profiles":
		return &[]*model.Profile{}, nil
	case "games":
		return &[]*model.GameMeta{}, nil
	case "game_hashes":
		return &[]*model.GameHash{}, nil
	case "saves":
		return &[]*model.Save{}, nil
	default:
		return nil, errors.Errorf("unknown tablename: %s", name)
	}
}

// project applies the SELECT field list, `SELECT *` returns records as is.
func project(fields []string, records any) any {
	if len(fields) == 0 {
		return records
	}

	var projected []map[string]any
	each(records, func(record any) {
		row := make(map[string]any, len(fields))
		for _, field := range fields {
			row[field] = structs.GetField(record, field)
		}
		projected = append(projected, row)
	})

	return projected
}

func each(records any, fn func(record any)) {
	switch records := records.(type) {
	case *[]*model.User:
		for _, r := range *records {
			fn(r)
		}
	case *[]*model.Session:
		for _, r := range *records {
			fn(r)
		}
	case *[]*model.Profile:
		for _, r := range *records {
			fn(r)
		}
	case *[]*model.GameMeta:
		for _, r := range *records {
			fn(r)
		}
	case *[]*model.GameHash:
		for _, r := range *records {
			fn(r)
		}
	case *[]*model.Save:
		for _, r := range *records {
			fn(r)
		}
	}
}

func jsondump(v any) {
	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(d))
}
