package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/storage/database"
)

// where accumulates AND-ed conditions written with `?` bindvars.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy renders the orderings whose field is allowed, `fallback` if none is.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, fallback string) string {
	list := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			list = append(list, ord.String())
		}
	}
	if len(list) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(list, ", ")
}

// trapNoRowsErr maps "no rows" to `notFound`.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapUniqueErr maps unique constraint violations to `exists`.
func trapUniqueErr(err error, exists error, msg string) error {
	if database.IsUniqueViolation(err) {
		return exists
	}
	return errors.Wrap(err, msg)
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
