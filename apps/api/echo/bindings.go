package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
)

const orderingParam = "ordering"

var errUnknownOrdering = errors.New("unknown ordering field")

// Ordering is the `?ordering=-created_at,email` query param: "-" sorts descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the ordering param. `allowed` must be sorted; any other field is a validation error.
func (ord *Ordering) Bind(ctx echo.Context, allowed []string) error {
	raw := ctx.QueryParam(orderingParam)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var unknown []string
	for _, field := range strings.Split(raw, ",") {
		field = core.CleanString(field, true /* lower */)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			continue
		}
		if !core.StringInSlice(field, allowed) {
			unknown = append(unknown, field)
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}

	if len(unknown) > 0 {
		return core.NewValidationError(errUnknownOrdering, core.FieldError{
			Field: orderingParam,
			Error: "Unknown ordering field: " + strings.Join(unknown, ", "),
		})
	}
	return nil
}
