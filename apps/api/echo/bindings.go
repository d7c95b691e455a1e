package echoapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: camelToSnake(field), Ascending: !descending})
	}
}

// camelToSnake maps API field names (updatedAt) to column names (updated_at).
func camelToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// idParams reads the named path parameters, failing with one field error per malformed id.
func idParams(ctx echo.Context, names ...string) (map[string]string, error) {
	ids := make(map[string]string, len(names))
	var flds []core.FieldError
	for _, name := range names {
		id := strings.ToLower(ctx.Param(name))
		if !core.IsObjectID(id) {
			flds = append(flds, core.FieldError{Field: name, Error: name + " must be a 24 characters hexadecimal identifier"})
			continue
		}
		ids[name] = id
	}
	if len(flds) > 0 {
		return nil, core.NewValidationError(nil, flds...)
	}
	return ids, nil
}

// requestBinder is the echo.Binder of the API. Requests without a body bind path and query parameters
// like echo.DefaultBinder. JSON bodies are decoded on their own and unknown fields are rejected,
// so a path or query value never lands in a body struct.
type requestBinder struct {
	echo.DefaultBinder
}

func (b *requestBinder) Bind(i interface{}, ctx echo.Context) error {
	req := ctx.Request()
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return b.DefaultBinder.Bind(i, ctx)
	}
	if req.ContentLength == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is empty")
	}
	if !strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return echo.ErrUnsupportedMediaType
	}
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
