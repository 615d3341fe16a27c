package handlers

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/juho05/melodeon/handlers/responses"
)

const maxListSize = 500

type UrlQuery struct {
	values         url.Values
	responseWriter http.ResponseWriter
}

func getQuery(w http.ResponseWriter, r *http.Request) UrlQuery {
	return UrlQuery{
		values:         r.URL.Query(),
		responseWriter: w,
	}
}

func (q UrlQuery) Has(key string) bool {
	return q.values.Has(key)
}

func (q UrlQuery) Str(key string) string {
	return q.values.Get(key)
}

func (q UrlQuery) StrReq(name string) (string, bool) {
	v := q.Str(name)
	if v == "" {
		q.missingParameter(name)
		return "", false
	}
	return v, true
}

func (q UrlQuery) Bool(name string, def bool) (value bool, ok bool) {
	boolStr := q.Str(name)
	if boolStr == "" {
		return def, true
	}
	value, err := strconv.ParseBool(boolStr)
	if err != nil {
		q.invalidParameter(name)
		return false, false
	}
	return value, true
}

func (q UrlQuery) Int(name string) (*int, bool) {
	v := q.Str(name)
	if v == "" {
		return nil, true
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		q.invalidParameter(name)
		return nil, false
	}
	return &i, true
}

func (q UrlQuery) IntRange(name string, min, max int) (*int, bool) {
	i, ok := q.Int(name)
	if !ok {
		return nil, false
	}
	if i == nil {
		return nil, true
	}
	if *i < min || *i > max {
		q.invalidParameter(name)
		return nil, false
	}
	return i, true
}

func (q UrlQuery) IntRangeDef(name string, min, max, def int) (int, bool) {
	i, ok := q.IntRange(name, min, max)
	if !ok {
		return 0, false
	}
	if i == nil {
		return def, true
	}
	return *i, true
}

func (q UrlQuery) IntPositiveDef(name string, def int) (int, bool) {
	return q.IntRangeDef(name, 0, math.MaxInt, def)
}

// Paginate returns the offset and count parameters. count is limited to maxListSize.
func (q UrlQuery) Paginate(countName, offsetName string, defaultCount int) (offset, count int, ok bool) {
	count, ok = q.IntRangeDef(countName, 0, maxListSize, defaultCount)
	if !ok {
		return 0, 0, false
	}
	offset, ok = q.IntPositiveDef(offsetName, 0)
	if !ok {
		return 0, 0, false
	}
	return offset, count, true
}

func (q UrlQuery) missingParameter(name string) {
	responses.EncodeError(q.responseWriter, http.StatusBadRequest, fmt.Sprintf("missing %s parameter", name))
}

func (q UrlQuery) invalidParameter(name string) {
	responses.EncodeError(q.responseWriter, http.StatusBadRequest, fmt.Sprintf("invalid %s parameter", name))
}
