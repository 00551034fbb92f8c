package httpx

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

// Query-string keys that configure a listing rather than filter it. Every
// other key becomes an equality condition.
var listKeys = map[string]bool{
	"skip":        true,
	"limit":       true,
	"order_by":    true,
	"order":       true,
	"conjunction": true,
	"date_column": true,
	"date_from":   true,
	"date_to":     true,
}

// listParams builds engine parameters from a query string. Keys in exclude
// are consumed by the caller and never become conditions.
func listParams(q url.Values, defaultLimit int, exclude ...string) (query.ListParams, error) {
	p := query.ListParams{Limit: defaultLimit}

	var err error
	if p.Skip, err = intParam(q, "skip", 0); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(q, "limit", defaultLimit); err != nil {
		return p, err
	}
	p.OrderBy = q.Get("order_by")
	switch d := strings.ToLower(q.Get("order")); d {
	case "", string(query.Asc):
		p.Order = query.Asc
	case string(query.Desc):
		p.Order = query.Desc
	default:
		return p, badRequest("order must be asc or desc")
	}
	switch c := strings.ToLower(q.Get("conjunction")); c {
	case "", string(query.And):
		p.Conjunction = query.And
	case string(query.Or):
		p.Conjunction = query.Or
	default:
		return p, badRequest("conjunction must be and or or")
	}

	from, to := q.Get("date_from"), q.Get("date_to")
	if from != "" || to != "" {
		dr := &query.DateRange{Column: q.Get("date_column")}
		if dr.From, err = timeParam("date_from", from); err != nil {
			return p, err
		}
		if dr.To, err = timeParam("date_to", to); err != nil {
			return p, err
		}
		p.DateRange = dr
	}

	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}
	for k, vs := range q {
		if listKeys[k] || skip[k] || len(vs) == 0 {
			continue
		}
		if p.Conditions == nil {
			p.Conditions = query.Conditions{}
		}
		p.Conditions[k] = vs[0]
	}
	return p, nil
}

func intParam(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, badRequest(key + " must be a non-negative integer")
	}
	return n, nil
}

func timeParam(key, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, badRequest("date_from and date_to must be given together")
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, badRequest(key + " must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}
