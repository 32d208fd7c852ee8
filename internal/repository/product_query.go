package repository

import (
	"fmt"
	"strings"

	"product-compare/internal/model"
)

const productColumns = "id, name, image_url, description, price, rating, specifications"

// sortColumns whitelists the columns advanced search may order by.
var sortColumns = map[string]string{
	model.SortByID:     "id",
	model.SortByName:   "name",
	model.SortByPrice:  "price",
	model.SortByRating: "rating",
}

// filterQuery is the WHERE clause and positional args built from search criteria.
type filterQuery struct {
	where string
	args  []any
}

// buildFilter turns each present criterion into a predicate. Absent criteria
// add nothing, so empty criteria match every row.
func buildFilter(c model.SearchCriteria) filterQuery {
	var (
		clauses []string
		args    []any
	)

	add := func(format string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}

	if c.Name != nil && *c.Name != "" {
		add("name ILIKE $%d", "%"+escapeLike(*c.Name)+"%")
	}
	if c.MinPrice != nil {
		add("price >= $%d", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		add("price <= $%d", *c.MaxPrice)
	}
	if c.MinRating != nil {
		add("rating >= $%d", *c.MinRating)
	}

	q := filterQuery{args: args}
	if len(clauses) > 0 {
		q.where = " WHERE " + strings.Join(clauses, " AND ")
	}
	return q
}

// orderBy renders the ORDER BY clause. Unknown columns fall back to id; id is
// always appended as a tiebreak so paging is stable.
func orderBy(c model.SearchCriteria) string {
	col, ok := sortColumns[c.SortBy]
	if !ok {
		col = "id"
	}

	dir := "ASC"
	if strings.EqualFold(c.SortDir, model.SortDesc) {
		dir = "DESC"
	}

	if col == "id" {
		return " ORDER BY id " + dir
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

// limitOffset appends LIMIT/OFFSET placeholders after the existing args.
func limitOffset(args []any, pageIndex, pageSize int) (string, []any) {
	n := len(args)
	clause := fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	out := make([]any, 0, n+2)
	out = append(out, args...)
	out = append(out, pageSize, int64(pageIndex)*int64(pageSize))
	return clause, out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes the user's text match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
