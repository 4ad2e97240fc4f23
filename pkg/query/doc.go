// Package query builds SQL select statements from a fluent criteria API.
//
// A Query accumulates conditions, orderings and projections; SQLBuilder renders
// the resulting Data for a Dialect:
//
//	q := query.New[Post]().From("Posts").
//	    Select("Title").
//	    Where("Id").Is(query.Int(5)).
//	    OrderByDescending("CreateDate")
//	sql, err := q.Build(query.SQLServer)
//	// select Title from Posts where Id = 5 order by CreateDate Desc
//
// Values are encoded as SQL literals when they are attached to a condition.
// Identifiers are not escaped: table and column names must come from code.
package query
