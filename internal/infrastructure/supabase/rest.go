package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Filter condición de igualdad de PostgREST (col=eq.valor).
type Filter struct {
	Column string
	Value  string
}

// Eq atajo para construir un Filter.
func Eq(column, value string) Filter { return Filter{Column: column, Value: value} }

// Query lectura de una tabla: columnas (con recursos embebidos), filtros y orden.
type Query struct {
	Select  string
	Filters []Filter
	Order   string
	Limit   int
}

func (q Query) values() url.Values {
	v := filterValues(q.Filters)
	if q.Select != "" {
		v.Set("select", q.Select)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func filterValues(filters []Filter) url.Values {
	v := url.Values{}
	for _, f := range filters {
		v.Add(f.Column, "eq."+f.Value)
	}
	return v
}

func restPath(table string) string { return "/rest/v1/" + table }

// Insert inserta rows (objeto o arreglo). Si out no es nil se pide la representación insertada.
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	body, err := jsonBody(rows)
	if err != nil {
		return err
	}
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        restPath(table),
		body:        body,
		contentType: "application/json",
		headers:     map[string]string{"Prefer": prefer},
	}, out)
}

// Select lee filas en out (siempre un arreglo).
func (c *Client) Select(ctx context.Context, table string, q Query, out any) error {
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath(table),
		query:  q.values(),
	}, out)
}

// Update aplica patch a las filas que cumplen los filtros y devuelve la representación en out.
func (c *Client) Update(ctx context.Context, table string, filters []Filter, patch any, out any) error {
	body, err := jsonBody(patch)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPatch,
		path:        restPath(table),
		query:       filterValues(filters),
		body:        body,
		contentType: "application/json",
		headers:     map[string]string{"Prefer": "return=representation"},
	}, out)
}

// Delete borra las filas que cumplen los filtros. Sin filtros no hace nada.
func (c *Client) Delete(ctx context.Context, table string, filters []Filter) error {
	if len(filters) == 0 {
		return nil
	}
	return c.do(ctx, request{
		method:  http.MethodDelete,
		path:    restPath(table),
		query:   filterValues(filters),
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}
