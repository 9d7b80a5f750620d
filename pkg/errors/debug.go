package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Trace flattens an error for structured logs: its typed code, the concrete
// types along the unwrap chain and, for Postgres failures, the SQLSTATE and
// the relation it names.
type Trace struct {
	Message string
	Code    Code
	Chain   []string

	SQLState   string
	Constraint string
	Table      string
	Column     string
	Detail     string
	PGMessage  string
}

// Dump builds the Trace for err. Joined errors are walked depth first.
func Dump(err error) Trace {
	if err == nil {
		return Trace{}
	}
	t := Trace{Message: err.Error()}
	if typed := As(err); typed != nil {
		t.Code = typed.Code()
	}

	stack := []error{err}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t.Chain = append(t.Chain, fmt.Sprintf("%T", e))
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			inner := u.Unwrap()
			for i := len(inner) - 1; i >= 0; i-- {
				if inner[i] != nil {
					stack = append(stack, inner[i])
				}
			}
		case interface{ Unwrap() error }:
			if next := u.Unwrap(); next != nil {
				stack = append(stack, next)
			}
		}
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		t.SQLState = pgxErr.Code
		t.Constraint = pgxErr.ConstraintName
		t.Table = pgxErr.TableName
		t.Column = pgxErr.ColumnName
		t.Detail = pgxErr.Detail
		t.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		t.SQLState = string(pqErr.Code)
		t.Constraint = pqErr.Constraint
		t.Table = pqErr.Table
		t.Column = pqErr.Column
		t.Detail = pqErr.Detail
		t.PGMessage = pqErr.Message
	}
	return t
}

// Fields returns the log fields for t, leaving out the Postgres keys when
// the error did not come from the database.
func (t Trace) Fields() map[string]any {
	fields := map[string]any{
		"error_message": t.Message,
		"error_chain":   t.Chain,
	}
	if t.Code != "" {
		fields["error_code"] = t.Code
	}
	if t.SQLState == "" {
		return fields
	}
	fields["sqlstate"] = t.SQLState
	for key, value := range map[string]string{
		"pg_constraint": t.Constraint,
		"pg_table":      t.Table,
		"pg_column":     t.Column,
		"pg_detail":     t.Detail,
		"pg_message":    t.PGMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
