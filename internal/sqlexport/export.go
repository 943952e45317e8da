// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexport turns the result of a PostgreSQL query into the CSV payload
// uploaded to the staging service. Date and timestamp columns are reported so
// they can be declared in the column manifest.
package sqlexport

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"gooddata/cli/internal/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"
)

// Querier runs a query; *pgxpool.Pool and *pgx.Conn satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// Table is an exported query result.
type Table struct {
	Columns []string
	// Dates and Datetimes name the columns of date and timestamp types.
	Dates     []string
	Datetimes []string
	Rows      int
	CSV       []byte
}

// Exporter exports query results.
type Exporter struct {
	DB  Querier
	Log *pterm.Logger
}

// New creates an Exporter from an existing pgx pool.
func New(pool *pgxpool.Pool) *Exporter {
	return &Exporter{DB: pool, Log: logging.Discard()}
}

// ExportCSV runs a read query and renders its result as CSV with a header row.
func (e *Exporter) ExportCSV(ctx context.Context, query string) (*Table, error) {
	rows, err := e.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run export query: %w", err)
	}
	defer rows.Close()

	t, err := Render(rows)
	if err != nil {
		return nil, err
	}
	if e.Log != nil {
		e.Log.Debug("exported query", e.Log.Args("columns", len(t.Columns), "rows", t.Rows))
	}
	return t, nil
}

// Render drains rows into a Table.
func Render(rows pgx.Rows) (*Table, error) {
	t := &Table{}
	fds := rows.FieldDescriptions()
	for _, fd := range fds {
		t.Columns = append(t.Columns, fd.Name)
		switch fd.DataTypeOID {
		case pgtype.DateOID:
			t.Dates = append(t.Dates, fd.Name)
		case pgtype.TimestampOID, pgtype.TimestamptzOID:
			t.Datetimes = append(t.Datetimes, fd.Name)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	record := make([]string, len(fds))
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Rows+1, err)
		}
		for i, v := range vals {
			s, err := FormatValue(v, fds[i].DataTypeOID)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", t.Rows+1, fds[i].Name, err)
			}
			record[i] = s
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
		t.Rows++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	t.CSV = buf.Bytes()
	return t, nil
}

// FormatValue renders one decoded pgx value as CSV text. NULL becomes an empty
// cell and UUIDs use their canonical form.
func FormatValue(v any, oid uint32) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case [16]byte:
		return uuid.UUID(x).String(), nil
	case []byte:
		if oid == pgtype.UUIDOID && len(x) == 16 {
			return uuid.UUID(x).String(), nil
		}
		return `\x` + hex.EncodeToString(x), nil
	case time.Time:
		if oid == pgtype.DateOID {
			return x.Format("2006-01-02"), nil
		}
		return x.UTC().Format("2006-01-02 15:04:05"), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return "", err
		}
		if dv == nil {
			return "", nil
		}
		return FormatValue(dv, oid)
	case fmt.Stringer:
		return x.String(), nil
	default:
		return fmt.Sprint(x), nil
	}
}
