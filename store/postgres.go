package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Column lists per table, in persisted order. Only these identifiers ever
// reach SQL text, so queries are built with Sprintf without injection risk.
var tableColumns = map[string][]string{
	TableRoutes:    {"route_id", "route_short_name", "route_long_name"},
	TableTrips:     {"trip_id", "route_id", "service_id", "direction_id", "trip_headsign"},
	TableStops:     {"stop_id", "stop_name", "stop_lat", "stop_lon"},
	TableStopTimes: {"trip_id", "stop_id", "stop_sequence", "arrival_time", "departure_time"},
	TableCalendar: {
		"service_id", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "start_date", "end_date",
	},
}

// Postgres is a Store over a GTFS-shaped Postgres schema (one table per
// GTFS file, text columns). ReplaceRows runs in a single transaction, which
// is what makes the engine's resequencing atomic.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects via the pgx stdlib driver and verifies the
// connection with a bounded ping.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) QueryRows(ctx context.Context, table string, filter Row) ([]Row, error) {
	cols, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), table)
	var args []any
	if len(filter) > 0 {
		conds := make([]string, 0, len(filter))
		for _, col := range cols {
			v, ok := filter[col]
			if !ok {
				continue
			}
			args = append(args, v)
			conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		if len(conds) != len(filter) {
			return nil, fmt.Errorf("table %s: filter references unknown column", table)
		}
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	rows, err := p.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = vals[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateRow(ctx context.Context, table string, key string, fields Row) error {
	cols, ok := tableColumns[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	keyVals, err := splitKey(table, key)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	for _, col := range cols {
		v, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	var conds []string
	for i, col := range primaryKeys[table] {
		args = append(args, keyVals[i])
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), strings.Join(conds, " AND "))
	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("table %s: no row with key %q", table, key)
	}
	return nil
}

func (p *Postgres) ReplaceRows(ctx context.Context, table string, oldKeys []string, rows []Row) error {
	cols, ok := tableColumns[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", table, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var delConds []string
	for _, col := range primaryKeys[table] {
		delConds = append(delConds, col+" = $%d")
	}
	for _, key := range oldKeys {
		keyVals, err := splitKey(table, key)
		if err != nil {
			return err
		}
		conds := make([]string, len(delConds))
		args := make([]any, len(keyVals))
		for i, v := range keyVals {
			conds[i] = fmt.Sprintf(delConds[i], i+1)
			args[i] = v
		}
		q := fmt.Sprintf("DELETE FROM %s WHERE %s", table, strings.Join(conds, " AND "))
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	for _, row := range rows {
		args := make([]any, len(cols))
		for i, col := range cols {
			args[i] = row[col]
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace %s: %w", table, err)
	}
	committed = true
	return nil
}

func (p *Postgres) GenerateKey(table string, row Row) (string, error) {
	return NaturalKey(table, row)
}
