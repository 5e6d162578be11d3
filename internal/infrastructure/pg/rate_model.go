package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/domain"
	"fxrates-adapter/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// RateModel reads currency rows from a configurable table.
type RateModel struct {
	db    *DB
	table string
	cols  domain.Columns
}

var _ application.RateModel = (*RateModel)(nil)

func NewRateModel(db *DB, table string, cols domain.Columns) *RateModel {
	return &RateModel{db: db, table: table, cols: cols}
}

func (m *RateModel) All(ctx context.Context, q application.Query) ([]domain.Row, error) {
	sql, args := buildSelect(m.table, q)
	log := logx.WithFields(ctx).With(
		zap.String("repo", "rate_model"),
		zap.String("operation", "All"),
		zap.String("sql", sql),
	)
	log.Debug("sql.query_start")
	rows, err := m.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []domain.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			log.Error("sql.scan_failed", zap.Error(err))
			return nil, err
		}
		row := make(domain.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = plain(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Debug("sql.query_success", zap.Int("rows", len(out)))
	return out, nil
}

func (m *RateModel) First(ctx context.Context, q application.Query) (domain.Row, bool, error) {
	rows, err := m.All(ctx, q.WithLimit(1))
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// Upsert writes one rate keyed by code. The table needs a unique constraint on the code column.
func (m *RateModel) Upsert(ctx context.Context, code string, rate float64, at time.Time) error {
	table := tableIdent(m.table)
	codeCol, rateCol := pgx.Identifier{m.cols.Code}.Sanitize(), pgx.Identifier{m.cols.Rate}.Sanitize()
	cols := []string{codeCol, rateCol}
	vals := []string{"$1", "$2"}
	sets := []string{fmt.Sprintf("%s=EXCLUDED.%s", rateCol, rateCol)}
	args := []any{domain.NormalizeCode(code), rate}
	if m.cols.UpdatedAt != "" {
		ua := pgx.Identifier{m.cols.UpdatedAt}.Sanitize()
		args = append(args, at)
		cols = append(cols, ua)
		vals = append(vals, fmt.Sprintf("$%d", len(args)))
		sets = append(sets, fmt.Sprintf("%s=EXCLUDED.%s", ua, ua))
	}
	up := fmt.Sprintf(`INSERT INTO %s(%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s`,
		table, strings.Join(cols, ", "), strings.Join(vals, ", "), codeCol, strings.Join(sets, ", "))

	log := logx.WithFields(ctx).With(
		zap.String("repo", "rate_model"),
		zap.String("operation", "Upsert"),
		zap.String("sql", up),
		zap.String("code", code),
	)
	tag, err := m.db.Pool.Exec(ctx, up, args...)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func buildSelect(table string, q application.Query) (string, []any) {
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = pgx.Identifier{c}.Sanitize()
		}
		cols = strings.Join(quoted, ", ")
	}

	var (
		b    strings.Builder
		args []any
	)
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, tableIdent(table))
	if f := q.Filter; f != nil {
		col := pgx.Identifier{f.Column}.Sanitize()
		switch len(f.Values) {
		case 0:
			b.WriteString(" WHERE false")
		case 1:
			fmt.Fprintf(&b, " WHERE %s = $1", col)
			args = append(args, f.Values[0])
		default:
			fmt.Fprintf(&b, " WHERE %s = ANY($1)", col)
			args = append(args, f.Values)
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args
}

// tableIdent quotes a possibly schema-qualified table name.
func tableIdent(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// plain turns pgx-specific values into types the record accessor reads.
func plain(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}
