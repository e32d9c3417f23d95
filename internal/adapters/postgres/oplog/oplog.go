// Package oplog implements ports.Ledger over Postgres: a unique
// (user_id, device_id, op_id) row per terminal outcome, recorded exactly
// once.
package oplog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alaalsalam/hisabi-backend/common"
	"github.com/alaalsalam/hisabi-backend/common/mopentelemetry"
	"github.com/alaalsalam/hisabi-backend/common/mpostgres"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

const tableName = "operation_ledger"

// uniqueViolation is Postgres' SQLSTATE for a unique-constraint violation.
const uniqueViolation = "23505"

// Repository is the Postgres-backed implementation of ports.Ledger.
type Repository struct {
	connection *mpostgres.PostgresConnection
}

func NewRepository(pc *mpostgres.PostgresConnection) *Repository {
	return &Repository{connection: pc}
}

func (r *Repository) Lookup(ctx context.Context, userID, deviceID, opID string) (*syncdomain.LedgerRow, error) {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.oplog.lookup")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	sqlStr, args, err := sqrl.Select(
		"status", "entity_type", "client_id", "doc_version", "server_modified",
		"error_code", "error_message", "server_record",
	).From(tableName).Where(sqrl.Eq{"user_id": userID, "device_id": deviceID, "op_id": opID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, sqlStr, args...)

	var (
		status, entityType, clientID string
		docVersion, serverModified   sql.NullInt64
		errorCode, errorMessage      sql.NullString
		serverRecordJSON             []byte
	)

	if err := row.Scan(&status, &entityType, &clientID, &docVersion, &serverModified, &errorCode, &errorMessage, &serverRecordJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		mopentelemetry.HandleSpanError(&span, "failed to scan ledger row", err)

		return nil, err
	}

	out := &syncdomain.LedgerRow{
		UserID:       userID,
		DeviceID:     deviceID,
		OpID:         opID,
		Status:       syncdomain.LedgerStatus(status),
		EntityType:   entityType,
		ClientID:     clientID,
		ErrorCode:    errorCode.String,
		ErrorMessage: errorMessage.String,
	}

	if docVersion.Valid {
		v := docVersion.Int64
		out.DocVersion = &v
	}

	if serverModified.Valid {
		v := serverModified.Int64
		out.ServerModified = &v
	}

	if len(serverRecordJSON) > 0 {
		_ = json.Unmarshal(serverRecordJSON, &out.ServerRecord)
	}

	return out, nil
}

func (r *Repository) Record(ctx context.Context, row syncdomain.LedgerRow) error {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.oplog.record")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	var serverRecordJSON []byte
	if row.ServerRecord != nil {
		serverRecordJSON, err = json.Marshal(row.ServerRecord)
		if err != nil {
			return err
		}
	}

	sqlStr, args, err := sqrl.Insert(tableName).
		Columns("user_id", "device_id", "op_id", "status", "entity_type", "client_id",
			"doc_version", "server_modified", "error_code", "error_message", "server_record").
		Values(row.UserID, row.DeviceID, row.OpID, string(row.Status), row.EntityType, row.ClientID,
			row.DocVersion, row.ServerModified, row.ErrorCode, row.ErrorMessage, serverRecordJSON).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Another concurrent request already recorded the authoritative
			// outcome for this (user, device, op_id); this is not an error,
			// the caller's next Lookup will see it.
			return nil
		}

		mopentelemetry.HandleSpanError(&span, "failed to insert ledger row", err)

		return err
	}

	return nil
}
