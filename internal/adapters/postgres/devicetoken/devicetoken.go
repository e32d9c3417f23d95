// Package devicetoken implements ports.Auth over a minimal self-contained
// Postgres table: one row per issued device token, binding a bearer token to
// exactly one (user_id, device_id) pair. It replaces the teacher's external
// plugin-auth host (lib-auth middleware talking to a separate auth service)
// with an in-repo table, since this service has no separate identity
// provider to delegate to.
package devicetoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/alaalsalam/hisabi-backend/common"
	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	"github.com/alaalsalam/hisabi-backend/common/mopentelemetry"
	"github.com/alaalsalam/hisabi-backend/common/mpostgres"
)

const tableName = "device_token"

// Repository is the Postgres-backed implementation of ports.Auth.
type Repository struct {
	connection *mpostgres.PostgresConnection
}

func NewRepository(pc *mpostgres.PostgresConnection) *Repository {
	return &Repository{connection: pc}
}

// Resolve looks up bearerToken and confirms it is bound to deviceID. A token
// bound to a different device, revoked, or unknown all resolve to
// cn.ErrUnauthorized; the caller cannot distinguish these cases from the
// error alone, by design.
func (r *Repository) Resolve(ctx context.Context, bearerToken, deviceID string) (string, error) {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.devicetoken.resolve")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return "", err
	}

	sqlStr, args, err := sqrl.Select("user_id", "device_id", "revoked").
		From(tableName).
		Where(sqrl.Eq{"token": bearerToken}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return "", err
	}

	var (
		userID, boundDeviceID string
		revoked               bool
	)

	if err := db.QueryRowContext(ctx, sqlStr, args...).Scan(&userID, &boundDeviceID, &revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", cn.ErrUnauthorized
		}

		mopentelemetry.HandleSpanError(&span, "failed to look up device token", err)

		return "", err
	}

	if revoked || boundDeviceID != deviceID {
		return "", cn.ErrUnauthorized
	}

	return userID, nil
}

// Issue inserts a new token row bound to (userID, deviceID), used by
// device-registration flows outside the sync push/pull surface itself.
func (r *Repository) Issue(ctx context.Context, token, userID, deviceID string) error {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.devicetoken.issue")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	sqlStr, args, err := sqrl.Insert(tableName).
		Columns("token", "user_id", "device_id", "revoked").
		Values(token, userID, deviceID, false).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to insert device token", err)
		return fmt.Errorf("issue device token: %w", err)
	}

	return nil
}
