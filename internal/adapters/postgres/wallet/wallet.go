// Package wallet implements ports.WalletAcl over Postgres: a membership
// table independent of the synced wallet entity rows, since wallet sharing
// (who may push/pull against a wallet_id) is an authorization concern, not
// a synced graph node.
package wallet

import (
	"context"
	"database/sql"
	"errors"

	sqrl "github.com/Masterminds/squirrel"

	"github.com/alaalsalam/hisabi-backend/common"
	"github.com/alaalsalam/hisabi-backend/common/mopentelemetry"
	"github.com/alaalsalam/hisabi-backend/common/mpostgres"
)

const tableName = "wallet_member"

// Repository is the Postgres-backed implementation of ports.WalletAcl.
type Repository struct {
	connection *mpostgres.PostgresConnection
}

func NewRepository(pc *mpostgres.PostgresConnection) *Repository {
	return &Repository{connection: pc}
}

func (r *Repository) IsMember(ctx context.Context, userID, walletID string) (bool, error) {
	role, err := r.Role(ctx, userID, walletID)
	if err != nil {
		return false, err
	}

	return role != "", nil
}

func (r *Repository) Role(ctx context.Context, userID, walletID string) (string, error) {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.wallet.role")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return "", err
	}

	sqlStr, args, err := sqrl.Select("role").From(tableName).
		Where(sqrl.Eq{"user_id": userID, "wallet_id": walletID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return "", err
	}

	var role string

	if err := db.QueryRowContext(ctx, sqlStr, args...).Scan(&role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		mopentelemetry.HandleSpanError(&span, "failed to look up wallet membership", err)

		return "", err
	}

	return role, nil
}
