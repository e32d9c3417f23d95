// Package syncentity implements ports.Storage as a composite of Postgres
// (structural row state: doc_version, server_modified, soft-delete flags)
// and MongoDB (the free-form payload attribute-bag), mirroring the split the
// teacher draws between its relational domain tables and its per-collection
// Metadata documents.
package syncentity

import (
	"context"
	"database/sql"
	"errors"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/alaalsalam/hisabi-backend/common"
	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	"github.com/alaalsalam/hisabi-backend/common/mopentelemetry"
	"github.com/alaalsalam/hisabi-backend/common/mpostgres"
	"github.com/alaalsalam/hisabi-backend/internal/adapters/mongodb/payload"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

const tableName = "sync_entity"

// Repository is the composite Postgres+MongoDB implementation of
// ports.Storage.
type Repository struct {
	connection *mpostgres.PostgresConnection
	payloads   *payload.Repository
}

func NewRepository(pc *mpostgres.PostgresConnection, payloads *payload.Repository) *Repository {
	return &Repository{connection: pc, payloads: payloads}
}

func (r *Repository) Get(ctx context.Context, walletID, entityType, entityID string) (*syncdomain.Entity, error) {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.syncentity.get")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	sqlStr, args, err := sqrl.Select(
		"entity_type", "entity_id", "wallet_id", "doc_version", "server_modified",
		"client_created_ms", "client_modified_ms", "is_deleted", "deleted_at",
	).From(tableName).Where(sqrl.Eq{"wallet_id": walletID, "entity_type": entityType, "entity_id": entityID}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, sqlStr, args...)

	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to scan row", err)
		return nil, err
	}

	p, err := r.payloads.Get(ctx, walletID, entityType, entityID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to load payload document", err)
		return nil, err
	}

	if p == nil {
		p = map[string]any{}
	}

	e.Payload = p

	return e, nil
}

func (r *Repository) Put(ctx context.Context, e *syncdomain.Entity) error {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.syncentity.put")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return err
	}

	sqlStr, args, err := sqrl.Insert(tableName).
		Columns("wallet_id", "entity_type", "entity_id", "doc_version", "server_modified",
			"client_created_ms", "client_modified_ms", "is_deleted", "deleted_at").
		Values(e.WalletID, e.EntityType, e.EntityID, e.DocVersion, e.ServerModified,
			e.ClientCreatedMs, e.ClientModMs, e.IsDeleted, e.DeletedAt).
		Suffix(`ON CONFLICT (wallet_id, entity_type, entity_id) DO UPDATE SET
			doc_version = EXCLUDED.doc_version,
			server_modified = EXCLUDED.server_modified,
			client_created_ms = EXCLUDED.client_created_ms,
			client_modified_ms = EXCLUDED.client_modified_ms,
			is_deleted = EXCLUDED.is_deleted,
			deleted_at = EXCLUDED.deleted_at`).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, sqlStr, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return common.ValidateBusinessError(cn.ErrInternal, "Entity")
		}

		mopentelemetry.HandleSpanError(&span, "failed to upsert entity row", err)

		return err
	}

	if err := r.payloads.Put(ctx, e.WalletID, e.EntityType, e.EntityID, e.Payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to upsert payload document", err)
		return err
	}

	return nil
}

func (r *Repository) ScanSince(ctx context.Context, walletID string, sinceServerModified int64, limit int) ([]syncdomain.Entity, error) {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.syncentity.scan_since")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	sqlStr, args, err := sqrl.Select(
		"entity_type", "entity_id", "wallet_id", "doc_version", "server_modified",
		"client_created_ms", "client_modified_ms", "is_deleted", "deleted_at",
	).From(tableName).
		Where(sqrl.And{sqrl.Eq{"wallet_id": walletID}, sqrl.Gt{"server_modified": sinceServerModified}}).
		OrderBy("server_modified ASC", "entity_id ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to scan entity rows", err)
		return nil, err
	}
	defer rows.Close()

	var out []syncdomain.Entity

	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.hydratePayloads(ctx, walletID, out); err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to hydrate payload documents", err)
		return nil, err
	}

	return out, nil
}

func (r *Repository) ListByType(ctx context.Context, walletID, entityType string) ([]syncdomain.Entity, error) {
	tracer := common.NewTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "postgres.syncentity.list_by_type")
	defer span.End()

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to get database connection", err)
		return nil, err
	}

	sqlStr, args, err := sqrl.Select(
		"entity_type", "entity_id", "wallet_id", "doc_version", "server_modified",
		"client_created_ms", "client_modified_ms", "is_deleted", "deleted_at",
	).From(tableName).Where(sqrl.Eq{"wallet_id": walletID, "entity_type": entityType}).
		PlaceholderFormat(sqrl.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "failed to list entity rows", err)
		return nil, err
	}
	defer rows.Close()

	var out []syncdomain.Entity

	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entityType != "" && len(out) > 0 {
		if err := r.hydratePayloads(ctx, walletID, out); err != nil {
			mopentelemetry.HandleSpanError(&span, "failed to hydrate payload documents", err)
			return nil, err
		}
	}

	return out, nil
}

// hydratePayloads batch-loads the payload document per distinct entity_type
// present in rows, avoiding one Mongo round trip per row.
func (r *Repository) hydratePayloads(ctx context.Context, walletID string, rows []syncdomain.Entity) error {
	byType := make(map[string][]int)

	for i, e := range rows {
		byType[e.EntityType] = append(byType[e.EntityType], i)
	}

	for entityType, indexes := range byType {
		ids := make([]string, len(indexes))
		for j, idx := range indexes {
			ids[j] = rows[idx].EntityID
		}

		docs, err := r.payloads.GetMany(ctx, walletID, entityType, ids)
		if err != nil {
			return err
		}

		for _, idx := range indexes {
			if p, ok := docs[rows[idx].EntityID]; ok {
				rows[idx].Payload = p
			} else {
				rows[idx].Payload = map[string]any{}
			}
		}
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows, both of which implement Scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*syncdomain.Entity, error) {
	var (
		e         syncdomain.Entity
		deletedAt sql.NullTime
	)

	if err := row.Scan(
		&e.EntityType, &e.EntityID, &e.WalletID, &e.DocVersion, &e.ServerModified,
		&e.ClientCreatedMs, &e.ClientModMs, &e.IsDeleted, &deletedAt,
	); err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		t := deletedAt.Time
		e.DeletedAt = &t
	}

	return &e, nil
}
