// Package payload implements the attribute-bag store for entity payloads:
// one document per (wallet_id, entity_type, entity_id), keyed the same way
// the teacher's MetadataMongoDBRepository keys its metadata documents.
// Structural/version fields (doc_version, server_modified, is_deleted) live
// in Postgres; only the free-form payload map lives here.
package payload

import (
	"context"
	"strings"
	"time"

	"github.com/alaalsalam/hisabi-backend/common/mmongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "sync_payload"

// Repository is the MongoDB-backed payload attribute-bag store.
type Repository struct {
	connection *mmongo.MongoConnection
	database   string
}

func NewRepository(mc *mmongo.MongoConnection) *Repository {
	return &Repository{connection: mc, database: mc.Database}
}

type document struct {
	WalletID   string         `bson:"wallet_id"`
	EntityType string         `bson:"entity_type"`
	EntityID   string         `bson:"entity_id"`
	Payload    map[string]any `bson:"payload"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

func (r *Repository) collection(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	return db.Database(strings.ToLower(r.database)).Collection(collectionName), nil
}

// Put upserts the payload document for (walletID, entityType, entityID).
func (r *Repository) Put(ctx context.Context, walletID, entityType, entityID string, p map[string]any) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}

	filter := bson.M{"wallet_id": walletID, "entity_type": entityType, "entity_id": entityID}
	update := bson.M{"$set": document{
		WalletID:   walletID,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    p,
		UpdatedAt:  time.Now(),
	}}

	_, err = coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))

	return err
}

// Get returns the payload document for (walletID, entityType, entityID), or
// nil if none has been written yet.
func (r *Repository) Get(ctx context.Context, walletID, entityType, entityID string) (map[string]any, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	var doc document

	err = coll.FindOne(ctx, bson.M{"wallet_id": walletID, "entity_type": entityType, "entity_id": entityID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}

		return nil, err
	}

	return doc.Payload, nil
}

// GetMany batch-fetches payload documents for a set of entity_ids of one
// entity_type, used by ScanSince/ListByType to avoid N+1 round trips.
func (r *Repository) GetMany(ctx context.Context, walletID, entityType string, entityIDs []string) (map[string]map[string]any, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.M{"wallet_id": walletID, "entity_type": entityType, "entity_id": bson.M{"$in": entityIDs}})
	if err != nil {
		return nil, err
	}

	defer cur.Close(ctx)

	out := make(map[string]map[string]any, len(entityIDs))

	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}

		out[doc.EntityID] = doc.Payload
	}

	return out, cur.Err()
}
