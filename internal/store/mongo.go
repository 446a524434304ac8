package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oatext/internal/model"
)

// revisionField holds a random token replaced on every write; Modify only
// writes back when the token it read is still current.
const revisionField = "_rev"

// MongoEngine keeps each kind in its own collection, one document per record.
type MongoEngine struct {
	client   *mongo.Client
	database *mongo.Database
}

// OpenMongoEngine connects, pings and ensures a unique id index per collection.
func OpenMongoEngine(ctx context.Context, uri, database string) (*MongoEngine, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	engine := &MongoEngine{client: client, database: client.Database(database)}
	for _, kind := range model.StoredKinds() {
		_, err := engine.collection(kind).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}
	return engine, nil
}

func (e *MongoEngine) collection(kind model.Kind) *mongo.Collection {
	return e.database.Collection(kind.Collection())
}

func filterFor(q Query) bson.D {
	filter := bson.D{}
	for _, key := range q.keys() {
		filter = append(filter, bson.E{Key: key, Value: q[key]})
	}
	return filter
}

// toDocument converts a record to bson through its JSON form so the stored
// field names match the JSON wire names.
func toDocument(rec model.Record) (bson.M, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(body, false, &doc); err != nil {
		return nil, err
	}
	doc[revisionField] = uuid.NewString()
	return doc, nil
}

// fromDocument strips storage fields and decodes the record.
func fromDocument(kind model.Kind, doc bson.M) (model.Record, error) {
	delete(doc, "_id")
	delete(doc, revisionField)
	body, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, err
	}
	return decodeRecord(kind, body)
}

func (e *MongoEngine) findOne(ctx context.Context, kind model.Kind, q Query) (bson.M, error) {
	var doc bson.M
	err := e.collection(kind).FindOne(ctx, filterFor(q), options.FindOne().SetSort(bson.D{{Key: "id", Value: 1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *MongoEngine) Get(ctx context.Context, kind model.Kind, q Query) (model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	doc, err := e.findOne(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	return fromDocument(kind, doc)
}

func (e *MongoEngine) Post(ctx context.Context, rec model.Record) (int64, error) {
	if err := checkKind(rec.Kind()); err != nil {
		return 0, err
	}
	doc, err := toDocument(rec)
	if err != nil {
		return 0, err
	}
	if _, err := e.collection(rec.Kind()).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return rec.RecordID(), nil
}

func (e *MongoEngine) Put(ctx context.Context, kind model.Kind, q Query, rec model.Record) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	doc, err := toDocument(rec)
	if err != nil {
		return err
	}
	_, err = e.collection(kind).ReplaceOne(ctx, filterFor(q), doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (e *MongoEngine) Count(ctx context.Context, kind model.Kind) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	return e.collection(kind).CountDocuments(ctx, bson.D{})
}

func (e *MongoEngine) MaxID(ctx context.Context, kind model.Kind) (int64, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	var doc struct {
		ID int64 `bson:"id"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "id", Value: -1}}).
		SetProjection(bson.D{{Key: "id", Value: 1}})
	err := e.collection(kind).FindOne(ctx, bson.D{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}

func (e *MongoEngine) Remove(ctx context.Context, kind model.Kind, q Query) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := e.collection(kind).DeleteOne(ctx, filterFor(q))
	return err
}

func (e *MongoEngine) Search(ctx context.Context, kind model.Kind, term string) ([]model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	cursor, err := e.collection(kind).Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []model.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := fromDocument(kind, doc)
		if err != nil {
			return nil, err
		}
		if matchesTerm(rec, term) {
			out = append(out, rec)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	sortRecords(out)
	return out, nil
}

func (e *MongoEngine) Modify(ctx context.Context, kind model.Kind, id int64, fn ModifyFunc) (model.Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxModifyAttempts; attempt++ {
		doc, err := e.findOne(ctx, kind, ByID(id))
		if err != nil {
			return nil, err
		}
		revision := doc[revisionField]
		decoded, err := fromDocument(kind, doc)
		if err != nil {
			return nil, err
		}
		rec := decoded.CloneRecord()
		if err := fn(rec); err != nil {
			return nil, err
		}
		rec.SetRecordID(id)

		next, err := toDocument(rec)
		if err != nil {
			return nil, err
		}
		filter := bson.D{{Key: "id", Value: id}, {Key: revisionField, Value: revision}}
		result, err := e.collection(kind).ReplaceOne(ctx, filter, next)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 1 {
			return rec, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, ErrConcurrentModification
}

func (e *MongoEngine) Close() error {
	return e.client.Disconnect(context.Background())
}
