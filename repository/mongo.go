package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/mediadesk/config"
	"github.com/cppla/mediadesk/models"
)

// NewMongoStores binds every repository to its collection in db.
func NewMongoStores(db *mongo.Database, names config.Collections) Stores {
	return Stores{
		Roster:     &MongoRoster{col: db.Collection(names.Roster)},
		Media:      &MongoMedia{col: db.Collection(names.Media)},
		Ugc:        &MongoUgc{col: db.Collection(names.Ugc)},
		Activity:   &MongoActivity{col: db.Collection(names.Activity)},
		Properties: &MongoProperties{col: db.Collection(names.Properties)},
	}
}

// EnsureIndexes creates the secondary indexes the dashboard and listings rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, names config.Collections) error {
	specs := map[string][]mongo.IndexModel{
		names.Roster:   {{Keys: bson.D{{Key: "role", Value: 1}}}},
		names.Ugc:      {{Keys: bson.D{{Key: "createdAt", Value: -1}}}},
		names.Activity: {{Keys: bson.D{{Key: "timestamp", Value: -1}}}},
		names.Media:    {{Keys: bson.D{{Key: "folder", Value: 1}, {Key: "status", Value: 1}}}},
	}
	for col, idx := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("indexes on %s: %w", col, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

type MongoRoster struct {
	col *mongo.Collection
}

func (r *MongoRoster) Get(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *MongoRoster) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRoster) Create(ctx context.Context, u models.User) error {
	_, err := r.col.InsertOne(ctx, u)
	return duplicate(err)
}

func (r *MongoRoster) Upsert(ctx context.Context, u models.User) error {
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": u.UID}, u, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoRoster) Update(ctx context.Context, uid string, patch models.UserPatch) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": rosterSet(patch)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// rosterSet flattens a patch into dotted $set fields so access flags merge per flag.
func rosterSet(patch models.UserPatch) bson.M {
	set := bson.M{}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	for k, v := range patch.Access.Fields() {
		set[k] = v
	}
	return set
}

func (r *MongoRoster) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *MongoRoster) CountByRoles(ctx context.Context, roles ...models.Role) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"role": bson.M{"$in": roles}})
}

type MongoMedia struct {
	col *mongo.Collection
}

func (r *MongoMedia) Save(ctx context.Context, f models.MediaFile) error {
	if f.ID == "" {
		f.ID = DocID(f.PublicID)
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": f.ID}, f, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoMedia) Get(ctx context.Context, publicID string) (*models.MediaFile, error) {
	var f models.MediaFile
	if err := r.col.FindOne(ctx, bson.M{"_id": DocID(publicID)}).Decode(&f); err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *MongoMedia) MarkDeleted(ctx context.Context, publicID, by string, at int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": DocID(publicID), "status": models.FileActive},
		bson.M{"$set": bson.M{"status": models.FileDeleted, "deletedAt": at, "deletedBy": by}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type MongoUgc struct {
	col *mongo.Collection
}

func (r *MongoUgc) Create(ctx context.Context, v models.UgcVideo) error {
	_, err := r.col.InsertOne(ctx, v)
	return duplicate(err)
}

func (r *MongoUgc) Get(ctx context.Context, videoID string) (*models.UgcVideo, error) {
	var v models.UgcVideo
	if err := r.col.FindOne(ctx, bson.M{"_id": videoID}).Decode(&v); err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *MongoUgc) Update(ctx context.Context, videoID string, patch models.UgcPatch) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": videoID}, bson.M{"$set": ugcSet(patch)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func ugcSet(p models.UgcPatch) bson.M {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.IsFeatured != nil {
		set["isFeatured"] = *p.IsFeatured
	}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	return set
}

func (r *MongoUgc) Delete(ctx context.Context, videoID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": videoID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUgc) List(ctx context.Context) ([]models.UgcVideo, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []models.UgcVideo{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type MongoActivity struct {
	col *mongo.Collection
}

func (r *MongoActivity) Append(ctx context.Context, e models.ActivityLog) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *MongoActivity) Since(ctx context.Context, ts int64) ([]models.ActivityLog, error) {
	return r.find(ctx, bson.M{"timestamp": bson.M{"$gte": ts}}, options.Find())
}

func (r *MongoActivity) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoActivity) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ActivityLog, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []models.ActivityLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type MongoProperties struct {
	col *mongo.Collection
}

func (r *MongoProperties) Get(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *MongoProperties) List(ctx context.Context) ([]models.Property, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []models.Property{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
