// Package mongorepo stores users in the platform's MongoDB users collection.
package mongorepo

import (
	"context"
	"time"

	"github.com/jrsteele09/genzmobo-auth/users"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "users"

type Repo struct {
	client *mongo.Client
	users  *mongo.Collection
}

var _ users.UserRepo = (*Repo)(nil)

// Connect opens a client for uri. The driver connects lazily; use Ping to
// check reachability.
func Connect(uri, database string) (*Repo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "[mongorepo.Connect]")
	}
	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Repo {
	return &Repo{
		client: client,
		users:  client.Database(database).Collection(CollectionName),
	}
}

// EnsureIndexes creates the unique and lookup indexes the auth flows rely on.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "otpCode", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	return errors.Wrap(err, "[mongorepo.EnsureIndexes]")
}

func (r *Repo) Create(ctx context.Context, user *users.User) error {
	res, err := r.users.InsertOne(ctx, toDoc(user))
	if mongo.IsDuplicateKeyError(err) {
		return users.ErrDuplicate
	}
	if err != nil {
		return errors.Wrap(err, "[mongorepo.Create]")
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		user.ID = id.Hex()
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, users.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"email": users.NormalizeEmail(email)})
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *Repo) GetByIdentifier(ctx context.Context, identifier string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": users.NormalizeEmail(identifier)},
		bson.M{"username": identifier},
	}})
}

func (r *Repo) GetByRefreshToken(ctx context.Context, refreshToken string) (*users.User, error) {
	if refreshToken == "" {
		return nil, users.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"refreshToken": refreshToken})
}

func (r *Repo) GetByOTP(ctx context.Context, code string) (*users.User, error) {
	if code == "" {
		return nil, users.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"otpCode": code})
}

func (r *Repo) StartSession(ctx context.Context, id string, session users.Session) error {
	return r.updateByID(ctx, id, nil, bson.M{"$set": bson.M{
		"refreshToken":    session.RefreshToken,
		"currentTokenJti": session.AccessTokenID,
		"lastActivityAt":  session.At,
		"lastLoginAt":     session.At,
		"updatedAt":       session.At,
	}})
}

func (r *Repo) RotateSession(ctx context.Context, id, expectedRefreshToken string, session users.Session) error {
	var extra bson.M
	if expectedRefreshToken != "" {
		extra = bson.M{"refreshToken": expectedRefreshToken}
	}
	return r.updateByID(ctx, id, extra, bson.M{"$set": bson.M{
		"refreshToken":    session.RefreshToken,
		"currentTokenJti": session.AccessTokenID,
		"lastActivityAt":  session.At,
		"updatedAt":       session.At,
	}})
}

func (r *Repo) EndSession(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{
		"$unset": bson.M{"refreshToken": "", "currentTokenJti": ""},
		"$set":   bson.M{"updatedAt": at},
	})
}

func (r *Repo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{"$set": bson.M{
		"isVerified":   true,
		"otpCode":      nil,
		"otpExpiresAt": nil,
		"updatedAt":    at,
	}})
}

func (r *Repo) SetOTP(ctx context.Context, id, code string, expiresAt, at time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{"$set": bson.M{
		"otpCode":      code,
		"otpExpiresAt": expiresAt,
		"updatedAt":    at,
	}})
}

func (r *Repo) ClearOTP(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{"$set": bson.M{
		"otpCode":      nil,
		"otpExpiresAt": nil,
		"updatedAt":    at,
	}})
}

func (r *Repo) ResetPassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return r.updateByID(ctx, id, nil, bson.M{
		"$set": bson.M{
			"passwordHash": passwordHash,
			"otpCode":      nil,
			"otpExpiresAt": nil,
			"updatedAt":    at,
		},
		"$unset": bson.M{"refreshToken": "", "currentTokenJti": ""},
	})
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *Repo) Disconnect(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, users.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[mongorepo.findOne]")
	}
	return doc.toUser(), nil
}

// updateByID applies update to the user with id, optionally narrowed by extra
// filter fields. No matching document is ErrNotFound.
func (r *Repo) updateByID(ctx context.Context, id string, extra bson.M, update bson.M) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return users.ErrNotFound
	}
	filter := bson.M{"_id": oid}
	for k, v := range extra {
		filter[k] = v
	}
	res, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "[mongorepo.updateByID]")
	}
	if res.MatchedCount == 0 {
		return users.ErrNotFound
	}
	return nil
}
