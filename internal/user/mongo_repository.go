package user

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const emailIndexName = "users_email_unique"

// mongoUser is the document shape stored in the users collection
type mongoUser struct {
	ID        bson.ObjectID `bson:"_id"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"` // hash only
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d *mongoUser) toModel() *User {
	return &User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoRepository handles user persistence in MongoDB
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, database, collection string) *MongoRepository {
	return &MongoRepository{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (r *MongoRepository) errs(operation string) oops.OopsErrorBuilder {
	return oops.In("user_store").Code("STORE_UNAVAILABLE").With("store", "mongo", "operation", operation)
}

// Connect pings the primary and ensures the unique email index exists
func (r *MongoRepository) Connect(ctx context.Context) error {
	if err := r.Ping(ctx); err != nil {
		return err
	}

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return r.errs("connect").Wrapf(err, "failed to ensure unique email index")
	}

	return nil
}

// Ping checks that the primary is reachable
func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return r.errs("ping").Wrapf(err, "failed to ping mongo")
	}
	return nil
}

// Disconnect closes the client
func (r *MongoRepository) Disconnect(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return r.errs("disconnect").Wrapf(err, "failed to disconnect mongo")
	}
	return nil
}

// Create inserts a new user document
func (r *MongoRepository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond) // BSON dates are millisecond precision
	doc := &mongoUser{
		ID:        bson.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, r.errs("create").Wrapf(err, "failed to create user")
	}

	return doc.toModel(), nil
}

// FindByEmail retrieves a user by exact email match
func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var doc mongoUser
	err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, r.errs("find_by_email").Wrapf(err, "failed to get user by email")
	}

	return doc.toModel(), nil
}
