package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

// DefaultUsersCollection is the collection used by the document-store directory
const DefaultUsersCollection = "users"

// userDocument is the stored shape of a user. IDs are kept as canonical uuid strings.
type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	FirstName    string    `bson:"first_name"`
	LastName     string    `bson:"last_name"`
	IsVerified   bool      `bson:"is_verified"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDocument) toModel() (model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return model.User{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		IsVerified:   d.IsVerified,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// MongoUserRepo implements UserRepo on a MongoDB collection
type MongoUserRepo struct {
	users *mongo.Collection
}

var _ UserRepo = (*MongoUserRepo)(nil)

// NewMongoUserRepo creates a MongoDB-backed UserRepo using dbName.users
func NewMongoUserRepo(client *mongo.Client, dbName string) *MongoUserRepo {
	return &MongoUserRepo{users: client.Database(dbName).Collection(DefaultUsersCollection)}
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *MongoUserRepo) Create(ctx context.Context, nu model.NewUser) (model.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := userDocument{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return doc.toModel()
}

func (r *MongoUserRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.updateOne(ctx, id, bson.M{"is_verified": true})
}

func (r *MongoUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{"password_hash": passwordHash})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (model.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return doc.toModel()
}

func (r *MongoUserRepo) updateOne(ctx context.Context, id uuid.UUID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
