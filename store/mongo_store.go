package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princinho/sessionauth/models"
	"github.com/princinho/sessionauth/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Username     string        `bson:"username"`
	Email        string        `bson:"email"`
	FullName     string        `bson:"fullName"`
	Avatar       string        `bson:"avatar,omitempty"`
	CoverImage   string        `bson:"coverImage,omitempty"`
	PasswordHash string        `bson:"password,omitempty"`
	RefreshToken string        `bson:"refreshToken,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		Avatar:       d.Avatar,
		CoverImage:   d.CoverImage,
		PasswordHash: d.PasswordHash,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

var publicProjection = bson.M{"password": 0, "refreshToken": 0}

type MongoStore struct {
	users *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{users: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes that back ErrDuplicate.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:           bson.NewObjectID(),
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findByID(ctx, id)
}

func (s *MongoStore) FindPublicByID(ctx context.Context, id string) (*models.User, error) {
	return s.findByID(ctx, id, options.FindOne().SetProjection(publicProjection))
}

func (s *MongoStore) findByID(ctx context.Context, id string, opts ...options.Lister[options.FindOneOptions]) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid}, opts...)
}

func (s *MongoStore) FindByUsernameOrEmail(ctx context.Context, identifier string) (*models.User, error) {
	username, email := normalizeIdentifier(identifier)
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	return s.findOne(ctx, filter)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) SetRefreshToken(ctx context.Context, id, token string) error {
	return s.updateByID(ctx, id, bson.M{"$set": bson.M{"refreshToken": token, "updatedAt": time.Now().UTC()}})
}

func (s *MongoStore) SwapRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}
	if current == "" {
		return false, nil
	}

	// The filter on the current value makes this a single-document
	// compare-and-set; concurrent callers cannot both match.
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "refreshToken": current},
		bson.M{"$set": bson.M{"refreshToken": next, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	if res.MatchedCount == 1 {
		return true, nil
	}

	n, err := s.users.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *MongoStore) ClearRefreshToken(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *MongoStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"refreshToken": 1},
	})
}

func (s *MongoStore) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
