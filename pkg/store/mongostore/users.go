package mongostore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

func (dbService *PortalDBService) CreateIndexForUsers() {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionUsers().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "createdAt", Value: 1}},
			},
		},
	)
	if err != nil {
		slog.Error("failed to create index for users", slog.String("error", err.Error()))
	}
}

func (dbService *PortalDBService) AddUser(ctx context.Context, user userTypes.User) (string, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	_, err := dbService.collectionUsers().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", store.ErrDuplicateEmail
		}
		return "", err
	}
	return user.ID, nil
}

func (dbService *PortalDBService) GetUser(ctx context.Context, userID string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var user userTypes.User
	err := dbService.collectionUsers().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userTypes.User{}, store.ErrNotFound
		}
		return userTypes.User{}, err
	}
	return user, nil
}

func (dbService *PortalDBService) GetUserByEmail(ctx context.Context, email string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var user userTypes.User
	err := dbService.collectionUsers().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userTypes.User{}, store.ErrNotFound
		}
		return userTypes.User{}, err
	}
	return user, nil
}

func (dbService *PortalDBService) ReplaceUser(ctx context.Context, user userTypes.User) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	result, err := dbService.collectionUsers().ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteUnverifiedUsers removes accounts that never confirmed their email
// address and were created before the given cutoff.
func (dbService *PortalDBService) DeleteUnverifiedUsers(ctx context.Context, createdBefore time.Time) (int64, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{
		"emailVerifiedAt": 0,
		"createdAt":       bson.M{"$lt": createdBefore},
	}
	result, err := dbService.collectionUsers().DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (dbService *PortalDBService) DeleteUser(ctx context.Context, userID string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	result, err := dbService.collectionUsers().DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
