package mongostore

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/egov-portal/portal-backend/pkg/store"
	userTypes "github.com/egov-portal/portal-backend/pkg/user-management/types"
)

type refreshTokenIndexEntry struct {
	RefreshToken string `bson:"_id"`
	SessionID    string `bson:"sessionID"`
}

func (dbService *PortalDBService) CreateIndexForSessions() {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionSessions().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "userID", Value: 1}},
			},
			{
				Keys:    bson.D{{Key: "refreshExpiresAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
	)
	if err != nil {
		slog.Error("failed to create index for sessions", slog.String("error", err.Error()))
	}
}

func (dbService *PortalDBService) CreateIndexForRefreshTokenIndex() {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionRefreshTokenIndex().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "sessionID", Value: 1}},
			},
		},
	)
	if err != nil {
		slog.Error("failed to create index for refresh token index", slog.String("error", err.Error()))
	}
}

func (dbService *PortalDBService) SaveSession(ctx context.Context, session userTypes.Session) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"_id": session.ID}
	_, err := dbService.collectionSessions().ReplaceOne(ctx, filter, session, options.Replace().SetUpsert(true))
	return err
}

func (dbService *PortalDBService) GetSession(ctx context.Context, sessionID string) (userTypes.Session, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var session userTypes.Session
	err := dbService.collectionSessions().FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userTypes.Session{}, store.ErrNotFound
		}
		return userTypes.Session{}, err
	}
	return session, nil
}

func (dbService *PortalDBService) UpdateSession(ctx context.Context, session userTypes.Session) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	result, err := dbService.collectionSessions().ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (dbService *PortalDBService) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_, err := dbService.collectionSessions().DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}

func (dbService *PortalDBService) GetSessionsForUser(ctx context.Context, userID string) ([]userTypes.Session, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	cursor, err := dbService.collectionSessions().Find(ctx, bson.M{"userID": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []userTypes.Session{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (dbService *PortalDBService) IndexRefreshToken(ctx context.Context, refreshToken string, sessionID string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	entry := refreshTokenIndexEntry{RefreshToken: refreshToken, SessionID: sessionID}
	filter := bson.M{"_id": refreshToken}
	_, err := dbService.collectionRefreshTokenIndex().ReplaceOne(ctx, filter, entry, options.Replace().SetUpsert(true))
	return err
}

func (dbService *PortalDBService) LookupRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	var entry refreshTokenIndexEntry
	err := dbService.collectionRefreshTokenIndex().FindOne(ctx, bson.M{"_id": refreshToken}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return entry.SessionID, nil
}

func (dbService *PortalDBService) RemoveRefreshToken(ctx context.Context, refreshToken string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_, err := dbService.collectionRefreshTokenIndex().DeleteOne(ctx, bson.M{"_id": refreshToken})
	return err
}

// RemoveOrphanedRefreshTokens drops refresh token index entries whose
// session no longer exists. Sessions are removed by the TTL index, the
// lookup entries have no expiry field of their own.
func (dbService *PortalDBService) RemoveOrphanedRefreshTokens(ctx context.Context) (int64, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	cursor, err := dbService.collectionRefreshTokenIndex().Find(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	removed := int64(0)
	for cursor.Next(ctx) {
		var entry refreshTokenIndexEntry
		if err := cursor.Decode(&entry); err != nil {
			return removed, err
		}

		err := dbService.collectionSessions().FindOne(ctx, bson.M{"_id": entry.SessionID}).Err()
		if err == nil {
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return removed, err
		}

		if _, err := dbService.collectionRefreshTokenIndex().DeleteOne(ctx, bson.M{"_id": entry.RefreshToken}); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, cursor.Err()
}
