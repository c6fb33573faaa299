// Package mongostore implements the persistent stores on MongoDB. One
// database holds the portal user accounts, OTP records, sessions and the
// refresh-token index.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collection names
const (
	COLLECTION_NAME_USERS               = "users"
	COLLECTION_NAME_OTPS                = "otps"
	COLLECTION_NAME_SESSIONS            = "sessions"
	COLLECTION_NAME_REFRESH_TOKEN_INDEX = "refreshTokenIndex"
)

type DBConfig struct {
	URI             string
	DBNamePrefix    string
	Timeout         int
	MaxPoolSize     uint64
	IdleConnTimeout int
}

type PortalDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
}

func NewPortalDBService(configs DBConfig) (*PortalDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()

	if err != nil {
		return nil, err
	}

	return &PortalDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
	}, nil
}

func (dbService *PortalDBService) getDBName() string {
	return dbService.DBNamePrefix + "portal"
}

func (dbService *PortalDBService) getContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(dbService.timeout)*time.Second)
}

func (dbService *PortalDBService) collectionUsers() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_USERS)
}

func (dbService *PortalDBService) collectionOTPs() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_OTPS)
}

func (dbService *PortalDBService) collectionSessions() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_SESSIONS)
}

func (dbService *PortalDBService) collectionRefreshTokenIndex() *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName()).Collection(COLLECTION_NAME_REFRESH_TOKEN_INDEX)
}

func (dbService *PortalDBService) CreateDefaultIndexes() {
	dbService.CreateIndexForUsers()
	dbService.CreateIndexForOTPs()
	dbService.CreateIndexForSessions()
	dbService.CreateIndexForRefreshTokenIndex()
}

func (dbService *PortalDBService) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
	defer cancel()
	return dbService.DBClient.Disconnect(ctx)
}
