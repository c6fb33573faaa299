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

func (dbService *PortalDBService) CreateIndexForOTPs() {
	ctx, cancel := dbService.getContext(context.Background())
	defer cancel()

	_, err := dbService.collectionOTPs().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "userID", Value: 1},
					{Key: "channel", Value: 1},
					{Key: "purpose", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "expiresAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
	)
	if err != nil {
		slog.Error("failed to create index for otps", slog.String("error", err.Error()))
	}
}

// CreateOTP replaces the record in the user+channel+purpose slot, there
// is never more than one live code per slot.
func (dbService *PortalDBService) CreateOTP(ctx context.Context, otp userTypes.OTP) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"userID": otp.UserID, "channel": otp.Channel, "purpose": otp.Purpose}
	_, err := dbService.collectionOTPs().ReplaceOne(ctx, filter, otp, options.Replace().SetUpsert(true))
	return err
}

func (dbService *PortalDBService) FindOTP(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) (userTypes.OTP, error) {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"userID": userID, "channel": channel, "purpose": purpose}
	var otp userTypes.OTP
	err := dbService.collectionOTPs().FindOne(ctx, filter).Decode(&otp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userTypes.OTP{}, store.ErrNotFound
		}
		return userTypes.OTP{}, err
	}
	return otp, nil
}

func (dbService *PortalDBService) UpdateOTP(ctx context.Context, otp userTypes.OTP) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"userID": otp.UserID, "channel": otp.Channel, "purpose": otp.Purpose}
	result, err := dbService.collectionOTPs().ReplaceOne(ctx, filter, otp)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (dbService *PortalDBService) DeleteOTP(ctx context.Context, userID string, channel userTypes.OTPChannel, purpose userTypes.OTPPurpose) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	filter := bson.M{"userID": userID, "channel": channel, "purpose": purpose}
	_, err := dbService.collectionOTPs().DeleteOne(ctx, filter)
	return err
}

func (dbService *PortalDBService) DeleteOTPsForUser(ctx context.Context, userID string) error {
	ctx, cancel := dbService.getContext(ctx)
	defer cancel()

	_, err := dbService.collectionOTPs().DeleteMany(ctx, bson.M{"userID": userID})
	return err
}
