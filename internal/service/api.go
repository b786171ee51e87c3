package service

import (
	"context"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// AssetAPI: подмножество клиента внешнего API, используемое сервисами.
// Реализуется *assetapi.Client.
type AssetAPI interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)

	ListAssets(ctx context.Context, token string) ([]model.AssetRecord, error)
	CreateAsset(ctx context.Context, token string, asset model.AssetRecord) error
	UpdateAsset(ctx context.Context, token, id string, asset model.AssetRecord) error
	DeleteAsset(ctx context.Context, token, id string) error

	ListUsers(ctx context.Context, token string) ([]model.UserRecord, error)
	CreateUser(ctx context.Context, token string, u model.NewUser) error
	UpdateRole(ctx context.Context, token, userID, role string) error

	ListRequests(ctx context.Context, token string) ([]model.RequestRecord, error)
	ListMyRequests(ctx context.Context, token string) ([]model.RequestRecord, error)
	CreateRequest(ctx context.Context, token string, r model.NewRequest) error
	UpdateRequestStatus(ctx context.Context, token, id string, status model.RequestStatus) error
}
