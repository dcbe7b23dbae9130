package pipeline

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"brewspot/config"
	"brewspot/models"
)

type StaleFinder interface {
	FindStale(ctx context.Context, dataVersion string, limit int) ([]primitive.ObjectID, error)
}

type RefreshRequester interface {
	RequestRefresh(ctx context.Context, id primitive.ObjectID, by models.TriggeredBy) error
}

// Backfill 은 ai_meta 가 없거나 버전이 다른 승인 리스팅에 대해 재생성 요청 이벤트를 다시 발행한다.
// data_version 을 올린 뒤 processor 를 재시작하면 기존 리스팅이 순차적으로 갱신된다.
// 발행에 실패한 리스팅은 건너뛰고 다음 기동 때 다시 대상이 된다.
func Backfill(ctx context.Context, finder StaleFinder, requester RefreshRequester, dataVersion string, limit int) (int, error) {
	ids, err := finder.FindStale(ctx, dataVersion, limit)
	if err != nil {
		return 0, fmt.Errorf("find stale listings: %w", err)
	}

	published := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		if err := requester.RequestRefresh(ctx, id, models.TriggeredBySystem); err != nil {
			config.WarnWithFields("backfill: failed to request refresh", config.Fields{
				"listing_id": id.Hex(),
				"error":      err.Error(),
			})
			continue
		}
		published++
	}
	config.Logger.Infof("backfill: %d/%d stale listings queued for data_version %s", published, len(ids), dataVersion)
	return published, nil
}
