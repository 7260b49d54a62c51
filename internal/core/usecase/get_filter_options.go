package usecase

import (
	"context"

	"rentals-service/internal/contextkeys"
	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/pipeline"
	"rentals-service/internal/core/port"
)

type GetFilterOptionsUseCase struct {
	snapshots port.SnapshotReader[domain.Listing]
	sliders   domain.SliderBounds
}

func NewGetFilterOptionsUseCase(snapshots port.SnapshotReader[domain.Listing], sliders domain.SliderBounds) *GetFilterOptionsUseCase {
	return &GetFilterOptionsUseCase{snapshots: snapshots, sliders: sliders}
}

func (uc *GetFilterOptionsUseCase) Execute(ctx context.Context) (*domain.FilterOptions, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	logger.WithFields(port.Fields{"use_case": "GetFilterOptions"}).Debug("Use case started", nil)

	snapshot, _ := uc.snapshots.Snapshot()
	return &domain.FilterOptions{
		Cities:  pipeline.UniqueCities(snapshot),
		Sliders: uc.sliders,
	}, nil
}
