package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"catalog-analyzer/internal/domains/statistic"
)

type statisticService struct {
	repo statistic.StatisticRepository
}

func NewStatisticService(repo statistic.StatisticRepository) statistic.Service {
	return &statisticService{repo: repo}
}

func (s *statisticService) NodeStatistic(ctx context.Context, id uuid.UUID, start, end *time.Time) (*statistic.StatResponse, error) {
	exists, err := s.repo.UnitExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, statistic.ErrUnitNotFound
	}

	if start != nil && end != nil && !start.Before(*end) {
		return nil, fmt.Errorf("dateStart %s is not before dateEnd %s: %w",
			start.Format(time.RFC3339), end.Format(time.RFC3339), statistic.ErrInvalidDateRange)
	}

	records, err := s.repo.EventsByUnit(ctx, id, start, end)
	if err != nil {
		return nil, err
	}
	return toResponse(records), nil
}

func (s *statisticService) Sales(ctx context.Context, date time.Time) (*statistic.StatResponse, error) {
	records, err := s.repo.LatestOfferEvents(ctx, date.Add(-24*time.Hour), date)
	if err != nil {
		return nil, err
	}
	return toResponse(records), nil
}

func toResponse(records []statistic.Record) *statistic.StatResponse {
	items := make([]statistic.StatUnit, 0, len(records))
	for _, rec := range records {
		items = append(items, statistic.StatUnit{
			ID:       rec.UnitID,
			Name:     rec.Name,
			ParentID: rec.ParentID,
			Type:     rec.Type(),
			Price:    rec.Price,
			Date:     rec.Date,
		})
	}
	return &statistic.StatResponse{Items: items}
}
