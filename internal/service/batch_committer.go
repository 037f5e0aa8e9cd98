package service

import (
	"context"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"go.uber.org/zap"
)

// commitSessions вставляет занятия пачками. Ошибка пачки записывается,
// следующие пачки продолжают вставляться; успешные пачки не откатываются.
func (s *SchedulingService) commitSessions(ctx context.Context, sessions []*model.Session, result *ScheduleResult, logger *zap.Logger) {
	for start, index := 0, 0; start < len(sessions); start, index = start+s.batchSize, index+1 {
		end := min(start+s.batchSize, len(sessions))
		batch := sessions[start:end]

		inserted, err := s.sessions.InsertSessions(ctx, batch)
		if err != nil {
			logger.Error("Failed to insert sessions batch",
				zap.Int("batch", index),
				zap.Int("size", len(batch)),
				zap.Error(err))
			result.FailedBatches = append(result.FailedBatches, BatchFailure{
				Index: index,
				Size:  len(batch),
				Err:   err,
			})
			continue
		}

		result.Created += inserted
		result.Conflicts += len(batch) - inserted
	}
}
