package service

import (
	"context"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// loadRecurrenceRules загружает правила повторения пакета.
// Сначала обогащённый запрос; если он упал или пуст - простой запрос
// и отдельный поиск названий терапий.
func (s *SchedulingService) loadRecurrenceRules(ctx context.Context, patientPackageID uuid.UUID, logger *zap.Logger) ([]*model.ScheduleConfig, error) {
	configs, err := s.configs.FetchConfigsEnriched(ctx, patientPackageID)
	if err == nil && len(configs) > 0 {
		logger.Debug("Loaded schedule configs", zap.Int("count", len(configs)))
		return configs, nil
	}

	if err != nil {
		logger.Warn("Enriched schedule config query failed, using raw query", zap.Error(err))
	} else {
		logger.Debug("Enriched schedule config query is empty, using raw query")
	}

	configs, err = s.configs.FetchConfigsRaw(ctx, patientPackageID)
	if err != nil {
		return nil, storeError("Failed to fetch schedule configurations", err)
	}
	if len(configs) == 0 {
		return nil, ErrNoScheduleConfigs
	}

	// Названия терапий нужны только для логов, ошибки здесь не критичны
	for _, cfg := range configs {
		therapy, err := s.configs.GetTherapy(ctx, cfg.TherapyTypeID)
		if err != nil {
			logger.Debug("Failed to fetch therapy name",
				zap.String("therapy_type_id", cfg.TherapyTypeID.String()),
				zap.Error(err))
			continue
		}
		cfg.Therapy = therapy
	}

	logger.Debug("Loaded raw schedule configs", zap.Int("count", len(configs)))
	return configs, nil
}

func therapyName(cfg *model.ScheduleConfig) string {
	if cfg.Therapy == nil {
		return ""
	}
	return cfg.Therapy.Name
}
