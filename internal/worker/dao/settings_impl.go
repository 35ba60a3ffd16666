package dao

import (
	"context"
	"errors"
	"time"
	"web3-copytrade/internal/worker/model"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settingsCacheKey = "bot_settings"

type settingsDAO struct {
	db         *gorm.DB
	localCache *cache.Cache
}

func NewSettingsDAO(db *gorm.DB) SettingsDAO {
	return &settingsDAO{
		db:         db,
		localCache: cache.New(10*time.Minute, time.Minute),
	}
}

func (s *settingsDAO) Load(ctx context.Context) (*model.BotSettings, error) {
	if cached, found := s.localCache.Get(settingsCacheKey); found {
		if settings, ok := cached.(model.BotSettings); ok {
			return &settings, nil
		}
	}

	var row model.BotSettingsRow
	err := s.db.WithContext(ctx).Where("id = ?", 1).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	settings := row.Settings()
	s.localCache.Set(settingsCacheKey, settings, cache.DefaultExpiration)
	return &settings, nil
}

func (s *settingsDAO) Save(ctx context.Context, settings model.BotSettings) error {
	row := model.NewBotSettingsRow(settings)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"max_amount_per_tx", "slippage_bps", "delay_ms", "blacklisted_tokens", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return err
	}
	s.localCache.Set(settingsCacheKey, settings, cache.DefaultExpiration)
	return nil
}
