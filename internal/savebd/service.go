package savebd

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"sto/domain"
	"sto/internal/value"
	"sto/pkg/jsonx"
)

// replaceAllKey флаг в payload: перед сохранением удалить все заказы
const replaceAllKey = "replace_all"

// ConfigLoader отдаёт конфиг save_bd по имени
type ConfigLoader interface {
	SaveConfig(name string) (jsonx.Object, error)
}

// Store выполняет план в одной транзакции
type Store interface {
	Apply(ctx context.Context, plan Plan) error
}

// Service связывает загрузку конфига, построение плана и запись в БД
type Service struct {
	configs     ConfigLoader
	store       Store
	interpreter *Interpreter
	logger      *zap.Logger
}

func NewService(configs ConfigLoader, store Store, interpreter *Interpreter, logger *zap.Logger) *Service {
	return &Service{
		configs:     configs,
		store:       store,
		interpreter: interpreter,
		logger:      logger,
	}
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (domain.SaveResult, error) {
	if req.Config == "" {
		return domain.SaveResult{}, ErrMissingConfig
	}

	config, err := s.configs.SaveConfig(req.Config)
	if err != nil {
		return domain.SaveResult{}, err
	}

	payload, err := normalize(req.Data)
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("failed to read payload: %w", err)
	}
	replaceAll := req.ReplaceAll || value.Truthy(payload[replaceAllKey])
	delete(payload, replaceAllKey)

	plan, err := s.interpreter.Build(config, payload, replaceAll)
	if err != nil {
		return domain.SaveResult{}, err
	}

	if err = s.store.Apply(ctx, plan); err != nil {
		return domain.SaveResult{}, fmt.Errorf("DB: %w", err)
	}

	s.logger.Info("order saved",
		zap.String("config", req.Config),
		zap.String("order_id", plan.OrderID),
		zap.Int("statements", len(plan.Statements)),
		zap.Bool("replace_all", replaceAll),
	)
	return domain.SaveResult{OrderID: plan.OrderID}, nil
}

// normalize приводит payload к виду json.Unmarshal: map[string]any, []any, float64
func normalize(data domain.Record) (map[string]any, error) {
	if data == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err = json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
