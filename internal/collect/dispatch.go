package collect

import (
	"context"
	"fmt"

	"sto/domain"
)

// Saver сохраняет результат в БД по конфигу save_bd
type Saver interface {
	Save(ctx context.Context, req domain.SaveRequest) (domain.SaveResult, error)
}

// Storer складывает результат во временный JSON-файл
type Storer interface {
	SaveButtonJSON(data any) (string, error)
}

// Target куда отправить собранный результат
type Target struct {
	// SaveBDConfig имя конфига save_bd; если пусто, результат пишется в файл
	SaveBDConfig string
	// OnlyNew перед сохранением очистить заказы (галочка «Только новые данные»)
	OnlyNew bool
}

// Outcome либо id заказа, либо имя файла
type Outcome struct {
	OrderID string `json:"id,omitempty"`
	File    string `json:"file,omitempty"`
}

// Dispatch отправляет результат в БД или во временное хранилище
func Dispatch(ctx context.Context, out domain.Record, target Target, saver Saver, storer Storer) (Outcome, error) {
	if target.SaveBDConfig != "" {
		res, err := saver.Save(ctx, domain.SaveRequest{
			Config:     target.SaveBDConfig,
			ReplaceAll: target.OnlyNew,
			Data:       out,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to save to database: %w", err)
		}
		return Outcome{OrderID: res.OrderID}, nil
	}

	file, err := storer.SaveButtonJSON(out)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to store result: %w", err)
	}
	return Outcome{File: file}, nil
}
