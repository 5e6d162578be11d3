package redisstore_test

import (
	"context"

	"fxrates-adapter/internal/application"
	"fxrates-adapter/internal/domain"
)

type staticModel struct{}

func (staticModel) All(context.Context, application.Query) ([]domain.Row, error) {
	return []domain.Row{{"code": "EUR", "exchange_rate": 0.85}}, nil
}

func (staticModel) First(context.Context, application.Query) (domain.Row, bool, error) {
	return domain.Row{"code": "EUR"}, true, nil
}
