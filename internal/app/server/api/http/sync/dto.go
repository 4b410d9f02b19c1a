package sync

import "wordsync/internal/model"

type exchangeInput struct {
	Body model.ExchangeRequest
}

type exchangeOutput struct {
	Body model.ExchangeResponse
}
