package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) exchangeOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-exchange",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Обмен изменениями",
		Description: "Принимает пакет локальных изменений и возвращает серверные изменения после курсора. " +
			"Повтор того же запроса с тем же курсором безопасен.",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
