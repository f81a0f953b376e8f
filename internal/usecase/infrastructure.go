package usecase

import "context"

// ImagesInfra выдаёт временные подписанные ссылки на изображения.
// Любой сбой хранилища деградирует в nil, а не в ошибку.
type ImagesInfra interface {
	IssueURL(ctx context.Context, filename string) *string
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
