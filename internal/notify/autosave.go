package notify

import (
	"context"
	"log/slog"

	"resumeForge/internal/errcode"
)

const saveFailedMessage = "autosave failed, your latest changes are kept in this session"

// SaveFailureNotifier 把自动保存失败转成一条瞬时通知，满足 autosave.Notifier。
type SaveFailureNotifier struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewSaveFailureNotifier(publisher Publisher, logger *slog.Logger) *SaveFailureNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveFailureNotifier{publisher: publisher, logger: logger}
}

// SaveFailed publishes the failure. Publish errors are only logged.
func (n *SaveFailureNotifier) SaveFailed(ctx context.Context, key string, err error) {
	msg := Message{
		Type:         TypeSave,
		Status:       StatusFailed,
		ResumeID:     key,
		ErrorCode:    errcode.SaveFailed,
		ErrorMessage: saveFailedMessage,
	}
	if sendErr := Send(ctx, n.publisher, msg); sendErr != nil {
		n.logger.Warn("publish save failure notification failed",
			slog.String("resume_key", key),
			slog.Any("cause", err),
			slog.Any("error", sendErr),
		)
	}
}
