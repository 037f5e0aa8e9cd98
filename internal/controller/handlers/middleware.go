package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// isOperator входит ли пользователь в список операторов
func (h *Handlers) isOperator(userID int64) bool {
	_, ok := h.operators[userID]
	return ok
}

// requireOperator проверяет что сообщение пришло от оператора
// Возвращает chat ID и true если OK
func (h *Handlers) requireOperator(ctx context.Context, s messageSender, update *models.Update) (int64, bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, false
	}

	chatID := update.Message.Chat.ID
	if !h.isOperator(update.Message.From.ID) {
		h.logger.Warn("Command from non-operator",
			zap.Int64("telegram_id", update.Message.From.ID),
			zap.String("text", update.Message.Text))
		h.sendError(ctx, s, chatID, msgNotOperator)
		return 0, false
	}

	return chatID, true
}
