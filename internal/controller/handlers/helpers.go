package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// parseIDArgument достаёт UUID из "/command <id>"
func parseIDArgument(text, command string) (uuid.UUID, error) {
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), command))
	// "/schedule@my_bot <id>"
	if strings.HasPrefix(arg, "@") {
		if i := strings.IndexByte(arg, ' '); i >= 0 {
			arg = strings.TrimSpace(arg[i:])
		} else {
			arg = ""
		}
	}
	if arg == "" {
		return uuid.Nil, fmt.Errorf("укажите идентификатор: %s <uuid>", command)
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("некорректный идентификатор %q", arg)
	}
	return id, nil
}

// FormatScheduleResult форматирует итог генерации занятий
func FormatScheduleResult(r *service.ScheduleResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ Создано занятий: %d\n", r.Created)
	fmt.Fprintf(&sb, "🔁 Уже существовали: %d\n", r.Duplicates+r.Conflicts)

	if len(r.SkippedConfigs) > 0 {
		fmt.Fprintf(&sb, "\n⚠️ Пропущено правил: %d\n", len(r.SkippedConfigs))
		for _, s := range r.SkippedConfigs {
			fmt.Fprintf(&sb, "• %s: %s\n", s.TherapyTypeID, s.Reason)
		}
	}

	if len(r.FailedBatches) > 0 {
		fmt.Fprintf(&sb, "\n❌ Не вставлено пачек: %d\n", len(r.FailedBatches))
		for _, b := range r.FailedBatches {
			fmt.Fprintf(&sb, "• #%d (%d занятий): %v\n", b.Index, b.Size, b.Err)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatUsageResult форматирует итог учёта занятия
func FormatUsageResult(r *service.UsageResult) string {
	if !r.Tracked {
		return "ℹ️ " + r.Message
	}
	text := "✅ " + r.Message
	if r.LimitReached {
		text += "\n⚠️ Лимит занятий по этой терапии исчерпан."
	}
	return text
}

// FormatSubscriptionCheck форматирует состояние подписки клиники
func FormatSubscriptionCheck(c *service.SubscriptionCheck) string {
	switch {
	case c.HasActive:
		return fmt.Sprintf("✅ Подписка активна\n\n📦 Тариф: %s\n📅 До: %s\n⏳ Осталось дней: %d",
			c.Subscription.Tier,
			c.Subscription.ExpiresAt.Format("02.01.2006"),
			c.DaysRemaining)
	case c.Expired:
		return fmt.Sprintf("⌛ Подписка истекла %s (тариф %s)",
			c.Subscription.ExpiresAt.Format("02.01.2006"),
			c.Subscription.Tier)
	default:
		return "❌ Активной подписки нет"
	}
}

// describeError текст ошибки сервиса для оператора
func describeError(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrPackageNotFound):
		return "❌ Пакет пациента не найден.", true
	case errors.Is(err, service.ErrExpiryNotSet):
		return "❌ У пакета не задан срок действия.", true
	case errors.Is(err, service.ErrNoAssignments):
		return "❌ Пациенту не назначены терапевты по этому пакету.", true
	case errors.Is(err, service.ErrNoScheduleConfigs):
		return "❌ Для пакета не сохранено расписание.", true
	case errors.Is(err, service.ErrSessionNotFound):
		return "❌ Занятие не найдено.", true
	}
	return "", false
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, s messageSender, chatID int64, text string) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, s messageSender, chatID int64, text string) {
	_, err := s.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// replyServiceError отвечает оператору по ошибке сервиса
func (h *Handlers) replyServiceError(ctx context.Context, s messageSender, chatID int64, command string, err error) {
	if text, ok := describeError(err); ok {
		h.sendError(ctx, s, chatID, text)
		return
	}
	h.logger.Error("Command failed", zap.String("command", command), zap.Error(err))
	h.sendError(ctx, s, chatID, msgInternalError)
}
