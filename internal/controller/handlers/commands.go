package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.start(ctx, b, update)
}

func (h *Handlers) start(ctx context.Context, s messageSender, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if !h.isOperator(update.Message.From.ID) {
		h.sendMessage(ctx, s, update.Message.Chat.ID,
			"👋 Это служебный бот клиники.\n\nВаш Telegram ID: "+strconv.FormatInt(update.Message.From.ID, 10)+
				"\nПередайте его администратору, чтобы получить доступ.")
		return
	}

	h.sendMessage(ctx, s, update.Message.Chat.ID, "👋 Привет, "+update.Message.From.FirstName+"!\n\n"+helpText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

const helpText = "📚 Справка по командам:\n\n" +
	"/schedule <patient_package_id> - Сгенерировать занятия по расписанию пакета\n" +
	"/usage <session_id> - Учесть проведённое занятие в пакете\n" +
	"/subscription <clinic_id> - Проверить подписку клиники\n" +
	"/help - Показать эту справку"

// HandleSchedule обрабатывает команду /schedule <patient_package_id>
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.schedule(ctx, b, update)
}

func (h *Handlers) schedule(ctx context.Context, s messageSender, update *models.Update) {
	chatID, ok := h.requireOperator(ctx, s, update)
	if !ok {
		return
	}

	id, err := parseIDArgument(update.Message.Text, CommandSchedule)
	if err != nil {
		h.sendError(ctx, s, chatID, "❌ "+err.Error())
		return
	}

	result, err := h.scheduler.SchedulePackage(ctx, id)
	if err != nil {
		h.replyServiceError(ctx, s, chatID, CommandSchedule, err)
		return
	}

	h.logger.Info("Package scheduled by operator",
		zap.Int64("telegram_id", update.Message.From.ID),
		zap.String("patient_package_id", id.String()),
		zap.Int("sessions_created", result.Created))

	h.sendMessage(ctx, s, chatID, FormatScheduleResult(result))
}

// HandleUsage обрабатывает команду /usage <session_id>
func (h *Handlers) HandleUsage(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.trackUsage(ctx, b, update)
}

func (h *Handlers) trackUsage(ctx context.Context, s messageSender, update *models.Update) {
	chatID, ok := h.requireOperator(ctx, s, update)
	if !ok {
		return
	}

	id, err := parseIDArgument(update.Message.Text, CommandUsage)
	if err != nil {
		h.sendError(ctx, s, chatID, "❌ "+err.Error())
		return
	}

	result, err := h.usage.TrackSession(ctx, id)
	if err != nil {
		h.replyServiceError(ctx, s, chatID, CommandUsage, err)
		return
	}

	h.sendMessage(ctx, s, chatID, FormatUsageResult(result))
}

// HandleSubscription обрабатывает команду /subscription <clinic_id>
func (h *Handlers) HandleSubscription(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.checkSubscription(ctx, b, update)
}

func (h *Handlers) checkSubscription(ctx context.Context, s messageSender, update *models.Update) {
	chatID, ok := h.requireOperator(ctx, s, update)
	if !ok {
		return
	}

	id, err := parseIDArgument(update.Message.Text, CommandSubscription)
	if err != nil {
		h.sendError(ctx, s, chatID, "❌ "+err.Error())
		return
	}

	check, err := h.subscriptions.CheckClinic(ctx, id)
	if err != nil {
		h.replyServiceError(ctx, s, chatID, CommandSubscription, err)
		return
	}

	h.sendMessage(ctx, s, chatID, FormatSubscriptionCheck(check))
}
