package controller

import (
	"context"

	"github.com/Freeeeeet/therapy_scheduler/internal/controller/handlers"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	scheduler handlers.PackageScheduler,
	usage handlers.UsageTracker,
	subscriptions handlers.SubscriptionChecker,
	operatorIDs []int64,
	logger *zap.Logger,
) *BotController {
	cmdHandlers := handlers.NewHandlers(
		scheduler,
		usage,
		subscriptions,
		operatorIDs,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, handlers.CommandStart, bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, handlers.CommandHelp, bot.MatchTypeExact, c.handlers.HandleHelp)

	// Команды с аргументом
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, handlers.CommandSchedule, bot.MatchTypePrefix, c.handlers.HandleSchedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, handlers.CommandUsage, bot.MatchTypePrefix, c.handlers.HandleUsage)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, handlers.CommandSubscription, bot.MatchTypePrefix, c.handlers.HandleSubscription)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "schedule", Description: "🗓 Сгенерировать занятия пакета"},
		{Command: "usage", Description: "📊 Учесть проведённое занятие"},
		{Command: "subscription", Description: "💳 Проверить подписку клиники"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота; блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
