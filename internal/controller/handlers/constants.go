package handlers

// Команды бота
const (
	CommandStart        = "/start"
	CommandHelp         = "/help"
	CommandSchedule     = "/schedule"
	CommandUsage        = "/usage"
	CommandSubscription = "/subscription"
)

const (
	msgInternalError = "❌ Произошла ошибка. Попробуйте позже."
	msgNotOperator   = "⛔ Команда доступна только операторам клиники."
)
