package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"meal-calendar/internal/app"
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/config"
	"meal-calendar/internal/metrics"
	"meal-calendar/internal/search"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const helpText = `🍽 *Meal Calendar*

/week - show this week's plan
/shopping - shopping list for the week
/add <day> <meal> - search a recipe for a slot
/clear <day> <meal> - empty a slot
/cancel - stop the current search
Send a recipe link to import it.`

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot exposes the meal calendar over a Telegram webhook.
type Bot struct {
	api          sender
	app          *app.App
	metricsStore *metrics.Store
	cfg          *config.Config

	listening sync.Map
	wg        sync.WaitGroup
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, metricsStore *metrics.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	zap.L().Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook URL %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		zap.L().Info("Webhook set", zap.String("response", resp.Description))
	}

	return newBot(api, cfg, a, metricsStore), nil
}

func newBot(api sender, cfg *config.Config, a *app.App, metricsStore *metrics.Store) *Bot {
	return &Bot{api: api, app: a, metricsStore: metricsStore, cfg: cfg}
}

// RegisterHandlers registers the webhook handler on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", b.handleWebhook)
}

// Wait blocks until every update being processed is done.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		zap.L().Warn("Error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handleUpdate(update)
	}()
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		b.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		if !b.allowed(update.Message.From) {
			return
		}
		b.processMessage(update.Message)
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if !b.cfg.IsTelegramUserAllowed(from.ID) {
		zap.L().Warn("⚠️ Unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
		return false
	}
	return true
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx := context.Background()
	chatID := msg.Chat.ID
	owner := chatOwner(chatID)

	if msg.IsCommand() {
		args := strings.Fields(msg.CommandArguments())
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, helpText)
		case "week":
			b.handleWeek(ctx, chatID)
		case "shopping":
			b.handleShopping(ctx, chatID)
		case "add":
			b.handleAdd(chatID, args)
		case "clear":
			b.handleClear(ctx, chatID, args)
		case "cancel":
			b.app.CloseSearch(owner)
			b.reply(chatID, "👌 Search cancelled.")
		case "metrics":
			b.handleMetricsRequest(ctx, msg)
		default:
			b.reply(chatID, helpText)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleImport(ctx, chatID, text)
		return
	}

	if b.app.SearchState(owner).State == search.Closed {
		b.reply(chatID, helpText)
		return
	}
	if text == "" {
		return
	}
	if err := b.app.SubmitSearch(owner, text); err != nil {
		b.replyError(chatID, "Error starting search", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🔎 *Searching for* _%s_ ...", escape(text)))
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64) {
	week, err := b.app.Week(ctx, chatOwner(chatID))
	if err != nil {
		b.replyError(chatID, "Error loading week", err)
		return
	}
	b.reply(chatID, formatWeekMarkdown(week))
}

func (b *Bot) handleShopping(ctx context.Context, chatID int64) {
	list, err := b.app.ShoppingList(ctx, chatOwner(chatID))
	if err != nil {
		b.replyError(chatID, "Error building shopping list", err)
		return
	}
	b.reply(chatID, formatShoppingList(list.Items))
}

func (b *Bot) handleAdd(chatID int64, args []string) {
	day, meal, err := parseSlot(args)
	if err != nil {
		b.reply(chatID, "Usage: /add <day> <meal>, e.g. `/add monday dinner`")
		return
	}

	owner := chatOwner(chatID)
	if _, loaded := b.listening.LoadOrStore(owner, struct{}{}); !loaded {
		b.app.OnSearchResolved(owner, func(snap search.Snapshot) {
			b.sendResults(chatID, snap)
		})
	}
	if err := b.app.OpenSearch(owner, day, meal); err != nil {
		b.replyError(chatID, "Error opening search", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🍳 What should I look for on *%s* (%s)? Send a search term or /cancel.", day.Title(), meal))
}

func (b *Bot) handleClear(ctx context.Context, chatID int64, args []string) {
	day, meal, err := parseSlot(args)
	if err != nil {
		b.reply(chatID, "Usage: /clear <day> <meal>, e.g. `/clear monday dinner`")
		return
	}
	week, err := b.app.Clear(ctx, chatOwner(chatID), day, meal)
	if err != nil {
		b.replyError(chatID, "Error clearing slot", err)
		return
	}
	b.reply(chatID, formatWeekMarkdown(week))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, url string) {
	sent, err := b.api.Send(mdMessage(chatID, "✂️ *Clipping recipe...*"))
	if err != nil {
		zap.L().Warn("Failed to send initial reply", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var finalText string
	r, err := b.app.ImportURL(ctx, url)
	if err != nil {
		zap.L().Warn("Error clipping recipe", zap.String("url", url), zap.Error(err))
		finalText = formatError("Error clipping recipe", err)
	} else {
		finalText = fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Ingredients:* %d", escape(r.Label), len(r.IngredientLines))
	}
	b.send(mdEdit(chatID, sent.MessageID, finalText))
}

func (b *Bot) sendResults(chatID int64, snap search.Snapshot) {
	switch {
	case snap.State == search.Idle && snap.Err != nil:
		b.reply(chatID, formatError("Search failed, send another term or /cancel", snap.Err))
	case snap.State == search.Ready && len(snap.Results) == 0:
		b.reply(chatID, fmt.Sprintf("🤷 Nothing found for _%s_. Try another term or /cancel.", escape(snap.Query)))
	case snap.State == search.Ready:
		msg := mdMessage(chatID, formatResults(snap))
		msg.ReplyMarkup = resultsKeyboard(snap)
		b.send(msg)
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	ctx := context.Background()
	chatID := query.Message.Chat.ID
	owner := chatOwner(chatID)

	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		zap.L().Debug("Failed to answer callback", zap.Error(err))
	}

	if query.Data == cancelData {
		b.app.CloseSearch(owner)
		b.send(tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, "👌 Search cancelled."))
		return
	}

	gen, index, err := parsePickData(query.Data)
	if err != nil {
		zap.L().Warn("Unexpected callback data", zap.String("data", query.Data))
		return
	}

	week, err := b.app.SelectResultFrom(ctx, owner, gen, index)
	switch {
	case errors.Is(err, search.ErrStaleResults), errors.Is(err, search.ErrNotOpen), errors.Is(err, search.ErrNotReady):
		b.send(tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, "⌛ These results are out of date."))
		return
	case err != nil:
		b.replyError(chatID, "Error adding recipe", err)
		return
	}

	b.send(mdEdit(chatID, query.Message.MessageID, formatWeekMarkdown(week)))
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	if b.metricsStore == nil {
		b.reply(msg.Chat.ID, "❌ Metrics are not enabled.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(ctx, 7)
	if err != nil {
		zap.L().Error("Failed to fetch metrics", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.reply(msg.Chat.ID, formatMetrics(usage, metrics.GetSysHealth(b.cfg.DatabasePath)))
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(mdMessage(chatID, text))
}

func (b *Bot) replyError(chatID int64, title string, err error) {
	zap.L().Warn(title, zap.Int64("chat_id", chatID), zap.Error(err))
	b.reply(chatID, formatError(title, err))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		zap.L().Warn("Failed to send telegram message", zap.Error(err))
	}
}

func mdMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return msg
}

func mdEdit(chatID int64, messageID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	return edit
}

func chatOwner(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

func parseSlot(args []string) (calendar.Day, calendar.Meal, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected <day> <meal>")
	}
	day, err := calendar.ParseDay(args[0])
	if err != nil {
		return 0, 0, err
	}
	meal, err := calendar.ParseMeal(args[1])
	if err != nil {
		return 0, 0, err
	}
	return day, meal, nil
}
