package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"meal-calendar/internal/app"
	"meal-calendar/internal/calendar"
	"meal-calendar/internal/config"
	"meal-calendar/internal/database"
	"meal-calendar/internal/metrics"
	"meal-calendar/internal/planner"
	"meal-calendar/internal/recipe"
	"meal-calendar/internal/search"
	"meal-calendar/internal/shopping"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	chatID  int64 = 42
	adminID int64 = 7
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeSender) lastKeyboard() *tgbotapi.InlineKeyboardMarkup {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if m, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			if kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
				return &kb
			}
		}
	}
	return nil
}

var soups = []recipe.Recipe{
	{ID: "s1", Label: "Tomato Soup", Calories: 300, IngredientLines: []string{"tomato", "salt"}},
	{ID: "s2", Label: "Pea Soup", IngredientLines: []string{"peas"}},
}

func newTestBot(t *testing.T, cfg *config.Config) (*Bot, *fakeSender, *app.App) {
	t.Helper()
	d, err := database.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	store := metrics.NewStore(d.SQL)
	a := app.NewApp(app.Deps{
		Recipes:       recipe.NewRepository(d.SQL),
		Plans:         planner.NewPlanRepository(d.SQL),
		ShoppingLists: shopping.NewRepository(d.SQL),
		Metrics:       store,
		Searcher: search.FetcherFunc(func(ctx context.Context, q string) ([]recipe.Recipe, error) {
			if q == "soup" {
				return soups, nil
			}
			return []recipe.Recipe{}, nil
		}),
		SearchTimeout: time.Second,
	})
	t.Cleanup(a.Close)

	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.AdminTelegramID = adminID
	cfg.DatabasePath = d.Path
	api := &fakeSender{}
	return newBot(api, cfg, a, store), api, a
}

func textMessage(text string, from int64) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func TestBot_SearchAndPick(t *testing.T) {
	b, api, a := newTestBot(t, nil)
	ctx := context.Background()

	b.processMessage(textMessage("/add monday dinner", chatID))
	assert.Contains(t, api.last(), "*Monday* (dinner)")

	b.processMessage(textMessage("soup", chatID))
	_, err := a.WaitSearch(ctx, chatOwner(chatID))
	require.NoError(t, err)

	kb := api.lastKeyboard()
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 3)
	pick := *kb.InlineKeyboard[0][0].CallbackData
	assert.True(t, strings.HasPrefix(pick, "pick|"))
	assert.Contains(t, api.texts()[len(api.texts())-1], "Tomato Soup (300 kcal)")

	callback := func(data string) *tgbotapi.CallbackQuery {
		return &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: chatID},
			Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: chatID}},
			Data:    data,
		}
	}

	b.handleCallbackQuery(callback("pick|999|0"))
	assert.Contains(t, api.last(), "out of date")

	b.handleCallbackQuery(callback(pick))
	assert.Contains(t, api.last(), "Dinner: Tomato Soup")

	week, err := a.Week(ctx, chatOwner(chatID))
	require.NoError(t, err)
	assert.Equal(t, "s1", week.Recipe(calendar.Monday, calendar.Dinner).ID)

	// the same keyboard cannot be used twice
	b.handleCallbackQuery(callback(pick))
	assert.Contains(t, api.last(), "out of date")
}

func TestBot_NoResultsAndCancel(t *testing.T) {
	b, api, a := newTestBot(t, nil)

	b.processMessage(textMessage("/add friday lunch", chatID))
	b.processMessage(textMessage("nothing", chatID))
	_, err := a.WaitSearch(context.Background(), chatOwner(chatID))
	require.NoError(t, err)
	assert.Contains(t, api.last(), "Nothing found")

	b.processMessage(textMessage("/cancel", chatID))
	assert.Equal(t, search.Closed, a.SearchState(chatOwner(chatID)).State)

	// plain text without an open search shows help
	b.processMessage(textMessage("hello", chatID))
	assert.Contains(t, api.last(), "/week")
}

func TestBot_WeekShoppingAndClear(t *testing.T) {
	b, api, a := newTestBot(t, nil)
	ctx := context.Background()

	_, err := a.Dispatch(ctx, chatOwner(chatID), calendar.AddRecipe(calendar.Tuesday, calendar.Lunch, soups[0]))
	require.NoError(t, err)

	b.processMessage(textMessage("/week", chatID))
	assert.Contains(t, api.last(), "_1 of 21 meals planned_")
	assert.Contains(t, api.last(), "*Tuesday*\n• Breakfast: —\n• Lunch: Tomato Soup")

	b.processMessage(textMessage("/shopping", chatID))
	assert.Contains(t, api.last(), "• tomato\n• salt")

	b.processMessage(textMessage("/clear tuesday lunch", chatID))
	assert.NotContains(t, api.last(), "Tomato Soup")

	b.processMessage(textMessage("/clear someday lunch", chatID))
	assert.Contains(t, api.last(), "Usage: /clear")
}

func TestBot_Metrics(t *testing.T) {
	b, api, _ := newTestBot(t, nil)

	b.processMessage(textMessage("/metrics", chatID))
	assert.Contains(t, api.last(), "Access Denied")

	msg := textMessage("/metrics", adminID)
	b.processMessage(msg)
	assert.Contains(t, api.last(), "Usage & Health Report")
}

func TestBot_Allowlist(t *testing.T) {
	b, api, _ := newTestBot(t, &config.Config{TelegramAllowedUserIDs: []int64{chatID}})

	b.handleUpdate(tgbotapi.Update{Message: textMessage("/week", 1234)})
	assert.Empty(t, api.texts())

	b.handleUpdate(tgbotapi.Update{Message: textMessage("/week", chatID)})
	assert.Len(t, api.texts(), 1)
}

func TestBot_Webhook(t *testing.T) {
	b, api, _ := newTestBot(t, nil)
	mux := http.NewServeMux()
	b.RegisterHandlers(mux)

	body := `{"update_id": 1, "message": {"message_id": 1, "from": {"id": 42}, "chat": {"id": 42},
		"text": "/help", "entities": [{"type": "bot_command", "offset": 0, "length": 5}]}}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	b.Wait()
	assert.Contains(t, api.last(), "Meal Calendar")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPickData(t *testing.T) {
	gen, index, err := parsePickData(pickData(12, 3))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), gen)
	assert.Equal(t, 3, index)

	_, _, err = parsePickData("redo|x")
	assert.Error(t, err)
}

func TestResultsKeyboardTruncates(t *testing.T) {
	long := recipe.Recipe{ID: "l", Label: strings.Repeat("very long name ", 10)}
	kb := resultsKeyboard(search.Snapshot{Generation: 5, Results: []recipe.Recipe{long}})
	require.Len(t, kb.InlineKeyboard, 2)
	assert.LessOrEqual(t, len([]rune(kb.InlineKeyboard[0][0].Text)), maxButtonLabel)
	assert.Equal(t, "pick|5|0", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cancelData, *kb.InlineKeyboard[1][0].CallbackData)
}

func TestFormatShoppingListEmpty(t *testing.T) {
	assert.Contains(t, formatShoppingList(nil), "Nothing planned yet")
}
