package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hw-scorer/api/internal/clip"
	"hw-scorer/api/internal/clip/hub"
	"hw-scorer/api/internal/config"
	"hw-scorer/api/internal/logging"
)

var httpc = &http.Client{Timeout: 60 * time.Second}

// Telegram frontend: send a photo of a handwritten Arabic letter with
// the target letter as the caption, get the score back.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}
	if cfg.WebhookURL == "" {
		log.Fatal("missing required env WEBHOOK_URL")
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	eng, err := clip.Load(loadCtx, func(modelID string) clip.Engine {
		return hub.New(cfg.HubURL, cfg.HubToken, modelID)
	}, cfg.PrimaryModel, cfg.FallbackModel)
	cancel()
	if err != nil {
		log.Fatal("no scoring model available", zap.Error(err))
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("telegram bot init", zap.Error(err))
	}
	bot.Debug = false

	path := "/webhook/" + shortHash(cfg.TelegramBotToken)
	public := strings.TrimRight(cfg.WebhookURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal("webhook config", zap.Error(err))
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal("webhook register", zap.Error(err))
	}

	updates := bot.ListenForWebhook(path)

	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		for upd := range updates {
			handleUpdate(bot, eng, log, upd)
		}
	}()

	addr := "0.0.0.0:" + cfg.Port
	log.Info("bot listening", zap.String("addr", addr), zap.String("model", eng.ModelID()))
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func handleUpdate(bot *tgbotapi.BotAPI, eng clip.Engine, log *zap.Logger, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		switch upd.Message.Command() {
		case "start":
			send(bot, cid, "Send a photo of a handwritten Arabic letter with the target letter as the caption (for example: أ).")
		case "health":
			send(bot, cid, "✅ OK, scoring with "+eng.ModelID())
		default:
			send(bot, cid, "Unknown command")
		}
		return
	}

	if len(upd.Message.Photo) == 0 {
		return
	}
	target := strings.TrimSpace(upd.Message.Caption)
	if target == "" {
		send(bot, cid, "Add the target letter as the photo caption so I know what to compare against.")
		return
	}

	ph := upd.Message.Photo[len(upd.Message.Photo)-1]
	tf, err := bot.GetFile(tgbotapi.FileConfig{FileID: ph.FileID})
	if err != nil {
		send(bot, cid, "Could not fetch the photo: "+err.Error())
		return
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", bot.Token, tf.FilePath)
	img, err := download(url)
	if err != nil {
		send(bot, cid, "Could not download the photo: "+err.Error())
		return
	}

	score, err := clip.Score(context.Background(), eng, img, clip.Prompts(target))
	if err != nil {
		log.Error("bot scoring failed", zap.Error(err))
		send(bot, cid, "Scoring failed: "+err.Error())
		return
	}
	send(bot, cid, fmt.Sprintf("Scored using %s. Probability match: %s%%",
		eng.ModelID(), strconv.FormatFloat(score, 'f', -1, 64)))
}

func send(bot *tgbotapi.BotAPI, chatID int64, text string) {
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, text))
}

func download(url string) ([]byte, error) {
	resp, err := httpc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}
