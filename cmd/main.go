package main

import (
	"cmp"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommon "github.com/labstack/gommon/log"

	"fable/pkg/gateway"
	"fable/pkg/server"
	"fable/pkg/story"
	"fable/pkg/vault"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	gw, err := newGateway(ctx)
	if err != nil {
		log.Fatal("no usable model provider", "error", err)
	}

	gen := story.NewGenerator(gw, story.Options{
		AbortOnPageTextFailure: envBool("ABORT_ON_PAGE_TEXT_FAILURE"),
		IllustrationTimeout:    envSeconds("IMAGE_TIMEOUT_SECONDS", story.DefaultIllustrationTimeout),
		ImageInterval:          envSeconds("IMAGE_RATE_EVERY_SECONDS", 0),
	})

	store := vault.Open("vault.json")

	srv := server.NewServer(ctx, gen, store)
	srv.Echo.Logger.SetLevel(gommon.INFO)
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		srv.UploadsDir = dir
	}

	addr := ":3001"
	if envAddr := os.Getenv("PORT"); envAddr != "" {
		addr = ":" + envAddr
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
	}
	<-finishedShutDown
}

// newGateway picks the provider from the environment: Gemini when a Google
// key is present, OpenAI otherwise.
func newGateway(ctx context.Context) (gateway.Gateway, error) {
	textModel := os.Getenv("TEXT_MODEL")
	imageModel := os.Getenv("IMAGE_MODEL")

	if key := cmp.Or(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY")); key != "" {
		log.Info("using Gemini provider")
		return gateway.NewGemini(ctx, key, textModel, imageModel)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		log.Info("using OpenAI provider")
		return gateway.NewOpenAI(key, textModel, imageModel), nil
	}
	return nil, errors.New("set GOOGLE_API_KEY, GEMINI_API_KEY, or OPENAI_API_KEY")
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envSeconds(key string, def time.Duration) time.Duration {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return time.Duration(v) * time.Second
}
