package config

import (
	"log"
	"os"
	"strconv"

	// Loads .env into the environment before Load reads it.
	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultPort      = 8080
	defaultServerURL = "ws://localhost:8080/ws"
)

type Config struct {
	// Port the HTTP/websocket server listens on.
	Port int

	// OpenAIKey enables AI response drafts. Empty means drafts come from
	// the canned fallback pool.
	OpenAIKey string

	// AIChallenges sources round prompts from the model instead of the
	// built-in pool. Needs OpenAIKey.
	AIChallenges bool

	// ChallengesFile points at an optional CSV prompt pool that replaces
	// the built-in one. Ignored when AIChallenges is set.
	ChallengesFile string

	// DatabaseURL enables the round archive. Empty means rounds are not
	// persisted.
	DatabaseURL string

	// ServerURL is where the terminal client connects.
	ServerURL string
}

// Load reads configuration from the environment. Everything is optional:
// the server plays from the built-in pool without an OpenAI key and
// skips archiving without a database URL.
func Load() Config {
	cfg := Config{
		Port:           defaultPort,
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AIChallenges:   os.Getenv("AI_CHALLENGES") == "1",
		ChallengesFile: os.Getenv("CHALLENGES_FILE"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerURL:      defaultServerURL,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Printf("[Load] invalid PORT %q, using default %d", portStr, defaultPort)
		} else {
			cfg.Port = port
		}
	}

	if url := os.Getenv("SERVER_URL"); url != "" {
		cfg.ServerURL = url
	}

	return cfg
}
