// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Env holds the configuration values for the application.
type Env struct {
	Region        string
	Bucket        string
	ClaimsTable   string
	PoliciesTable string
	PresignTTL    time.Duration
	DevBypassAuth bool

	// LLM gateway
	GeminiEndpoint string
	GeminiAPIKey   string
	GeminiModel    string
	GeminiTimeout  time.Duration

	// Chat session bounds
	ChatSessionTTL time.Duration
	ChatSessionCap int

	LogLevel string
}

// MustLoad reads the environment variables and returns an Env struct.
// A local .env file is applied first when present (dev convenience).
func MustLoad() Env {
	_ = godotenv.Load()

	ttlSec, _ := strconv.Atoi(get("PRESIGN_TTL_SECONDS", "300"))
	llmTimeoutSec, _ := strconv.Atoi(get("GEMINI_TIMEOUT_SECONDS", "30"))
	chatTTLMin, _ := strconv.Atoi(get("CHAT_SESSION_TTL_MINUTES", "30"))
	chatCap, _ := strconv.Atoi(get("CHAT_SESSION_CAPACITY", "500"))
	devBypass := get("DEV_BYPASS_AUTH", "") == "true"

	e := Env{
		Region:        get("AWS_REGION", "us-east-1"),
		Bucket:        must("S3_BUCKET"),
		ClaimsTable:   must("CLAIMS_TABLE"),
		PoliciesTable: must("POLICIES_TABLE"),
		PresignTTL:    time.Duration(ttlSec) * time.Second,
		DevBypassAuth: devBypass,

		GeminiEndpoint: get("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:   get("GEMINI_API_KEY", ""),
		GeminiModel:    get("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTimeout:  time.Duration(llmTimeoutSec) * time.Second,

		ChatSessionTTL: time.Duration(chatTTLMin) * time.Minute,
		ChatSessionCap: chatCap,

		LogLevel: get("LOG_LEVEL", "info"),
	}
	return e
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
