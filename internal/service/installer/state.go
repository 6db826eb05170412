package installer

import (
	"strings"
)

const (
	keyProvider         = "CHORUS_LLM_PROVIDER"
	keyChatModel        = "CHORUS_CHAT_MODEL"
	keyMaintenanceModel = "CHORUS_MAINTENANCE_MODEL"
	keyOllamaBaseURL    = "CHORUS_OLLAMA_BASE_URL"
	keyCustomBaseURL    = "CHORUS_CUSTOM_BASE_URL"
	keyEnableCLI        = "CHORUS_ENABLE_CLI"
	keyEnableTelegram   = "CHORUS_ENABLE_TELEGRAM"
	keyTelegramToken    = "CHORUS_TELEGRAM_TOKEN"
	keyTelegramOwner    = "CHORUS_TELEGRAM_OWNER_ID"
	keyDebug            = "CHORUS_DEBUG"
)

// InstallState collects the answers of the wizard as environment values.
type InstallState struct {
	EnvVars map[string]string
}

func NewInstallState() *InstallState {
	return &InstallState{
		EnvVars: make(map[string]string),
	}
}

func (s *InstallState) Provider() string {
	return strings.ToLower(s.EnvVars[keyProvider])
}

func (s *InstallState) TelegramEnabled() bool {
	return s.EnvVars[keyEnableTelegram] == "true"
}
