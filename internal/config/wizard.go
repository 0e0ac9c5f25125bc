package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path, and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to HVGA OG! Let's configure the assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Primary provider.
	primary, err := selectProvider("Select the primary LLM provider", []string{"openai", "openrouter", "ollama"})
	if err != nil {
		return nil, err
	}
	model, err := promptString("Primary model", DefaultModel(primary), nil)
	if err != nil {
		return nil, err
	}
	cfg.Primary.Type = primary
	cfg.Primary.Model = model
	cfg.NominalModel = model

	// 2. Fallback provider.
	fallback, err := selectProvider("Select the fallback provider", []string{"anthropic", "openai", "ollama", "none"})
	if err != nil {
		return nil, err
	}
	if fallback == "none" {
		cfg.Fallback = ProviderConfig{}
	} else {
		cfg.Fallback.Type = fallback
		cfg.Fallback.Model = DefaultModel(fallback)
	}

	// 3. Knowledge base.
	kb, err := promptString("Knowledge base file", cfg.KnowledgeFile, nil)
	if err != nil {
		return nil, err
	}
	cfg.KnowledgeFile = kb

	// 4. Port.
	portStr, err := promptString("HTTP port", strconv.Itoa(cfg.Server.Port), validatePort)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 5. Session store.
	storePrompt := promptui.Select{
		Label: "Where should conversations be kept?",
		Items: []string{
			"memory - lost on restart",
			"sqlite - survives restarts",
		},
	}
	idx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("session store selection: %w", err)
	}
	if idx == 1 {
		cfg.Session.Store = SessionSQLite
	}

	for _, p := range []ProviderConfig{cfg.Primary, cfg.Fallback} {
		if envVar := APIKeyEnvVar(p.Type); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment or .env before running hvga serve.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func selectProvider(label string, items []string) (ProviderType, error) {
	prompt := promptui.Select{Label: label, Items: items}
	_, choice, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("provider selection: %w", err)
	}
	return ProviderType(choice), nil
}

func promptString(label, def string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{Label: label, Default: def, Validate: validate}
	v, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(v), nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
