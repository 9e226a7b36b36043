package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure paths, AI providers, retrieval and benchmark options.

Settings are read from defaults, then config.toml, then UDIRAG_* environment
variables (and a .env file), with later sources winning.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Long: `Store a single value in config.toml.

Run 'udirag settings keys' for the list of keys.

Examples:
  udirag settings set retrieval.k 5
  udirag settings set llm.answer.provider ollama
  udirag settings set vector.backend pgvector`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeyCmd = &cobra.Command{
	Use:   "set-key [provider]",
	Short: "Store an API key for a provider",
	Long:  `Prompt for an API key (openai or anthropic) and store it in config.toml.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsKey,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List config keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the configured providers",
	Long:  `Send a small request to the embedding provider and to each role's model.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeyCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	svc := p.Settings()

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("Config file: %s\n", p.ConfigPath())
	cmd.Println()

	cmd.Println("[Paths]")
	cmd.Printf("  Data:   %s\n", settings.Paths.DataDir)
	cmd.Printf("  Corpus: %s\n", settings.Paths.CorpusDir)
	cmd.Printf("  Index:  %s\n", settings.Paths.IndexDir)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Println()

	for _, role := range domain.AllLLMRoles() {
		llm := settings.LLMFor(role)
		cmd.Printf("[LLM %s]\n", role)
		cmd.Printf("  Provider: %s\n", llm.Provider.Description())
		cmd.Printf("  Model: %s\n", llm.Model)
		if llm.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", llm.BaseURL)
		}
		printKey(cmd, llm.Provider, llm.APIKey)
		cmd.Println()
	}

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.Vector.Backend)
	cmd.Printf("  Collection: %s\n", settings.Vector.Collection)
	if settings.Vector.Backend == domain.VectorBackendPgvector {
		cmd.Printf("  DSN: %s\n", maskDSN(settings.Vector.DSN))
	}
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d (overlap %d)\n", settings.Pipeline.ChunkSize, settings.Pipeline.Overlap)
	cmd.Printf("  Retrieval k: %d\n", settings.Retrieval.K)
	cmd.Printf("  Concurrency: %d\n", settings.Concurrency)
	cmd.Printf("  Model interval: %s\n", settings.Pacing.ModelInterval)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Model id: %s\n", settings.Server.ModelID)
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'udirag settings set' or set UDIRAG_* variables to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	if err := p.Settings().Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKey(cmd *cobra.Command, args []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}

	prov := domain.AIProvider(strings.ToLower(args[0]))
	if !prov.IsValid() || !prov.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not take an API key", domain.ErrInvalidInput, args[0])
	}

	cmd.Printf("Enter %s API key: ", prov)
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if err := p.Settings().SetAPIKey(prov, apiKey); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	cmd.Printf("Stored %s API key %s\n", prov, maskAPIKey(apiKey))
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	p, err := requireProvider()
	if err != nil {
		return err
	}
	svc := p.Settings()

	var failed bool
	cmd.Print("Embedding... ")
	if err := svc.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	for _, role := range domain.AllLLMRoles() {
		cmd.Printf("LLM %s... ", role)
		if err := svc.ValidateLLMConfig(role); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			failed = true
			continue
		}
		cmd.Println("OK")
	}

	if failed {
		return errors.New("provider check failed")
	}
	return nil
}

func printKey(cmd *cobra.Command, prov domain.AIProvider, key string) {
	if !prov.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password in a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	user, _, hasPass := strings.Cut(creds, ":")
	if !hasPass {
		return dsn
	}
	return dsn[:scheme+3] + user + ":****" + dsn[at:]
}
