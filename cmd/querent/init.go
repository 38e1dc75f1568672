// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/querent-dev/querent/internal/config"
	"github.com/querent-dev/querent/internal/provider"
	"github.com/querent-dev/querent/internal/secrets"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

var supportedBackends = []provider.Backend{
	provider.BackendAzure,
	provider.BackendAnthropic,
}

// initWizardStep tracks which step of the wizard is active.
type initWizardStep int

const (
	stepBackend    initWizardStep = iota // select model backend
	stepEndpoint                         // enter endpoint URL (azure only)
	stepDeployment                       // enter deployment / model name
	stepAPIKey                           // enter API key
	stepValidate                         // validating key (spinner)
	stepDone                             // wizard complete
	stepError                            // terminal error
)

// initResult holds the collected wizard configuration.
type initResult struct {
	Backend    provider.Backend
	Endpoint   string
	Deployment string
	APIKey     string
}

// --- bubbletea messages ---

type validationSuccessMsg struct{}
type validationErrorMsg struct{ err error }
type configWrittenMsg struct{ path string }

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	wizDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	wizErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	wizOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// initModel is the bubbletea model for the init wizard.
type initModel struct {
	step            initWizardStep
	backendIdx      int
	endpointInput   textinput.Model
	deploymentInput textinput.Model
	apiKeyInput     textinput.Model
	spinner         spinner.Model
	result          initResult
	validationErr   string
	configPath      string
	secretStore     secrets.Store
	errFinal        error
	forceOverwrite  bool
	skipValidation  bool
}

func newInitModel(store secrets.Store) initModel {
	endpoint := textinput.New()
	endpoint.Placeholder = "https://your-resource.openai.azure.com"

	deployment := textinput.New()
	deployment.Placeholder = "deployment or model name"

	apiKey := textinput.New()
	apiKey.Placeholder = "paste API key here"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return initModel{
		step:            stepBackend,
		endpointInput:   endpoint,
		deploymentInput: deployment,
		apiKeyInput:     apiKey,
		spinner:         sp,
		secretStore:     store,
	}
}

func (m initModel) Init() tea.Cmd {
	return nil
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case validationSuccessMsg:
		return m, writeConfigCmd(m.result, m.secretStore, m.forceOverwrite)

	case validationErrorMsg:
		m.validationErr = msg.err.Error()
		m.step = stepAPIKey
		m.apiKeyInput.Focus()
		return m, nil

	case configWrittenMsg:
		m.step = stepDone
		m.configPath = msg.path
		return m, tea.Quit

	case error:
		m.step = stepError
		m.errFinal = msg
		return m, tea.Quit
	}

	return m, nil
}

func (m initModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.step {
	case stepBackend:
		return m.handleBackendKey(msg)
	case stepEndpoint:
		return m.handleTextStep(msg, &m.endpointInput, m.submitEndpoint)
	case stepDeployment:
		return m.handleTextStep(msg, &m.deploymentInput, m.submitDeployment)
	case stepAPIKey:
		return m.handleTextStep(msg, &m.apiKeyInput, m.submitAPIKey)
	}
	return m, nil
}

func (m initModel) handleBackendKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.backendIdx > 0 {
			m.backendIdx--
		}
	case "down", "j":
		if m.backendIdx < len(supportedBackends)-1 {
			m.backendIdx++
		}
	case "enter":
		m.result.Backend = supportedBackends[m.backendIdx]
		m.validationErr = ""
		if m.result.Backend == provider.BackendAzure {
			m.step = stepEndpoint
			m.endpointInput.Focus()
		} else {
			m.step = stepDeployment
			m.deploymentInput.Focus()
		}
		return m, textinput.Blink
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// handleTextStep routes keys for a text-input step: enter submits, ctrl+c
// quits, everything else edits the field.
func (m initModel) handleTextStep(msg tea.KeyMsg, input *textinput.Model, submit func() (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return submit()
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	return m, cmd
}

func (m initModel) submitEndpoint() (tea.Model, tea.Cmd) {
	endpoint := strings.TrimSpace(m.endpointInput.Value())
	if endpoint == "" {
		m.validationErr = "endpoint must not be empty"
		return m, nil
	}
	m.result.Endpoint = endpoint
	m.validationErr = ""
	m.step = stepDeployment
	m.deploymentInput.Focus()
	return m, textinput.Blink
}

func (m initModel) submitDeployment() (tea.Model, tea.Cmd) {
	deployment := strings.TrimSpace(m.deploymentInput.Value())
	if deployment == "" {
		m.validationErr = "deployment must not be empty"
		return m, nil
	}
	m.result.Deployment = deployment
	m.validationErr = ""
	m.step = stepAPIKey
	m.apiKeyInput.SetValue("")
	m.apiKeyInput.Focus()
	return m, textinput.Blink
}

func (m initModel) submitAPIKey() (tea.Model, tea.Cmd) {
	key := strings.TrimSpace(m.apiKeyInput.Value())
	if key == "" {
		m.validationErr = "API key must not be empty"
		return m, nil
	}
	m.result.APIKey = key
	m.validationErr = ""
	if m.skipValidation {
		return m, writeConfigCmd(m.result, m.secretStore, m.forceOverwrite)
	}
	m.step = stepValidate
	return m, tea.Batch(
		m.spinner.Tick,
		validateKeyCmd(m.result),
	)
}

func (m initModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("  Querent Setup Wizard  ") + "\n\n")

	switch m.step {
	case stepBackend:
		b.WriteString(promptStyle.Render("Select a model backend") + "\n\n")
		for i, backend := range supportedBackends {
			if i == m.backendIdx {
				b.WriteString(selectedStyle.Render("  > "+string(backend)) + "\n")
			} else {
				b.WriteString(wizDimStyle.Render("    "+string(backend)) + "\n")
			}
		}
		b.WriteString("\n" + wizDimStyle.Render("↑/↓ to navigate  enter to select  q to quit"))

	case stepEndpoint:
		b.WriteString(promptStyle.Render("Azure OpenAI endpoint URL") + "\n\n")
		b.WriteString(m.endpointInput.View() + "\n")
		b.WriteString(m.renderErrAndHint())

	case stepDeployment:
		b.WriteString(promptStyle.Render(string(m.result.Backend)+" deployment") + "\n\n")
		b.WriteString(m.deploymentInput.View() + "\n")
		b.WriteString(m.renderErrAndHint())

	case stepAPIKey:
		b.WriteString(promptStyle.Render(string(m.result.Backend)+" API key") + "\n\n")
		b.WriteString(m.apiKeyInput.View() + "\n")
		b.WriteString(m.renderErrAndHint())

	case stepValidate:
		b.WriteString(m.spinner.View() + " Validating " + string(m.result.Backend) + " API key…\n")

	case stepDone:
		b.WriteString(wizOKStyle.Render("  Setup complete!  ") + "\n\n")
		if m.configPath != "" {
			b.WriteString(wizDimStyle.Render("Config written to: "+m.configPath) + "\n\n")
		}
		b.WriteString("Run " + promptStyle.Render("querent graph up") + " and " + promptStyle.Render("querent ingest") + " to build the graph.\n")
		b.WriteString("Then " + promptStyle.Render("querent ask \"...\"") + " to ask your first question.\n")

	case stepError:
		b.WriteString(wizErrStyle.Render("Setup failed: "+m.errFinal.Error()) + "\n")
	}

	return boxStyle.Render(b.String())
}

func (m initModel) renderErrAndHint() string {
	var b strings.Builder
	if m.validationErr != "" {
		b.WriteString("\n" + wizErrStyle.Render("  "+m.validationErr) + "\n")
	}
	b.WriteString("\n" + wizDimStyle.Render("enter to continue  ctrl+c to quit"))
	return b.String()
}

// --- tea.Cmd factories ---

// validateKeyCmd checks the credentials by issuing one tiny completion
// against the configured backend.
func validateKeyCmd(result initResult) tea.Cmd {
	return func() tea.Msg {
		if err := validateProviderKey(result); err != nil {
			return validationErrorMsg{err: err}
		}
		return validationSuccessMsg{}
	}
}

func validateProviderKey(result initResult) error {
	prov, err := provider.New(provider.Settings{
		Backend:    result.Backend,
		Endpoint:   result.Endpoint,
		APIKey:     result.APIKey,
		Deployment: result.Deployment,
	})
	if err != nil {
		return err
	}
	defer func() { _ = prov.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err = prov.Complete(ctx, provider.Request{
		Messages:  []provider.Message{provider.UserMessage("ping")},
		MaxTokens: 1,
	})
	return err
}

func writeConfigCmd(result initResult, store secrets.Store, forceOverwrite bool) tea.Cmd {
	return func() tea.Msg {
		path, err := storeSecretAndWriteConfig(result, store, forceOverwrite)
		if err != nil {
			return err
		}
		return configWrittenMsg{path: path}
	}
}

// --- Config generation (exported for tests) ---

// GenerateConfigYAML produces a minimal querent.yaml from the wizard result.
// The API key is referenced via a keyring:// URI; the actual secret is
// stored separately by storeSecretAndWriteConfig.
func GenerateConfigYAML(result initResult) string {
	var sb strings.Builder
	sb.WriteString("# Querent configuration, generated by querent init\n\n")

	sb.WriteString("provider:\n")
	sb.WriteString(fmt.Sprintf("  backend: %q\n", result.Backend))
	if result.Endpoint != "" {
		sb.WriteString(fmt.Sprintf("  endpoint: %q\n", result.Endpoint))
	}
	sb.WriteString(fmt.Sprintf("  deployment: %q\n", result.Deployment))
	sb.WriteString(fmt.Sprintf("  api_key: %q\n\n", keyringURIForAPIKey()))

	sb.WriteString("graph:\n")
	sb.WriteString("  endpoint: \"http://localhost:3030\"\n")
	sb.WriteString("  dataset: \"mtg\"\n")

	return sb.String()
}

func keyringURIForAPIKey() string {
	return fmt.Sprintf("keyring://%s/%s", secrets.Service, secrets.ProviderAPIKey)
}

// storeSecretAndWriteConfig saves the API key to the OS keyring and writes
// the config YAML to the default config path.
//
// When forceOverwrite is false and the config file already exists, an error
// is returned asking the user to pass --force. Secrets already stored in the
// keyring are not rolled back on a failed config write; orphaned entries are
// harmless and will be overwritten on a successful re-run.
func storeSecretAndWriteConfig(result initResult, store secrets.Store, forceOverwrite bool) (string, error) {
	if err := store.Store(secrets.Service, secrets.ProviderAPIKey, result.APIKey); err != nil {
		return "", qerr.Wrapf(err, qerr.CodeSecretBackendFailure, "storing %s API key", result.Backend)
	}

	cfgPath, err := configPathForWrite()
	if err != nil {
		return "", err
	}

	if !forceOverwrite {
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			return "", qerr.Errorf(qerr.CodeCLIInputInvalid,
				"config file already exists at %s; use --force to overwrite", cfgPath)
		}
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", qerr.Errorf(qerr.CodeConfigLoadReadFailure, "creating config directory %s: %w", dir, err)
	}

	yaml := GenerateConfigYAML(result)
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		return "", qerr.Errorf(qerr.CodeConfigLoadReadFailure, "writing config to %s: %w", cfgPath, err)
	}

	return cfgPath, nil
}

// configPathForWrite returns the default config path. Exposed as a variable
// so tests can override it.
var configPathForWrite = func() (string, error) {
	return config.DefaultConfigPath()
}

// --- Cobra command ---

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard for Querent",
		Long: `Run an interactive TUI wizard that walks you through configuring a
model backend (Azure OpenAI or Anthropic) and its API key.

The API key is stored securely in the OS keyring and referenced via a
keyring:// URI in the config file. No secrets are written in plain text.

After completion, run:
  querent graph up   — start the graph database
  querent ingest     — download and load the card corpus
  querent ask        — ask a question
  querent doctor     — verify your setup`,
		RunE: runInit,
	}

	cmd.Flags().Bool("force", false, "Overwrite existing config file")
	cmd.Flags().Bool("skip-validation", false, "Skip the API key round-trip check")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !isTerminal(f) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(),
			"querent init requires an interactive terminal.\n"+
				"To configure querent non-interactively, edit ~/.config/querent/querent.yaml directly.")
		return qerr.New(qerr.CodeCLISetupFailure, "querent init: not an interactive terminal")
	}

	forceOverwrite, _ := cmd.Flags().GetBool("force")
	skipValidation, _ := cmd.Flags().GetBool("skip-validation")

	m := newInitModel(secretStoreFactory())
	m.forceOverwrite = forceOverwrite
	m.skipValidation = skipValidation

	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return qerr.Errorf(qerr.CodeCLISetupFailure, "init wizard error: %w", err)
	}

	fm, ok := finalModel.(initModel)
	if !ok {
		return qerr.New(qerr.CodeCLISetupFailure, "unexpected model type after wizard")
	}

	if fm.errFinal != nil {
		return qerr.Errorf(qerr.CodeCLISetupFailure, "init failed: %w", fm.errFinal)
	}

	// Quitting early without finishing is fine.
	return nil
}

// isTerminal reports whether f is a terminal file descriptor.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
