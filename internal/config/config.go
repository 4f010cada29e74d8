package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// TargetURL is the page opened by `ghost record` and visited by a freshly
	// seeded test case.
	TargetURL string `json:"target_url,omitempty"`

	// ProjectDir is the root under which generated artifacts are written.
	// Empty means the current working directory.
	ProjectDir string `json:"project_dir,omitempty"`

	// Folder is the automation folder inside ProjectDir that holds the cypress tree.
	Folder string `json:"folder,omitempty"`

	// PageObjectPath and SpecPath are relative to ProjectDir/Folder.
	PageObjectPath string `json:"page_object_path,omitempty"`
	SpecPath       string `json:"spec_path,omitempty"`

	// ClassName is the page-object container class; SuiteName and TestName label
	// the seeded describe/it blocks; PageVar is the instance the statements use.
	ClassName string `json:"class_name,omitempty"`
	SuiteName string `json:"suite_name,omitempty"`
	TestName  string `json:"test_name,omitempty"`
	PageVar   string `json:"page_var,omitempty"`

	// AccessorPrefix names captured elements: <prefix><n>.
	AccessorPrefix string `json:"accessor_prefix,omitempty"`

	// TextMaxLen caps the element text used for a text-containment locator.
	// Text of this many runes or more produces no text candidate.
	TextMaxLen int `json:"text_max_len,omitempty"`

	// PollIntervalMS is the click-capture polling interval.
	PollIntervalMS int `json:"poll_interval_ms,omitempty"`

	// CaptureTimeoutMS bounds a single capture poll.
	CaptureTimeoutMS int `json:"capture_timeout_ms,omitempty"`

	// QueueSize is how many captures may wait while a choice is pending.
	// Further captures are dropped until the queue drains.
	QueueSize int `json:"queue_size,omitempty"`

	// MaxReprompts bounds how often an incomplete action is re-prompted.
	MaxReprompts int `json:"max_reprompts,omitempty"`

	// LaunchTimeoutSec and ReadyCheckIntervalMS govern browser start-up.
	LaunchTimeoutSec     int `json:"launch_timeout_sec,omitempty"`
	ReadyCheckIntervalMS int `json:"ready_check_interval_ms,omitempty"`

	// Headless launches the browser without a window.
	Headless bool `json:"headless,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// LogToFile also writes a timestamped log file under <base>/logs.
	LogToFile bool `json:"log_to_file,omitempty"`

	// AllowUnsafePaths disables the project-root restriction for artifact paths.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the journal's open connections. 0 means default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Folder:               "My_Automation_Folder",
		PageObjectPath:       "cypress/pages/PageObjects.js",
		SpecPath:             "cypress/e2e/generated_test.cy.js",
		ClassName:            "PageObjects",
		SuiteName:            "Automation Suite",
		TestName:             "Generated User Flow",
		PageVar:              "page",
		AccessorPrefix:       "element_",
		TextMaxLen:           50,
		PollIntervalMS:       300,
		CaptureTimeoutMS:     1000,
		QueueSize:            4,
		MaxReprompts:         3,
		LaunchTimeoutSec:     30,
		ReadyCheckIntervalMS: 200,
		LogLevel:             "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.ghost.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.ghost) and repo (.ghost) directories.
// Repo config is found by walking upward from startDir to find the nearest .ghost/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .ghost/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".ghost", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv loads envFile (if present) into the process environment and
// applies GHOST_* overrides on top of cfg. A missing envFile is not an error.
func ApplyEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if v := strings.TrimSpace(os.Getenv("GHOST_TARGET_URL")); v != "" {
		cfg.TargetURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GHOST_PROJECT_DIR")); v != "" {
		cfg.ProjectDir = v
	}
	if v := strings.TrimSpace(os.Getenv("GHOST_FOLDER")); v != "" {
		cfg.Folder = v
	}
	if v := strings.TrimSpace(os.Getenv("GHOST_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("GHOST_HEADLESS")); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.Headless = headless
	}
	return nil
}

// OutputDir returns ProjectDir/Folder, absolute.
func (c *Config) OutputDir() (string, error) {
	root := c.ProjectDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	return filepath.Abs(filepath.Join(root, c.Folder))
}

// PageObjectFile returns the absolute page-object artifact path.
func (c *Config) PageObjectFile() (string, error) {
	dir, err := c.OutputDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(c.PageObjectPath)), nil
}

// SpecFile returns the absolute test-spec artifact path.
func (c *Config) SpecFile() (string, error) {
	dir, err := c.OutputDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(c.SpecPath)), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Strings: overlay wins if non-empty
	result.TargetURL = pickString(overlay.TargetURL, base.TargetURL)
	result.ProjectDir = pickString(overlay.ProjectDir, base.ProjectDir)
	result.Folder = pickString(overlay.Folder, base.Folder)
	result.PageObjectPath = pickString(overlay.PageObjectPath, base.PageObjectPath)
	result.SpecPath = pickString(overlay.SpecPath, base.SpecPath)
	result.ClassName = pickString(overlay.ClassName, base.ClassName)
	result.SuiteName = pickString(overlay.SuiteName, base.SuiteName)
	result.TestName = pickString(overlay.TestName, base.TestName)
	result.PageVar = pickString(overlay.PageVar, base.PageVar)
	result.AccessorPrefix = pickString(overlay.AccessorPrefix, base.AccessorPrefix)
	result.LogLevel = pickString(overlay.LogLevel, base.LogLevel)

	// Ints: overlay wins if non-zero
	result.TextMaxLen = pickInt(overlay.TextMaxLen, base.TextMaxLen)
	result.PollIntervalMS = pickInt(overlay.PollIntervalMS, base.PollIntervalMS)
	result.CaptureTimeoutMS = pickInt(overlay.CaptureTimeoutMS, base.CaptureTimeoutMS)
	result.QueueSize = pickInt(overlay.QueueSize, base.QueueSize)
	result.MaxReprompts = pickInt(overlay.MaxReprompts, base.MaxReprompts)
	result.LaunchTimeoutSec = pickInt(overlay.LaunchTimeoutSec, base.LaunchTimeoutSec)
	result.ReadyCheckIntervalMS = pickInt(overlay.ReadyCheckIntervalMS, base.ReadyCheckIntervalMS)
	result.DBMaxOpenConns = pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)

	// Booleans: overlay wins if true, else base
	result.Headless = base.Headless || overlay.Headless
	result.LogToFile = base.LogToFile || overlay.LogToFile
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
