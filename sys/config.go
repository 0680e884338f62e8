package sys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

const (
	DefaultPrefix          = ">"
	DefaultLogRoot         = "./logs"
	DefaultConfirmTimeout  = 30 * time.Second
	DefaultChannelIDLength = 18
	DefaultEmbedColor      = 0x0099FF
)

// IDSet is a read-only set of snowflake ids.
type IDSet map[snowflake.ID]struct{}

func (s IDSet) Has(id snowflake.ID) bool {
	_, ok := s[id]
	return ok
}

type Config struct {
	Token        string
	GuildID      string
	DatabasePath string
	Silent       bool

	Prefix                 string
	LocalTime              bool
	AdminChannelIDs        IDSet
	BlacklistedChannelIDs  IDSet
	ErrorChannelID         snowflake.ID
	LogRoot                string
	ConfirmTimeout         time.Duration
	ChannelIDLength        int
	EmptyCombinedIsMissing bool
	EmbedColor             int
}

// fileConfig mirrors config.json. Comments and trailing commas are allowed.
type fileConfig struct {
	Token                      string   `json:"token"`
	Prefix                     string   `json:"prefix"`
	LocalTime                  *bool    `json:"localTime"`
	AdminChannelIDs            []string `json:"adminChannelIds"`
	BlackChannelIDs            []string `json:"blackChannelIds"`
	ErrMsgChannel              string   `json:"errMsgChannel"`
	EmbedColor                 string   `json:"embedColor"`
	LogRoot                    string   `json:"logRoot"`
	ConfirmationTimeoutSeconds *int     `json:"confirmationTimeoutSeconds"`
	ChannelIDLength            *int     `json:"channelIdLength"`
	EmptyCombinedIsMissing     *bool    `json:"emptyCombinedIsMissing"`
}

// DefaultConfig returns the settings used when neither config.json nor the environment say otherwise.
func DefaultConfig() *Config {
	return &Config{
		Prefix:                 DefaultPrefix,
		AdminChannelIDs:        IDSet{},
		BlacklistedChannelIDs:  IDSet{},
		LogRoot:                DefaultLogRoot,
		ConfirmTimeout:         DefaultConfirmTimeout,
		ChannelIDLength:        DefaultChannelIDLength,
		EmptyCombinedIsMissing: true,
		EmbedColor:             DefaultEmbedColor,
	}
}

// LoadConfig builds the configuration from config.json (optional) and the environment.
// Environment variables win over the file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.json"
	}
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if cfg.DatabasePath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		cfg.DatabasePath = filepath.Join(folder, GetProjectName()+".db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf(MsgConfigFileReadFail, path, err)
	}

	var fc fileConfig
	if err := json5.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf(MsgConfigFileParseFail, path, err)
	}

	if fc.Token != "" {
		c.Token = fc.Token
	}
	if fc.Prefix != "" {
		c.Prefix = fc.Prefix
	}
	if fc.LocalTime != nil {
		c.LocalTime = *fc.LocalTime
	}
	if fc.LogRoot != "" {
		c.LogRoot = fc.LogRoot
	}
	if fc.ConfirmationTimeoutSeconds != nil {
		c.ConfirmTimeout = time.Duration(*fc.ConfirmationTimeoutSeconds) * time.Second
	}
	if fc.ChannelIDLength != nil {
		c.ChannelIDLength = *fc.ChannelIDLength
	}
	if fc.EmptyCombinedIsMissing != nil {
		c.EmptyCombinedIsMissing = *fc.EmptyCombinedIsMissing
	}
	if fc.EmbedColor != "" {
		color, err := parseColor(fc.EmbedColor)
		if err != nil {
			return err
		}
		c.EmbedColor = color
	}
	if fc.ErrMsgChannel != "" {
		id, err := snowflake.Parse(fc.ErrMsgChannel)
		if err != nil {
			return fmt.Errorf("invalid errMsgChannel %q: %w", fc.ErrMsgChannel, err)
		}
		c.ErrorChannelID = id
	}
	if c.AdminChannelIDs, err = parseIDSet(fc.AdminChannelIDs); err != nil {
		return fmt.Errorf("invalid adminChannelIds: %w", err)
	}
	if c.BlacklistedChannelIDs, err = parseIDSet(fc.BlackChannelIDs); err != nil {
		return fmt.Errorf("invalid blackChannelIds: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Token = v
	}
	c.GuildID = os.Getenv("GUILD_ID")
	c.DatabasePath = os.Getenv("DATABASE_PATH")
	c.Silent, _ = strconv.ParseBool(os.Getenv("SILENT"))

	if v := os.Getenv("COMMAND_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("LOCAL_TIME"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOCAL_TIME: %w", err)
		}
		c.LocalTime = b
	}
	if v := os.Getenv("LOG_ROOT"); v != "" {
		c.LogRoot = v
	}
	if v := os.Getenv("CONFIRM_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONFIRM_TIMEOUT_SECONDS: %w", err)
		}
		c.ConfirmTimeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("CHANNEL_ID_LENGTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHANNEL_ID_LENGTH: %w", err)
		}
		c.ChannelIDLength = n
	}
	if v := os.Getenv("EMPTY_COMBINED_IS_MISSING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EMPTY_COMBINED_IS_MISSING: %w", err)
		}
		c.EmptyCombinedIsMissing = b
	}
	if v := os.Getenv("ERROR_CHANNEL_ID"); v != "" {
		id, err := snowflake.Parse(v)
		if err != nil {
			return fmt.Errorf("invalid ERROR_CHANNEL_ID: %w", err)
		}
		c.ErrorChannelID = id
	}
	if v := os.Getenv("ADMIN_CHANNEL_IDS"); v != "" {
		set, err := parseIDSet(strings.Split(v, ","))
		if err != nil {
			return fmt.Errorf("invalid ADMIN_CHANNEL_IDS: %w", err)
		}
		c.AdminChannelIDs = set
	}
	if v := os.Getenv("BLACKLISTED_CHANNEL_IDS"); v != "" {
		set, err := parseIDSet(strings.Split(v, ","))
		if err != nil {
			return fmt.Errorf("invalid BLACKLISTED_CHANNEL_IDS: %w", err)
		}
		c.BlacklistedChannelIDs = set
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return errors.New("invalid GUILD_ID: must be a valid Snowflake")
	}
	if c.ConfirmTimeout <= 0 {
		return errors.New("confirmation timeout must be positive")
	}
	if c.ChannelIDLength <= 0 {
		return errors.New("channel id length must be positive")
	}
	if strings.TrimSpace(c.LogRoot) == "" {
		return errors.New("log root must not be empty")
	}
	return nil
}

func parseIDSet(raw []string) (IDSet, error) {
	set := make(IDSet, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := snowflake.Parse(s)
		if err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, nil
}

// parseColor accepts "#RRGGBB", "0xRRGGBB" or a decimal number.
func parseColor(s string) (int, error) {
	s = strings.TrimSpace(s)
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		s, base = s[2:], 16
	}
	n, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid embedColor: %w", err)
	}
	return int(n), nil
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "logbot"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") {
			if modData, err := os.ReadFile("go.mod"); err == nil {
				lines := strings.Split(string(modData), "\n")
				if len(lines) > 0 && strings.HasPrefix(lines[0], "module ") {
					parts := strings.Split(lines[0], "/")
					projectName = strings.TrimSpace(parts[len(parts)-1])
				}
			}
		}
	}
	return projectName
}
