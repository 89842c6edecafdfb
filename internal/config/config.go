// Package config implements the line-oriented configuration file reader:
// one directive per line, whitespace-tokenized, '#' introduces a comment,
// unknown directives or bad argument counts are fatal with a line-number
// diagnostic.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sandia-minimega/minikv/internal/minilog"
)

// SaveRule is one (seconds, changes) snapshot trigger pair.
type SaveRule struct {
	Seconds int
	Changes int
}

// Config holds every recognized directive. MaxClients bounds the
// listener's accept fan-out; MaxMemory is the soft resident-memory ceiling
// the cron's monitor enforces.
type Config struct {
	Timeout   int
	Port      int
	Bind      string
	Save      []SaveRule
	Dir       string
	LogLevel  minilog.Level
	LogFile   string
	Databases int

	MaxClients int
	MaxMemory  int64
}

// Default returns the compiled-in defaults.
func Default() *Config {
	return &Config{
		Timeout:  300,
		Port:     6379,
		Bind:     "",
		Save: []SaveRule{
			{3600, 1},
			{300, 100},
			{60, 10000},
		},
		Dir:        ".",
		LogLevel:   minilog.INFO,
		LogFile:    "stdout",
		Databases:  16,
		MaxClients: 10000,
		MaxMemory:  0, // 0 == unlimited
	}
}

// Load reads path, starting from Default() and applying each directive in
// turn. A malformed directive returns an error naming the offending line;
// callers treat this as fatal.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	savedDefaultRules := true
	sc := bufio.NewScanner(f)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		directive := strings.ToLower(fields[0])
		args := fields[1:]

		if err := apply(cfg, directive, args, &savedDefaultRules); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineno, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func apply(cfg *Config, directive string, args []string, savedDefaultRules *bool) error {
	switch directive {
	case "timeout":
		if len(args) != 1 {
			return fmt.Errorf("timeout requires one argument")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("timeout must be an integer >= 1")
		}
		cfg.Timeout = n

	case "port":
		if len(args) != 1 {
			return fmt.Errorf("port requires one argument")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("port must be in 1..65535")
		}
		cfg.Port = n

	case "bind":
		if len(args) != 1 {
			return fmt.Errorf("bind requires one argument")
		}
		cfg.Bind = args[0]

	case "save":
		if len(args) != 2 {
			return fmt.Errorf("save requires two arguments: seconds changes")
		}
		secs, err1 := strconv.Atoi(args[0])
		changes, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil || secs < 0 || changes < 0 {
			return fmt.Errorf("save arguments must be non-negative integers")
		}
		if *savedDefaultRules {
			cfg.Save = nil
			*savedDefaultRules = false
		}
		cfg.Save = append(cfg.Save, SaveRule{secs, changes})

	case "dir":
		if len(args) != 1 {
			return fmt.Errorf("dir requires one argument")
		}
		cfg.Dir = args[0]

	case "loglevel":
		if len(args) != 1 {
			return fmt.Errorf("loglevel requires one argument")
		}
		switch args[0] {
		case "debug":
			cfg.LogLevel = minilog.DEBUG
		case "notice":
			cfg.LogLevel = minilog.INFO
		case "warning":
			cfg.LogLevel = minilog.WARN
		default:
			return fmt.Errorf("loglevel must be debug, notice, or warning")
		}

	case "logfile":
		if len(args) != 1 {
			return fmt.Errorf("logfile requires one argument")
		}
		if args[0] != "stdout" {
			fh, err := os.OpenFile(args[0], os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("logfile: %w", err)
			}
			fh.Close()
		}
		cfg.LogFile = args[0]

	case "databases":
		if len(args) != 1 {
			return fmt.Errorf("databases requires one argument")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("databases must be an integer >= 1")
		}
		cfg.Databases = n

	case "maxclients":
		if len(args) != 1 {
			return fmt.Errorf("maxclients requires one argument")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("maxclients must be an integer >= 1")
		}
		cfg.MaxClients = n

	case "maxmemory":
		if len(args) != 1 {
			return fmt.Errorf("maxmemory requires one argument")
		}
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("maxmemory must be a non-negative integer (bytes)")
		}
		cfg.MaxMemory = n

	default:
		return fmt.Errorf("unknown directive %q", directive)
	}
	return nil
}

// Get looks up the handful of directives CONFIG GET exposes for read-only
// introspection.
func (c *Config) Get(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "timeout":
		return strconv.Itoa(c.Timeout), true
	case "dir":
		return c.Dir, true
	case "databases":
		return strconv.Itoa(c.Databases), true
	case "maxclients":
		return strconv.Itoa(c.MaxClients), true
	case "maxmemory":
		return strconv.FormatInt(c.MaxMemory, 10), true
	default:
		return "", false
	}
}
