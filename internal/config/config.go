package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AccountConfig struct {
	Name           string        `yaml:"name"`
	InitialBalance float64       `yaml:"initial_balance"`
	LotSize        int           `yaml:"lot_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
}

const (
	_accountNameDefault    = "default"
	_initialBalanceDefault = 1_000_000
	_lotSizeDefault        = 100
	_flushIntervalDefault  = 5 * time.Second
)

func (c *AccountConfig) Setup() {
	if c.Name == "" {
		c.Name = _accountNameDefault
	}
	if c.InitialBalance <= 0 {
		c.InitialBalance = _initialBalanceDefault
	}
	if c.LotSize <= 0 {
		c.LotSize = _lotSizeDefault
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = _flushIntervalDefault
	}
}

type QuotesConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

const (
	_quoteBaseURLDefault = "http://qt.gtimg.cn"
	_quoteTimeoutDefault = 5 * time.Second
	_quoteRPMDefault     = 300
)

func (c *QuotesConfig) Setup() error {
	if c.BaseURL == "" {
		c.BaseURL = _quoteBaseURLDefault
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		c.Timeout = _quoteTimeoutDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _quoteRPMDefault
	}
	return nil
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
}

const _monitorIntervalDefault = 3 * time.Second

func (c *MonitorConfig) Setup() {
	if c.Interval <= 0 {
		c.Interval = _monitorIntervalDefault
	}
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

const _serverPortDefault = "8080"

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = _serverPortDefault
	}
}

type Config struct {
	Account AccountConfig `yaml:"account"`
	Quotes  QuotesConfig  `yaml:"quotes"`
	Monitor MonitorConfig `yaml:"monitor"`
	Server  ServerConfig  `yaml:"server"`
}

func (c *Config) ValidateAndSetup() error {
	c.Account.Setup()
	if err := c.Quotes.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup quotes cfg", err)
	}
	c.Monitor.Setup()
	c.Server.Setup()
	return nil
}

// Default returns a configuration with every field at its default.
func Default() Config {
	var cfg Config
	_ = cfg.ValidateAndSetup()
	return cfg
}

func Load(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
