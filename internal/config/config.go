package config

import (
    "errors"
    "fmt"
    "os"
    "strings"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

const (
    DefaultInputPath  = "London Stock Exchange task - input.csv"
    DefaultOutputPath = "London Stock Exchange task - output.csv"

    DriverBrowser = "browser"
    DriverHTTP    = "http"
)

type Exchange struct {
    Name           string `mapstructure:"name"`
    BaseURL        string `mapstructure:"base_url"`
    PageTimeoutSec int    `mapstructure:"page_timeout_sec"`
    VerifyCompany  bool   `mapstructure:"verify_company"`
}

type Browser struct {
    Headless     bool   `mapstructure:"headless"`
    ExecPath     string `mapstructure:"exec_path"`
    UserAgent    string `mapstructure:"user_agent"`
    Locale       string `mapstructure:"locale"`
    WaitSelector string `mapstructure:"wait_selector"`
}

type Log struct {
    Level  string `mapstructure:"level"`
    Format string `mapstructure:"format"`
}

type Config struct {
    Input    string   `mapstructure:"input"`
    Output   string   `mapstructure:"output"`
    Driver   string   `mapstructure:"driver"`
    Exchange Exchange `mapstructure:"exchange"`
    Browser  Browser  `mapstructure:"browser"`
    Log      Log      `mapstructure:"log"`
}

func Default() Config {
    return Config{
        Input:  DefaultInputPath,
        Output: DefaultOutputPath,
        Driver: DriverBrowser,
        Exchange: Exchange{
            Name:           "LSE",
            BaseURL:        "https://www.londonstockexchange.com",
            PageTimeoutSec: 30,
            VerifyCompany:  true,
        },
        Browser: Browser{
            Headless:     true,
            UserAgent:    "Mozilla/5.0",
            Locale:       "en-GB",
            WaitSelector: "span.price-tag",
        },
        Log: Log{Level: "info", Format: "console"},
    }
}

// Load reads an optional .env file, an optional JSON config file and
// LSEQUOTE_* environment variables on top of Default(). If path is empty,
// config.json in the working directory is used when present.
func Load(path string) (Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        return Default(), fmt.Errorf("load .env: %w", err)
    }

    v := viper.New()
    setDefaults(v, Default())

    v.SetEnvPrefix("LSEQUOTE")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()
    for _, key := range v.AllKeys() {
        if err := v.BindEnv(key); err != nil {
            return Default(), fmt.Errorf("bind env %s: %w", key, err)
        }
    }

    if path == "" {
        if _, err := os.Stat("config.json"); err == nil {
            path = "config.json"
        }
    }
    if path != "" {
        v.SetConfigFile(path)
        v.SetConfigType("json")
        if err := v.ReadInConfig(); err != nil {
            return Default(), fmt.Errorf("read config: %w", err)
        }
    }

    var cfg Config
    if err := v.Unmarshal(&cfg); err != nil {
        return Default(), fmt.Errorf("parse config: %w", err)
    }
    return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
    v.SetDefault("input", d.Input)
    v.SetDefault("output", d.Output)
    v.SetDefault("driver", d.Driver)

    v.SetDefault("exchange.name", d.Exchange.Name)
    v.SetDefault("exchange.base_url", d.Exchange.BaseURL)
    v.SetDefault("exchange.page_timeout_sec", d.Exchange.PageTimeoutSec)
    v.SetDefault("exchange.verify_company", d.Exchange.VerifyCompany)

    v.SetDefault("browser.headless", d.Browser.Headless)
    v.SetDefault("browser.exec_path", d.Browser.ExecPath)
    v.SetDefault("browser.user_agent", d.Browser.UserAgent)
    v.SetDefault("browser.locale", d.Browser.Locale)
    v.SetDefault("browser.wait_selector", d.Browser.WaitSelector)

    v.SetDefault("log.level", d.Log.Level)
    v.SetDefault("log.format", d.Log.Format)
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
    if strings.TrimSpace(c.Input) == "" { return errors.New("input path is empty") }
    if strings.TrimSpace(c.Output) == "" { return errors.New("output path is empty") }
    switch c.Driver {
    case DriverBrowser, DriverHTTP:
    default:
        return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverBrowser, DriverHTTP)
    }
    if c.Exchange.BaseURL == "" { return errors.New("exchange base_url is empty") }
    if c.Exchange.PageTimeoutSec <= 0 {
        return fmt.Errorf("exchange page_timeout_sec must be positive, got %d", c.Exchange.PageTimeoutSec)
    }
    return nil
}
