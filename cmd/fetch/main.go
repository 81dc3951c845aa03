package main

import (
    "context"
    "errors"
    "flag"
    "fmt"
    "io"
    "os"
    "os/signal"
    "syscall"
    "time"

    "go.uber.org/zap"

    "lsequote/internal/browser"
    "lsequote/internal/config"
    "lsequote/internal/csvio"
    "lsequote/internal/httpx"
    "lsequote/internal/logging"
    "lsequote/internal/pipeline"
    "lsequote/internal/provider"
    "lsequote/internal/provider/lse"
)

func main() {
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    code := run(ctx, os.Args[1:], os.Stderr)
    stop()
    os.Exit(code)
}

// openLoader starts the page loader selected by cfg.Driver. Tests replace it.
var openLoader = func(ctx context.Context, cfg config.Config, log *zap.Logger) (provider.PageLoader, func() error, error) {
    timeout := time.Duration(cfg.Exchange.PageTimeoutSec) * time.Second
    switch cfg.Driver {
    case config.DriverHTTP:
        hc := httpx.New(timeout)
        if cfg.Browser.UserAgent != "" { hc.UserAgent = cfg.Browser.UserAgent }
        if cfg.Browser.Locale != "" { hc.Headers = map[string]string{"Accept-Language": cfg.Browser.Locale} }
        return hc, func() error { return nil }, nil
    default:
        s, err := browser.Open(ctx, browser.Config{
            Headless:     cfg.Browser.Headless,
            ExecPath:     cfg.Browser.ExecPath,
            UserAgent:    cfg.Browser.UserAgent,
            Locale:       cfg.Browser.Locale,
            WaitSelector: cfg.Browser.WaitSelector,
            PageTimeout:  timeout,
        }, log)
        if err != nil { return nil, nil, err }
        return s, s.Close, nil
    }
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
    var (
        input    string
        output   string
        cfgPath  string
        driver   string
        headless bool
        timeout  int
        logLevel string
    )
    def := config.Default()
    fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
    fs.SetOutput(stderr)
    fs.Usage = func() {
        fmt.Fprintln(stderr, "Retrieve stock prices from London Stock Exchange")
        fmt.Fprintln(stderr)
        fs.PrintDefaults()
    }
    fs.StringVar(&input, "input", def.Input, "path to input CSV file with company names and codes")
    fs.StringVar(&input, "i", def.Input, "shorthand for -input")
    fs.StringVar(&output, "output", def.Output, "path to output CSV file where data is appended")
    fs.StringVar(&output, "o", def.Output, "shorthand for -output")
    fs.StringVar(&cfgPath, "config", os.Getenv("LSEQUOTE_CONFIG"), "path to config.json (optional)")
    fs.StringVar(&driver, "driver", def.Driver, "page loader: browser or http")
    fs.BoolVar(&headless, "headless", def.Browser.Headless, "run the browser without a window")
    fs.IntVar(&timeout, "timeout", def.Exchange.PageTimeoutSec, "page load timeout seconds")
    fs.StringVar(&logLevel, "log-level", def.Log.Level, "debug, info, warn or error")
    if err := fs.Parse(args); err != nil {
        if errors.Is(err, flag.ErrHelp) { return 0 }
        return 2
    }

    cfg, err := config.Load(cfgPath)
    if err != nil {
        fmt.Fprintf(stderr, "config: %v\n", err)
        return 1
    }
    // Explicit flags win over file and env.
    fs.Visit(func(f *flag.Flag) {
        switch f.Name {
        case "input", "i": cfg.Input = input
        case "output", "o": cfg.Output = output
        case "driver": cfg.Driver = driver
        case "headless": cfg.Browser.Headless = headless
        case "timeout": cfg.Exchange.PageTimeoutSec = timeout
        case "log-level": cfg.Log.Level = logLevel
        }
    })
    if err := cfg.Validate(); err != nil {
        fmt.Fprintf(stderr, "config: %v\n", err)
        return 1
    }

    log, err := logging.New(cfg.Log)
    if err != nil {
        fmt.Fprintf(stderr, "logger: %v\n", err)
        return 1
    }
    defer func() { _ = log.Sync() }()

    log.Info("reading input data file", zap.String("path", cfg.Input))
    reqs, rejected, err := csvio.ReadRequests(cfg.Input)
    if err != nil {
        log.Error("failed to read the input CSV file", zap.String("kind", provider.Kind(err)), zap.Error(err))
        return 1
    }
    for _, pe := range rejected {
        log.Warn("skipping input row", zap.Int("line", pe.Line), zap.String("field", pe.Field), zap.Error(pe))
    }
    log.Info("input loaded", zap.Int("companies", len(reqs)), zap.Int("rejected", len(rejected)))

    loader, closeLoader, err := openLoader(ctx, cfg, log)
    if err != nil {
        log.Error("failed to start page loader", zap.String("driver", cfg.Driver), zap.Error(err))
        return 1
    }
    defer func() {
        if err := closeLoader(); err != nil { log.Warn("close page loader", zap.Error(err)) }
    }()

    w, err := csvio.OpenWriter(cfg.Output)
    if err != nil {
        log.Error("failed to open the output CSV file", zap.Error(err))
        return 1
    }

    fetcher := lse.New(lse.Config{
        Name:          cfg.Exchange.Name,
        BaseURL:       cfg.Exchange.BaseURL,
        VerifyCompany: cfg.Exchange.VerifyCompany,
    }, loader, log)

    res, runErr := pipeline.Run(ctx, reqs, fetcher, w, log)
    res.Reject(rejected)
    if err := w.Close(); err != nil && runErr == nil { runErr = err }

    log.Info("data saved",
        zap.String("source", fetcher.Name()),
        zap.String("path", w.Path()),
        zap.Int("requested", res.Requested),
        zap.Int("written", res.Written),
        zap.Strings("skipped", res.Skipped),
    )
    if runErr != nil {
        log.Error("run aborted", zap.Error(runErr))
        return 1
    }
    return 0
}
