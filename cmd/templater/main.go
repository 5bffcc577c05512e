// Сервер редактора шаблонов договоров. Загружает конфигурацию и каталог полей и
// запускает HTTP API сессий редактора.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/aisa-it/templater/internal/templater"
	"github.com/aisa-it/templater/internal/templater/catalog"
	"github.com/aisa-it/templater/internal/templater/config"
)

var version string = "DEV"

// Пример запуска: go run main.go --trace
func main() {
	trace := flag.Bool("trace", false, "Verbose logs")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	c, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		slog.Error("Load field catalog", "path", cfg.CatalogPath, "err", err)
		os.Exit(1)
	}
	slog.Info("Templater start.", "fields", c.Len())

	if err := templater.Server(cfg, c, version); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

func PrintBanner() {
	banner := `
 _                       _       _
| |_ ___ _ __ ___  _ __ | | __ _| |_ ___ _ __
| __/ _ \ '_ ' _ \| '_ \| |/ _' | __/ _ \ '__|
| ||  __/ | | | | | |_) | | (_| | ||  __/ |
 \__\___|_| |_| |_| .__/|_|\__,_|\__\___|_| %s
                  |_|
Contract template editor
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorGreen := "\033[32m"
	fmt.Printf(banner, colorGreen+version+colorReset)
}
