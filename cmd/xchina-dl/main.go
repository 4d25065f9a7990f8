package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/handiism/xchina-downloader/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "xchina-dl",
		Usage: "Parse and download galleries from xchina.co",
		Description: "Settings are read from a config file, then .env files and the environment,\n" +
			"then the flags below. For interactive mode, use xchina-tui.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config file (default: ./config.yaml or the user config dir)",
			},
			&cli.StringFlag{
				Name:    "splash-addr",
				Aliases: []string{"s"},
				Usage:   "Splash service address, http[s]://ip:port",
				EnvVars: []string{config.EnvSplashAddr},
			},
			&cli.StringFlag{
				Name:    "proxy",
				Aliases: []string{"p"},
				Usage:   "proxy for requests and for Splash, e.g. http://127.0.0.1:8118 or socks5://127.0.0.1:1080",
				EnvVars: []string{config.EnvProxy},
			},
			&cli.StringFlag{
				Name:    "save-dir",
				Aliases: []string{"o"},
				Usage:   "download directory (default: current directory)",
				EnvVars: []string{config.EnvSaveDir},
			},
			&cli.StringFlag{
				Name:  "renderer",
				Usage: "page renderer: splash, chrome or direct",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "download history database path, empty string disables history",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "parse",
				Usage: "Print what a page contains without downloading",
				Description: "A main page prints its categories, a listing prints its items,\n" +
					"a content page prints the merged item with all media URLs.",
				Flags: []cli.Flag{
					urlFlag(),
					pagesFlag(),
					&cli.BoolFlag{
						Name:    "max-page",
						Aliases: []string{"m"},
						Usage:   "print the listing's pages instead of its items; conflicts with --pages",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   formatYAML,
						Usage:   "output format: yaml or json",
					},
				},
				Action: parseAction,
			},
			{
				Name:  "download",
				Usage: "Download a listing, a content item or a single file",
				Flags: []cli.Flag{
					urlFlag(),
					pagesFlag(),
					&cli.StringFlag{
						Name:  "only",
						Value: "a",
						Usage: "media to download: a (all), p (images) or v (videos)",
					},
				},
				Action: downloadAction,
			},
			{
				Name:  "history",
				Usage: "List recent runs from the download history",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   20,
						Usage:   "number of runs to show",
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "show the items and files of one run",
					},
				},
				Action: historyAction,
			},
			{
				Name:  "config",
				Usage: "Manage the config file",
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "Write a config file with default values",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "path",
								Usage: "where to write the file (default: the user config dir)",
							},
							&cli.BoolFlag{
								Name:  "force",
								Usage: "overwrite an existing file",
							},
						},
						Action: configInitAction,
					},
				},
			},
		},
	}
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "url",
		Aliases:  []string{"u"},
		Required: true,
		Usage: "page or file URL, for example\n" +
			"\thttps://xchina.co (main page)\n" +
			"\thttps://xchina.co/photos/series-5f1476781eab4.html (listing)\n" +
			"\thttps://xchina.co/photo/id-64c4abcd9026b.html (content page)\n" +
			"\thttps://img.xchina.biz/photos/64c4abcd9026b/0001.jpg (file, download only)",
	}
}

func pagesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "pages",
		Usage: "listing pages relative to --url: 1,3,5 or 1~10,20~25 or +10 or -10",
	}
}
