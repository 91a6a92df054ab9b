package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/spf13/cobra"

	"github.com/olablt/gio-maps/component"
	"github.com/olablt/gio-maps/config"
	"github.com/olablt/gio-maps/internal/logging"
	"github.com/olablt/gio-maps/internal/safeexit"
	"github.com/olablt/gio-maps/provider"
	"github.com/olablt/gio-maps/shell"
)

var (
	configPath string
	logLevel   string
	offline    bool
)

var rootCmd = &cobra.Command{
	Use:          "trailmap",
	Short:        "Browse trails, trailheads and parks on an interactive map",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config `file`")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level, overrides log.level")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "draw placeholder basemap tiles instead of fetching them")
}

func main() {
	go func() {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	// the default file is optional
	if err != nil && configPath == config.DefaultPath && errors.Is(err, os.ErrNotExist) {
		return config.Load("")
	}
	return conf, err
}

func run() error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	level := conf.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log, logFile, err := logging.New(logging.Options{Level: level, Dir: conf.Log.Dir, Terminal: conf.Log.Terminal})
	if err != nil {
		return err
	}
	defer logFile.Close()

	sketch, err := conf.SketchSymbology()
	if err != nil {
		return err
	}

	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	th.Palette.ContrastBg = shell.Primary

	client := &http.Client{Timeout: conf.HTTP.Timeout}
	engine := provider.NewGio(provider.GioOptions{
		Client:    client,
		Log:       log,
		Theme:     th,
		UserAgent: conf.Tiles.UserAgent,
		Workers:   conf.Tiles.Workers,
		CacheSize: conf.Tiles.CacheSize,
		MinZoom:   conf.Tiles.MinZoom,
		MaxZoom:   conf.Tiles.MaxZoom,
		Offline:   offline || conf.Tiles.Offline,
	})

	m := component.New(component.Options{
		Provider: engine,
		Layers:   conf.LayerDescriptors(),
		Sketch:   &sketch,
		Client:   client,
		Log:      log,
	})
	m.SetZoom(conf.Map.Zoom)
	m.SetCenter(conf.Center())
	m.SetBasemap(conf.Map.Basemap)
	sh := shell.New(th, conf.App.Title, m, log)

	exit := safeexit.New(log)
	exit.Register(sh.Close)
	exit.Register(engine.Close)
	exit.Listen()
	defer exit.Run()

	w := new(app.Window)
	w.Option(app.Title(conf.App.Title), app.Size(unit.Dp(1280), unit.Dp(800)))
	if err := sh.Start(context.Background(), w); err != nil {
		return err
	}
	log.Infof("%s started with config %s", conf.App.Title, configPath)

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			sh.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
