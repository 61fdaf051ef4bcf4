package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/odvcencio/fluffyui/fluffy"
	"github.com/spf13/cobra"

	"github.com/loomtext/loom/config"
	"github.com/loomtext/loom/editor"
	"github.com/loomtext/loom/internal/log"
	"github.com/loomtext/loom/project"
	"github.com/loomtext/loom/web"
)

var (
	version = "dev"

	cfgFile   string
	themeFlag string
	debugFlag bool
	webAddr   string
	tuiWeb    string
)

var rootCmd = &cobra.Command{
	Use:     "loom [paths...]",
	Short:   "A terminal text editor with precise line layout",
	Long:    "Loom is a terminal text editor built around an incremental line-layout engine, with tree-sitter highlighting, LSP tooling, project-aware quick open, and an optional browser frontend.",
	Version: version,
	RunE:    runEditor,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/loom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging")
	rootCmd.Flags().StringVar(&themeFlag, "theme", "", "color theme name")
	rootCmd.Flags().StringVar(&webAddr, "web", "", "serve the browser frontend on this address (e.g. localhost:8490)")
	rootCmd.Flags().StringVar(&tuiWeb, "tui-web", "", "mirror the TUI itself into a browser on this address")
}

var serveCmd = &cobra.Command{
	Use:   "serve [root]",
	Short: "Serve the browser frontend without starting the TUI",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&webAddr, "addr", "localhost:8490", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
}

func setup() (config.Config, func(), error) {
	cleanup := func() {}
	if debugFlag {
		os.Setenv("LOOM_DEBUG", "1")
	}
	if log.Enabled() {
		c, err := log.Init(filepath.Join(os.TempDir(), "loom-debug.log"))
		if err != nil {
			return config.Config{}, cleanup, fmt.Errorf("init logging: %w", err)
		}
		cleanup = c
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, cleanup, fmt.Errorf("load config: %w", err)
	}
	if themeFlag != "" {
		cfg.Theme = themeFlag
	}
	if webAddr != "" {
		cfg.Web.Enabled = true
		cfg.Web.Addr = webAddr
	}
	return cfg, cleanup, nil
}

func runEditor(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []fluffy.AppOption
	if tuiWeb != "" {
		opts = append(opts, fluffy.WithWebServer(tuiWeb))
	}

	return run(ctx, cfg, args, opts...)
}

func runServe(cmd *cobra.Command, args []string) error {
	_, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := ""
	if len(args) > 0 {
		root, err = filepath.Abs(args[0])
		if err != nil {
			return err
		}
	} else {
		root, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	state := &webEditorState{
		tabs: editor.NewTabManager(),
		root: root,
	}
	srv := web.NewServer(state, root)
	server := &http.Server{Addr: webAddr, Handler: srv}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	fmt.Printf("loom web frontend: http://%s\n", webAddr)
	log.Info(log.CatWeb, "headless web frontend", "addr", webAddr, "root", root)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// webEditorState adapts a TabManager to the web bridge's EditorState.
type webEditorState struct {
	tabs *editor.TabManager
	root string
}

func (s *webEditorState) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

func (s *webEditorState) OpenFile(path string) (string, error) {
	abs := s.resolve(path)
	idx, err := s.tabs.OpenFile(abs)
	if err != nil {
		return "", err
	}
	s.tabs.SetActive(idx)
	buf := s.tabs.ActiveBuffer()
	if buf == nil {
		return "", fmt.Errorf("failed to open buffer")
	}
	return buf.Text(), nil
}

func (s *webEditorState) find(path string) *editor.Buffer {
	abs := s.resolve(path)
	for _, buf := range s.tabs.Buffers() {
		if buf.Path() == abs {
			return buf
		}
	}
	return nil
}

func (s *webEditorState) ReadBuffer(path string) (string, error) {
	if buf := s.find(path); buf != nil {
		return buf.Text(), nil
	}
	return "", fmt.Errorf("buffer not open: %s", path)
}

func (s *webEditorState) WriteBuffer(path string, text string) error {
	if buf := s.find(path); buf != nil {
		buf.SetText(text)
		return nil
	}
	return fmt.Errorf("buffer not open: %s", path)
}

func (s *webEditorState) SaveFile(path string) error {
	if buf := s.find(path); buf != nil {
		return buf.Save()
	}
	return fmt.Errorf("buffer not open: %s", path)
}

func (s *webEditorState) ListFiles() []string {
	files, err := project.IndexFiles(s.root)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Rel)
	}
	return out
}

func (s *webEditorState) GetLanguage(path string) string {
	return languageIDFromPath(path)
}
