package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/genricoloni/playbadge/internal/config"
	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	format  string
	theme   string // empty selects the configured default
	width   int    // zero selects the configured default
	session string // JSON session record; "-" reads stdin, empty renders idle
	output  string // empty writes to stdout
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: string(render.FormatSVG)}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a single badge from a session record",
		Example: `  playbadge render --session track.json -o badge.svg
  playbadge render --format png --theme dark --width 500 -o idle.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg or png")
	cmd.Flags().StringVarP(&opts.theme, "theme", "t", "", "theme name (default from configuration)")
	cmd.Flags().IntVarP(&opts.width, "width", "w", 0, "badge width in pixels (default from configuration)")
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", `session record JSON file, "-" for stdin`)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runRender(cmd *cobra.Command, opts renderOpts) error {
	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	rec, err := readSession(cmd.InOrStdin(), opts.session)
	if err != nil {
		return err
	}

	var (
		svc *render.Service
		cfg *config.AppConfig
	)
	fxOpts := []fx.Option{RenderOptions, fx.NopLogger, fx.Populate(&svc, &cfg)}
	if !verbose {
		fxOpts = append(fxOpts, fx.Replace(zap.NewNop()))
	}
	if err := fx.New(fxOpts...).Err(); err != nil {
		return err
	}

	rc := domain.RenderConfig{Theme: opts.theme, Width: opts.width}
	if rc.Theme == "" {
		rc.Theme = cfg.GetTheme()
	}
	if rc.Width == 0 {
		rc.Width = cfg.GetWidth()
	}

	badge, err := svc.Render(cmd.Context(), format, rec, rc)
	if err != nil {
		return err
	}
	if badge.Degraded() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: badge could not be composed, wrote the error badge")
	}

	if opts.output == "" {
		_, err = cmd.OutOrStdout().Write(badge.Data)
		return err
	}
	if err := os.WriteFile(opts.output, badge.Data, 0o644); err != nil {
		return fmt.Errorf("writing badge: %w", err)
	}
	return nil
}

// readSession loads a session record. An empty path means no session.
func readSession(stdin io.Reader, path string) (*domain.SessionRecord, error) {
	if path == "" {
		return nil, nil
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, domain.WrapError(domain.CodeInvalidInput, err, "parsing session %s", path)
	}
	return &rec, nil
}
