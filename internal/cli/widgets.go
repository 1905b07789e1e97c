package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"glance/internal/config"
	"glance/internal/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// widgetsFile is the export/import document
type widgetsFile struct {
	Widgets []widgetYAML `yaml:"widgets"`
}

type widgetYAML struct {
	ID        string          `yaml:"id,omitempty"`
	Type      string          `yaml:"type"`
	Name      string          `yaml:"name"`
	Position  domain.Position `yaml:"position"`
	Size      domain.Size     `yaml:"size"`
	Enabled   bool            `yaml:"enabled"`
	Collapsed bool            `yaml:"collapsed"`
	CreatedAt time.Time       `yaml:"createdAt,omitempty"`
	Settings  yaml.Node       `yaml:"settings"`
}

func toWidgetYAML(w domain.Widget) (widgetYAML, error) {
	out := widgetYAML{
		ID:        w.ID,
		Type:      string(w.Type),
		Name:      w.Name,
		Position:  w.Position,
		Size:      w.Size,
		Enabled:   w.Enabled,
		Collapsed: w.Collapsed,
		CreatedAt: w.CreatedAt,
	}
	if err := out.Settings.Encode(w.Settings); err != nil {
		return widgetYAML{}, fmt.Errorf("encode settings of %s: %w", w.ID, err)
	}
	return out, nil
}

// decodeYAMLSettings starts from the registry defaults so omitted keys keep their default value
func decodeYAMLSettings(t domain.WidgetType, node *yaml.Node) (domain.WidgetSettings, error) {
	def, ok := domain.LookupDefinition(t)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWidgetType, t)
	}
	if node.Kind == 0 {
		return def.DefaultSettings, nil
	}
	switch s := def.DefaultSettings.(type) {
	case domain.GitHubPRSettings:
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return domain.CloneSettings(s), nil
	case domain.BookmarkSettings:
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	case domain.TabGroupsSettings:
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWidgetType, t)
	}
}

func (y widgetYAML) toDomain() (domain.Widget, error) {
	t := domain.WidgetType(y.Type)
	settings, err := decodeYAMLSettings(t, &y.Settings)
	if err != nil {
		return domain.Widget{}, fmt.Errorf("widget %q: %w", y.Name, err)
	}
	return domain.Widget{
		ID:        y.ID,
		Type:      t,
		Name:      y.Name,
		Position:  y.Position,
		Size:      y.Size,
		Enabled:   y.Enabled,
		Collapsed: y.Collapsed,
		CreatedAt: y.CreatedAt,
		Settings:  settings,
	}, nil
}

func widgetsCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widgets",
		Short: "List, add, remove, export and import widgets",
	}
	cmd.AddCommand(widgetsListCmd(cfg))
	cmd.AddCommand(widgetsAddCmd(cfg))
	cmd.AddCommand(widgetsRemoveCmd(cfg))
	cmd.AddCommand(widgetsExportCmd(cfg))
	cmd.AddCommand(widgetsImportCmd(cfg))
	return cmd
}

func widgetsListCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List widgets in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			widgets := a.state.Widgets()
			domain.SortByPosition(widgets)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tNAME\tPOS\tSIZE\tENABLED\tCOLLAPSED")
			for _, w := range widgets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d,%d\t%dx%d\t%t\t%t\n",
					w.ID, w.Type, w.Name, w.Position.X, w.Position.Y, w.Size.Width, w.Size.Height, w.Enabled, w.Collapsed)
			}
			return tw.Flush()
		},
	}
}

func widgetsAddCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add <type>",
		Short: "Add a widget with the default settings of its type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := a.widgets.AddWidget(cmd.Context(), domain.WidgetType(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: added %s (%s)\n", w.ID, w.Type)
			return nil
		},
	}
}

func widgetsRemoveCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.widgets.DeleteWidget(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: removed %s\n", args[0])
			return nil
		},
	}
}

func widgetsExportCmd(cfg config.Config) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the widget layout as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer f.Close()
				out = f
			}
			widgets := a.state.Widgets()
			domain.SortByPosition(widgets)
			return exportWidgets(out, widgets)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func exportWidgets(out io.Writer, widgets []domain.Widget) error {
	doc := widgetsFile{Widgets: make([]widgetYAML, 0, len(widgets))}
	for _, w := range widgets {
		y, err := toWidgetYAML(w)
		if err != nil {
			return err
		}
		doc.Widgets = append(doc.Widgets, y)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func readWidgets(in io.Reader) ([]domain.Widget, error) {
	var doc widgetsFile
	if err := yaml.NewDecoder(in).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	out := make([]domain.Widget, 0, len(doc.Widgets))
	for _, y := range doc.Widgets {
		w, err := y.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func widgetsImportCmd(cfg config.Config) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add widgets from a YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()
			widgets, err := readWidgets(f)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return importWidgets(cmd.Context(), a, widgets, replace, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Remove existing widgets first")
	return cmd
}

func importWidgets(ctx context.Context, a *app, widgets []domain.Widget, replace bool, out io.Writer) error {
	if replace {
		for _, w := range a.state.Widgets() {
			if err := a.widgets.DeleteWidget(ctx, w.ID); err != nil {
				return err
			}
		}
	}
	for _, w := range widgets {
		imported, err := a.widgets.Import(ctx, w)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "ok: imported %s (%s)\n", imported.ID, imported.Type)
	}
	return nil
}
