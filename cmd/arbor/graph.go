package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/internal/stopwatch"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the stopwatch machine visualization",
	Long: `Outputs the stopwatch definition as a Mermaid state diagram, or as a markdown
document rendered for the terminal with --format markdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		active, _ := cmd.Flags().GetStringSlice("active")

		def, err := stopwatch.Definition()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			var overlay *graph.Overlay
			if len(active) > 0 {
				overlay = &graph.Overlay{}
				for _, id := range active {
					overlay.Active = append(overlay.Active, domain.StateID(strings.TrimSpace(id)))
				}
			}
			fmt.Fprint(out, graph.GenerateMermaid(def, overlay))
		case "markdown":
			rendered, err := tui.NewRenderer(80)(graph.GenerateMarkdown("Stopwatch", def))
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		default:
			return fmt.Errorf("unknown format %q (want mermaid or markdown)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or markdown")
	graphCmd.Flags().StringSlice("active", nil, "Active path to highlight, root first (mermaid only)")
}
