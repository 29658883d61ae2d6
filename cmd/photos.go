package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lehigh-university-libraries/fxprep/internal/drive"
	"github.com/lehigh-university-libraries/fxprep/internal/seed"
	"github.com/spf13/cobra"
)

const photoColumn = "PhotoURL"

type photosOptions struct {
	folderID      string
	seedPath      string
	outPath       string
	labelColumn   string
	assignByOrder bool
	minSimilarity float64
	credsPath     string
	tokenPath     string
	apiKey        string
}

func newPhotosCmd() *cobra.Command {
	opts := &photosOptions{}

	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Fill seed PhotoURL cells from a Google Drive folder",
		Long: `Photos lists the images in a Google Drive folder and writes a public link
into the PhotoURL column of every seed row that has none.

Files are matched to rows by label (CustomLabel by default): exact name,
then prefix, then substring, then optionally by similarity. When nothing
matches, or with --assign-by-order, images are handed out in name order.`,
		Example: `  fxprep photos --folder-id 1AbC --seed seed.csv --out seed_with_photos.csv
  fxprep photos --folder-id 1AbC --seed seed.csv --out out.csv --api-key $GOOGLE_API_KEY --assign-by-order`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.apiKey == "" {
				opts.apiKey = os.Getenv("GOOGLE_API_KEY")
			}
			return runPhotos(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.folderID, "folder-id", "", "Google Drive folder ID")
	cmd.Flags().StringVar(&opts.seedPath, "seed", "", "Seed file to update")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Path to write the updated seed CSV")
	cmd.Flags().StringVar(&opts.labelColumn, "label-col", "CustomLabel", "Seed column matched against file names")
	cmd.Flags().BoolVar(&opts.assignByOrder, "assign-by-order", false, "Assign images to rows in name order")
	cmd.Flags().Float64Var(&opts.minSimilarity, "min-similarity", 0, "Minimum Jaro-Winkler similarity for fuzzy matches (0 disables)")
	cmd.Flags().StringVar(&opts.credsPath, "creds", drive.DefaultCredsPath, "OAuth client secret file")
	cmd.Flags().StringVar(&opts.tokenPath, "token", drive.DefaultTokenPath, "OAuth token file (created on first use)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key for public folders (default $GOOGLE_API_KEY)")
	_ = cmd.MarkFlagRequired("folder-id")
	_ = cmd.MarkFlagRequired("seed")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runPhotos(cmd *cobra.Command, opts *photosOptions) error {
	tbl, err := seed.NewLoader(opts.seedPath).Table()
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}

	srv, err := drive.NewService(cmd.Context(), drive.Auth{
		APIKey:    opts.apiKey,
		CredsPath: opts.credsPath,
		TokenPath: opts.tokenPath,
	})
	if err != nil {
		return err
	}
	files, err := srv.ListFiles(cmd.Context(), opts.folderID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No files found in the folder.")
		return tbl.SaveCSV(opts.outPath)
	}
	slog.Info("Listed drive folder", "folder", opts.folderID, "files", len(files))

	labels := make([]string, len(tbl.Rows))
	current := make([]string, len(tbl.Rows))
	for i := range tbl.Rows {
		labels[i] = tbl.Get(i, opts.labelColumn)
		current[i] = tbl.Get(i, photoColumn)
	}

	assigner := drive.Assigner{ByOrder: opts.assignByOrder, MinSimilarity: opts.minSimilarity}
	assignments := assigner.Assign(labels, current, files)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Row", opts.labelColumn, "File", "Match"})
	assigned := 0
	for _, a := range assignments {
		if a.URL == "" {
			continue
		}
		tbl.Set(a.Row, photoColumn, a.URL)
		assigned++
		line := a.Row + 2
		if a.Row < len(tbl.Lines) {
			line = tbl.Lines[a.Row]
		}
		t.AppendRow(table.Row{line, labels[a.Row], a.File.Name, string(a.Match)})
	}
	if !tbl.Has(photoColumn) {
		tbl.Header = append(tbl.Header, photoColumn)
	}
	if assigned > 0 {
		t.SetStyle(table.StyleRounded)
		t.Render()
	}

	if err := tbl.SaveCSV(opts.outPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Assigned %d photo(s); updated seed written to: %s\n", assigned, opts.outPath)
	return nil
}
