package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/render"
	"github.com/dgallion1/firdesk/internal/store"
)

var (
	listLimit  int
	renderOut  string
	renderHTML bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent reports",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a stored report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var renderCmd = &cobra.Command{
	Use:   "render [id]",
	Short: "Render a stored report to PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", store.DefaultRecent, "Number of reports to list")
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "Output file (default fir_<id>.pdf)")
	renderCmd.Flags().BoolVar(&renderHTML, "html", false, "Write the filled HTML form instead of a PDF")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Recent(cmd.Context(), listLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no reports")
		return nil
	}
	t := table.New().Headers("ID", "CREATED", "STATION", "COMPLAINANT")
	for _, rec := range records {
		r, err := fir.Decode(rec.Document)
		if err != nil {
			return fmt.Errorf("decode %s: %w", rec.ID, err)
		}
		t.Row(rec.ID, rec.CreatedAt.Local().Format(time.DateTime), string(r.Meta.PoliceStation), string(r.Complainant.Name))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func runRender(cmd *cobra.Command, args []string) error {
	id := args[0]
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	report, err := fir.Decode(rec.Document)
	if err != nil {
		return err
	}

	var out []byte
	ext := ".pdf"
	if renderHTML {
		ext = ".html"
		out, err = render.FillHTML(report)
	} else {
		log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
		r := render.NewChromeRenderer(cfg.ChromeBin, 1, log)
		defer r.Close()
		out, err = r.Render(cmd.Context(), report)
	}
	if err != nil {
		return err
	}

	path := renderOut
	if path == "" {
		path = "fir_" + id + ext
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(out))
	return nil
}
