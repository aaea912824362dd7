package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/store"
	"github.com/dgallion1/firdesk/internal/tui"
)

var (
	chatPredict bool
	chatStrict  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "File a new report by answering one question at a time",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPredict, "predict", false, "Predict legal sections from the statement before saving")
	chatCmd.Flags().BoolVar(&chatStrict, "strict", false, "Reject answers that would overwrite an existing container")
}

func runChat(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	var opts []collector.Option
	if chatStrict || cfg.StrictPaths {
		opts = append(opts, collector.WithStrictPaths())
	}
	col, err := cat.Collector(opts...)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var classifier classify.Classifier
	if chatPredict {
		classifier = classify.NewClient(cfg.ClassifierURL, cfg.ClassifierTopK)
	}

	m := tui.New("New report ("+cat.Name+")", col, saver(st, classifier), nil)
	if err := tui.Run(cmd.Context(), m); err != nil {
		return err
	}
	if id := m.SavedID(); id != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", id)
	}
	return nil
}

// saver normalises and stores a finished document. With a classifier it
// first fills section2 from the statement; a failed prediction does not
// block the save.
func saver(st store.Store, classifier classify.Classifier) tui.SaveFunc {
	return func(ctx context.Context, doc any) (string, error) {
		if classifier != nil {
			v, _ := docpath.Get(doc, "firstInformationContents")
			if text, _ := v.(string); text != "" {
				if sections, err := classifier.Predict(ctx, text); err == nil {
					doc = fir.ApplySections(doc, sections)
				}
			}
		}
		return st.Save(ctx, fir.Normalize(doc))
	}
}
