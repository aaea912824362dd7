package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/firdesk/internal/classify"
	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/store"
)

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FIRDESK_CONFIG", "")
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func seed(t *testing.T) (dbPath, id string) {
	t.Helper()
	dbPath = filepath.Join(t.TempDir(), "firdesk.db")
	st, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close()
	id, err = st.Save(context.Background(), fir.Normalize(map[string]any{
		"meta":        map[string]any{"district": "Pune", "policeStation": "Shivajinagar"},
		"complainant": map[string]any{"name": "Asha Rao"},
	}))
	require.NoError(t, err)
	return dbPath, id
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"chat", "fields", "list", "show", "render", "predict"} {
		assert.Contains(t, names, want)
	}
}

func TestFields(t *testing.T) {
	out, err := execute(t, "fields", "--catalog", "complaint")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "complainant.name")
}

func TestFields_CatalogFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "traffic.yaml")
	require.NoError(t, os.WriteFile(p, []byte("fields:\n  - key: vehicle.number\n    label: Vehicle number\n    kind: text\n"), 0o644))

	out, err := execute(t, "fields", "--catalog-file", p)
	require.NoError(t, err)
	assert.Contains(t, out, "vehicle.number")
	assert.Contains(t, out, "Vehicle number")
}

func TestFields_UnknownCatalog(t *testing.T) {
	_, err := execute(t, "fields", "--catalog", "nope")
	assert.Error(t, err)
}

func TestListAndShow(t *testing.T) {
	db, id := seed(t)

	out, err := execute(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Shivajinagar")
	assert.Contains(t, out, "Asha Rao")

	out, err = execute(t, "show", id, "--db", db)
	require.NoError(t, err)
	var rec store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, id, rec.ID)
	v, _ := docpath.Get(rec.Document, "meta.district")
	assert.Equal(t, "Pune", v)
}

func TestList_Empty(t *testing.T) {
	out, err := execute(t, "list", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "no reports")
}

func TestShow_NotFound(t *testing.T) {
	db, _ := seed(t)
	_, err := execute(t, "show", "missing", "--db", db)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestShow_RequiresID(t *testing.T) {
	_, err := execute(t, "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestRender_HTML(t *testing.T) {
	db, id := seed(t)
	out := filepath.Join(t.TempDir(), "report.html")

	stdout, err := execute(t, "render", id, "--db", db, "--html", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Asha Rao")
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sections":[{"section":"304","title":"Snatching","probability":0.81},"IPC 379"]}`))
	}))
	defer srv.Close()
	t.Setenv("CLASSIFIER_URL", srv.URL)

	out, err := execute(t, "predict", "they", "snatched", "my", "phone")
	require.NoError(t, err)
	assert.Contains(t, out, "1. BNS 304 - Snatching (0.81)")
	assert.Contains(t, out, "2. IPC 379")
}

type fakeClassifier struct {
	sections []classify.Section
	err      error
}

func (f fakeClassifier) Predict(ctx context.Context, text string) ([]classify.Section, error) {
	return f.sections, f.err
}

func TestSaver_AppliesSections(t *testing.T) {
	db, _ := seed(t)
	st, err := store.OpenSQLite(db)
	require.NoError(t, err)
	defer st.Close()

	save := saver(st, fakeClassifier{sections: []classify.Section{{Act: "BNS", Code: "303"}}})
	id, err := save(context.Background(), map[string]any{"firstInformationContents": "my bicycle was stolen"})
	require.NoError(t, err)

	rec, err := st.Get(context.Background(), id)
	require.NoError(t, err)
	v, ok := docpath.Get(rec.Document, "section2.0.section")
	require.True(t, ok)
	assert.Equal(t, "303", v)
}

func TestSaver_PredictionFailureStillSaves(t *testing.T) {
	db, _ := seed(t)
	st, err := store.OpenSQLite(db)
	require.NoError(t, err)
	defer st.Close()

	save := saver(st, fakeClassifier{err: errors.New("down")})
	id, err := save(context.Background(), map[string]any{"firstInformationContents": "my bicycle was stolen"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
