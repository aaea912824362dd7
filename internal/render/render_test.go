package render

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(t *testing.T) fir.Report {
	t.Helper()
	r, err := fir.Decode(map[string]any{
		"meta": map[string]any{
			"district":      "Brihanmumbai City",
			"policeStation": "Agripada",
			"year":          2025,
			"firNo":         "0498",
			"firDateTime":   "2025-10-06T20:04:00",
		},
		"section2": []any{map[string]any{"sno": 1, "act": "BNS", "section": "303"}},
		"occurrence": map[string]any{
			"dateFrom": "2025-10-06",
			"timeFrom": "18:00",
		},
		"accused": []any{
			map[string]any{"name": "Mayuresh", "alias": "Mayu", "address": "Saat Rasta"},
			map[string]any{"name": "Unknown"},
		},
		"firstInformationContents": "My phone <b>was</b> snatched",
	})
	require.NoError(t, err)
	return r
}

func TestFillHTML(t *testing.T) {
	html, err := FillHTML(sampleReport(t))
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "<td>Brihanmumbai City</td>")
	assert.Contains(t, out, "<td>2025-10-06</td><td class=\"label\">Time</td><td>20:04</td>")
	assert.Contains(t, out, "<tr><td>1</td><td>BNS</td><td>303</td></tr>")
	assert.Contains(t, out, "1. Mayuresh (Mayu) Saat Rasta<br>2. Unknown")
	assert.Contains(t, out, "My phone &lt;b&gt;was&lt;/b&gt; snatched", "narrative is escaped")
}

func TestFillHTML_EmptyReport(t *testing.T) {
	html, err := FillHTML(fir.Report{})
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "<tr><td></td><td></td><td></td></tr>", "empty sections keep one blank row")
	assert.NotContains(t, out, "<no value>")
	assert.True(t, len(out) >= MinHTMLSize)
}

func TestChromeRenderer_CancelledWhileQueued(t *testing.T) {
	c := NewChromeRenderer("", 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.PrintHTML(ctx, strings.Repeat("x", 200))

	var re *RenderingError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "queue", re.Stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, c.Close())
}

type fakeProcess struct{ kills int }

func (p *fakeProcess) Kill() { p.kills++ }

func TestChromeRenderer_ShutdownKillsProcess(t *testing.T) {
	c := NewChromeRenderer("", 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	proc := &fakeProcess{}
	c.launch = proc

	c.mu.Lock()
	err := c.shutdownLocked()
	c.mu.Unlock()

	require.NoError(t, err)
	assert.Equal(t, 1, proc.kills)
	assert.Nil(t, c.launch)
	assert.Nil(t, c.browser)

	require.NoError(t, c.Close())
	assert.Equal(t, 1, proc.kills, "a killed process is not killed twice")
}
