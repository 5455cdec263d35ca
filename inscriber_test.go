package inscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/core/graph"
	"github.com/siherrmann/inscriber/core/nlp"
	"github.com/siherrmann/inscriber/core/ocr"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kennan = "Kennan Papers (MC #076) Box 53 Folder 18 1957"

func manifestJSON(baseURL string, id string, container string) string {
	return fmt.Sprintf(`{
  "@id": "%[1]s/%[2]s/manifest",
  "label": ["%[3]s"],
  "metadata": [{"label": "Container", "value": ["%[3]s"]}],
  "sequences": [{"canvases": [
    {"@id": "%[1]s/%[2]s/canvas/p1", "label": "p. 1", "rendering": [
      {"@id": "%[1]s/images/%[2]s-img1", "format": "image/tiff"},
      {"@id": "%[1]s/text/p1", "format": "text/plain"}
    ]},
    {"@id": "%[1]s/%[2]s/canvas/p2", "label": "p. 2", "rendering": [
      {"@id": "%[1]s/images/%[2]s-img2", "format": "image/tiff"}
    ]}
  ]}]
}`, baseURL, id, container)
}

type fixture struct {
	server   *httptest.Server
	ocrCalls *int32
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{ocrCalls: new(int32)}

	mux := http.NewServeMux()
	mux.HandleFunc("/a/manifest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, manifestJSON(f.server.URL, "a", "Box 53, Folder 18"))
	})
	mux.HandleFunc("/b/manifest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, manifestJSON(f.server.URL, "b", "Box 54"))
	})
	mux.HandleFunc("/text/p1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, kennan)
	})
	mux.HandleFunc("/images/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "tiff")
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cache.ImageDir = filepath.Join(dir, "images")
	cfg.Cache.OCRDir = filepath.Join(dir, "ocr")
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.Retries = 0
	cfg.HTTP.RetryDelay = time.Millisecond
	cfg.MetricsFile = filepath.Join(dir, "metrics.prom")
	f.cfg = cfg

	return f
}

func (f *fixture) uri(id string) string {
	return f.server.URL + "/" + id + "/manifest"
}

func (f *fixture) engine() ocr.Engine {
	return ocr.EngineFunc(func(ctx context.Context, imagePath string) (model.TokenTable, error) {
		atomic.AddInt32(f.ocrCalls, 1)
		table := model.TokenTable{}
		for i, w := range strings.Fields("Dear Acheson. Regards Kennan.") {
			table = append(table, model.Token{Level: 5, PageNum: 1, BlockNum: 1, ParNum: 1, LineNum: 1, WordNum: i + 1, Conf: model.Conf(97), Text: w})
		}
		return table, nil
	})
}

func namesAnnotator() nlp.Annotator {
	return nlp.NewFuncAnnotator("names", func(text string) ([]model.NamedEntity, error) {
		var out []model.NamedEntity
		for _, w := range strings.Fields(text) {
			w = strings.Trim(w, ".,")
			if w == "Kennan" || w == "Acheson" {
				out = append(out, model.NamedEntity{Text: w, Type: model.EntityPerson})
			}
		}
		return out, nil
	})
}

func counterMint() graph.MintFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("i%d", n)
	}
}

func (f *fixture) newInscriber(t *testing.T, opts ...Option) *Inscriber {
	opts = append([]Option{WithEngine(f.engine()), WithAnnotator(namesAnnotator()), WithMint(counterMint())}, opts...)
	i, err := New(f.cfg, helper.NewLogger(os.Stderr, slog.LevelError), opts...)
	require.NoError(t, err, "Expected New to not return an error")
	t.Cleanup(func() {
		_ = i.Close()
	})
	return i
}

type fakeStore struct {
	containers   []*model.ContainerRecord
	pages        []*model.PageRecord
	inscriptions map[string][]model.Inscription
	saveErr      error
	searched     []float32
	results      []*model.SearchResult
}

func (s *fakeStore) UpsertContainer(container *model.ContainerRecord) error {
	container.RID = uuid.New()
	s.containers = append(s.containers, container)
	return nil
}

func (s *fakeStore) SavePage(page *model.PageRecord, inscriptions []model.Inscription) ([]model.Inscription, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if s.inscriptions == nil {
		s.inscriptions = map[string][]model.Inscription{}
	}
	s.pages = append(s.pages, page)
	s.inscriptions[page.PageKey] = inscriptions
	return inscriptions, nil
}

func (s *fakeStore) Search(embedding []float32, config model.QueryConfig) ([]*model.SearchResult, error) {
	s.searched = embedding
	return s.results, nil
}

func fakeEmbed(text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

func TestNew(t *testing.T) {
	t.Run("Valid config with replaced collaborators", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		assert.NotNil(t, i.Client, "Expected a client")
		assert.NotNil(t, i.OCR, "Expected an OCR cache")
		assert.NotNil(t, i.Exporter, "Expected an exporter")
		assert.Nil(t, i.Store, "Expected no store when the database is disabled")
		assert.Equal(t, "names", i.Annotator.Name())
	})

	t.Run("Invalid threshold fails", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.Page.ConfidenceThreshold = 101

		_, err := New(f.cfg, nil, WithAnnotator(namesAnnotator()))
		assert.Error(t, err, "Expected error for invalid threshold")
	})

	t.Run("Unknown export format fails", func(t *testing.T) {
		f := newFixture(t)
		f.cfg.Export.Formats = []string{"pdf"}

		_, err := New(f.cfg, nil, WithAnnotator(namesAnnotator()))
		assert.Error(t, err, "Expected error for unknown format")
		assert.Contains(t, err.Error(), "pdf")
	})
}

func TestDump(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes all formats for every page", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		result, err := i.Dump(ctx, f.uri("a"), f.cfg.OutputDir, DumpOptions{})
		require.NoError(t, err, "Expected Dump to not return an error")
		require.NotNil(t, result.Report)

		assert.False(t, result.Skipped)
		assert.Equal(t, 0, result.Report.Failed())
		assert.Equal(t, 8, result.Report.Written())
		for _, name := range []string{"p1.txt", "p1.csv", "p1.jsonl", "p1.ttl", "p2.txt", "p2.csv", "p2.jsonl", "p2.ttl"} {
			assert.FileExists(t, filepath.Join(f.cfg.OutputDir, "Box_53__Folder_18", name))
		}

		text, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "Box_53__Folder_18", "p1.txt"))
		require.NoError(t, err)
		assert.Equal(t, kennan, string(text), "Expected the text rendering to be written")
	})

	t.Run("Skip existing does not rerun OCR", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		_, err := i.Dump(ctx, f.uri("a"), f.cfg.OutputDir, DumpOptions{})
		require.NoError(t, err)
		calls := atomic.LoadInt32(f.ocrCalls)

		result, err := i.Dump(ctx, f.uri("a"), f.cfg.OutputDir, DumpOptions{SkipExisting: true})
		require.NoError(t, err)
		assert.True(t, result.Skipped, "Expected exported container to be skipped")
		assert.Nil(t, result.Report)
		assert.Equal(t, calls, atomic.LoadInt32(f.ocrCalls))
	})

	t.Run("Unavailable manifest fails", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		_, err := i.Dump(ctx, f.uri("missing"), f.cfg.OutputDir, DumpOptions{})
		assert.ErrorIs(t, err, helper.ErrManifestUnavailable)
	})

	t.Run("Metrics are written", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		_, err := i.Dump(ctx, f.uri("a"), f.cfg.OutputDir, DumpOptions{})
		require.NoError(t, err)
		require.NoError(t, i.WriteMetrics(), "Expected WriteMetrics to not return an error")

		data, err := os.ReadFile(f.cfg.MetricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `inscriber_manifests_total{outcome="ok"} 1`)
		assert.Contains(t, string(data), `inscriber_text_rendering_hits_total 1`)
	})
}

func TestDumpStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Persists container, pages and inscriptions", func(t *testing.T) {
		f := newFixture(t)
		store := &fakeStore{}
		i := f.newInscriber(t, WithStore(store, fakeEmbed))

		result, err := i.Dump(ctx, f.uri("a"), f.cfg.OutputDir, DumpOptions{})
		require.NoError(t, err)
		assert.NoError(t, result.StoreErr)

		require.Len(t, store.containers, 1)
		assert.Equal(t, "Box_53__Folder_18", store.containers[0].Label)
		assert.Equal(t, "a", store.containers[0].ManifestID)
		assert.Equal(t, f.uri("a"), store.containers[0].ManifestURI)

		require.Len(t, store.pages, 2)
		assert.Equal(t, "p1", store.pages[0].PageKey)
		assert.Equal(t, 0, store.pages[0].Position)
		assert.Equal(t, 1, store.pages[1].Position)
		assert.Equal(t, store.containers[0].RID, store.pages[0].ContainerRID)
		assert.Equal(t, kennan, store.pages[0].Text)
		assert.Equal(t, 95, store.pages[0].Threshold)
		assert.NotEmpty(t, store.pages[0].Embedding, "Expected page embeddings")

		require.Len(t, store.inscriptions["p1"], 1)
		assert.Equal(t, "Kennan", store.inscriptions["p1"][0].Text)
		assert.Equal(t, model.EntityPerson, store.inscriptions["p1"][0].EntityType)
		assert.Equal(t, graph.Inscription.Base+"i1", store.inscriptions["p1"][0].IRI, "Expected the exported IRI to be stored")

		texts := []string{}
		for _, inscription := range store.inscriptions["p2"] {
			texts = append(texts, inscription.Text)
			assert.Equal(t, f.server.URL+"/a/canvas/p2", inscription.CanvasID)
		}
		assert.ElementsMatch(t, []string{"Acheson", "Kennan"}, texts)
	})

	t.Run("Store failure does not fail the dump", func(t *testing.T) {
		f := newFixture(t)
		store := &fakeStore{saveErr: errors.New("connection refused")}
		i := f.newInscriber(t, WithStore(store, nil))

		result, err := i.Dump(ctx, f.uri("a"), f.cfg.OutputDir, DumpOptions{})
		require.NoError(t, err)
		assert.Error(t, result.StoreErr, "Expected the store error to be reported")
		assert.Equal(t, 8, result.Report.Written())
	})
}

func TestDumpAll(t *testing.T) {
	f := newFixture(t)
	i := f.newInscriber(t)

	batch, err := i.DumpAll(context.Background(), []string{f.uri("a"), f.uri("missing"), f.uri("b")}, f.cfg.OutputDir, DumpOptions{})
	require.NoError(t, err, "Expected DumpAll to not return an error")

	assert.Len(t, batch.Results, 2, "Expected the good manifests to be dumped")
	require.Len(t, batch.Failed, 1)
	assert.ErrorIs(t, batch.Failed[f.uri("missing")], helper.ErrManifestUnavailable)
	assert.DirExists(t, filepath.Join(f.cfg.OutputDir, "Box_53__Folder_18"))
	assert.DirExists(t, filepath.Join(f.cfg.OutputDir, "Box_54"))

	t.Run("Uncreatable output directory stops the batch", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "not-a-dir")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		batch, err := i.DumpAll(context.Background(), []string{f.uri("a"), f.uri("b")}, blocker, DumpOptions{})

		assert.ErrorIs(t, err, helper.ErrOutputDir)
		assert.Empty(t, batch.Results)
		assert.Empty(t, batch.Failed, "Expected no manifest to be attempted")
	})

	t.Run("Uncreatable container directory stops the batch", func(t *testing.T) {
		out := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(out, "Box_53__Folder_18"), []byte("x"), 0644))

		batch, err := i.DumpAll(context.Background(), []string{f.uri("a"), f.uri("b")}, out, DumpOptions{})

		assert.ErrorIs(t, err, helper.ErrOutputDir)
		assert.Empty(t, batch.Results, "Expected the batch to stop before the second manifest")
		assert.ErrorIs(t, batch.Failed[f.uri("a")], helper.ErrOutputDir)
		assert.NoDirExists(t, filepath.Join(out, "Box_54"))
	})

	t.Run("Cancelled context stops the batch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		batch, err := i.DumpAll(ctx, []string{f.uri("a")}, f.cfg.OutputDir, DumpOptions{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, batch.Results)
	})
}

func TestReadManifestList(t *testing.T) {
	input := `
# Kennan papers
https://figgy.princeton.edu/concern/scanned_resources/a/manifest

  https://figgy.princeton.edu/concern/scanned_resources/b/manifest
#https://figgy.princeton.edu/concern/scanned_resources/c/manifest
`
	uris, err := ReadManifestList(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://figgy.princeton.edu/concern/scanned_resources/a/manifest",
		"https://figgy.princeton.edu/concern/scanned_resources/b/manifest",
	}, uris)
}

func TestWriteGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("One turtle file per page", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		paths, err := i.WriteGraph(ctx, f.uri("a"), f.cfg.OutputDir, GraphOptions{})
		require.NoError(t, err, "Expected WriteGraph to not return an error")
		require.Len(t, paths, 2)
		assert.Equal(t, filepath.Join(f.cfg.OutputDir, "Box_53__Folder_18", "p1.ttl"), paths[0])

		data, err := os.ReadFile(paths[1])
		require.NoError(t, err)
		assert.Contains(t, string(data), `rdfs:label "Acheson"`)
	})

	t.Run("Merged N-Triples file", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		paths, err := i.WriteGraph(ctx, f.uri("a"), f.cfg.OutputDir, GraphOptions{Merged: true, Format: "nt"})
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, filepath.Join(f.cfg.OutputDir, "Box_53__Folder_18", "Box_53__Folder_18.nt"), paths[0])

		data, err := os.ReadFile(paths[0])
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, 15, "Expected five triples for each of the three inscriptions")
	})

	t.Run("Unknown format fails", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		_, err := i.WriteGraph(ctx, f.uri("a"), f.cfg.OutputDir, GraphOptions{Format: "xml"})
		assert.Error(t, err)
	})

	t.Run("BuildGraph merges pages", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		g, err := i.BuildGraph(ctx, f.uri("a"))
		require.NoError(t, err)
		assert.Equal(t, 15, g.Len())
	})
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	i := f.newInscriber(t)

	report, err := i.Download(context.Background(), f.uri("a"))

	require.NoError(t, err, "Expected Download to not return an error")
	assert.Len(t, report.Paths, 2)
	assert.Empty(t, report.Failed)
	assert.FileExists(t, filepath.Join(f.cfg.Cache.ImageDir, "a-img1"))
	assert.Equal(t, int32(0), atomic.LoadInt32(f.ocrCalls), "Expected no OCR for a download")
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("Without store fails", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t)

		_, err := i.Search(ctx, "Kennan", model.DefaultQueryConfig())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database is not enabled")
	})

	t.Run("Without embedder fails", func(t *testing.T) {
		f := newFixture(t)
		i := f.newInscriber(t, WithStore(&fakeStore{}, nil))

		_, err := i.Search(ctx, "Kennan", model.DefaultQueryConfig())
		assert.Error(t, err)
	})

	t.Run("Embeds the query", func(t *testing.T) {
		f := newFixture(t)
		store := &fakeStore{results: []*model.SearchResult{{ContainerLabel: "Box_53__Folder_18", Score: 0.9}}}
		i := f.newInscriber(t, WithStore(store, fakeEmbed))

		results, err := i.Search(ctx, "Kennan", model.QueryConfig{})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, []float32{6, 1, 0}, store.searched)
	})
}
