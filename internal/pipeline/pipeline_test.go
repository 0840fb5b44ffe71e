package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/newsetl/internal/lang"
	"github.com/IshaanNene/newsetl/internal/storage"
	"github.com/IshaanNene/newsetl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	res, err := lang.Load(lang.Spanish)
	require.NoError(t, err)
	return New(res, testLogger)
}

// articleTable builds an extract table; a nil title is a missing value.
func articleTable(rows ...[3]*string) *types.Table {
	table := types.NewTable(types.ArticleSchema.Columns...)
	table.Manifest = &types.Manifest{NewspaperUID: "eluniversal", RunID: "run-1"}
	for _, r := range rows {
		row := types.NewRow()
		if r[0] != nil {
			row.Set(types.ColumnURL, *r[0])
		}
		if r[1] != nil {
			row.Set(types.ColumnTitle, *r[1])
		}
		if r[2] != nil {
			row.Set(types.ColumnBody, *r[2])
		}
		table.Append(row)
	}
	return table
}

func s(v string) *string { return &v }

func byURL(t *testing.T, table *types.Table, u string) *types.Row {
	t.Helper()
	for _, row := range table.Rows {
		if row.GetString(types.ColumnURL) == u {
			return row
		}
	}
	t.Fatalf("no row for %s", u)
	return nil
}

func TestStageOrder(t *testing.T) {
	p := newTestPipeline(t)
	assert.Equal(t, []string{
		"newspaper_uid",
		"host",
		"missing_titles",
		"uid",
		"strip_newlines_body",
		"tokenize_title",
		"tokenize_body",
		"dedup_title",
		"dedup_uid",
		"drop_incomplete",
		"select_columns",
	}, p.Stages())
}

func TestTransformDerivesColumns(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://www.eluniversal.com.mx/nacion/seguridad"), s("Gran operativo en la capital"), s("El gobierno\nanunció hoy\nnuevas medidas.")},
	)

	out, err := p.Transform(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	assert.Equal(t, types.CleanSchema.Columns, out.Columns)

	row := out.Rows[0]
	assert.Equal(t, "eluniversal", row.GetString(types.ColumnNewspaperUID))
	assert.Equal(t, "www.eluniversal.com.mx", row.GetString(types.ColumnHost))
	assert.Equal(t, UID("http://www.eluniversal.com.mx/nacion/seguridad"), row.GetString(types.ColumnUID))
	assert.Equal(t, "El gobiernoanunció hoynuevas medidas.", row.GetString(types.ColumnBody))
	// gran, operativo, capital
	assert.Equal(t, "3", row.GetString(types.ColumnNTokensTitle))
	// gobiernoanunció, hoynuevas, medidas
	assert.Equal(t, "3", row.GetString(types.ColumnNTokensBody))

	require.NotNil(t, out.Manifest)
	assert.Equal(t, types.StageTransform, out.Manifest.Stage)
	assert.Equal(t, "run-1", out.Manifest.RunID)
	assert.Equal(t, types.CleanSchema.Name, out.Manifest.Schema)
}

func TestTransformDoesNotModifyInput(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable([3]*string{s("http://x.com/a"), nil, s("cuerpo\n")})

	_, err := p.Transform(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, types.ArticleSchema.Columns, in.Columns)
	assert.False(t, in.Rows[0].Has(types.ColumnTitle))
	assert.Equal(t, "cuerpo\n", in.Rows[0].GetString(types.ColumnBody))
}

func TestMissingTitleRecovery(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://x.com/breaking-news-today"), nil, s("cuerpo")},
		[3]*string{s("http://x.com/keep-this-slug"), s("Título original"), s("cuerpo dos")},
	)

	out, err := p.Transform(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, "breaking news today", byURL(t, out, "http://x.com/breaking-news-today").GetString(types.ColumnTitle))
	assert.Equal(t, "Título original", byURL(t, out, "http://x.com/keep-this-slug").GetString(types.ColumnTitle))
}

func TestTitleFromURL(t *testing.T) {
	assert.Equal(t, "breaking news today", TitleFromURL("http://x.com/breaking-news-today"))
	assert.Equal(t, "nota", TitleFromURL("http://x.com/a/b/nota"))
	assert.Equal(t, "", TitleFromURL("http://x.com/seccion/"))
	assert.Equal(t, "", TitleFromURL(""))
}

func TestUnrecoverableTitleIsDropped(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://x.com/seccion/"), nil, s("cuerpo")},
		[3]*string{s("http://x.com/ok"), s("Bien"), s("cuerpo")},
	)

	out, err := p.Transform(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "http://x.com/ok", out.Rows[0].GetString(types.ColumnURL))
}

func TestDedupByTitleKeepsFirst(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://x.com/1"), s("Misma nota"), s("primero")},
		[3]*string{s("http://x.com/2"), s("Misma nota"), s("segundo")},
		[3]*string{s("http://x.com/3"), s("Otra nota"), s("tercero")},
	)

	out, err := p.Transform(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "http://x.com/1", out.Rows[0].GetString(types.ColumnURL))
	assert.Equal(t, "http://x.com/3", out.Rows[1].GetString(types.ColumnURL))
}

func TestDedupByUID(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://x.com/1"), s("Primera versión"), s("a")},
		[3]*string{s("http://x.com/1"), s("Segunda versión"), s("b")},
	)

	out, err := p.Transform(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "Primera versión", out.Rows[0].GetString(types.ColumnTitle))
}

func TestDedupStageMissingValuesShareKey(t *testing.T) {
	table := types.NewTable(types.ColumnTitle, types.ColumnURL)
	for _, u := range []string{"a", "b", "c"} {
		row := types.NewRow()
		row.Set(types.ColumnURL, u)
		table.Append(row)
	}

	out, err := (&DedupStage{Column: types.ColumnTitle}).Apply(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestTokenCountsOnlyForCompleteRows(t *testing.T) {
	res := lang.MustLoad(lang.Spanish)
	table := types.NewTable(types.ColumnTitle, types.ColumnBody)

	full := types.NewRow()
	full.Set(types.ColumnTitle, "Nueva ley de transparencia")
	full.Set(types.ColumnBody, "texto")
	partial := types.NewRow()
	partial.Set(types.ColumnTitle, "Sin cuerpo")
	table.Append(full)
	table.Append(partial)

	stage := &TokenCountStage{Column: types.ColumnTitle, Target: types.ColumnNTokensTitle, Resources: res}
	out, err := stage.Apply(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, "3", out.Rows[0].GetString(types.ColumnNTokensTitle))
	assert.False(t, out.Rows[1].Has(types.ColumnNTokensTitle))
}

func TestFinalTableIsCompleteAndUnique(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://x.com/a"), s("Uno"), s("cuerpo uno")},
		[3]*string{s("http://x.com/b"), nil, s("cuerpo dos")},
		[3]*string{nil, s("Sin url"), s("cuerpo tres")},
		[3]*string{s("http://x.com/c"), s("Tres"), nil},
		[3]*string{s("http://x.com/a"), s("Uno bis"), s("cuerpo repetido")},
		[3]*string{s("http://x.com/d"), s("Uno"), s("otro cuerpo")},
		[3]*string{s("http://x.com/e"), s("Solo saltos"), s("\n\n")},
	)

	out, err := p.Transform(context.Background(), in)
	require.NoError(t, err)

	uids := map[string]bool{}
	titles := map[string]bool{}
	for _, row := range out.Rows {
		for _, col := range out.Columns {
			v, ok := row.Get(col)
			assert.True(t, ok && v != "", "row %s has missing %s", row.GetString(types.ColumnURL), col)
		}
		uid := row.GetString(types.ColumnUID)
		assert.False(t, uids[uid], "duplicate uid %s", uid)
		uids[uid] = true
		title := row.GetString(types.ColumnTitle)
		assert.False(t, titles[title], "duplicate title %s", title)
		titles[title] = true
		_, err := strconv.Atoi(row.GetString(types.ColumnNTokensBody))
		assert.NoError(t, err)
	}
	assert.Equal(t, 2, out.Len(), "rows a and b survive")
}

func TestTransformRequiresNewspaperUID(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable([3]*string{s("http://x.com/a"), s("t"), s("b")})
	in.Manifest = nil

	_, err := p.Transform(context.Background(), in)
	var pipeErr *types.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, "newspaper_uid", pipeErr.Stage)
	assert.ErrorIs(t, err, ErrNoNewspaperUID)
}

func TestTransformRequiresArticleColumns(t *testing.T) {
	p := newTestPipeline(t)
	in := types.NewTable(types.ColumnURL)
	in.Manifest = &types.Manifest{NewspaperUID: "x"}

	_, err := p.Transform(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrMissingColumn)
}

func TestNewspaperUIDFromPath(t *testing.T) {
	assert.Equal(t, "eluniversal", NewspaperUIDFromPath("/data/eluniversal_2024-03-09_articles.csv"))
	assert.Equal(t, "plain.csv", NewspaperUIDFromPath("plain.csv"))
}

func TestTransformFile(t *testing.T) {
	dir := t.TempDir()
	w := storage.NewDatasetWriter(dir, "csv", testLogger)
	_, in, err := w.Write("elpais", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), []types.ArticleRecord{
		{URL: "https://elpais.com/internacional/crisis-en-europa", Title: "", Body: "Texto\ncompleto"},
		{URL: "https://elpais.com/cultura/estreno", Title: "Estreno", Body: "Otro texto"},
	})
	require.NoError(t, err)

	p := newTestPipeline(t)
	outDir := filepath.Join(dir, "clean")
	cleaned, out, err := p.TransformFile(context.Background(), in, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "clean_elpais_2024-03-09_articles.csv"), out)
	assert.Equal(t, 2, cleaned.Len())

	reread, err := storage.ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, types.CleanSchema.Columns, reread.Columns)
	assert.Equal(t, 2, reread.Len())
	require.NotNil(t, reread.Manifest)
	assert.Equal(t, "elpais", reread.Manifest.NewspaperUID)
	assert.Equal(t, types.StageTransform, reread.Manifest.Stage)

	row := byURL(t, reread, "https://elpais.com/internacional/crisis-en-europa")
	assert.Equal(t, "crisis en europa", row.GetString(types.ColumnTitle))
	assert.Equal(t, "Textocompleto", row.GetString(types.ColumnBody))
}

func TestTransformFileWithoutManifestUsesFileName(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "eluniversal_2024-03-09_articles.csv")
	require.NoError(t, os.WriteFile(in, []byte("body,title,url\ncuerpo,Titulo,http://x.com/a\n"), 0o644))

	p := newTestPipeline(t)
	cleaned, _, err := p.TransformFile(context.Background(), in, dir)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "eluniversal", cleaned.Rows[0].GetString(types.ColumnNewspaperUID))
}

func TestUIDIsIdempotent(t *testing.T) {
	p := newTestPipeline(t)
	in := articleTable(
		[3]*string{s("http://x.com/a"), s("Uno"), s("cuerpo")},
		[3]*string{s("http://x.com/b"), s("Dos"), s("cuerpo")},
	)

	first, err := p.Transform(context.Background(), in)
	require.NoError(t, err)

	// Feed the output back without its derived columns.
	again := types.NewTable(types.ArticleSchema.Columns...)
	again.Manifest = first.Manifest
	for _, row := range first.Rows {
		r := types.NewRow()
		for _, col := range types.ArticleSchema.Columns {
			r.Set(col, row.GetString(col))
		}
		again.Append(r)
	}
	second, err := p.Transform(context.Background(), again)
	require.NoError(t, err)

	require.Equal(t, first.Len(), second.Len())
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].GetString(types.ColumnUID), second.Rows[i].GetString(types.ColumnUID))
	}
}

func TestUID(t *testing.T) {
	assert.Equal(t, "2a4121902b19aa90c94f54a14dcfba1b", UID("http://x.com/breaking-news-today"))
	assert.Len(t, UID(""), 32)
}
