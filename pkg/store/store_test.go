package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/hanrei/pkg/types"
)

func sampleCorpus() *types.Corpus {
	return types.NewCorpus([]*types.Case{
		{
			Number:   "092002",
			Title:    "所得税更正処分取消請求控訴事件",
			Court:    "東京高等裁判所",
			Date:     "令和５年３月１４日",
			DateISO:  "2023-03-14",
			Result:   "棄却",
			Laws:     []string{types.SentinelOriginalJudgment, "所得税法36条"},
			TaxTypes: []string{"所得税"},

			OriginalCase: "092001",
			LawsSource:   types.LawsSourceInherited,
			Sections: []types.Section{
				{Title: "主文", Label: types.SectionDisposition, Level: 1, Start: 0, End: 40, Content: "本件控訴を棄却する。"},
			},
		},
		{
			Number: "092001",
			Title:  "所得税更正処分取消請求事件",
			Court:  "東京地方裁判所",
			Laws:   []string{"所得税法36条"},
			Issues: []string{"必要経費の範囲"},
		},
	})
}

func TestEncodeIndex(t *testing.T) {
	data, err := EncodeIndex(sampleCorpus())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {\n    \"number\": \"092001\""), "index must be sorted and two-space indented")
	assert.Contains(t, text, "所得税法36条")
	assert.Contains(t, text, `"（原判決引用）"`)
	assert.Contains(t, text, `"issue": []`)
	assert.Contains(t, text, `"tax_type": []`)
	assert.NotContains(t, text, `\u`)
}

func TestSaveAndLoadIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hanketsu", "index.json")
	require.NoError(t, SaveIndex(path, sampleCorpus()))

	corpus, err := LoadIndex(path)
	require.NoError(t, err)
	require.Equal(t, 2, corpus.Len())
	assert.Equal(t, "092001", corpus.Cases()[0].Number)

	appeal, ok := corpus.Get("092002")
	require.True(t, ok)
	assert.Equal(t, "092001", appeal.OriginalCase)
	assert.Equal(t, types.LawsSourceInherited, appeal.LawsSource)
	assert.Len(t, appeal.Sections, 1)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestDecodeIndex_Errors(t *testing.T) {
	_, err := DecodeIndex([]byte("{"))
	assert.Error(t, err)

	_, err = DecodeIndex([]byte(`[{"title": "番号なし"}]`))
	assert.Error(t, err)
}

func TestLoadIndex_Missing(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "index.json"))
	assert.Error(t, err)
}

func TestDB_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hanrei.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveCorpus(ctx, sampleCorpus()))
	require.NoError(t, db.SaveRun(ctx, "run-1", time.Now(), []byte(`{"total":2}`)))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	corpus, err := db.LoadCorpus(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, corpus.Len())
	assert.Equal(t, "092002", corpus.Cases()[0].Number, "corpus order is kept")

	appeal, err := db.Get(ctx, "092002")
	require.NoError(t, err)
	assert.Equal(t, []string{types.SentinelOriginalJudgment, "所得税法36条"}, appeal.Laws)
	assert.Equal(t, []string{}, appeal.Issues)
	assert.Equal(t, types.SectionDisposition, appeal.Sections[0].Label)
	assert.Equal(t, "2023-03-14", appeal.DateISO)

	_, err = db.Get(ctx, "999999")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDB_SaveCorpusReplaces(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "hanrei.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveCorpus(ctx, sampleCorpus()))
	require.NoError(t, db.SaveCorpus(ctx, types.NewCorpus([]*types.Case{{Number: "1"}})))

	corpus, err := db.LoadCorpus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.Len())
}

func TestDB_SaveCorpusRollsBack(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cases").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("INSERT INTO cases").
		ExpectExec().
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = New(sqlDB).SaveCorpus(context.Background(), sampleCorpus())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_GetNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT (.+) FROM cases WHERE number").
		WithArgs("092009").
		WillReturnRows(sqlmock.NewRows([]string{"number"}))

	_, err = New(sqlDB).Get(context.Background(), "092009")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_LoadCorpusQueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT (.+) FROM cases ORDER BY position").
		WillReturnError(errors.New("no such table: cases"))

	_, err = New(sqlDB).LoadCorpus(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_MigrateFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnError(errors.New("read-only database"))

	err = New(sqlDB).Migrate(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
