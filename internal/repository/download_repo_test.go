package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/testutil"
)

func TestDownloadRepository_StartIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewDownloadRepository(db)

	va := testutil.TestVariantAnalysis(t, db, 7)

	_, err := repo.Start(va.ID, 1, "octo-org/a")
	require.NoError(t, err)

	// 重复 Start 不产生第二行，只刷新状态
	_, err = repo.Start(va.ID, 1, "octo-org/a")
	require.NoError(t, err)

	all, err := repo.ListByAnalysis(va.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.DownloadInProgress, all[0].Status)
	assert.NotNil(t, all[0].StartedAt)
}

func TestDownloadRepository_MarkSucceeded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewDownloadRepository(db)

	va := testutil.TestVariantAnalysis(t, db, 7)
	_, err := repo.Start(va.ID, 1, "octo-org/a")
	require.NoError(t, err)

	err = repo.MarkSucceeded(va.ID, 1, "/data/cache/1/octo-org-a.json", "https://oss/1.json", 2048)
	require.NoError(t, err)

	dl, err := repo.GetByAnalysisAndRepo(va.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.DownloadSucceeded, dl.Status)
	assert.Equal(t, "/data/cache/1/octo-org-a.json", dl.ArtifactPath)
	assert.Equal(t, "https://oss/1.json", dl.ArtifactOSSURL)
	assert.Equal(t, int64(2048), dl.SizeBytes)
	assert.NotNil(t, dl.CompletedAt)
}

func TestDownloadRepository_MarkFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewDownloadRepository(db)

	va := testutil.TestVariantAnalysis(t, db, 7)
	_, err := repo.Start(va.ID, 2, "octo-org/b")
	require.NoError(t, err)

	err = repo.MarkFailed(va.ID, 2, "artifact url missing")
	require.NoError(t, err)

	dl, err := repo.GetByAnalysisAndRepo(va.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DownloadFailed, dl.Status)
	assert.Equal(t, "artifact url missing", dl.ErrorMessage)

	// 失败后重新 Start 清掉错误信息
	_, err = repo.Start(va.ID, 2, "octo-org/b")
	require.NoError(t, err)
	dl, err = repo.GetByAnalysisAndRepo(va.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.DownloadInProgress, dl.Status)
	assert.Empty(t, dl.ErrorMessage)
}

func TestDownloadRepository_ListDispatchedRepoIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewDownloadRepository(db)

	va := testutil.TestVariantAnalysis(t, db, 7)
	other := testutil.TestVariantAnalysis(t, db, 7)

	testutil.TestDownload(t, db, va.ID, 1, model.DownloadSucceeded)
	testutil.TestDownload(t, db, va.ID, 2, model.DownloadFailed)
	testutil.TestDownload(t, db, va.ID, 3, model.DownloadInProgress)
	testutil.TestDownload(t, db, other.ID, 9, model.DownloadSucceeded)

	ids, err := repo.ListDispatchedRepoIDs(va.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids, "all dispatched repos count, regardless of outcome")
}

func TestDownloadRepository_ListSucceededByAnalysis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewDownloadRepository(db)

	va := testutil.TestVariantAnalysis(t, db, 7)
	testutil.TestDownload(t, db, va.ID, 1, model.DownloadSucceeded)
	testutil.TestDownload(t, db, va.ID, 2, model.DownloadFailed)

	succeeded, err := repo.ListSucceededByAnalysis(va.ID)
	require.NoError(t, err)
	require.Len(t, succeeded, 1)
	assert.Equal(t, int64(1), succeeded[0].RepoID)
}

func TestDownloadRepository_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	repo := NewDownloadRepository(db)

	_, err := repo.GetByAnalysisAndRepo(1, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
