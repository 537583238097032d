package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/repository"
	"github.com/jsinglet/mrva_go_server/internal/testutil"
)

func TestRepoListService_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	s := NewRepoListService(repository.NewRepoListRepository(db))

	item, err := s.Create(7, &dto.RepoListRequest{
		Name:  "top-js",
		Repos: []string{"octo-org/a", "octo-org/b"},
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, 2, item.RepoCount)

	items, err := s.List(7)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "top-js", items[0].Name)

	// 其他用户看不到
	items, err = s.List(8)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepoListService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	s := NewRepoListService(repository.NewRepoListRepository(db))

	list := testutil.TestRepoList(t, db, 7, "top-js", []string{"octo-org/a"})

	item, err := s.Update(7, list.ID, &dto.RepoListRequest{
		Name:  "top-js-v2",
		Repos: []string{"octo-org/a", "octo-org/b", "octo-org/c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "top-js-v2", item.Name)
	assert.Equal(t, 3, item.RepoCount)

	_, err = s.Update(8, list.ID, &dto.RepoListRequest{Name: "x", Repos: []string{"octo-org/a"}})
	assert.ErrorIs(t, err, ErrRepoListPermission)

	_, err = s.Update(7, 9999, &dto.RepoListRequest{Name: "x", Repos: []string{"octo-org/a"}})
	assert.ErrorIs(t, err, ErrRepoListNotFound)
}

func TestRepoListService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	s := NewRepoListService(repository.NewRepoListRepository(db))

	list := testutil.TestRepoList(t, db, 7, "top-js", []string{"octo-org/a"})

	err := s.Delete(8, list.ID)
	assert.ErrorIs(t, err, ErrRepoListPermission)

	require.NoError(t, s.Delete(7, list.ID))

	items, err := s.List(7)
	require.NoError(t, err)
	assert.Empty(t, items)
}
