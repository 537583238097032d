package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/internal/model"
	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/repository"
)

var ErrRepoListPermission = errors.New("无权操作此仓库清单")

// RepoListService 仓库清单管理
type RepoListService struct {
	listRepo *repository.RepoListRepository
}

func NewRepoListService(listRepo *repository.RepoListRepository) *RepoListService {
	return &RepoListService{listRepo: listRepo}
}

// Create 创建仓库清单
func (s *RepoListService) Create(userID int64, req *dto.RepoListRequest) (*dto.RepoListItem, error) {
	list := &model.RepoList{
		UserID: userID,
		Name:   req.Name,
		Repos:  req.Repos,
	}
	if err := s.listRepo.Create(list); err != nil {
		return nil, err
	}
	return buildRepoListItem(list), nil
}

// List 获取当前用户的全部清单
func (s *RepoListService) List(userID int64) ([]*dto.RepoListItem, error) {
	lists, err := s.listRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.RepoListItem, len(lists))
	for i, list := range lists {
		items[i] = buildRepoListItem(list)
	}
	return items, nil
}

// Update 更新清单
func (s *RepoListService) Update(userID, listID int64, req *dto.RepoListRequest) (*dto.RepoListItem, error) {
	list, err := s.getOwned(userID, listID)
	if err != nil {
		return nil, err
	}

	list.Name = req.Name
	list.Repos = req.Repos
	if err := s.listRepo.Update(list); err != nil {
		return nil, err
	}
	return buildRepoListItem(list), nil
}

// Delete 删除清单
func (s *RepoListService) Delete(userID, listID int64) error {
	if _, err := s.getOwned(userID, listID); err != nil {
		return err
	}
	return s.listRepo.Delete(listID)
}

func (s *RepoListService) getOwned(userID, listID int64) (*model.RepoList, error) {
	list, err := s.listRepo.GetByID(listID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepoListNotFound
		}
		return nil, err
	}
	if list.UserID != userID {
		return nil, ErrRepoListPermission
	}
	return list, nil
}

func buildRepoListItem(list *model.RepoList) *dto.RepoListItem {
	return &dto.RepoListItem{
		ID:        list.ID,
		Name:      list.Name,
		Repos:     list.Repos,
		RepoCount: len(list.Repos),
		CreatedAt: list.CreatedAt.Format(time.RFC3339),
		UpdatedAt: list.UpdatedAt.Format(time.RFC3339),
	}
}
