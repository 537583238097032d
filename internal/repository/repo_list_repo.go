package repository

import (
	"gorm.io/gorm"

	"github.com/jsinglet/mrva_go_server/internal/model"
)

type RepoListRepository struct {
	db *gorm.DB
}

func NewRepoListRepository(db *gorm.DB) *RepoListRepository {
	return &RepoListRepository{db: db}
}

func (r *RepoListRepository) Create(list *model.RepoList) error {
	return r.db.Create(list).Error
}

func (r *RepoListRepository) GetByID(id int64) (*model.RepoList, error) {
	var list model.RepoList
	err := r.db.Where("id = ?", id).First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *RepoListRepository) ListByUserID(userID int64) ([]*model.RepoList, error) {
	var lists []*model.RepoList
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&lists).Error
	return lists, err
}

func (r *RepoListRepository) Update(list *model.RepoList) error {
	return r.db.Save(list).Error
}

func (r *RepoListRepository) Delete(id int64) error {
	return r.db.Delete(&model.RepoList{}, id).Error
}
