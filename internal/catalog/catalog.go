// Package catalog exposes read-only lookups over the asset hierarchy.
// The intake workflow consumes it to resolve assets and to check that
// component/subcomponent identifiers belong to the reported asset.
package catalog

import (
	"errors"

	"github.com/opsdeck/opsdeck/internal/database"
	"gorm.io/gorm"
)

// Service provides asset hierarchy lookups
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetAsset returns an asset by ID, or nil if it does not exist
func (s *Service) GetAsset(assetID uint) (*database.Asset, error) {
	var asset database.Asset
	err := s.db.First(&asset, assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// GetAssetWithHierarchy returns an asset with components and subcomponents preloaded
func (s *Service) GetAssetWithHierarchy(assetID uint) (*database.Asset, error) {
	var asset database.Asset
	err := s.db.Preload("Components.Subcomponents").First(&asset, assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// ListAssets returns all active assets
func (s *Service) ListAssets() ([]database.Asset, error) {
	var assets []database.Asset
	err := s.db.Where("active = ?", true).Order("name ASC").Find(&assets).Error
	return assets, err
}

// ComponentBelongsToAsset reports whether the component is part of the asset
func (s *Service) ComponentBelongsToAsset(componentID, assetID uint) (bool, error) {
	var count int64
	err := s.db.Model(&database.AssetComponent{}).
		Where("id = ? AND asset_id = ?", componentID, assetID).
		Count(&count).Error
	return count > 0, err
}

// SubcomponentBelongsToComponent reports whether the subcomponent is part of the component
func (s *Service) SubcomponentBelongsToComponent(subcomponentID, componentID uint) (bool, error) {
	var count int64
	err := s.db.Model(&database.AssetSubcomponent{}).
		Where("id = ? AND component_id = ?", subcomponentID, componentID).
		Count(&count).Error
	return count > 0, err
}

// ListSymptomTags returns the symptom vocabulary
func (s *Service) ListSymptomTags() ([]database.SymptomTag, error) {
	var tags []database.SymptomTag
	err := s.db.Order("name ASC").Find(&tags).Error
	return tags, err
}

// SymptomTagExists reports whether a symptom tag ID is known
func (s *Service) SymptomTagExists(tagID uint) (bool, error) {
	var count int64
	err := s.db.Model(&database.SymptomTag{}).Where("id = ?", tagID).Count(&count).Error
	return count > 0, err
}
