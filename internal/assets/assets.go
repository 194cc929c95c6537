package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"waas-gateway-go/internal/models"

	"gopkg.in/yaml.v2"
)

type AssetConfig struct {
	AssetId     string `yaml:"asset_id"`
	BaseAssetId string `yaml:"base_asset_id"`
	Name        string `yaml:"name"`
	Decimals    int    `yaml:"decimals"`
}

type registryFile struct {
	Assets []AssetConfig `yaml:"assets"`
}

// LoadRegistry reads the asset registry yaml. Relative paths resolve against
// the working directory.
func LoadRegistry(registryPath string) ([]models.Asset, error) {
	path := registryPath
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", registryPath, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", registryPath, err)
	}

	result := make([]models.Asset, 0, len(file.Assets))
	for i, asset := range file.Assets {
		if asset.AssetId == "" {
			return nil, fmt.Errorf("asset at index %d missing asset_id", i)
		}
		if asset.Decimals < 0 {
			return nil, fmt.Errorf("asset %s has negative decimals", asset.AssetId)
		}
		result = append(result, models.Asset{
			AssetId:     asset.AssetId,
			BaseAssetId: asset.BaseAssetId,
			Name:        asset.Name,
			Decimals:    asset.Decimals,
		})
	}

	return result, nil
}

// Lookup returns the registry entry for an asset id.
func Lookup(registry []models.Asset, assetId string) (models.Asset, bool) {
	for _, asset := range registry {
		if asset.AssetId == assetId {
			return asset, true
		}
	}
	return models.Asset{}, false
}

// IsStable reports whether an asset name matches any stable keyword. The
// match is a lowercase substring check, intentionally permissive.
func IsStable(name string, keywords []string) bool {
	lowered := strings.ToLower(name)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// FilterStable keeps only the assets whose name matches a stable keyword.
func FilterStable(registry []models.Asset, keywords []string) []models.Asset {
	stable := make([]models.Asset, 0)
	for _, asset := range registry {
		if IsStable(asset.Name, keywords) {
			stable = append(stable, asset)
		}
	}
	return stable
}
