package catalog

import (
	"fmt"
	"log"
	"os"

	"github.com/opsdeck/opsdeck/internal/database"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile is the YAML shape of a catalog seed file:
//
//	assets:
//	  - code: PUMP-07
//	    name: Coolant Pump 7
//	    location: Hall B
//	    components:
//	      - name: Hydraulic unit
//	        subcomponents: [Seal, Hose]
type SeedFile struct {
	Assets []SeedAsset `yaml:"assets"`
}

// SeedAsset is one asset entry in the seed file
type SeedAsset struct {
	Code       string          `yaml:"code"`
	Name       string          `yaml:"name"`
	Location   string          `yaml:"location"`
	Components []SeedComponent `yaml:"components"`
}

// SeedComponent is one component entry with its subcomponent names
type SeedComponent struct {
	Name          string   `yaml:"name"`
	Subcomponents []string `yaml:"subcomponents"`
}

// SeedFromFile loads the YAML seed file and ensures every asset in it
// exists. Existing assets (matched by code) are left untouched so
// operator edits survive restarts.
func SeedFromFile(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse catalog seed file: %w", err)
	}

	created := 0
	for _, sa := range seed.Assets {
		if sa.Code == "" || sa.Name == "" {
			return fmt.Errorf("catalog seed entry missing code or name")
		}

		var existing database.Asset
		if err := db.Where("code = ?", sa.Code).First(&existing).Error; err == nil {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			asset := database.Asset{
				Code:     sa.Code,
				Name:     sa.Name,
				Location: sa.Location,
				Active:   true,
			}
			if err := tx.Create(&asset).Error; err != nil {
				return err
			}
			for _, sc := range sa.Components {
				comp := database.AssetComponent{
					AssetID: asset.ID,
					Name:    sc.Name,
				}
				if err := tx.Create(&comp).Error; err != nil {
					return err
				}
				for _, name := range sc.Subcomponents {
					sub := database.AssetSubcomponent{
						ComponentID: comp.ID,
						Name:        name,
					}
					if err := tx.Create(&sub).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to seed asset %s: %w", sa.Code, err)
		}
		created++
	}

	log.Printf("Catalog seed processed: %d assets created, %d already present", created, len(seed.Assets)-created)
	return nil
}
