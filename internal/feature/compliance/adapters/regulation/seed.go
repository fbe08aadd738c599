package regulation

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"compliance_backend/internal/feature/compliance/domain/entity"
)

//go:embed seed/regulations.yaml
var seedYAML []byte

type seedFile struct {
	Regulations []seedEntry `yaml:"regulations"`
}

type seedEntry struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Requirements string `yaml:"requirements"`
}

// DefaultCatalogue parses the embedded seed.
func DefaultCatalogue() ([]entity.Regulation, error) {
	return parseSeed(seedYAML)
}

// LoadCatalogue reads a catalogue file in the seed format.
func LoadCatalogue(path string) ([]entity.Regulation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regulation catalogue: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]entity.Regulation, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse regulation seed: %w", err)
	}
	out := make([]entity.Regulation, 0, len(f.Regulations))
	for _, e := range f.Regulations {
		if e.Code == "" || e.Requirements == "" {
			return nil, fmt.Errorf("parse regulation seed: entry %q is missing code or requirements", e.Name)
		}
		out = append(out, entity.Regulation{
			Code:         entity.NormalizeRegulationCode(e.Code),
			Name:         e.Name,
			Description:  e.Description,
			Requirements: e.Requirements,
		})
	}
	return out, nil
}

// Migrate creates the regulations table and upserts the embedded catalogue.
// Rows are updated in place so edits to the seed reach existing databases.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&RegulationModel{}); err != nil {
		return fmt.Errorf("migrate regulations: %w", err)
	}
	regs, err := DefaultCatalogue()
	if err != nil {
		return err
	}
	return Seed(ctx, db, regs)
}

// Seed upserts regs by code.
func Seed(ctx context.Context, db *gorm.DB, regs []entity.Regulation) error {
	if len(regs) == 0 {
		return nil
	}
	ms := make([]RegulationModel, 0, len(regs))
	for _, r := range regs {
		ms = append(ms, fromEntity(r))
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "requirements"}),
	}).Create(&ms).Error
	if err != nil {
		return fmt.Errorf("seed regulations: %w", err)
	}
	slog.Info("regulation catalogue seeded", "count", len(ms))
	return nil
}
