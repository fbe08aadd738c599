// Package regulation stores the regulation catalogue and the requirements text
// handed to gap analysis.
package regulation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"compliance_backend/internal/feature/compliance/domain"
	"compliance_backend/internal/feature/compliance/domain/entity"
	"compliance_backend/internal/feature/compliance/usecase"
)

// genericRequirements is returned for codes without a catalogue entry.
const genericRequirements = "General %s compliance requirements: documented policies, assigned responsibilities, " +
	"risk assessment, access control, data protection, incident response, monitoring and periodic review."

// RegulationModel is the GORM row for one regulation.
type RegulationModel struct {
	ID           uint   `gorm:"primaryKey"`
	Code         string `gorm:"size:16;not null;uniqueIndex"`
	Name         string `gorm:"size:128;not null"`
	Description  string `gorm:"type:text"`
	Requirements string `gorm:"type:text;not null"`
}

// TableName overrides the default table name.
func (RegulationModel) TableName() string {
	return "regulations"
}

// ToEntity converts the row to a domain regulation.
func (m RegulationModel) ToEntity() entity.Regulation {
	return entity.Regulation{
		Code:         entity.RegulationCode(m.Code),
		Name:         m.Name,
		Description:  m.Description,
		Requirements: m.Requirements,
	}
}

func fromEntity(r entity.Regulation) RegulationModel {
	return RegulationModel{
		Code:         string(entity.NormalizeRegulationCode(string(r.Code))),
		Name:         r.Name,
		Description:  r.Description,
		Requirements: r.Requirements,
	}
}

// Repository reads regulations from the database.
type Repository struct {
	db *gorm.DB
}

var (
	_ usecase.RegulationProvider = (*Repository)(nil)
	_ usecase.RegulationCatalog  = (*Repository)(nil)
)

// NewRepository creates a Repository on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the regulation for code, or domain.ErrRegulationNotFound.
func (r *Repository) Find(ctx context.Context, code entity.RegulationCode) (entity.Regulation, error) {
	var m RegulationModel
	err := r.db.WithContext(ctx).Where("code = ?", string(code)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Regulation{}, fmt.Errorf("%w: %s", domain.ErrRegulationNotFound, code)
	}
	if err != nil {
		return entity.Regulation{}, fmt.Errorf("find regulation %s: %w", code, err)
	}
	return m.ToEntity(), nil
}

// Requirements returns the requirements text for code. Codes without an entry
// get a generic requirements text naming the code.
func (r *Repository) Requirements(ctx context.Context, code entity.RegulationCode) (string, error) {
	reg, err := r.Find(ctx, code)
	if errors.Is(err, domain.ErrRegulationNotFound) {
		return fmt.Sprintf(genericRequirements, code), nil
	}
	if err != nil {
		return "", err
	}
	return reg.Requirements, nil
}

// List returns every catalogue entry ordered by code.
func (r *Repository) List(ctx context.Context) ([]entity.Regulation, error) {
	var ms []RegulationModel
	if err := r.db.WithContext(ctx).Order("code").Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("list regulations: %w", err)
	}
	out := make([]entity.Regulation, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ToEntity())
	}
	return out, nil
}
