package fleet

import (
	"context"
	"errors"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/domain"
)

var ErrUnknownModel = errors.New("unknown vehicle model")

type FleetUseCase interface {
	List(ctx context.Context) ([]domain.VehicleModel, error)
	Get(ctx context.Context, name string) (domain.VehicleModel, error)
}

type FleetService struct {
	business config.BusinessConfig
}

func NewFleetService(business config.BusinessConfig) *FleetService {
	return &FleetService{business: business}
}

func (s *FleetService) List(_ context.Context) ([]domain.VehicleModel, error) {
	models := make([]domain.VehicleModel, 0, len(s.business.Models))
	for _, m := range s.business.Models {
		models = append(models, domain.VehicleModel{Name: m.Name, Plate: m.Plate})
	}
	return models, nil
}

// Get resolves a model by name or alias. Aliases resolve to the canonical name.
func (s *FleetService) Get(_ context.Context, name string) (domain.VehicleModel, error) {
	for _, m := range s.business.Models {
		if m.Name == name {
			return domain.VehicleModel{Name: m.Name, Plate: m.Plate}, nil
		}
		for _, alias := range m.Aliases {
			if alias == name {
				return domain.VehicleModel{Name: m.Name, Plate: m.Plate}, nil
			}
		}
	}
	return domain.VehicleModel{}, ErrUnknownModel
}

var _ FleetUseCase = (*FleetService)(nil)
