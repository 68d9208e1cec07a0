// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"waste-collection-api-server/internal/models"
)

// DefaultFacilities is the starter set written by the seed command.
var DefaultFacilities = []models.Facility{
	{
		FacilityID:         "mrf-central",
		Name:               "Central Materials Recovery Facility",
		Type:               "MRF",
		Address:            models.Address{FullText: "1 Recovery Way", Latitude: 51.5072, Longitude: -0.1276},
		AcceptedWasteTypes: []models.WasteType{models.WastePlastic, models.WasteMetal, models.WastePaper, models.WasteGlass},
	},
	{
		FacilityID:         "compost-east",
		Name:               "East Composting Site",
		Type:               "COMPOST",
		Address:            models.Address{FullText: "14 Orchard Lane", Latitude: 51.5155, Longitude: -0.0922},
		AcceptedWasteTypes: []models.WasteType{models.WasteOrganic},
	},
	{
		FacilityID:         "ewaste-south",
		Name:               "South E-Waste Depot",
		Type:               "E_WASTE",
		Address:            models.Address{FullText: "220 Circuit Road", Latitude: 51.4613, Longitude: -0.1156},
		AcceptedWasteTypes: []models.WasteType{models.WasteEWaste, models.WasteMetal, models.WasteOther},
	},
}

// SeedFacilities creates every facility that does not exist yet and returns
// how many were created.
func SeedFacilities(ctx context.Context, store *FacilityStore, facilities []models.Facility, logger *slog.Logger) (int, error) {
	created := 0
	for _, f := range facilities {
		f := f
		err := store.Create(ctx, &f)
		switch {
		case errors.Is(err, ErrDuplicate):
			logger.Info("facility already exists, seeding skipped", "facilityId", f.FacilityID)
		case err != nil:
			return created, fmt.Errorf("seed facility %s: %w", f.FacilityID, err)
		default:
			created++
			logger.Info("facility seeded", "facilityId", f.FacilityID)
		}
	}
	return created, nil
}

// SeedAdmin makes sure an admin account exists so alerts have a recipient.
func SeedAdmin(ctx context.Context, users *UserStore, userID, email string, logger *slog.Logger) error {
	if _, err := users.Get(ctx, userID); err == nil {
		logger.Info("admin already exists, seeding skipped", "userId", userID)
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := users.Upsert(ctx, models.User{
		UserID: userID,
		Email:  email,
		Name:   "Platform Admin",
		Role:   models.RoleAdmin,
		Status: "active",
	})
	if err != nil {
		return err
	}
	logger.Info("admin seeded", "userId", userID)
	return nil
}
