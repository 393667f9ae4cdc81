package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cleanspin/laundry-ops/internal/database"
	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/jwt"
)

// seedDemoData fills an in-memory store with one outlet, a worker per station,
// an outlet admin and a few pending orders, and logs a token for each user.
// Master data is owned by other services, so the memory driver has no other source.
func seedDemoData(store *database.MemoryStore, jwtService *jwt.Service, logger *logrus.Logger) {
	outletID := uuid.New()
	now := time.Now()

	logToken := func(name string, id jwt.Identity) {
		token, err := jwtService.GenerateAccessToken(id)
		if err != nil {
			logger.WithError(err).Warn("Failed to sign demo token")
			return
		}
		logger.WithFields(logrus.Fields{
			"user":  name,
			"role":  id.Role,
			"token": token,
		}).Info("Demo user")
	}

	for _, station := range models.StationTypes {
		st := station
		staff := models.OutletStaff{
			ID:          uuid.New(),
			UserID:      uuid.New(),
			OutletID:    outletID,
			Role:        models.RoleWorker,
			StationType: &st,
			FullName:    "Demo " + string(station) + " worker",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		store.AddStaff(staff)
		logToken(staff.FullName, jwt.Identity{UserID: staff.UserID, OutletStaffID: &staff.ID, OutletID: &outletID, Role: string(models.RoleWorker)})

		for i := 0; i < 3; i++ {
			store.AddStationOrder(models.StationOrder{
				ID:                 uuid.New(),
				OrderID:            uuid.New(),
				OutletID:           outletID,
				StationType:        station,
				Status:             models.StationOrderPending,
				ExpectedItemCounts: models.ItemCounts{"shirt": 3 + i, "pants": 2},
				CreatedAt:          now.Add(time.Duration(i) * time.Second),
				UpdatedAt:          now.Add(time.Duration(i) * time.Second),
			})
		}
	}

	logToken("Demo outlet admin", jwt.Identity{UserID: uuid.New(), OutletID: &outletID, Role: string(models.RoleOutletAdmin)})
	logger.WithField("outlet_id", outletID).Info("Seeded in-memory demo outlet")
}
