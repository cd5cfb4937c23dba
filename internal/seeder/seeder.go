package seeder

import (
	"context"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/depot/internal/config"
	"github.com/Additional-Code/depot/internal/database"
	"github.com/Additional-Code/depot/internal/entity"
	"github.com/Additional-Code/depot/internal/identity"
	userrepo "github.com/Additional-Code/depot/internal/repository/user"
)

// Module provides the Seeder.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db       *bun.DB
	accounts *identity.Accounts
	users    *userrepo.Repository
	auth     config.Auth
	logger   *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, accounts *identity.Accounts, users *userrepo.Repository, cfg config.Config, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:       conns.Writer,
		accounts: accounts,
		users:    users,
		auth:     cfg.Auth,
		logger:   logger,
	}
}

// Run seeds the admin account and then the sample reference data it owns.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.Admin(ctx); err != nil {
		return err
	}
	return s.ReferenceData(ctx)
}

// Admin creates the configured admin account if it is missing. Nothing is
// created without a configured password.
func (s *Seeder) Admin(ctx context.Context) error {
	if s.auth.AdminPassword == "" {
		s.logger.Info("SEED_ADMIN_PASSWORD not set; skipping admin account")
		return nil
	}
	created, err := s.accounts.Ensure(ctx, s.auth.AdminUsername, s.auth.AdminPassword, true)
	if err != nil {
		return err
	}
	s.logger.Info("seeded admin account", zap.String("username", s.auth.AdminUsername), zap.Bool("created", created))
	return nil
}

// ReferenceData seeds example suppliers and retailers owned by the admin when
// the supplier table is empty.
func (s *Seeder) ReferenceData(ctx context.Context) error {
	admin, err := s.users.FindByUsername(ctx, s.auth.AdminUsername)
	if err != nil {
		s.logger.Info("admin account missing; skipping reference data", zap.Error(err))
		return nil
	}

	count, err := s.db.NewSelect().Model((*entity.Supplier)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("reference data already present", zap.Int("suppliers", count))
		return nil
	}

	suppliers := []*entity.Supplier{
		{OwnerID: admin.ID, Code: "FRSH", Name: "Fresh Farms"},
		{OwnerID: admin.ID, Code: "DAIR", Name: "Dairy Direct"},
		{OwnerID: admin.ID, Code: "BAKE", Name: "Bakehouse"},
	}
	retailers := []*entity.Retailer{
		{OwnerID: admin.ID, Code: "CORN", Name: "Corner Shop"},
		{OwnerID: admin.ID, Code: "MART", Name: "Metro Mart"},
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, sup := range suppliers {
			if _, err := tx.NewInsert().Model(sup).Exec(ctx); err != nil {
				return err
			}
		}
		for i, r := range retailers {
			if _, err := tx.NewInsert().Model(r).Exec(ctx); err != nil {
				return err
			}
			// each retailer expects every supplier from its index onwards
			for _, sup := range suppliers[i:] {
				r.SupplierIDs = append(r.SupplierIDs, sup.ID)
			}
			if err := r.SyncAssociations(ctx, tx); err != nil {
				return err
			}
		}
		s.logger.Info("seeded reference data",
			zap.Int("suppliers", len(suppliers)),
			zap.Int("retailers", len(retailers)),
		)
		return nil
	})
}
