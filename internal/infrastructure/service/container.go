// Package service assembles application handlers from infrastructure
// adapters. Both the API binary and the HTTP tests build through it.
package service

import (
	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/application/query"
	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/memory"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/postgres"
)

// Repositories groups one storage backend's adapters.
type Repositories struct {
	Scholarships scholarship.Repository
	Eligibility  scholarship.EligibilityRepository
	Applications application.Repository
	Users        user.Repository
	Profiles     user.ProfileRepository

	// Tx runs units of work; repositories join it through the context.
	Tx shared.Transactor
}

// NewMemoryRepositories wires every repository to one in-memory store.
func NewMemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Scholarships: memory.NewScholarshipRepository(store),
		Eligibility:  memory.NewEligibilityRepository(store),
		Applications: memory.NewApplicationRepository(store),
		Users:        memory.NewUserRepository(store),
		Profiles:     memory.NewProfileRepository(store),
		Tx:           store,
	}
}

// NewPostgresRepositories wires every repository to one connection pool.
func NewPostgresRepositories(conn *postgres.Connection) Repositories {
	return Repositories{
		Scholarships: postgres.NewScholarshipRepository(conn),
		Eligibility:  postgres.NewEligibilityRepository(conn),
		Applications: postgres.NewApplicationRepository(conn),
		Users:        postgres.NewUserRepository(conn),
		Profiles:     postgres.NewProfileRepository(conn),
		Tx:           conn,
	}
}

// Commands holds the write side.
type Commands struct {
	CreateScholarship       *command.CreateScholarshipHandler
	UpdateScholarship       *command.UpdateScholarshipHandler
	ChangeScholarshipStatus *command.ChangeScholarshipStatusHandler
	AdjustAvailableSlots    *command.AdjustAvailableSlotsHandler
	DeleteScholarship       *command.DeleteScholarshipHandler
	SetEligibility          *command.SetEligibilityCriteriaHandler
	RemoveEligibility       *command.RemoveEligibilityCriteriaHandler

	SubmitApplication   *command.SubmitApplicationHandler
	ReviewApplication   *command.ReviewApplicationHandler
	WithdrawApplication *command.WithdrawApplicationHandler
	CancelApplication   *command.CancelApplicationHandler

	RegisterUser         *command.RegisterUserHandler
	AuthenticateUser     *command.AuthenticateUserHandler
	ChangePassword       *command.ChangePasswordHandler
	ChangeUserStatus     *command.ChangeUserStatusHandler
	UpsertStudentProfile *command.UpsertStudentProfileHandler
	UpsertSponsorProfile *command.UpsertSponsorProfileHandler
}

// Queries holds the read side.
type Queries struct {
	GetScholarship   *query.GetScholarshipHandler
	ListScholarships *query.ListScholarshipsHandler
	GetEligibility   *query.GetEligibilityHandler
	GetApplication   *query.GetApplicationHandler
	ListApplications *query.ListApplicationsHandler
	GetUser          *query.GetUserHandler
}

// Container is the assembled application.
type Container struct {
	Commands Commands
	Queries  Queries
}

// NewContainer builds every handler. A nil publisher discards events and
// nil metrics are not recorded.
func NewContainer(repos Repositories, publisher shared.EventPublisher, metrics command.Metrics) *Container {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if metrics == nil {
		metrics = command.NopMetrics{}
	}

	return &Container{
		Commands: Commands{
			CreateScholarship:       command.NewCreateScholarshipHandler(repos.Scholarships, repos.Users, publisher),
			UpdateScholarship:       command.NewUpdateScholarshipHandler(repos.Scholarships),
			ChangeScholarshipStatus: command.NewChangeScholarshipStatusHandler(repos.Scholarships, repos.Tx, publisher),
			AdjustAvailableSlots:    command.NewAdjustAvailableSlotsHandler(repos.Scholarships, repos.Tx),
			DeleteScholarship:       command.NewDeleteScholarshipHandler(repos.Scholarships, repos.Applications, repos.Tx, publisher),
			SetEligibility:          command.NewSetEligibilityCriteriaHandler(repos.Scholarships, repos.Eligibility),
			RemoveEligibility:       command.NewRemoveEligibilityCriteriaHandler(repos.Scholarships, repos.Eligibility),

			SubmitApplication:   command.NewSubmitApplicationHandler(repos.Scholarships, repos.Applications, repos.Users, repos.Tx, publisher, metrics),
			ReviewApplication:   command.NewReviewApplicationHandler(repos.Scholarships, repos.Applications, repos.Tx, publisher, metrics),
			WithdrawApplication: command.NewWithdrawApplicationHandler(repos.Scholarships, repos.Applications, repos.Tx, publisher, metrics),
			CancelApplication:   command.NewCancelApplicationHandler(repos.Scholarships, repos.Applications, repos.Tx, publisher, metrics),

			RegisterUser:         command.NewRegisterUserHandler(repos.Users, publisher),
			AuthenticateUser:     command.NewAuthenticateUserHandler(repos.Users),
			ChangePassword:       command.NewChangePasswordHandler(repos.Users),
			ChangeUserStatus:     command.NewChangeUserStatusHandler(repos.Users, publisher),
			UpsertStudentProfile: command.NewUpsertStudentProfileHandler(repos.Users, repos.Profiles),
			UpsertSponsorProfile: command.NewUpsertSponsorProfileHandler(repos.Users, repos.Profiles),
		},
		Queries: Queries{
			GetScholarship:   query.NewGetScholarshipHandler(repos.Scholarships, repos.Eligibility),
			ListScholarships: query.NewListScholarshipsHandler(repos.Scholarships),
			GetEligibility:   query.NewGetEligibilityHandler(repos.Scholarships, repos.Eligibility),
			GetApplication:   query.NewGetApplicationHandler(repos.Applications, repos.Scholarships),
			ListApplications: query.NewListApplicationsHandler(repos.Applications, repos.Scholarships),
			GetUser:          query.NewGetUserHandler(repos.Users, repos.Profiles),
		},
	}
}
