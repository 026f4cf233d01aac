package contracts

import (
	"context"

	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/meysamhadeli/assemble/slicer"
)

// IFeatureRepository is the remote feature-repository service.
type IFeatureRepository interface {
	Submit(ctx context.Context, code string) (*models.SubmissionResponse, error)
	GetSubmission(ctx context.Context) (*models.SubmissionResponse, error)
	ListFeatures(ctx context.Context) ([]models.FeatureRecord, error)
	FeatureCode(ctx context.Context, id string) (string, error)
	// Inspect derives the features defined by code. An analysis failure is returned as the second value, not as an error.
	Inspect(ctx context.Context, code string) ([]models.NewFeatureCandidate, *slicer.AnalysisError, error)
	Status(ctx context.Context) error
	Version(ctx context.Context) (*models.VersionInfo, error)
}

// IAuthenticator exposes the authentication capability of the service.
type IAuthenticator interface {
	IsAuthenticated(ctx context.Context) (bool, error)
	BeginInteractiveAuth(ctx context.Context) error
}
