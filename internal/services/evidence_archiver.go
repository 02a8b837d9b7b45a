package services

import (
	"context"
	"fmt"

	"insurance-service/internal/database/minio"
	"insurance-service/internal/models"
	"insurance-service/internal/utils"
)

// MinioEvidenceArchiver writes trigger evidence documents to object storage.
type MinioEvidenceArchiver struct {
	client *minio.MinioClient
}

func NewMinioEvidenceArchiver(client *minio.MinioClient) *MinioEvidenceArchiver {
	return &MinioEvidenceArchiver{client: client}
}

func (a *MinioEvidenceArchiver) ArchiveEvidence(ctx context.Context, evidence *models.TriggerEvidence) error {
	data, err := utils.SerializeModel(evidence)
	if err != nil {
		return fmt.Errorf("failed to serialize evidence: %w", err)
	}

	objectName := fmt.Sprintf("%s/%d/%d.json", evidence.Owner, evidence.PolicyID, evidence.EvaluatedAt)
	return a.client.UploadBytes(ctx, minio.Storage.TriggerEvidence, objectName, data, "application/json")
}
