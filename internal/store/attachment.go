// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"listora/internal/models"
)

// AttachmentStore handles listing attachment metadata. The bytes live in
// S3; rows here track where and how to serve them.
type AttachmentStore struct {
	db *sql.DB
}

// NewAttachmentStore creates a new AttachmentStore with the given database connection.
func NewAttachmentStore(db *sql.DB) *AttachmentStore {
	return &AttachmentStore{db: db}
}

const attachmentColumns = `id, listing_id, filename, original_name, content_type,
	       size_bytes, bucket, s3_key, private, uploader_id, created_at`

func scanAttachment(row interface{ Scan(...any) error }) (*models.Attachment, error) {
	a := &models.Attachment{}
	var uploaderID sql.Null[uuid.UUID]
	if err := row.Scan(
		&a.ID, &a.ListingID, &a.Filename, &a.OriginalName, &a.ContentType,
		&a.SizeBytes, &a.Bucket, &a.S3Key, &a.Private, &uploaderID, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if uploaderID.Valid {
		a.UploaderID = uploaderID.V
	}
	return a, nil
}

// ListByListing returns a listing's attachments oldest first.
func (s *AttachmentStore) ListByListing(listingID uuid.UUID) ([]models.Attachment, error) {
	rows, err := s.db.Query(`
		SELECT `+attachmentColumns+`
		FROM attachments WHERE listing_id = $1 ORDER BY created_at ASC
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var attachments []models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, *a)
	}
	return attachments, rows.Err()
}

// FindByID retrieves an attachment by its UUID. Returns nil if not found.
func (s *AttachmentStore) FindByID(id uuid.UUID) (*models.Attachment, error) {
	a, err := scanAttachment(s.db.QueryRow(`
		SELECT `+attachmentColumns+` FROM attachments WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attachment by id: %w", err)
	}
	return a, nil
}

// Create inserts attachment metadata after a successful S3 upload.
func (s *AttachmentStore) Create(a *models.Attachment) (*models.Attachment, error) {
	var uploader any
	if a.UploaderID != uuid.Nil {
		uploader = a.UploaderID
	}

	result, err := scanAttachment(s.db.QueryRow(`
		INSERT INTO attachments (listing_id, filename, original_name, content_type,
		                         size_bytes, bucket, s3_key, private, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+attachmentColumns+`
	`, a.ListingID, a.Filename, a.OriginalName, a.ContentType,
		a.SizeBytes, a.Bucket, a.S3Key, a.Private, uploader))
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	return result, nil
}

// Delete removes an attachment row by ID. The caller is responsible for
// deleting the S3 object first.
func (s *AttachmentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
