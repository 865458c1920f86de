package agencyapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
)

// MaxUploadSize is the largest document accepted for upload.
const MaxUploadSize = 10 << 20

// AcceptedTypes are the MIME types accepted for policy documents.
var AcceptedTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Sentinel errors
var (
	// ErrFileTooLarge is returned for uploads over MaxUploadSize.
	ErrFileTooLarge = errors.New("file size must be less than 10MB")

	// ErrUnsupportedType is returned for uploads of a type not in AcceptedTypes.
	ErrUnsupportedType = errors.New("file type not supported, upload a PDF, image, Word or Excel document")

	// ErrEmptyFile is returned for a zero length upload.
	ErrEmptyFile = errors.New("file is empty")
)

// Upload is a document to attach to a policy.
type Upload struct {
	FileName    string
	Data        []byte
	Name        string
	Description string
}

// DetectType returns the MIME type of data, or ErrUnsupportedType.
func DetectType(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		for _, accepted := range AcceptedTypes {
			if m.Is(accepted) {
				return accepted, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// CheckUpload validates size and type without sending anything.
func CheckUpload(u Upload) (string, error) {
	switch {
	case len(u.Data) == 0:
		return "", ErrEmptyFile
	case len(u.Data) > MaxUploadSize:
		return "", ErrFileTooLarge
	}
	return DetectType(u.Data)
}

// UploadDocument attaches a document to a policy. The file is checked
// locally first; a rejected file never reaches the network.
func (s *Service) UploadDocument(ctx context.Context, policyID int64, u Upload) error {
	o := op{action: "upload documents", failed: "Failed to upload document"}

	g, err := s.guard(o)
	if err != nil {
		return err
	}

	contentType, err := CheckUpload(u)
	if err != nil {
		return invalid(err)
	}

	fields := map[string]string{}
	if u.Name != "" {
		fields["name"] = u.Name
	}
	if u.Description != "" {
		fields["description"] = u.Description
	}

	resp, err := s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/api/policies/%d/add_document/", policyID),
		client.WithQuery(g.query()),
		client.WithMultipart(fields, client.FilePart{
			Field:       "file",
			FileName:    filepath.Base(u.FileName),
			ContentType: contentType,
			Data:        u.Data,
		}),
	)
	if err != nil {
		return o.wrap(err)
	}

	switch resp.Status {
	case http.StatusNotFound:
		return &client.Error{Kind: client.KindNotFound, Status: resp.Status, Message: "Policy not found"}
	case http.StatusUnsupportedMediaType:
		return &client.Error{Kind: client.KindValidation, Status: resp.Status, Message: "Unsupported media type. The server does not accept the content type of the request."}
	}
	if !resp.OK() {
		return o.status(resp)
	}

	log.Info().Int64("policy_id", policyID).Str("file", u.FileName).Int("bytes", len(u.Data)).Msg("document uploaded")

	return nil
}

// RemoveDocument detaches a document from a policy.
func (s *Service) RemoveDocument(ctx context.Context, policyID, documentID int64) error {
	o := op{action: "remove documents", failed: "Failed to remove document"}

	g, err := s.guard(o)
	if err != nil {
		return err
	}

	resp, err := s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/api/policies/%d/remove_document/", policyID),
		client.WithQuery(g.query()),
		client.WithJSON(map[string]int64{"document_id": documentID}),
	)
	if err != nil {
		return o.wrap(err)
	}
	if !resp.OK() {
		return o.status(resp)
	}

	return nil
}

// BusinessPolicies lists the policies of one business.
func (s *Service) BusinessPolicies(ctx context.Context, businessID int64) ([]models.Policy, error) {
	return s.Policies.list(ctx, op{
		action: "view business policies",
		failed: "Failed to fetch business policies",
	}, "business", strconv.FormatInt(businessID, 10))
}

// BusinessDocuments lists the documents uploaded for one business.
func (s *Service) BusinessDocuments(ctx context.Context, businessID int64) ([]models.Document, error) {
	o := op{action: "view business documents", failed: "Failed to fetch business documents"}

	g, err := s.guard(o)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/businesses/%d/uploaded_documents/", businessID),
		client.WithQuery(g.query()),
	)
	if err != nil {
		return nil, o.wrap(err)
	}
	if !resp.OK() {
		return nil, o.status(resp)
	}

	docs, err := models.DecodeList[models.Document](resp.Body)
	if err != nil {
		return nil, o.shape(resp, err)
	}

	if err := g.Commit(ctx); err != nil {
		return nil, err
	}

	return docs, nil
}
