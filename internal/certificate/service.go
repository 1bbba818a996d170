package certificate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/sentinel"
)

// DefaultIssuerName labels issuances that arrive without an authenticated
// operator, such as seed scripts.
const DefaultIssuerName = "System Administrator"

// Pinner is the slice of the IPFS client the orchestrator needs. Uploads and
// fetches are best-effort at this layer; failures are logged and absorbed.
type Pinner interface {
	IsConfigured() bool
	GatewayURL(hash string) string
	Upload(ctx context.Context, meta Metadata) (PinResult, error)
	Fetch(ctx context.Context, hash string) (map[string]any, error)
}

// Ledger is the contract-facing collaborator. Implemented by ledger.Client.
type Ledger interface {
	IsInitialized() bool
	Network() string
	ContractAddress() string
	IssueCertificate(ctx context.Context, recipient, name, email, certType, metadataHash string) (*IssueReceipt, error)
	VerifyCertificate(ctx context.Context, id uint64) (bool, error)
	GetCertificate(ctx context.Context, id uint64) (*Certificate, error)
	GetStudentCertificates(ctx context.Context, address string) []uint64
	RevokeCertificate(ctx context.Context, id uint64) (*RevokeReceipt, error)
	GetTotalCertificates(ctx context.Context) uint64
}

// EventPublisher receives audit events for issued and revoked certificates.
// Publishing is fire-and-forget; the orchestrator never waits on it.
type EventPublisher interface {
	Publish(ctx context.Context, action string, fields map[string]any)
}

// Service orchestrates certificate issuance and verification across the
// student directory, the metadata pinner and the ledger. All collaborators
// are injected at construction; the service holds no mutable state.
type Service struct {
	students    StudentDirectory
	pinner      Pinner
	ledger      Ledger
	events      EventPublisher
	institution string
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewService wires the orchestrator. events may be nil when auditing is
// disabled.
func NewService(students StudentDirectory, pinner Pinner, l Ledger, events EventPublisher, institution string, logger *slog.Logger) *Service {
	return &Service{
		students:    students,
		pinner:      pinner,
		ledger:      l,
		events:      events,
		institution: institution,
		logger:      logger,
		tracer:      otel.Tracer("schoolchain/certificate"),
	}
}

// Issue runs the full issuance flow: validate, resolve the student, build
// and best-effort pin the metadata document, then submit to the ledger and
// wait for confirmation. issuerName is the authenticated operator's display
// name; empty falls back to DefaultIssuerName.
func (s *Service) Issue(ctx context.Context, req IssueRequest, issuerName string) (*IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Issue",
		trace.WithAttributes(attribute.Int("student.id", req.StudentID)))
	defer span.End()

	if req.StudentID == 0 || req.CertificateType == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "studentId and certificateType are required")
	}
	// Fail fast before touching the directory or the pinner.
	if !s.ledger.IsInitialized() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
	}

	student, err := s.students.FindStudentDetail(ctx, req.StudentID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) || errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve student", err)
	}

	achievement := req.Achievement
	if achievement == "" {
		achievement = req.CertificateType
	}
	if issuerName == "" {
		issuerName = DefaultIssuerName
	}

	meta := Metadata{
		StudentName:     student.Name,
		StudentEmail:    student.Email,
		StudentID:       student.ID,
		CertificateType: req.CertificateType,
		Achievement:     achievement,
		IssuedDate:      time.Now().UTC(),
		Issuer:          issuerName,
		Institution:     s.institution,
		AdditionalInfo:  req.AdditionalInfo,
	}

	// Pinning is best-effort. A failed upload leaves the hash empty; the
	// certificate is still anchored on the ledger.
	var ipfsHash, ipfsURL *string
	metadataHash := ""
	if s.pinner.IsConfigured() {
		pin, err := s.pinner.Upload(ctx, meta)
		if err != nil {
			s.logger.WarnContext(ctx, "metadata pinning failed, issuing without hash",
				"student_id", student.ID, "error", err)
		} else {
			metadataHash = pin.Hash
			ipfsHash = &pin.Hash
			ipfsURL = &pin.URL
		}
	}

	recipient := student.WalletAddress
	if recipient == "" {
		recipient = DeriveAddress(student.ID)
	}

	receipt, err := s.ledger.IssueCertificate(ctx, recipient, student.Name, student.Email, req.CertificateType, metadataHash)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotInitialized) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "certificate issuance failed", err)
	}

	span.SetAttributes(attribute.Int64("certificate.id", int64(receipt.CertificateID)))
	s.logger.InfoContext(ctx, "certificate issued",
		"certificate_id", receipt.CertificateID,
		"student_id", student.ID,
		"certificate_type", req.CertificateType,
		"tx_hash", receipt.TransactionHash,
	)
	s.publish(ctx, "certificate.issued", map[string]any{
		"certificateId":   receipt.CertificateID,
		"studentId":       student.ID,
		"certificateType": req.CertificateType,
		"issuer":          issuerName,
	})

	return &IssueResult{
		CertificateID:   receipt.CertificateID,
		IPFSHash:        ipfsHash,
		IPFSURL:         ipfsURL,
		TransactionHash: receipt.TransactionHash,
		BlockNumber:     receipt.BlockNumber,
		Student: StudentSnapshot{
			ID:    student.ID,
			Name:  student.Name,
			Email: student.Email,
		},
	}, nil
}

// Verify checks a certificate's validity. Invalid is a normal outcome; the
// error return is reserved for the uninitialized ledger. When valid, the
// on-chain record and its metadata are attached best-effort.
func (s *Service) Verify(ctx context.Context, id uint64) (*VerifyResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Verify",
		trace.WithAttributes(attribute.Int64("certificate.id", int64(id))))
	defer span.End()

	if !s.ledger.IsInitialized() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
	}

	valid, err := s.ledger.VerifyCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotInitialized) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "verification failed", err)
	}
	if !valid {
		return &VerifyResult{Valid: false}, nil
	}

	result := &VerifyResult{Valid: true}
	cert, err := s.ledger.GetCertificate(ctx, id)
	if err != nil {
		// Validity is already established; the enriched record is a bonus.
		s.logger.WarnContext(ctx, "verified certificate could not be fetched", "certificate_id", id, "error", err)
		return result, nil
	}
	result.Certificate = cert
	result.Metadata = s.fetchMetadata(ctx, cert.MetadataHash)
	return result, nil
}

// Get fetches a certificate with metadata and gateway URL attached. A ledger
// retrieval failure, including "does not exist", maps to NotFound.
func (s *Service) Get(ctx context.Context, id uint64) (*Detail, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Get",
		trace.WithAttributes(attribute.Int64("certificate.id", int64(id))))
	defer span.End()

	if !s.ledger.IsInitialized() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
	}

	cert, err := s.ledger.GetCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotInitialized) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
		}
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("certificate %d not found", id))
	}

	return &Detail{
		Certificate: *cert,
		Metadata:    s.fetchMetadata(ctx, cert.MetadataHash),
		IPFSURL:     s.pinner.GatewayURL(cert.MetadataHash),
	}, nil
}

// StudentCertificates lists a student's certificates. The flow degrades
// rather than fails: an uninitialized ledger or a listing error yields an
// empty slice, and individual certificate fetch failures are dropped.
func (s *Service) StudentCertificates(ctx context.Context, studentID int) ([]*Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.StudentCertificates",
		trace.WithAttributes(attribute.Int("student.id", studentID)))
	defer span.End()

	student, err := s.students.FindStudentDetail(ctx, studentID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) || errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve student", err)
	}

	if !s.ledger.IsInitialized() {
		s.logger.WarnContext(ctx, "ledger unavailable, returning empty certificate list", "student_id", studentID)
		return []*Certificate{}, nil
	}

	// Same address policy as issuance: walletless students get a derived
	// address, so listings see the certificates issuance created.
	address := student.WalletAddress
	if address == "" {
		address = DeriveAddress(student.ID)
	}

	ids := s.ledger.GetStudentCertificates(ctx, address)
	if len(ids) == 0 {
		return []*Certificate{}, nil
	}

	certs := make([]*Certificate, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			cert, err := s.ledger.GetCertificate(gctx, id)
			if err != nil {
				s.logger.WarnContext(gctx, "skipping unfetchable certificate", "certificate_id", id, "error", err)
				return nil
			}
			certs[i] = cert
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*Certificate, 0, len(certs))
	for _, cert := range certs {
		if cert != nil {
			out = append(out, cert)
		}
	}
	return out, nil
}

// Revoke marks a certificate revoked on the ledger.
func (s *Service) Revoke(ctx context.Context, id uint64) (*RevokeResult, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Revoke",
		trace.WithAttributes(attribute.Int64("certificate.id", int64(id))))
	defer span.End()

	if !s.ledger.IsInitialized() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
	}

	receipt, err := s.ledger.RevokeCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotInitialized) {
			return nil, dErrors.New(dErrors.CodeUnavailable, "blockchain service unavailable")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "certificate revocation failed", err)
	}

	s.logger.InfoContext(ctx, "certificate revoked", "certificate_id", id, "tx_hash", receipt.TransactionHash)
	s.publish(ctx, "certificate.revoked", map[string]any{"certificateId": id})

	return &RevokeResult{
		TransactionHash: receipt.TransactionHash,
		BlockNumber:     receipt.BlockNumber,
	}, nil
}

// Stats reports ledger state. Always succeeds; an uninitialized ledger is a
// reportable condition, not an error.
func (s *Service) Stats(ctx context.Context) *Stats {
	if !s.ledger.IsInitialized() {
		return &Stats{Initialized: false}
	}
	return &Stats{
		Initialized:       true,
		TotalCertificates: s.ledger.GetTotalCertificates(ctx),
		Network:           s.ledger.Network(),
		ContractAddress:   s.ledger.ContractAddress(),
	}
}

// fetchMetadata pulls the pinned document for a hash. Best-effort: a missing
// hash or fetch failure yields nil.
func (s *Service) fetchMetadata(ctx context.Context, hash string) map[string]any {
	if hash == "" || !s.pinner.IsConfigured() {
		return nil
	}
	meta, err := s.pinner.Fetch(ctx, hash)
	if err != nil {
		s.logger.WarnContext(ctx, "metadata fetch failed", "hash", hash, "error", err)
		return nil
	}
	return meta
}

func (s *Service) publish(ctx context.Context, action string, fields map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, action, fields)
}
