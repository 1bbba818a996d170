package certificate_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolchain/internal/certificate"
	"schoolchain/internal/certificate/ipfs"
	"schoolchain/internal/certificate/ledger"
	"schoolchain/internal/certificate/ledger/ledgertest"
	"schoolchain/internal/platform/config"
	dErrors "schoolchain/pkg/domain-errors"
	"schoolchain/pkg/platform/sentinel"
)

type stubDirectory struct {
	students map[int]*certificate.Student
}

func (d *stubDirectory) FindStudentDetail(_ context.Context, id int) (*certificate.Student, error) {
	student, ok := d.students[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return student, nil
}

type stubPinner struct {
	configured bool
	uploadErr  error
	fetchErr   error
	uploaded   []certificate.Metadata
	documents  map[string]map[string]any
}

func (p *stubPinner) IsConfigured() bool { return p.configured }

func (p *stubPinner) GatewayURL(hash string) string {
	return "https://gateway.test/ipfs/" + hash
}

func (p *stubPinner) Upload(_ context.Context, meta certificate.Metadata) (certificate.PinResult, error) {
	if p.uploadErr != nil {
		return certificate.PinResult{}, p.uploadErr
	}
	p.uploaded = append(p.uploaded, meta)
	hash := "QmPinned" + meta.StudentName
	return certificate.PinResult{Hash: hash, URL: p.GatewayURL(hash)}, nil
}

func (p *stubPinner) Fetch(_ context.Context, hash string) (map[string]any, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	doc, ok := p.documents[hash]
	if !ok {
		return nil, ipfs.ErrRetrievalFailed
	}
	return doc, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingPublisher) Publish(_ context.Context, action string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, action)
}

type fixture struct {
	service   *certificate.Service
	directory *stubDirectory
	pinner    *stubPinner
	stub      *ledgertest.StubContract
	ledger    *ledger.Client
	events    *recordingPublisher
}

func newFixture(t *testing.T, initialize bool) *fixture {
	t.Helper()

	abiPath := filepath.Join(t.TempDir(), "StudentCertificate.abi.json")
	require.NoError(t, os.WriteFile(abiPath, []byte(`{"methods":["issueCertificate"],"events":["CertificateIssued"]}`), 0o600))

	stub := ledgertest.New()
	client := ledger.New(config.Blockchain{
		Network:         "localhost",
		PrivateKey:      "test-signing-key",
		ContractAddress: "0x000000000000000000000000000000000000c0de",
		ContractABIPath: abiPath,
	}, slog.New(slog.DiscardHandler), ledger.WithDialer(
		func(endpoint, contractAddress, from string, iface *ledger.ContractInterface) (ledger.Contract, error) {
			return stub, nil
		},
	))
	if initialize {
		require.True(t, client.Initialize(context.Background()))
	}

	directory := &stubDirectory{students: map[int]*certificate.Student{
		42: {ID: 42, Name: "John Doe", Email: "john@example.com"},
		7:  {ID: 7, Name: "Jane Roe", Email: "jane@example.com", WalletAddress: "0xabc0000000000000000000000000000000000001"},
	}}
	pinner := &stubPinner{configured: true, documents: map[string]map[string]any{}}
	events := &recordingPublisher{}

	return &fixture{
		service:   certificate.NewService(directory, pinner, client, events, "School Management System", slog.New(slog.DiscardHandler)),
		directory: directory,
		pinner:    pinner,
		stub:      stub,
		ledger:    client,
		events:    events,
	}
}

func TestService_Issue_Validation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.service.Issue(ctx, certificate.IssueRequest{CertificateType: "Sports"}, "")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeBadRequest, "studentId and certificateType are required"))

	_, err = f.service.Issue(ctx, certificate.IssueRequest{StudentID: 42}, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

func TestService_Issue_StudentNotFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 999, CertificateType: "Sports"}, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_Issue_WalletlessStudentGetsDerivedAddress(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Academic Excellence"}, "Prof. Smith")
	require.NoError(t, err)

	cert, err := f.ledger.GetCertificate(context.Background(), result.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, certificate.DeriveAddress(42), cert.RecipientAddress)
}

func TestService_Issue_OnFileWalletTakesPrecedence(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 7, CertificateType: "Sports"}, "")
	require.NoError(t, err)

	cert, err := f.ledger.GetCertificate(context.Background(), result.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", cert.RecipientAddress)
}

func TestService_Issue_PinningFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, true)
	f.pinner.uploadErr = errors.New("pinning gateway down")

	result, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	require.NoError(t, err)
	assert.Nil(t, result.IPFSHash)
	assert.Nil(t, result.IPFSURL)
	assert.GreaterOrEqual(t, result.CertificateID, uint64(1))
}

func TestService_Issue_AchievementDefaultsToType(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Academic Excellence"}, "")
	require.NoError(t, err)

	require.Len(t, f.pinner.uploaded, 1)
	meta := f.pinner.uploaded[0]
	assert.Equal(t, "Academic Excellence", meta.Achievement)
	assert.Equal(t, "School Management System", meta.Institution)
	assert.Equal(t, certificate.DefaultIssuerName, meta.Issuer)
}

func TestService_Issue_LedgerRejectionIsInternal(t *testing.T) {
	f := newFixture(t, true)
	f.stub.SubmitErr = errors.New("execution reverted: unauthorized issuer")

	_, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeInternal))
}

func TestService_Verify_InvalidIsNotAnError(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.service.Verify(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Nil(t, result.Certificate)
}

func TestService_Verify_MetadataFetchFailureKeepsValid(t *testing.T) {
	f := newFixture(t, true)
	issued, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	require.NoError(t, err)

	f.pinner.fetchErr = errors.New("gateway timeout")

	result, err := f.service.Verify(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Certificate)
	assert.Nil(t, result.Metadata)
}

func TestService_Get_AttachesMetadataAndGatewayURL(t *testing.T) {
	f := newFixture(t, true)
	issued, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	require.NoError(t, err)
	require.NotNil(t, issued.IPFSHash)
	f.pinner.documents[*issued.IPFSHash] = map[string]any{"studentName": "John Doe"}

	detail, err := f.service.Get(context.Background(), issued.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, issued.CertificateID, detail.ID)
	assert.Equal(t, map[string]any{"studentName": "John Doe"}, detail.Metadata)
	assert.Equal(t, "https://gateway.test/ipfs/"+*issued.IPFSHash, detail.IPFSURL)
}

func TestService_Get_MissingCertificateIsNotFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.service.Get(context.Background(), 12345)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_StudentCertificates(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	for _, certType := range []string{"Sports", "Academic Excellence", "Attendance"} {
		_, err := f.service.Issue(ctx, certificate.IssueRequest{StudentID: 42, CertificateType: certType}, "")
		require.NoError(t, err)
	}

	certs, err := f.service.StudentCertificates(ctx, 42)
	require.NoError(t, err)
	require.Len(t, certs, 3)
	for _, cert := range certs {
		assert.Equal(t, certificate.DeriveAddress(42), cert.RecipientAddress)
	}
}

func TestService_StudentCertificates_UnknownStudent(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.service.StudentCertificates(context.Background(), 999)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestService_StudentCertificates_ListingFailureSoftFails(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.service.Issue(context.Background(), certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	require.NoError(t, err)

	f.stub.CallErr = errors.New("rpc timeout")

	certs, err := f.service.StudentCertificates(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, certs)
}

func TestService_StudentCertificates_LedgerUninitialized(t *testing.T) {
	f := newFixture(t, false)

	certs, err := f.service.StudentCertificates(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, certs)
}

func TestService_UninitializedLedgerIsUnavailable(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.Issue(ctx, certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))

	_, err = f.service.Verify(ctx, 1)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))

	_, err = f.service.Get(ctx, 1)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))

	_, err = f.service.Revoke(ctx, 1)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}

func TestService_Stats(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	stats := f.service.Stats(ctx)
	assert.True(t, stats.Initialized)
	assert.Zero(t, stats.TotalCertificates)
	assert.Equal(t, "localhost", stats.Network)
	assert.Equal(t, "0x000000000000000000000000000000000000c0de", stats.ContractAddress)

	_, err := f.service.Issue(ctx, certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.service.Stats(ctx).TotalCertificates)
}

func TestService_Stats_Uninitialized(t *testing.T) {
	f := newFixture(t, false)

	stats := f.service.Stats(context.Background())
	assert.False(t, stats.Initialized)
	assert.Zero(t, stats.TotalCertificates)
	assert.Empty(t, stats.Network)
}

func TestService_AuditEvents(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	issued, err := f.service.Issue(ctx, certificate.IssueRequest{StudentID: 42, CertificateType: "Sports"}, "")
	require.NoError(t, err)
	_, err = f.service.Revoke(ctx, issued.CertificateID)
	require.NoError(t, err)

	assert.Equal(t, []string{"certificate.issued", "certificate.revoked"}, f.events.events)
}

func TestService_IssueVerifyRevokeLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	issued, err := f.service.Issue(ctx, certificate.IssueRequest{StudentID: 42, CertificateType: "Academic Excellence"}, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, issued.CertificateID, uint64(1))
	assert.Equal(t, ledgertest.TransactionHash, issued.TransactionHash)
	assert.Equal(t, 42, issued.Student.ID)
	assert.Equal(t, "John Doe", issued.Student.Name)

	verified, err := f.service.Verify(ctx, issued.CertificateID)
	require.NoError(t, err)
	assert.True(t, verified.Valid)

	_, err = f.service.Revoke(ctx, issued.CertificateID)
	require.NoError(t, err)

	verified, err = f.service.Verify(ctx, issued.CertificateID)
	require.NoError(t, err)
	assert.False(t, verified.Valid)
}
