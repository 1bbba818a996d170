package certificate

import (
	"context"
	"time"
)

// Certificate is the on-chain record as reconstructed by the ledger client.
// It is immutable after issuance except for the revocation flag, which only
// ever moves false to true. Name and email are a point-in-time snapshot of
// the student at issuance; later student edits never touch issued
// certificates.
type Certificate struct {
	ID               uint64    `json:"id"`
	RecipientAddress string    `json:"studentAddress"`
	RecipientName    string    `json:"studentName"`
	RecipientEmail   string    `json:"studentEmail"`
	CertificateType  string    `json:"certificateType"`
	MetadataHash     string    `json:"ipfsHash"`
	IssuedAt         time.Time `json:"issuedAt"`
	IssuedBy         string    `json:"issuedBy"`
	Revoked          bool      `json:"revoked"`
}

// Metadata is the off-chain certificate document pinned to IPFS. Created once
// at issuance, never mutated.
type Metadata struct {
	StudentName     string         `json:"studentName"`
	StudentEmail    string         `json:"studentEmail"`
	StudentID       int            `json:"studentId"`
	CertificateType string         `json:"certificateType"`
	Achievement     string         `json:"achievement"`
	IssuedDate      time.Time      `json:"issuedDate"`
	Issuer          string         `json:"issuer"`
	Institution     string         `json:"institution"`
	AdditionalInfo  map[string]any `json:"additionalInfo"`
}

// PinResult is the outcome of a successful metadata upload.
type PinResult struct {
	Hash string
	URL  string
}

// IssueReceipt is the outcome of a confirmed issuance. The certificate id is
// known only after confirmation; it is extracted from the CertificateIssued
// event, never predicted client-side.
type IssueReceipt struct {
	CertificateID   uint64
	TransactionHash string
	BlockNumber     uint64
}

// RevokeReceipt is the outcome of a confirmed revocation or issuer admin
// call.
type RevokeReceipt struct {
	TransactionHash string
	BlockNumber     uint64
}

// Student is the slice of the student record the certificate flows need.
type Student struct {
	ID            int
	Name          string
	Email         string
	WalletAddress string
}

// StudentDirectory resolves student ids to profile fields. The student module
// implements it; a missing student surfaces as sentinel.ErrNotFound.
type StudentDirectory interface {
	FindStudentDetail(ctx context.Context, id int) (*Student, error)
}

// IssueRequest is the issuance input. Achievement defaults to the certificate
// type when absent.
type IssueRequest struct {
	StudentID       int            `json:"studentId"`
	CertificateType string         `json:"certificateType"`
	Achievement     string         `json:"achievement,omitempty"`
	AdditionalInfo  map[string]any `json:"additionalInfo,omitempty"`
}

// IssueResult combines ledger and pinning outcomes for a successful issuance.
// IPFSHash and IPFSURL are nil when pinning was skipped or failed.
type IssueResult struct {
	CertificateID   uint64          `json:"certificateId"`
	IPFSHash        *string         `json:"ipfsHash"`
	IPFSURL         *string         `json:"ipfsUrl"`
	TransactionHash string          `json:"transactionHash"`
	BlockNumber     uint64          `json:"blockNumber"`
	Student         StudentSnapshot `json:"student"`
}

// StudentSnapshot echoes the resolved student identity back to the caller.
type StudentSnapshot struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// VerifyResult reports certificate validity. Invalid is a normal outcome, not
// an error: a missing or revoked certificate verifies as Valid=false.
type VerifyResult struct {
	Valid       bool           `json:"valid"`
	Certificate *Certificate   `json:"certificate,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Detail is a certificate with its best-effort metadata and gateway URL
// attached.
type Detail struct {
	Certificate
	Metadata map[string]any `json:"metadata"`
	IPFSURL  string         `json:"ipfsUrl"`
}

// RevokeResult reports the confirmed revocation transaction.
type RevokeResult struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// Stats summarizes ledger state for dashboards. When the ledger never
// initialized, Initialized is false and the count is zero; that is a success
// response, not an error.
type Stats struct {
	Initialized       bool   `json:"initialized"`
	TotalCertificates uint64 `json:"totalCertificates"`
	Network           string `json:"network,omitempty"`
	ContractAddress   string `json:"contractAddress,omitempty"`
}
