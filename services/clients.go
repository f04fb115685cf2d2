package services

import (
	"context"
	"encoding/json"

	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/ledger"
	"github.com/anjiri1684/studyhub/pinning"
)

type Grader interface {
	Grade(ctx context.Context, req grading.Request) (json.RawMessage, error)
	GenerateTest(ctx context.Context, req grading.GenerateRequest) ([]grading.GeneratedQuestion, error)
	GenerateCustomTest(ctx context.Context, req grading.CustomGenerateRequest) ([]grading.GeneratedQuestion, error)
}

type Ledger interface {
	IssueCertificate(ctx context.Context, p ledger.IssueParams) (ledger.IssueResult, error)
	CertificateByHash(ctx context.Context, hash string) (*ledger.Record, error)
	CertificatesByStudent(ctx context.Context, address string) ([]ledger.Record, error)
}

type Pinner interface {
	PinJSON(ctx context.Context, content interface{}, meta pinning.PinMetadata) (pinning.PinResult, error)
	PinFile(ctx context.Context, filename string, data []byte, meta pinning.PinMetadata) (pinning.PinResult, error)
	UpdateKeyValues(ctx context.Context, cid string, keyvalues map[string]interface{}) error
	Search(ctx context.Context, filters map[string]pinning.Filter, limit, offset int) ([]pinning.PinRow, error)
	FetchJSON(ctx context.Context, uriOrCID string, out interface{}) error
	GatewayURLFor(uriOrCID string) string
}

type PDFRenderer interface {
	Render(ctx context.Context, doc CertificateDocument) ([]byte, error)
}

// Installed by main; tests swap in fakes. A nil PDF renderer disables the
// certificate PDF step.
var (
	GradingClient  Grader
	LedgerClient   Ledger
	PinningClient  Pinner
	CertificatePDF PDFRenderer
)
