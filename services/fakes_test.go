package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/ledger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/pinning"
	"github.com/anjiri1684/studyhub/testutil"
	"github.com/google/uuid"
)

type fakeGrader struct {
	mu        sync.Mutex
	requests  []grading.Request
	response  json.RawMessage
	generated []grading.GeneratedQuestion
	err       error
}

func (f *fakeGrader) Grade(_ context.Context, req grading.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.response == nil {
		return json.RawMessage(`{"current_level":"TOEIC 600","weak_topics":["tenses"]}`), nil
	}
	return f.response, nil
}

func (f *fakeGrader) GenerateTest(context.Context, grading.GenerateRequest) ([]grading.GeneratedQuestion, error) {
	return f.generated, f.err
}

func (f *fakeGrader) GenerateCustomTest(context.Context, grading.CustomGenerateRequest) ([]grading.GeneratedQuestion, error) {
	return f.generated, f.err
}

type fakeLedger struct {
	records map[string]*ledger.Record
	issued  []ledger.IssueParams
	err     error
}

func (f *fakeLedger) IssueCertificate(_ context.Context, p ledger.IssueParams) (ledger.IssueResult, error) {
	if f.err != nil {
		return ledger.IssueResult{}, f.err
	}
	f.issued = append(f.issued, p)
	hash := "0x" + repeatHex(len(f.issued))
	if f.records == nil {
		f.records = map[string]*ledger.Record{}
	}
	f.records[hash] = &ledger.Record{
		CertHash:       hash,
		IssuerAddress:  p.IssuerAddress,
		StudentAddress: p.StudentAddress,
		CourseName:     p.CourseName,
		MetadataURI:    p.MetadataURI,
	}
	return ledger.IssueResult{CertHash: hash, TxHash: "0xtx" + hash[2:10]}, nil
}

func (f *fakeLedger) CertificateByHash(_ context.Context, hash string) (*ledger.Record, error) {
	if r, ok := f.records[hash]; ok {
		return r, nil
	}
	return nil, ledger.ErrNotFound
}

func (f *fakeLedger) CertificatesByStudent(context.Context, string) ([]ledger.Record, error) {
	return nil, nil
}

func repeatHex(n int) string {
	digit := "0123456789abcdef"[n%16 : n%16+1]
	out := ""
	for i := 0; i < 64; i++ {
		out += digit
	}
	return out
}

type fakePinner struct {
	mu        sync.Mutex
	docs      map[string][]byte
	keyvalues map[string]map[string]interface{}
	rows      []pinning.PinRow
	pinned    int
	patched   int
}

func newFakePinner() *fakePinner {
	return &fakePinner{docs: map[string][]byte{}, keyvalues: map[string]map[string]interface{}{}}
}

func (f *fakePinner) PinJSON(_ context.Context, content interface{}, meta pinning.PinMetadata) (pinning.PinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(content)
	if err != nil {
		return pinning.PinResult{}, err
	}
	f.pinned++
	cid := "bafy" + uuid.NewString()[:8]
	f.docs[cid] = raw
	f.keyvalues[cid] = meta.KeyValues
	return pinning.PinResult{CID: cid, URI: "ipfs://" + cid, Gateway: f.GatewayURLFor(cid)}, nil
}

func (f *fakePinner) PinFile(_ context.Context, filename string, data []byte, _ pinning.PinMetadata) (pinning.PinResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cid := "bafyfile" + filename
	f.docs[cid] = data
	return pinning.PinResult{CID: cid, URI: "ipfs://" + cid}, nil
}

func (f *fakePinner) UpdateKeyValues(_ context.Context, cid string, kv map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patched++
	f.keyvalues[cid] = kv
	return nil
}

func (f *fakePinner) Search(context.Context, map[string]pinning.Filter, int, int) ([]pinning.PinRow, error) {
	return f.rows, nil
}

func (f *fakePinner) FetchJSON(_ context.Context, uriOrCID string, out interface{}) error {
	f.mu.Lock()
	raw, ok := f.docs[pinning.CIDFromURI(uriOrCID)]
	f.mu.Unlock()
	if !ok {
		return pinning.ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (f *fakePinner) GatewayURLFor(uriOrCID string) string {
	return "https://gw.test/ipfs/" + pinning.CIDFromURI(uriOrCID)
}

type fakePDF struct{ err error }

func (f fakePDF) Render(context.Context, CertificateDocument) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4"), nil
}

// installFakes swaps every external client for a fake and restores them on cleanup.
func installFakes(t *testing.T) (*fakeGrader, *fakeLedger, *fakePinner) {
	t.Helper()
	g, l, p := &fakeGrader{}, &fakeLedger{}, newFakePinner()
	prevG, prevL, prevP, prevPDF := GradingClient, LedgerClient, PinningClient, CertificatePDF
	GradingClient, LedgerClient, PinningClient, CertificatePDF = g, l, p, nil
	t.Cleanup(func() {
		GradingClient, LedgerClient, PinningClient, CertificatePDF = prevG, prevL, prevP, prevPDF
	})
	t.Setenv("ADMIN_ADDRESS", "0x1111111111111111111111111111111111111111")
	testutil.DB(t)
	return g, l, p
}

const studentWallet = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"

func seedStudent(t *testing.T, wallet string) models.User {
	t.Helper()
	u := models.User{FullName: "Lan Nguyen", Email: uuid.NewString() + "@example.com", Phone: uuid.NewString()[:12], Password: "x", Role: models.RoleStudent, Status: "active"}
	if wallet != "" {
		u.WalletAddress = &wallet
	}
	u.CurrentLevel.TOEIC = "550"
	if err := testutil.Create(&u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedCourse(t *testing.T, cost float64) models.Course {
	t.Helper()
	c := models.Course{Title: "TOEIC Foundations", Description: "d", TeacherID: uuid.New(), CourseType: "TOEIC", CourseLevel: "Beginner", Cost: cost}
	if err := testutil.Create(&c); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}
