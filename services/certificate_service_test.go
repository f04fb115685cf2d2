package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/ledger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/pinning"
	"github.com/google/uuid"
)

func TestGenerateCertificateCode(t *testing.T) {
	issued := time.Date(2026, time.January, 5, 23, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^CERT-260105-[0-9A-Z]{1,6}$`)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code := GenerateCertificateCode(issued, "student", "course")
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, pattern)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatal("codes for the same pair should be salted")
	}
}

func TestIsCertificateConsistent(t *testing.T) {
	row := &models.Certificate{
		Student: models.CertificateStudent{WalletAddress: "0xAAAA000000000000000000000000000000000001"},
		Course:  models.CertificateCourse{Title: "IELTS Writing"},
		Issuer:  models.CertificateIssuer{WalletAddress: "0xBBBB000000000000000000000000000000000002"},
	}
	chain := &ledger.Record{
		StudentAddress: strings.ToLower(row.Student.WalletAddress),
		IssuerAddress:  row.Issuer.WalletAddress,
		CourseName:     "IELTS Writing",
	}
	doc := &CertificateDocument{
		Student: DocStudent{WalletAddress: row.Student.WalletAddress},
		Course:  DocCourse{Title: "IELTS Writing"},
		Issuer:  DocIssuer{WalletAddress: row.Issuer.WalletAddress},
	}

	badIssuer := *chain
	badIssuer.IssuerAddress = "0xCCCC000000000000000000000000000000000003"
	badDoc := *doc
	badDoc.Course.Title = "Something else"

	tests := []struct {
		name  string
		row   *models.Certificate
		chain *ledger.Record
		doc   *CertificateDocument
		want  bool
	}{
		{name: "all agree, case-insensitive addresses", row: row, chain: chain, doc: doc, want: true},
		{name: "no pinned document", row: row, chain: chain, want: true},
		{name: "chain issuer differs", row: row, chain: &badIssuer, doc: doc},
		{name: "document course differs", row: row, chain: chain, doc: &badDoc},
		{name: "missing chain record", row: row, doc: doc},
		{name: "missing row", chain: chain, doc: doc},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCertificateConsistent(tc.row, tc.chain, tc.doc); got != tc.want {
				t.Fatalf("IsCertificateConsistent = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIssueCertificate(t *testing.T) {
	_, led, pin := installFakes(t)
	student := seedStudent(t, studentWallet)
	course := seedCourse(t, 0)

	cert, err := IssueCertificate(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if !strings.HasPrefix(cert.CertificateCode, "CERT-") {
		t.Fatalf("code = %q", cert.CertificateCode)
	}
	if len(led.issued) != 1 || led.issued[0].MetadataURI != "ipfs://"+cert.IPFS.MetadataCID {
		t.Fatalf("ledger calls = %+v", led.issued)
	}
	if led.issued[0].StudentAddress != studentWallet || led.issued[0].CourseName != course.Title {
		t.Fatalf("ledger params = %+v", led.issued[0])
	}
	if cert.IPFS.MetadataURI != "https://gw.test/ipfs/"+cert.IPFS.MetadataCID {
		t.Fatalf("metadata uri = %q", cert.IPFS.MetadataURI)
	}
	if kv := pin.keyvalues[cert.IPFS.MetadataCID]; kv["certificateHash"] != cert.Blockchain.CertificateHash {
		t.Fatalf("pin keyvalues = %v", kv)
	}
	if cert.Blockchain.Network != ledger.Network || cert.Blockchain.TransactionHash == "" {
		t.Fatalf("blockchain = %+v", cert.Blockchain)
	}

	var stored models.Certificate
	if err := database.DB.First(&stored, "certificate_code = ?", cert.CertificateCode).Error; err != nil {
		t.Fatalf("certificate row missing: %v", err)
	}
}

func TestIssueCertificateWithPDF(t *testing.T) {
	_, _, pin := installFakes(t)
	CertificatePDF = fakePDF{}
	student := seedStudent(t, studentWallet)
	course := seedCourse(t, 0)

	cert, err := IssueCertificate(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if cert.IPFS.FileCID == "" || string(pin.docs[cert.IPFS.FileCID]) != "%PDF-1.4" {
		t.Fatalf("file cid = %q", cert.IPFS.FileCID)
	}

	CertificatePDF = fakePDF{err: errors.New("chrome missing")}
	cert, err = IssueCertificate(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("render failure should not fail issuance: %v", err)
	}
	if cert.IPFS.FileCID != "" {
		t.Fatalf("file cid = %q, want empty", cert.IPFS.FileCID)
	}
}

func TestIssueCertificateRejects(t *testing.T) {
	_, led, pin := installFakes(t)
	noWallet := seedStudent(t, "")
	withWallet := seedStudent(t, studentWallet)
	course := seedCourse(t, 0)

	tests := []struct {
		name      string
		student   uuid.UUID
		course    uuid.UUID
		want      error
		ledgerErr error
		// pins expected; a ledger failure leaves one unannotated pin behind
		wantPins int
	}{
		{name: "missing ids", student: uuid.Nil, course: course.ID, want: ErrMissingIDs},
		{name: "unknown student", student: uuid.New(), course: course.ID, want: ErrStudentNotFound},
		{name: "no wallet", student: noWallet.ID, course: course.ID, want: ErrInvalidWallet},
		{name: "unknown course", student: withWallet.ID, course: uuid.New(), want: ErrCourseNotFound},
		{name: "ledger failure", student: withWallet.ID, course: course.ID, ledgerErr: errors.New("reverted"), wantPins: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			led.err = tc.ledgerErr
			pin.pinned, pin.patched = 0, 0
			_, err := IssueCertificate(context.Background(), tc.student, tc.course)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if pin.pinned != tc.wantPins || pin.patched != 0 {
				t.Fatalf("pinned = %d, patched = %d; want %d pinned, 0 patched", pin.pinned, pin.patched, tc.wantPins)
			}
		})
	}

	var count int64
	database.DB.Model(&models.Certificate{}).Count(&count)
	if count != 0 {
		t.Fatalf("certificates stored = %d, want 0", count)
	}
}

func TestVerifyCertificateByHash(t *testing.T) {
	_, led, _ := installFakes(t)
	student := seedStudent(t, studentWallet)
	course := seedCourse(t, 0)
	cert, err := IssueCertificate(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	hash := cert.Blockchain.CertificateHash

	v := VerifyCertificateByHash(context.Background(), hash)
	if v.Certificate == nil || v.Chain == nil || v.Document == nil {
		t.Fatalf("verification missing parts: %+v", v)
	}
	if !v.Consistent {
		t.Fatal("freshly issued certificate should be consistent")
	}

	led.records[hash].IssuerAddress = "0x9999999999999999999999999999999999999999"
	if v := VerifyCertificateByHash(context.Background(), hash); v.Consistent {
		t.Fatal("tampered issuer should be inconsistent")
	}

	unknown := VerifyCertificateByHash(context.Background(), "0x"+strings.Repeat("f", 64))
	if unknown.Certificate != nil || unknown.Chain != nil || unknown.Consistent {
		t.Fatalf("unknown hash = %+v", unknown)
	}
}

func TestStudentCertificatesFallsBackToPins(t *testing.T) {
	_, _, pin := installFakes(t)
	doc := CertificateDocument{
		CertCode: "CERT-260101-ABC123",
		Student:  DocStudent{ID: uuid.NewString(), WalletAddress: studentWallet, Name: "Lan"},
		Course:   DocCourse{ID: uuid.NewString(), Title: "TOEIC Foundations"},
		Issuer:   DocIssuer{WalletAddress: "0x1111111111111111111111111111111111111111", Name: "StudyHub"},
	}
	res, err := pin.PinJSON(context.Background(), doc, pinning.PinMetadata{})
	if err != nil {
		t.Fatalf("pin: %v", err)
	}
	pin.rows = []pinning.PinRow{{CID: res.CID, Gateway: res.Gateway, DatePinned: "2026-01-01T10:00:00Z"}}

	certs, source, err := StudentCertificates(context.Background(), studentWallet)
	if err != nil {
		t.Fatalf("StudentCertificates: %v", err)
	}
	if source != "pinata" || len(certs) != 1 || certs[0].CertificateCode != doc.CertCode {
		t.Fatalf("source=%s certs=%+v", source, certs)
	}
	if certs[0].Blockchain.Network != ledger.Network {
		t.Fatalf("network = %q", certs[0].Blockchain.Network)
	}

	student := seedStudent(t, studentWallet)
	course := seedCourse(t, 0)
	if _, err := IssueCertificate(context.Background(), student.ID, course.ID); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	certs, source, err = StudentCertificates(context.Background(), strings.ToLower(studentWallet))
	if err != nil || source != "database" || len(certs) != 1 {
		t.Fatalf("source=%s certs=%d err=%v", source, len(certs), err)
	}
}
