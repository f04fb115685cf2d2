package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/ledger"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/pinning"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	issuerName         = "StudyHub"
	certificateDocType = "studyhub-certificate"
)

type DocStudent struct {
	ID            string `json:"id"`
	WalletAddress string `json:"walletAddress"`
	Name          string `json:"name"`
}

type DocCourse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
	Level string `json:"level,omitempty"`
}

type DocIssuer struct {
	WalletAddress string `json:"walletAddress"`
	Name          string `json:"name"`
}

type DocValidity struct {
	IssueDate  time.Time  `json:"issueDate"`
	ExpireDate *time.Time `json:"expireDate"`
	IsRevoked  bool       `json:"isRevoked"`
}

type DocBlockchain struct {
	Network string `json:"network"`
}

// CertificateDocument is the JSON pinned to IPFS for every issued certificate.
type CertificateDocument struct {
	Version    string        `json:"version"`
	Type       string        `json:"type"`
	CertCode   string        `json:"certCode"`
	Student    DocStudent    `json:"student"`
	Course     DocCourse     `json:"course"`
	Issuer     DocIssuer     `json:"issuer"`
	Validity   DocValidity   `json:"validity"`
	Blockchain DocBlockchain `json:"blockchain"`
}

// GenerateCertificateCode returns CERT-YYMMDD-XXXXXX where the suffix comes
// from a salted sha256 of the student and course ids.
func GenerateCertificateCode(issueDate time.Time, studentID, courseID string) string {
	salt, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		salt = big.NewInt(time.Now().UnixNano())
	}
	raw := fmt.Sprintf("%s-%s-%d-%s", studentID, courseID, time.Now().UnixNano(), salt.String())
	sum := sha256.Sum256([]byte(raw))

	prefix, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:12], 16, 64)
	encoded := strings.ToUpper(strconv.FormatUint(prefix, 36))
	if len(encoded) > 6 {
		encoded = encoded[:6]
	}
	return fmt.Sprintf("CERT-%s-%s", issueDate.UTC().Format("060102"), encoded)
}

func BuildCertificateDocument(code string, student *models.User, course *models.Course, issuer DocIssuer, issueDate time.Time) CertificateDocument {
	return CertificateDocument{
		Version:  "1.0",
		Type:     certificateDocType,
		CertCode: code,
		Student: DocStudent{
			ID:            student.ID.String(),
			WalletAddress: student.Wallet(),
			Name:          student.FullName,
		},
		Course: DocCourse{
			ID:    course.ID.String(),
			Title: course.Title,
			Type:  course.CourseType,
			Level: course.CourseLevel,
		},
		Issuer:     issuer,
		Validity:   DocValidity{IssueDate: issueDate},
		Blockchain: DocBlockchain{Network: ledger.Network},
	}
}

func defaultIssuer() DocIssuer {
	return DocIssuer{WalletAddress: config.Config("ADMIN_ADDRESS"), Name: issuerName}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// IssueCertificate pins the certificate document, registers it on chain,
// annotates the pin with the chain result and stores the row. The steps are
// not atomic; a ledger failure leaves an orphaned pin whose cid is logged.
func IssueCertificate(ctx context.Context, studentID, courseID uuid.UUID) (*models.Certificate, error) {
	if studentID == uuid.Nil || courseID == uuid.Nil {
		return nil, ErrMissingIDs
	}
	if PinningClient == nil || LedgerClient == nil {
		return nil, ErrNotConfigured
	}

	var student models.User
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, studentID)
		}
		return nil, err
	}
	if !ledger.IsWalletAddress(student.Wallet()) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWallet, student.Wallet())
	}
	var course models.Course
	if err := database.DB.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, courseID)
		}
		return nil, err
	}

	log := logger.Log.With("student_id", studentID.String(), "course_id", courseID.String())
	issueDate := time.Now().UTC()
	code := GenerateCertificateCode(issueDate, studentID.String(), courseID.String())
	issuer := defaultIssuer()
	doc := BuildCertificateDocument(code, &student, &course, issuer, issueDate)

	pin, err := PinningClient.PinJSON(ctx, doc, pinning.PinMetadata{
		Name: pinning.CertificateMetadataName,
		KeyValues: map[string]interface{}{
			"type":                 certificateDocType,
			"studentWalletAddress": student.Wallet(),
			"issuerWalletAddress":  issuer.WalletAddress,
			"certificateCode":      code,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pin certificate metadata: %w", err)
	}

	issued, err := LedgerClient.IssueCertificate(ctx, ledger.IssueParams{
		StudentAddress: student.Wallet(),
		StudentName:    student.FullName,
		IssuerAddress:  issuer.WalletAddress,
		IssuerName:     issuer.Name,
		CourseName:     course.Title,
		CourseType:     orDefault(course.CourseType, "General"),
		CourseLevel:    orDefault(course.CourseLevel, "Beginner"),
		MetadataURI:    pin.URI,
	})
	if err != nil {
		log.Error("ledger issuance failed, metadata pinned but unused", "cid", pin.CID, "error", err)
		return nil, fmt.Errorf("blockchain transaction failed: %w", err)
	}

	err = PinningClient.UpdateKeyValues(ctx, pin.CID, map[string]interface{}{
		"certificateHash":      issued.CertHash,
		"transactionHash":      issued.TxHash,
		"studentWalletAddress": student.Wallet(),
		"issuerWalletAddress":  issuer.WalletAddress,
		"network":              ledger.Network,
	})
	if err != nil {
		return nil, fmt.Errorf("annotate pin %s: %w", pin.CID, err)
	}

	fileCID := ""
	if CertificatePDF != nil {
		fileCID = pinCertificatePDF(ctx, doc, log)
	}

	cert := models.Certificate{
		CertificateCode: code,
		Student: models.CertificateStudent{
			ID:            student.ID,
			Name:          student.FullName,
			WalletAddress: student.Wallet(),
		},
		Course: models.CertificateCourse{
			ID:    course.ID,
			Title: course.Title,
			Type:  course.CourseType,
			Level: course.CourseLevel,
		},
		Issuer: models.CertificateIssuer{
			WalletAddress: issuer.WalletAddress,
			Name:          issuer.Name,
		},
		Validity: models.CertificateValidity{IssueDate: issueDate},
		Blockchain: models.CertificateBlockchain{
			TransactionHash: issued.TxHash,
			CertificateHash: issued.CertHash,
			Network:         ledger.Network,
		},
		IPFS: models.CertificateIPFS{
			MetadataURI: PinningClient.GatewayURLFor(pin.URI),
			MetadataCID: pin.CID,
			FileCID:     fileCID,
		},
	}
	if err := database.DB.Create(&cert).Error; err != nil {
		return nil, fmt.Errorf("save certificate: %w", err)
	}

	log.Info("certificate issued", "code", code, "cert_hash", issued.CertHash, "tx_hash", issued.TxHash)
	return &cert, nil
}

func pinCertificatePDF(ctx context.Context, doc CertificateDocument, log *logger.Logger) string {
	pdf, err := CertificatePDF.Render(ctx, doc)
	if err != nil {
		log.Warn("certificate pdf render failed", "code", doc.CertCode, "error", err)
		return ""
	}
	res, err := PinningClient.PinFile(ctx, doc.CertCode+".pdf", pdf, pinning.PinMetadata{
		KeyValues: map[string]interface{}{"certificateCode": doc.CertCode, "type": certificateDocType + "-file"},
	})
	if err != nil {
		log.Warn("certificate pdf pin failed", "code", doc.CertCode, "error", err)
		return ""
	}
	return res.CID
}

func sameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// IsCertificateConsistent compares issuer, student and course across the
// stored row, the chain record and, when available, the pinned document.
func IsCertificateConsistent(row *models.Certificate, chain *ledger.Record, doc *CertificateDocument) bool {
	if row == nil || chain == nil {
		return false
	}
	issuerOK := sameAddress(row.Issuer.WalletAddress, chain.IssuerAddress)
	studentOK := sameAddress(row.Student.WalletAddress, chain.StudentAddress)
	courseOK := row.Course.Title == chain.CourseName
	if doc != nil {
		issuerOK = issuerOK && sameAddress(doc.Issuer.WalletAddress, chain.IssuerAddress)
		studentOK = studentOK && sameAddress(doc.Student.WalletAddress, chain.StudentAddress)
		courseOK = courseOK && doc.Course.Title == chain.CourseName
	}
	return issuerOK && studentOK && courseOK
}

type Verification struct {
	Certificate *models.Certificate
	Chain       *ledger.Record
	Document    *CertificateDocument
	Consistent  bool
}

// VerifyCertificateByHash reads the database row (then its pinned document)
// and the chain record concurrently. Read failures count as missing data.
func VerifyCertificateByHash(ctx context.Context, hash string) Verification {
	var v Verification
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var row models.Certificate
		err := database.DB.WithContext(gctx).Where("blockchain_certificate_hash = ?", hash).Limit(1).Find(&row).Error
		if err != nil || row.ID == uuid.Nil {
			if err != nil {
				logger.Log.Warn("certificate row read failed", "cert_hash", hash, "error", err)
			}
			return nil
		}
		v.Certificate = &row
		v.Document = fetchDocument(gctx, row.IPFS.MetadataCID)
		return nil
	})
	g.Go(func() error {
		v.Chain = readChain(gctx, hash)
		return nil
	})
	_ = g.Wait()

	v.Consistent = IsCertificateConsistent(v.Certificate, v.Chain, v.Document)
	return v
}

// VerifyCertificate checks an already loaded row against chain and pin.
func VerifyCertificate(ctx context.Context, row *models.Certificate) Verification {
	v := Verification{Certificate: row}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v.Chain = readChain(gctx, row.Blockchain.CertificateHash)
		return nil
	})
	g.Go(func() error {
		v.Document = fetchDocument(gctx, row.IPFS.MetadataCID)
		return nil
	})
	_ = g.Wait()

	v.Consistent = IsCertificateConsistent(v.Certificate, v.Chain, v.Document)
	return v
}

func readChain(ctx context.Context, hash string) *ledger.Record {
	if LedgerClient == nil {
		return nil
	}
	rec, err := LedgerClient.CertificateByHash(ctx, hash)
	if err != nil {
		logger.Log.Warn("blockchain read failed", "cert_hash", hash, "error", err)
		return nil
	}
	return rec
}

func fetchDocument(ctx context.Context, cid string) *CertificateDocument {
	if cid == "" || PinningClient == nil {
		return nil
	}
	var doc CertificateDocument
	if err := PinningClient.FetchJSON(ctx, cid, &doc); err != nil {
		logger.Log.Warn("pinned metadata read failed", "cid", cid, "error", err)
		return nil
	}
	return &doc
}

// StudentCertificates lists certificates for a wallet from the database and
// falls back to the pinned documents when the database has none.
func StudentCertificates(ctx context.Context, address string) ([]models.Certificate, string, error) {
	var rows []models.Certificate
	err := database.DB.WithContext(ctx).
		Where("LOWER(student_wallet_address) = ?", strings.ToLower(address)).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		logger.Log.Warn("certificate query failed, falling back to pins", "address", address, "error", err)
	} else if len(rows) > 0 {
		return rows, "database", nil
	}

	if PinningClient == nil {
		return nil, "", ErrNotConfigured
	}
	pins, err := PinningClient.Search(ctx, map[string]pinning.Filter{
		"studentWalletAddress": {Value: address, Op: "eq"},
	}, 100, 0)
	if err != nil {
		return nil, "", fmt.Errorf("search pins: %w", err)
	}

	certs := make([]models.Certificate, len(pins))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pins {
		i, p := i, p
		g.Go(func() error {
			var doc CertificateDocument
			if err := PinningClient.FetchJSON(gctx, p.CID, &doc); err != nil {
				return fmt.Errorf("fetch %s: %w", p.CID, err)
			}
			certs[i] = certificateFromDocument(doc, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return certs, "pinata", nil
}

func certificateFromDocument(doc CertificateDocument, pin pinning.PinRow) models.Certificate {
	studentID, _ := uuid.Parse(doc.Student.ID)
	courseID, _ := uuid.Parse(doc.Course.ID)
	c := models.Certificate{
		CertificateCode: doc.CertCode,
		Student:         models.CertificateStudent{ID: studentID, Name: doc.Student.Name, WalletAddress: doc.Student.WalletAddress},
		Course:          models.CertificateCourse{ID: courseID, Title: doc.Course.Title, Type: doc.Course.Type, Level: doc.Course.Level},
		Issuer:          models.CertificateIssuer{WalletAddress: doc.Issuer.WalletAddress, Name: doc.Issuer.Name},
		Validity: models.CertificateValidity{
			IssueDate:  doc.Validity.IssueDate,
			ExpireDate: doc.Validity.ExpireDate,
			IsRevoked:  doc.Validity.IsRevoked,
		},
		Blockchain: models.CertificateBlockchain{Network: orDefault(doc.Blockchain.Network, ledger.Network)},
		IPFS:       models.CertificateIPFS{MetadataURI: pin.Gateway, MetadataCID: pin.CID},
	}
	if t, err := time.Parse(time.RFC3339, pin.DatePinned); err == nil {
		c.CreatedAt, c.UpdatedAt = t, t
	}
	return c
}

type CertificateSearch struct {
	Student         string
	Issuer          string
	CourseName      string
	StudentName     string
	CertificateCode string
	Limit           int
	Offset          int
}

func SearchCertificates(ctx context.Context, q CertificateSearch) ([]pinning.PinRow, error) {
	if PinningClient == nil {
		return nil, ErrNotConfigured
	}
	filters := map[string]pinning.Filter{}
	if q.Student != "" {
		filters["studentWalletAddress"] = pinning.Filter{Value: q.Student, Op: "eq"}
	}
	if q.Issuer != "" {
		filters["issuerWalletAddress"] = pinning.Filter{Value: q.Issuer, Op: "eq"}
	}
	if q.CourseName != "" {
		filters["courseName"] = pinning.Filter{Value: q.CourseName, Op: "eq"}
	}
	if q.StudentName != "" {
		filters["studentName"] = pinning.Filter{Value: q.StudentName, Op: "eq"}
	}
	if q.CertificateCode != "" {
		filters["certificateCode"] = pinning.Filter{Value: q.CertificateCode, Op: "eq"}
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	return PinningClient.Search(ctx, filters, q.Limit, q.Offset)
}
