package models

import (
	"time"

	"github.com/google/uuid"
)

type CertificateStudent struct {
	ID            uuid.UUID `gorm:"type:uuid;index" json:"id"`
	Name          string    `gorm:"size:255" json:"name"`
	WalletAddress string    `gorm:"size:42;index" json:"walletAddress"`
}

type CertificateCourse struct {
	ID    uuid.UUID `gorm:"type:uuid;index" json:"id"`
	Title string    `gorm:"size:255" json:"title"`
	Type  string    `gorm:"size:20" json:"type"`
	Level string    `gorm:"size:50" json:"level"`
}

type CertificateIssuer struct {
	WalletAddress string `gorm:"size:42" json:"walletAddress"`
	Name          string `gorm:"size:255" json:"name"`
}

type CertificateValidity struct {
	IssueDate  time.Time  `json:"issueDate"`
	ExpireDate *time.Time `json:"expireDate"`
	IsRevoked  bool       `gorm:"not null;default:false" json:"isRevoked"`
}

type CertificateBlockchain struct {
	TransactionHash string `gorm:"size:66" json:"transactionHash"`
	CertificateHash string `gorm:"size:66;index" json:"certificateHash"`
	Network         string `gorm:"size:30" json:"network"`
}

type CertificateIPFS struct {
	MetadataURI string `gorm:"type:text" json:"metadataURI"`
	MetadataCID string `gorm:"size:100" json:"metadataCID"`
	FileCID     string `gorm:"size:100" json:"fileCID"`
}

type Certificate struct {
	Base
	CertificateCode string                `gorm:"size:32;not null;uniqueIndex" json:"certificateCode"`
	Student         CertificateStudent    `gorm:"embedded;embeddedPrefix:student_" json:"student"`
	Course          CertificateCourse     `gorm:"embedded;embeddedPrefix:course_" json:"course"`
	Issuer          CertificateIssuer     `gorm:"embedded;embeddedPrefix:issuer_" json:"issuer"`
	Validity        CertificateValidity   `gorm:"embedded;embeddedPrefix:validity_" json:"validity"`
	Blockchain      CertificateBlockchain `gorm:"embedded;embeddedPrefix:blockchain_" json:"blockchain"`
	IPFS            CertificateIPFS       `gorm:"embedded;embeddedPrefix:ipfs_" json:"ipfs"`
}
