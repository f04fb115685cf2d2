// Package ledger is the client for the on-chain CertificateRegistry contract.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/anjiri1684/studyhub/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const Network = "Sepolia"

const registryABI = `[
  {"type":"function","name":"issueCertificate","stateMutability":"nonpayable",
   "inputs":[
     {"name":"student","type":"address"},
     {"name":"studentName","type":"string"},
     {"name":"issuerAddress","type":"address"},
     {"name":"issuerName","type":"string"},
     {"name":"courseName","type":"string"},
     {"name":"courseType","type":"string"},
     {"name":"courseLevel","type":"string"},
     {"name":"metadataURI","type":"string"}],
   "outputs":[{"name":"certHash","type":"bytes32"}]},
  {"type":"function","name":"getCertificateByHash","stateMutability":"view",
   "inputs":[{"name":"certHash","type":"bytes32"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"certHash","type":"bytes32"},
     {"name":"issuerAddress","type":"address"},
     {"name":"issuerName","type":"string"},
     {"name":"studentAddress","type":"address"},
     {"name":"studentName","type":"string"},
     {"name":"courseName","type":"string"},
     {"name":"issuedDate","type":"uint256"},
     {"name":"metadataURI","type":"string"}]}]},
  {"type":"function","name":"getStudentCertificatesByStudent","stateMutability":"view",
   "inputs":[{"name":"student","type":"address"}],
   "outputs":[
     {"name":"certificates","type":"tuple[]","components":[
       {"name":"certHash","type":"bytes32"},
       {"name":"issuerAddress","type":"address"},
       {"name":"issuerName","type":"string"},
       {"name":"studentAddress","type":"address"},
       {"name":"studentName","type":"string"},
       {"name":"courseName","type":"string"},
       {"name":"issuedDate","type":"uint256"},
       {"name":"metadataURI","type":"string"}]},
     {"name":"total","type":"uint256"}]},
  {"type":"event","name":"CertificateIssued","anonymous":false,
   "inputs":[
     {"name":"certHash","type":"bytes32","indexed":true},
     {"name":"student","type":"address","indexed":true},
     {"name":"issuerAddress","type":"address","indexed":true},
     {"name":"courseName","type":"string","indexed":false},
     {"name":"metadataURI","type":"string","indexed":false}]}
]`

var (
	ErrNotFound     = errors.New("certificate not found on chain")
	ErrNoIssueEvent = errors.New("CertificateIssued event missing from receipt")

	walletPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	hashPattern   = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
)

func IsWalletAddress(s string) bool { return walletPattern.MatchString(s) }

func IsCertHash(s string) bool { return hashPattern.MatchString(s) }

// Certificate mirrors the contract's struct; field order matters for ConvertType.
type Certificate struct {
	CertHash       [32]byte
	IssuerAddress  common.Address
	IssuerName     string
	StudentAddress common.Address
	StudentName    string
	CourseName     string
	IssuedDate     *big.Int
	MetadataURI    string
}

// Record is the JSON view of an on-chain certificate.
type Record struct {
	CertHash       string    `json:"certHash"`
	IssuerAddress  string    `json:"issuerAddress"`
	IssuerName     string    `json:"issuerName"`
	StudentAddress string    `json:"studentAddress"`
	StudentName    string    `json:"studentName"`
	CourseName     string    `json:"courseName"`
	IssuedDate     time.Time `json:"issuedDate"`
	MetadataURI    string    `json:"metadataURI"`
}

func (c Certificate) Record() Record {
	r := Record{
		CertHash:       common.BytesToHash(c.CertHash[:]).Hex(),
		IssuerAddress:  c.IssuerAddress.Hex(),
		IssuerName:     c.IssuerName,
		StudentAddress: c.StudentAddress.Hex(),
		StudentName:    c.StudentName,
		CourseName:     c.CourseName,
		MetadataURI:    c.MetadataURI,
	}
	if c.IssuedDate != nil {
		r.IssuedDate = time.Unix(c.IssuedDate.Int64(), 0).UTC()
	}
	return r
}

type IssueParams struct {
	StudentAddress string
	StudentName    string
	IssuerAddress  string
	IssuerName     string
	CourseName     string
	CourseType     string
	CourseLevel    string
	MetadataURI    string
}

type IssueResult struct {
	CertHash string
	TxHash   string
}

type Registry struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	parsed   abi.ABI
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	log      *logger.Logger
}

func parsedABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}

// Dial connects to rpcURL and binds the registry at contractAddress, signing
// with privateKeyHex.
func Dial(ctx context.Context, rpcURL, contractAddress, privateKeyHex string) (*Registry, error) {
	if !IsWalletAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("chain id: %w", err)
	}

	parsed, err := parsedABI()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}

	return &Registry{
		client:   client,
		contract: bind.NewBoundContract(common.HexToAddress(contractAddress), parsed, client, client, client),
		parsed:   parsed,
		key:      key,
		chainID:  chainID,
		log:      logger.Log.With("service", "CertificateRegistry"),
	}, nil
}

func (r *Registry) Close() {
	r.client.Close()
}

// IssueCertificate sends the transaction, waits for it to be mined and reads
// the certificate hash from the CertificateIssued event.
func (r *Registry) IssueCertificate(ctx context.Context, p IssueParams) (IssueResult, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(r.key, r.chainID)
	if err != nil {
		return IssueResult{}, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := r.contract.Transact(opts, "issueCertificate",
		common.HexToAddress(p.StudentAddress),
		p.StudentName,
		common.HexToAddress(p.IssuerAddress),
		p.IssuerName,
		p.CourseName,
		p.CourseType,
		p.CourseLevel,
		p.MetadataURI,
	)
	if err != nil {
		return IssueResult{}, fmt.Errorf("issueCertificate: %w", err)
	}
	r.log.Info("certificate transaction sent", "tx_hash", tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, r.client, tx)
	if err != nil {
		return IssueResult{TxHash: tx.Hash().Hex()}, fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return IssueResult{TxHash: tx.Hash().Hex()}, fmt.Errorf("issueCertificate reverted in tx %s", tx.Hash().Hex())
	}

	certHash, err := certHashFromLogs(r.parsed, receipt.Logs)
	if err != nil {
		return IssueResult{TxHash: tx.Hash().Hex()}, err
	}
	return IssueResult{CertHash: certHash, TxHash: tx.Hash().Hex()}, nil
}

func certHashFromLogs(parsed abi.ABI, logs []*types.Log) (string, error) {
	event, ok := parsed.Events["CertificateIssued"]
	if !ok {
		return "", ErrNoIssueEvent
	}
	for _, l := range logs {
		if l == nil || len(l.Topics) < 2 || l.Topics[0] != event.ID {
			continue
		}
		return l.Topics[1].Hex(), nil
	}
	return "", ErrNoIssueEvent
}

func (r *Registry) CertificateByHash(ctx context.Context, hash string) (*Record, error) {
	if !IsCertHash(hash) {
		return nil, fmt.Errorf("invalid certificate hash %q", hash)
	}
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCertificateByHash", common.HexToHash(hash)); err != nil {
		return nil, fmt.Errorf("getCertificateByHash: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	cert := *abi.ConvertType(out[0], new(Certificate)).(*Certificate)
	if cert.CertHash == ([32]byte{}) {
		return nil, ErrNotFound
	}
	rec := cert.Record()
	return &rec, nil
}

func (r *Registry) CertificatesByStudent(ctx context.Context, address string) ([]Record, error) {
	if !IsWalletAddress(address) {
		return nil, fmt.Errorf("invalid wallet address %q", address)
	}
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getStudentCertificatesByStudent", common.HexToAddress(address)); err != nil {
		return nil, fmt.Errorf("getStudentCertificatesByStudent: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	certs := *abi.ConvertType(out[0], new([]Certificate)).(*[]Certificate)
	records := make([]Record, 0, len(certs))
	for _, c := range certs {
		records = append(records, c.Record())
	}
	return records, nil
}
