// Package pinning stores certificate metadata and files on IPFS through the
// Pinata pinning API and reads them back through a gateway.
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
)

// CertificateMetadataName is the pin name every certificate document carries;
// searches filter on it.
const CertificateMetadataName = "studyhub-certificate.json"

var ErrNotFound = errors.New("pin not found")

type PinResult struct {
	CID     string `json:"cid"`
	URI     string `json:"uri"`
	Gateway string `json:"gateway"`
}

type PinMetadata struct {
	Name      string                 `json:"name,omitempty"`
	KeyValues map[string]interface{} `json:"keyvalues,omitempty"`
}

// Filter is one pinList keyvalue condition, e.g. {Value: "0xabc", Op: "eq"}.
type Filter struct {
	Value interface{} `json:"value"`
	Op    string      `json:"op"`
}

type PinRow struct {
	CID          string      `json:"cid"`
	URI          string      `json:"uri"`
	Gateway      string      `json:"gateway"`
	Metadata     PinMetadata `json:"metadata"`
	Size         int64       `json:"size"`
	DatePinned   string      `json:"date_pinned"`
	DateUnpinned *string     `json:"date_unpinned"`
}

type Client struct {
	APIURL     string
	GatewayURL string
	JWT        string
	HTTPClient *http.Client
}

func NewClient(apiURL, gatewayURL, jwt string) *Client {
	return &Client{
		APIURL:     strings.TrimRight(apiURL, "/"),
		GatewayURL: strings.TrimRight(gatewayURL, "/"),
		JWT:        jwt,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func NewFromConfig() *Client {
	return NewClient(
		config.ConfigOrDefault("PINATA_API_URL", "https://api.pinata.cloud"),
		config.ConfigOrDefault("PINATA_GATEWAY_BASE", "https://gateway.pinata.cloud"),
		config.Config("PINATA_JWT"),
	)
}

func CIDFromURI(uri string) string {
	return strings.TrimPrefix(uri, "ipfs://")
}

func (c *Client) GatewayURLFor(uriOrCID string) string {
	return fmt.Sprintf("%s/ipfs/%s", c.GatewayURL, CIDFromURI(uriOrCID))
}

func (c *Client) result(cid string) PinResult {
	return PinResult{CID: cid, URI: "ipfs://" + cid, Gateway: c.GatewayURLFor(cid)}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func (c *Client) PinJSON(ctx context.Context, content interface{}, meta PinMetadata) (PinResult, error) {
	body := map[string]interface{}{
		"pinataContent":  content,
		"pinataMetadata": meta,
		"pinataOptions":  map[string]int{"cidVersion": 1},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return PinResult{}, err
	}

	var out pinResponse
	if err := c.do(ctx, http.MethodPost, c.APIURL+"/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(raw), &out); err != nil {
		return PinResult{}, err
	}
	return c.result(out.IpfsHash), nil
}

func (c *Client) PinFile(ctx context.Context, filename string, data []byte, meta PinMetadata) (PinResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return PinResult{}, err
	}
	if _, err := part.Write(data); err != nil {
		return PinResult{}, err
	}
	if meta.Name == "" {
		meta.Name = filename
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return PinResult{}, err
	}
	if err := w.WriteField("pinataMetadata", string(metaJSON)); err != nil {
		return PinResult{}, err
	}
	if err := w.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return PinResult{}, err
	}
	if err := w.Close(); err != nil {
		return PinResult{}, err
	}

	var out pinResponse
	if err := c.do(ctx, http.MethodPost, c.APIURL+"/pinning/pinFileToIPFS", w.FormDataContentType(), &buf, &out); err != nil {
		return PinResult{}, err
	}
	return c.result(out.IpfsHash), nil
}

// UpdateKeyValues replaces the keyvalues of an existing pin. The CID is unchanged.
func (c *Client) UpdateKeyValues(ctx context.Context, cid string, keyvalues map[string]interface{}) error {
	raw, err := json.Marshal(map[string]interface{}{
		"ipfsPinHash": cid,
		"keyvalues":   keyvalues,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, c.APIURL+"/pinning/hashMetadata", "application/json", bytes.NewReader(raw), nil)
}

// Search lists pinned certificate documents matching every filter.
func (c *Client) Search(ctx context.Context, filters map[string]Filter, limit, offset int) ([]PinRow, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("status", "pinned")
	q.Set("pageLimit", strconv.Itoa(limit))
	q.Set("pageOffset", strconv.Itoa(offset))
	q.Set("metadata[name]", CertificateMetadataName)
	if len(filters) > 0 {
		raw, err := json.Marshal(filters)
		if err != nil {
			return nil, err
		}
		q.Set("metadata[keyvalues]", string(raw))
	}

	var out struct {
		Count int `json:"count"`
		Rows  []struct {
			IpfsPinHash  string      `json:"ipfs_pin_hash"`
			Size         int64       `json:"size"`
			DatePinned   string      `json:"date_pinned"`
			DateUnpinned *string     `json:"date_unpinned"`
			Metadata     PinMetadata `json:"metadata"`
		} `json:"rows"`
	}
	if err := c.do(ctx, http.MethodGet, c.APIURL+"/data/pinList?"+q.Encode(), "", nil, &out); err != nil {
		return nil, err
	}

	rows := make([]PinRow, 0, len(out.Rows))
	for _, r := range out.Rows {
		res := c.result(r.IpfsPinHash)
		rows = append(rows, PinRow{
			CID:          res.CID,
			URI:          res.URI,
			Gateway:      res.Gateway,
			Metadata:     r.Metadata,
			Size:         r.Size,
			DatePinned:   r.DatePinned,
			DateUnpinned: r.DateUnpinned,
		})
	}
	return rows, nil
}

// FetchJSON reads a pinned document through the gateway into out.
func (c *Client) FetchJSON(ctx context.Context, uriOrCID string, out interface{}) error {
	if CIDFromURI(uriOrCID) == "" {
		return ErrNotFound
	}
	return c.do(ctx, http.MethodGet, c.GatewayURLFor(uriOrCID), "", nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.JWT != "" && strings.HasPrefix(endpoint, c.APIURL) {
		req.Header.Set("Authorization", "Bearer "+c.JWT)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s returned %d: %s", method, req.URL.Path, resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
