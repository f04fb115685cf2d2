package pinning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPinJSON(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pinning/pinJSONToIPFS" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-1" {
			t.Errorf("authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"IpfsHash":"bafytest","PinSize":10}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "https://gw.example", "jwt-1")
	res, err := c.PinJSON(context.Background(), map[string]string{"a": "b"}, PinMetadata{Name: CertificateMetadataName})
	if err != nil {
		t.Fatalf("PinJSON: %v", err)
	}
	if res.CID != "bafytest" || res.URI != "ipfs://bafytest" || res.Gateway != "https://gw.example/ipfs/bafytest" {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(string(body["pinataMetadata"]), CertificateMetadataName) {
		t.Fatalf("metadata = %s", body["pinataMetadata"])
	}
}

func TestPinFileIsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "cert.pdf" || string(data) != "%PDF" {
			t.Errorf("file = %s %q", hdr.Filename, data)
		}
		_, _ = w.Write([]byte(`{"IpfsHash":"bafyfile"}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "https://gw", "").PinFile(context.Background(), "cert.pdf", []byte("%PDF"), PinMetadata{})
	if err != nil {
		t.Fatalf("PinFile: %v", err)
	}
	if res.CID != "bafyfile" {
		t.Fatalf("cid = %s", res.CID)
	}
}

func TestSearchEncodesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("metadata[name]") != CertificateMetadataName {
			t.Errorf("name filter = %q", q.Get("metadata[name]"))
		}
		if !strings.Contains(q.Get("metadata[keyvalues]"), `"studentWalletAddress"`) {
			t.Errorf("keyvalues = %q", q.Get("metadata[keyvalues]"))
		}
		_, _ = w.Write([]byte(`{"count":1,"rows":[{"ipfs_pin_hash":"bafyrow","size":12,"metadata":{"name":"studyhub-certificate.json","keyvalues":{"certificateCode":"CERT-1"}}}]}`))
	}))
	defer srv.Close()

	rows, err := NewClient(srv.URL, "https://gw", "").Search(context.Background(),
		map[string]Filter{"studentWalletAddress": {Value: "0xabc", Op: "eq"}}, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || rows[0].CID != "bafyrow" || rows[0].Metadata.KeyValues["certificateCode"] != "CERT-1" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestFetchJSONNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var out map[string]interface{}
	err := NewClient("https://api", srv.URL, "").FetchJSON(context.Background(), "ipfs://bafymissing", &out)
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
