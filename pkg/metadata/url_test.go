package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentURI(t *testing.T) {
	cases := []struct {
		name       string
		uri        ContentURI
		normalized ContentURI
		kind       Kind
		id         string
	}{
		{"ipfs scheme", "ipfs://Qm123", "ipfs://Qm123", KindIPFS, "Qm123"},
		{"ipfs with path", "ipfs://QmDir/1.json", "ipfs://QmDir/1.json", KindIPFS, "QmDir/1.json"},
		{"doubled ipfs segment", "ipfs://ipfs/Qm123", "ipfs://Qm123", KindIPFS, "Qm123"},
		{"public gateway", "https://ipfs.io/ipfs/Qm123", "ipfs://Qm123", KindIPFS, "Qm123"},
		{"plain http gateway", "http://gateway.pinata.cloud/ipfs/Qm123", "ipfs://Qm123", KindIPFS, "Qm123"},
		{"bare cid", "QmWA4NVxvNCMqp452tLgCyK3DsCrGSu6uecQzVJbD2N8FA", "ipfs://QmWA4NVxvNCMqp452tLgCyK3DsCrGSu6uecQzVJbD2N8FA", KindIPFS, "QmWA4NVxvNCMqp452tLgCyK3DsCrGSu6uecQzVJbD2N8FA"},
		{"direct http", "https://example.com/token/1", "https://example.com/token/1", KindHTTP, ""},
		{"arweave", "ar://abc", "https://arweave.net/abc", KindHTTP, ""},
		{"data", "data:application/json;base64,e30=", "data:application/json;base64,e30=", KindData, ""},
		{"unknown", "/placeholder.png", "/placeholder.png", KindUnknown, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			normalized := tc.uri.Normalize()
			assert.Equal(t, tc.normalized, normalized)
			assert.Equal(t, normalized, normalized.Normalize(), "normalize must be idempotent")
			assert.Equal(t, tc.kind, tc.uri.Kind())
			assert.Equal(t, tc.id, tc.uri.ContentID())
		})
	}
}

func TestGatewayURL(t *testing.T) {
	assert.Equal(t, "https://ipfs.io/ipfs/Qm1", ContentURI("ipfs://Qm1").GatewayURL("https://ipfs.io/ipfs/"))
	assert.Equal(t, "https://example.com/a.png", ContentURI("https://example.com/a.png").GatewayURL("https://ipfs.io/ipfs/"))
}
