package metadata

import (
	"fmt"
	"strings"
)

// ContentURI references token metadata or media either by location
// (http, https, data) or by content id (ipfs).
type ContentURI string

type Kind int

const (
	KindUnknown Kind = iota
	KindHTTP
	KindIPFS
	KindData
)

const ipfsScheme = "ipfs://"

func (k Kind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindIPFS:
		return "ipfs"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

// Normalize folds public gateway URLs, doubled "ipfs/" segments and bare CIDs
// into "ipfs://<id>" and rewrites "ar://" into its arweave.net URL. Applying it
// twice gives the same result as applying it once.
func (u ContentURI) Normalize() ContentURI {
	uri := strings.TrimSpace(string(u))
	uri = StripIPFSGateway(uri)
	uri = StripArweaveGateway(uri)

	if strings.HasPrefix(uri, ipfsScheme) {
		id := strings.TrimPrefix(uri, ipfsScheme)
		for strings.HasPrefix(id, "ipfs/") {
			id = strings.TrimPrefix(id, "ipfs/")
		}
		return ContentURI(ipfsScheme + id)
	}

	if isBareCID(uri) {
		return ContentURI(ipfsScheme + uri)
	}

	return ContentURI(uri)
}

func (u ContentURI) Kind() Kind {
	uri := string(u.Normalize())
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return KindHTTP
	case strings.HasPrefix(uri, ipfsScheme):
		return KindIPFS
	case strings.HasPrefix(uri, "data:"):
		return KindData
	default:
		return KindUnknown
	}
}

// ContentID returns the id part of an ipfs uri, empty string for other kinds.
func (u ContentURI) ContentID() string {
	uri := u.Normalize()
	if uri.Kind() != KindIPFS {
		return ""
	}
	return strings.TrimPrefix(string(uri), ipfsScheme)
}

// GatewayURL returns the http address of the uri on the given gateway. Non-ipfs
// uris are returned unchanged.
func (u ContentURI) GatewayURL(gateway string) string {
	return StripIPFSProtocol(string(u.Normalize()), strings.TrimSuffix(gateway, "/"))
}

func (u ContentURI) String() string {
	return string(u)
}

func isBareCID(s string) bool {
	// CIDv0 is base58 sha256 multihash, CIDv1 defaults to base32 "bafy"/"bafk"
	if len(s) == 46 && strings.HasPrefix(s, "Qm") {
		return !strings.ContainsAny(s, "/:.")
	}
	if len(s) > 50 && (strings.HasPrefix(s, "bafy") || strings.HasPrefix(s, "bafk")) {
		return !strings.ContainsAny(s[:50], "/:.")
	}
	return false
}

// StripIPFSProtocol - strips IPFS URL protocol and returns URL in HTTP format with given gateway
func StripIPFSProtocol(imageSrc string, ipfsGateway string) string {
	if strings.HasPrefix(imageSrc, ipfsScheme) {
		return fmt.Sprintf("%s/%s", ipfsGateway, strings.TrimPrefix(imageSrc, ipfsScheme))
	}
	return imageSrc
}

// StripArweaveGateway - strips Arweave URL protocol and returns URL in HTTP format
func StripArweaveGateway(imageSrc string) string {
	if strings.HasPrefix(imageSrc, "ar://") {
		return fmt.Sprintf("%s/%s", "https://arweave.net", strings.TrimPrefix(imageSrc, "ar://"))
	}
	return imageSrc
}

var publicIpfsGateways = []string{
	"https://ipfs.io/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
	"https://gateway.ipfs.io/ipfs/",
	"https://dweb.link/ipfs/",
	"https://hardbin.com/ipfs/",
	"https://ipfs.fleek.co/ipfs/",
	"https://jorropo.net/ipfs/",
	"https://ipfs.eth.aragon.network/ipfs/",
	"https://storry.tv/ipfs/",
	"https://ipfs.telos.miami/ipfs/",
	"https://via0.com/ipfs/",
	"https://ipfs.infura.io/ipfs/",
	"https://infura-ipfs.io/ipfs/",
	"https://ipfs.mihir.ch/ipfs/",
	"https://nftstorage.link/ipfs/",
	"https://cf-ipfs.com/ipfs/",
	"https://ipfs.azurewebsites.net/ipfs/",
	"https://permaweb.eu.org/ipfs/",
}

// StripIPFSGateway - strips public IPFS gateways URLs, and returns URL in IPFS protocol format
func StripIPFSGateway(uri string) string {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return uri
	}

	sourceURL := uri
	if strings.HasPrefix(uri, "http://") {
		sourceURL = "https://" + strings.TrimPrefix(uri, "http://")
	}

	for _, gateway := range publicIpfsGateways {
		if strings.HasPrefix(sourceURL, gateway) {
			return ipfsScheme + strings.TrimPrefix(sourceURL, gateway)
		}
	}

	return uri
}
